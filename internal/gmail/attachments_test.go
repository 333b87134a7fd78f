package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name kept", "quarterly-report.pdf", "quarterly-report.pdf"},
		{"slashes flattened", "invoices/2026/march.pdf", "invoices_2026_march.pdf"},
		{"windows separators flattened", `C:\Users\finance\budget.xlsx`, "C:_Users_finance_budget.xlsx"},
		{"traversal prefix neutralized", `..\..\secret.txt`, "____secret.txt"},
		{"double dots inside a name", "draft..final.txt", "draft_final.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWalkParts(t *testing.T) {
	// A typical message layout: alternative text bodies plus one attachment.
	tree := &gmail.MessagePart{
		PartId:   "root",
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				PartId:   "body",
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{PartId: "body.txt", MimeType: "text/plain"},
					{PartId: "body.html", MimeType: "text/html"},
				},
			},
			{PartId: "scan", MimeType: "image/jpeg"},
		},
	}

	var visited []string
	walkParts(tree, func(p *gmail.MessagePart) { visited = append(visited, p.PartId) })

	want := "root body body.txt body.html scan"
	if got := strings.Join(visited, " "); got != want {
		t.Errorf("walkParts() visited %q, want pre-order %q", got, want)
	}

	visited = nil
	walkParts(nil, func(p *gmail.MessagePart) { visited = append(visited, p.PartId) })
	if len(visited) != 0 {
		t.Errorf("walkParts(nil) visited %d parts, want none", len(visited))
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")

	if got := uniquePath(path); got != path {
		t.Errorf("uniquePath() = %v, want %v for free path", got, path)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "report_1.pdf")
	if got := uniquePath(path); got != want {
		t.Errorf("uniquePath() = %v, want %v", got, want)
	}

	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want = filepath.Join(dir, "report_2.pdf")
	if got := uniquePath(path); got != want {
		t.Errorf("uniquePath() = %v, want %v", got, want)
	}
}

func TestYearFromDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want int
	}{
		{
			name: "RFC 2822 date",
			date: "Mon, 2 Feb 2026 10:00:00 +0000",
			want: 2026,
		},
		{
			name: "year embedded in text",
			date: "sometime in 2024 maybe",
			want: 2024,
		},
		{
			name: "no year",
			date: "Monday morning",
			want: 0,
		},
		{
			name: "pre-2000 year not matched",
			date: "Fri, 31 Dec 1999 23:59:59 +0000",
			want: 0,
		},
		{
			name: "empty string",
			date: "",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := YearFromDate(tt.date); got != tt.want {
				t.Errorf("YearFromDate(%q) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestListAttachments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "m1",
			"payload": {
				"mimeType": "multipart/mixed",
				"parts": [
					{"mimeType": "text/plain", "body": {"data": "aGk="}},
					{"filename": "invoice.pdf", "mimeType": "application/pdf",
					 "body": {"attachmentId": "att1", "size": 1024}},
					{"mimeType": "multipart/alternative", "parts": [
						{"filename": "logo.png", "mimeType": "image/png",
						 "body": {"attachmentId": "att2", "size": 2048}}
					]}
				]
			}
		}`)
	})

	s := newTestSession(t, mux)
	got, err := s.ListAttachments(context.Background(), "m1")
	if err != nil {
		t.Fatalf("ListAttachments() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("ListAttachments() returned %d attachments, want 2", len(got))
	}
	if got[0].Filename != "invoice.pdf" || got[0].AttachmentID != "att1" || got[0].Size != 1024 {
		t.Errorf("first attachment = %+v", got[0])
	}
	if got[1].Filename != "logo.png" || got[1].AttachmentID != "att2" {
		t.Errorf("nested attachment = %+v", got[1])
	}
}

func TestGetAttachment_Decoding(t *testing.T) {
	content := []byte("pdf bytes")
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/m1/attachments/", func(w http.ResponseWriter, r *http.Request) {
		id := filepath.Base(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch id {
		case "urlsafe":
			fmt.Fprintf(w, `{"size": %d, "data": %q}`, len(content), base64.URLEncoding.EncodeToString(content))
		case "standard":
			// Older messages sometimes carry standard base64.
			fmt.Fprintf(w, `{"size": %d, "data": %q}`, len(content), base64.StdEncoding.EncodeToString(content))
		case "huge":
			fmt.Fprintf(w, `{"size": %d, "data": ""}`, MaxAttachmentSize+1)
		default:
			http.NotFound(w, r)
		}
	})

	s := newTestSession(t, mux)

	for _, id := range []string{"urlsafe", "standard"} {
		data, err := s.GetAttachment(context.Background(), "m1", id)
		if err != nil {
			t.Fatalf("GetAttachment(%s) error = %v", id, err)
		}
		if string(data) != string(content) {
			t.Errorf("GetAttachment(%s) = %q, want %q", id, data, content)
		}
	}

	if _, err := s.GetAttachment(context.Background(), "m1", "huge"); err == nil || !strings.Contains(err.Error(), "exceeds maximum size") {
		t.Errorf("oversized attachment error = %v", err)
	}

	if _, err := s.GetAttachment(context.Background(), "", "att"); err == nil || !strings.Contains(err.Error(), "messageID is required") {
		t.Errorf("missing messageID error = %v", err)
	}
	if _, err := s.GetAttachment(context.Background(), "m1", ""); err == nil || !strings.Contains(err.Error(), "attachmentID is required") {
		t.Errorf("missing attachmentID error = %v", err)
	}
}

func TestDownloadFromMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/m1/attachments/", func(w http.ResponseWriter, r *http.Request) {
		id := filepath.Base(r.URL.Path)
		if id == "broken" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"size": 4, "data": %q}`, base64.URLEncoding.EncodeToString([]byte("data")))
	})

	s := newTestSession(t, mux)
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{Filename: "invoice.pdf", Body: &gmail.MessagePartBody{AttachmentId: "att1"}},
				{Filename: "notes.txt", Body: &gmail.MessagePartBody{AttachmentId: "att2"}},
				{Filename: "crash.pdf", Body: &gmail.MessagePartBody{AttachmentId: "broken"}},
			},
		},
	}

	t.Run("writes matching attachments with prefix", func(t *testing.T) {
		dir := t.TempDir()
		results := s.DownloadFromMessage(context.Background(), msg, DownloadOptions{
			Dir:    dir,
			Filter: ".pdf",
			Prefix: "work",
		})

		// notes.txt filtered out, invoice saved, crash recorded as error.
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2: %+v", len(results), results)
		}

		saved := results[0]
		if saved.SavedAs != filepath.Join(dir, "work_invoice.pdf") {
			t.Errorf("SavedAs = %q", saved.SavedAs)
		}
		if saved.Size != 4 {
			t.Errorf("Size = %d, want 4", saved.Size)
		}
		content, err := os.ReadFile(saved.SavedAs)
		if err != nil {
			t.Fatalf("saved file unreadable: %v", err)
		}
		if string(content) != "data" {
			t.Errorf("saved content = %q", content)
		}

		failed := results[1]
		if failed.Filename != "crash.pdf" || failed.Error == "" || failed.SavedAs != "" {
			t.Errorf("failed result = %+v", failed)
		}
	})

	t.Run("deduplicates existing filenames", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "invoice.pdf"), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}

		results := s.DownloadFromMessage(context.Background(), msg, DownloadOptions{
			Dir:    dir,
			Filter: "invoice",
		})
		if len(results) != 1 {
			t.Fatalf("got %d results, want 1", len(results))
		}
		if results[0].SavedAs != filepath.Join(dir, "invoice_1.pdf") {
			t.Errorf("SavedAs = %q, want deduplicated name", results[0].SavedAs)
		}
	})

	t.Run("filter is case insensitive", func(t *testing.T) {
		dir := t.TempDir()
		results := s.DownloadFromMessage(context.Background(), msg, DownloadOptions{
			Dir:    dir,
			Filter: "INVOICE",
		})
		if len(results) != 1 || results[0].Filename != "invoice.pdf" {
			t.Errorf("results = %+v", results)
		}
	})
}
