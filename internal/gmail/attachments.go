package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/gmailagent/gmailagent/internal/instrumentation"
)

// MaxAttachmentSize caps downloads at the 25MB the Gmail API itself allows.
const MaxAttachmentSize = 25 * 1024 * 1024

// AttachmentInfo is what listing reports about one attachment.
type AttachmentInfo struct {
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	AttachmentID string `json:"attachment_id"`
	Size         int64  `json:"size"`
}

// DownloadResult records the outcome for one attachment. Either SavedAs or
// Error is set. The email fields are filled by search-driven downloads.
type DownloadResult struct {
	Filename     string `json:"filename"`
	SavedAs      string `json:"saved_as,omitempty"`
	Size         int    `json:"size,omitempty"`
	Error        string `json:"error,omitempty"`
	EmailSubject string `json:"email_subject,omitempty"`
	EmailDate    string `json:"email_date,omitempty"`
	Year         int    `json:"year,omitempty"`
}

// DownloadOptions steer where and what DownloadFromMessage writes.
type DownloadOptions struct {
	Dir string
	// Filter keeps only filenames containing this substring, case-insensitively.
	Filter string
	// Prefix is prepended to each saved filename.
	Prefix string
}

// ListAttachments extracts all attachments from a message.
func (s *Session) ListAttachments(ctx context.Context, messageID string) ([]AttachmentInfo, error) {
	msg, err := s.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}

	var attachments []AttachmentInfo
	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
			attachments = append(attachments, AttachmentInfo{
				Filename:     part.Filename,
				MimeType:     part.MimeType,
				AttachmentID: part.Body.AttachmentId,
				Size:         part.Body.Size,
			})
		}
	})
	return attachments, nil
}

// GetAttachment retrieves and decodes the content of an attachment.
func (s *Session) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	if attachmentID == "" {
		return nil, fmt.Errorf("attachmentID is required")
	}

	ctx, span := s.span(ctx, instrumentation.OperationAttachmentsDownload, resourceAttrs("attachment", attachmentID)...)
	defer span.End()

	attachment, err := s.users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to get attachment %s: %w", attachmentID, err)
	}

	if attachment.Size > MaxAttachmentSize {
		return nil, fmt.Errorf("attachment is %d bytes, above the %d byte limit", attachment.Size, MaxAttachmentSize)
	}

	// Gmail uses RFC 4648 base64url; tolerate standard base64 from older mail.
	data, err := base64.URLEncoding.DecodeString(attachment.Data)
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(attachment.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment data: %w", err)
		}
	}
	return data, nil
}

// DownloadAttachments fetches the message and writes its attachments to disk.
func (s *Session) DownloadAttachments(ctx context.Context, messageID string, opts DownloadOptions) ([]DownloadResult, error) {
	msg, err := s.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return s.DownloadFromMessage(ctx, msg, opts), nil
}

// DownloadFromMessage writes every matching attachment of an already-fetched
// message, deduplicating filenames. Per-attachment failures are recorded, not
// fatal.
func (s *Session) DownloadFromMessage(ctx context.Context, msg *gmail.Message, opts DownloadOptions) []DownloadResult {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	var results []DownloadResult
	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename == "" || part.Body == nil || part.Body.AttachmentId == "" {
			return
		}
		if opts.Filter != "" && !strings.Contains(strings.ToLower(part.Filename), strings.ToLower(opts.Filter)) {
			return
		}

		data, err := s.GetAttachment(ctx, msg.Id, part.Body.AttachmentId)
		if err != nil {
			results = append(results, DownloadResult{Filename: part.Filename, Error: err.Error()})
			return
		}

		name := SanitizeFilename(part.Filename)
		if opts.Prefix != "" {
			name = SanitizeFilename(opts.Prefix) + "_" + name
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			results = append(results, DownloadResult{Filename: part.Filename, Error: err.Error()})
			return
		}
		path := uniquePath(filepath.Join(dir, name))
		if err := os.WriteFile(path, data, 0644); err != nil {
			results = append(results, DownloadResult{Filename: part.Filename, Error: err.Error()})
			return
		}
		results = append(results, DownloadResult{
			Filename: part.Filename,
			SavedAs:  path,
			Size:     len(data),
		})
	})
	return results
}

// EmailAttachments summarizes one searched message that yielded download
// attempts.
type EmailAttachments struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	From        string   `json:"from"`
	Date        string   `json:"date"`
	Year        int      `json:"year,omitempty"`
	Attachments []string `json:"attachments"`
}

// SearchDownloadReport aggregates one search-driven download run.
type SearchDownloadReport struct {
	EmailsSearched int
	Downloaded     []DownloadResult
	Emails         []EmailAttachments
}

// SearchDownload finds up to limit messages matching query and downloads
// every attachment they carry. Successful downloads are annotated with the
// message's Subject and Date headers so statements can be attributed to a
// sender and year afterwards.
func (s *Session) SearchDownload(ctx context.Context, query string, limit int64, opts DownloadOptions) (*SearchDownloadReport, error) {
	ctx, span := s.span(ctx, instrumentation.OperationAttachmentsDownload)
	defer span.End()

	ids, err := s.searchIDs(ctx, query, limit)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	report := &SearchDownloadReport{EmailsSearched: len(ids)}
	for _, id := range ids {
		msg, err := s.Get(ctx, id)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return nil, err
		}

		subject := headerValue(msg, "Subject", "No Subject")
		from := headerValue(msg, "From", "Unknown")
		date := headerValue(msg, "Date", "")
		year := YearFromDate(date)

		results := s.DownloadFromMessage(ctx, msg, opts)
		if len(results) == 0 {
			continue
		}

		files := make([]string, 0, len(results))
		for i := range results {
			files = append(files, results[i].Filename)
			if results[i].Error != "" {
				continue
			}
			results[i].EmailSubject = subject
			results[i].EmailDate = date
			results[i].Year = year
		}

		report.Downloaded = append(report.Downloaded, results...)
		report.Emails = append(report.Emails, EmailAttachments{
			ID:          id,
			Subject:     subject,
			From:        from,
			Date:        date,
			Year:        year,
			Attachments: files,
		})
	}
	return report, nil
}

// walkParts visits part and everything nested under it, parents first.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}

	fn(part)

	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}

// SanitizeFilename flattens separators and traversal sequences so a hostile
// attachment name cannot escape the download directory.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	return filename
}

// uniquePath appends _1, _2, ... before the extension until the path is free.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for counter := 1; ; counter++ {
		candidate := base + "_" + strconv.Itoa(counter) + ext
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

var yearRe = regexp.MustCompile(`\b(20\d{2})\b`)

// YearFromDate pulls a four-digit year out of a Date header, or 0.
func YearFromDate(date string) int {
	m := yearRe.FindStringSubmatch(date)
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return year
}
