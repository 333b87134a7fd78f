package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/gmailagent/gmailagent/internal/instrumentation"
)

// EmailMessage represents an outgoing email. Attachments are file paths read
// at build time. The threading fields are set when replying.
type EmailMessage struct {
	To          []string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	Body        string
	Attachments []string
	InReplyTo   string
	References  string
	ThreadID    string
}

// DraftSummary is one row of a drafts listing. The header fields stay empty
// when the draft's message could not be fetched.
type DraftSummary struct {
	DraftID   string `json:"draft_id"`
	MessageID string `json:"message_id"`
	Subject   string `json:"subject,omitempty"`
	To        string `json:"to,omitempty"`
	Date      string `json:"date,omitempty"`
}

// Send builds the MIME message and sends it. The returned message carries the
// assigned id and thread id.
func (s *Session) Send(ctx context.Context, msg *EmailMessage) (*gmail.Message, error) {
	raw, err := buildRaw(msg)
	if err != nil {
		return nil, err
	}

	m := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}
	if msg.ThreadID != "" {
		m.ThreadId = msg.ThreadID
	}

	ctx, span := s.span(ctx, instrumentation.OperationMessagesSend)
	defer span.End()

	sent, err := s.users.Messages.Send("me", m).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	return sent, nil
}

// BuildReply fetches the original message and prepares a threaded reply
// addressed to its Reply-To, falling back to From.
func (s *Session) BuildReply(ctx context.Context, messageID, body string, cc []string) (*EmailMessage, error) {
	if body == "" {
		return nil, fmt.Errorf("body is required")
	}

	original, err := s.Get(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get original message: %w", err)
	}

	recipient := headerValue(original, "Reply-To", "")
	if recipient == "" {
		recipient = headerValue(original, "From", "")
	}
	if recipient == "" {
		return nil, fmt.Errorf("original message has no From header")
	}

	originalID := headerValue(original, "Message-ID", "")
	references := strings.TrimSpace(headerValue(original, "References", "") + " " + originalID)

	return &EmailMessage{
		To:         []string{recipient},
		Cc:         cc,
		Subject:    replySubject(headerValue(original, "Subject", "")),
		Body:       body,
		InReplyTo:  originalID,
		References: references,
		ThreadID:   original.ThreadId,
	}, nil
}

// CreateDraft builds the MIME message and stores it as a draft.
func (s *Session) CreateDraft(ctx context.Context, msg *EmailMessage) (*gmail.Draft, error) {
	raw, err := buildRaw(msg)
	if err != nil {
		return nil, err
	}

	m := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}
	if msg.ThreadID != "" {
		m.ThreadId = msg.ThreadID
	}

	ctx, span := s.span(ctx, instrumentation.OperationDraftsCreate)
	defer span.End()

	draft, err := s.users.Drafts.Create("me", &gmail.Draft{Message: m}).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

// ListDrafts returns up to limit drafts with their headline metadata. A draft
// whose message fetch fails degrades to an id-only entry.
func (s *Session) ListDrafts(ctx context.Context, limit int64) ([]DraftSummary, error) {
	ctx, span := s.span(ctx, instrumentation.OperationDraftsList)
	defer span.End()

	res, err := s.users.Drafts.List("me").MaxResults(limit).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	summaries := make([]DraftSummary, 0, len(res.Drafts))
	for _, d := range res.Drafts {
		summary := DraftSummary{DraftID: d.Id}
		if d.Message != nil {
			summary.MessageID = d.Message.Id
		}

		msg, err := s.users.Messages.Get("me", summary.MessageID).
			Format("metadata").
			MetadataHeaders("Subject", "To", "Date").
			Context(ctx).Do()
		if err == nil {
			summary.Subject = headerValue(msg, "Subject", "No Subject")
			summary.To = headerValue(msg, "To", "")
			summary.Date = headerValue(msg, "Date", "")
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// DeleteDraft removes a draft by id.
func (s *Session) DeleteDraft(ctx context.Context, draftID string) error {
	ctx, span := s.span(ctx, instrumentation.OperationDraftsDelete, resourceAttrs("draft", draftID)...)
	defer span.End()

	if err := s.users.Drafts.Delete("me", draftID).Context(ctx).Do(); err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// SendDraft sends an existing draft and returns the resulting message.
func (s *Session) SendDraft(ctx context.Context, draftID string) (*gmail.Message, error) {
	ctx, span := s.span(ctx, instrumentation.OperationDraftsSend, resourceAttrs("draft", draftID)...)
	defer span.End()

	sent, err := s.users.Drafts.Send("me", &gmail.Draft{Id: draftID}).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to send draft: %w", err)
	}
	return sent, nil
}

// buildRaw renders the message in RFC 2822 form with CRLF line endings.
// Attachments turn the body into a multipart/mixed payload.
func buildRaw(msg *EmailMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if msg.Body == "" {
		return "", fmt.Errorf("body is required")
	}

	var b strings.Builder
	header := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		header("Bcc", strings.Join(msg.Bcc, ", "))
	}
	if msg.ReplyTo != "" {
		header("Reply-To", msg.ReplyTo)
	}
	header("Subject", encodeRFC2047(msg.Subject))
	if msg.InReplyTo != "" {
		header("In-Reply-To", msg.InReplyTo)
	}
	if msg.References != "" {
		header("References", msg.References)
	}
	header("MIME-Version", "1.0")

	if len(msg.Attachments) == 0 {
		header("Content-Type", `text/plain; charset="UTF-8"`)
		b.WriteString("\r\n")
		b.WriteString(msg.Body)
		return b.String(), nil
	}

	var payload bytes.Buffer
	mw := multipart.NewWriter(&payload)
	header("Content-Type", fmt.Sprintf(`multipart/mixed; boundary="%s"`, mw.Boundary()))
	b.WriteString("\r\n")

	tw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/plain; charset="UTF-8"`},
	})
	if err != nil {
		return "", err
	}
	if _, err := tw.Write([]byte(msg.Body)); err != nil {
		return "", err
	}

	for _, path := range msg.Attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("Attachment not found: %s", path)
			}
			return "", fmt.Errorf("reading attachment %s: %w", path, err)
		}

		ctype := mime.TypeByExtension(filepath.Ext(path))
		if ctype == "" {
			ctype = "application/octet-stream"
		}

		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {ctype},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(path))},
		})
		if err != nil {
			return "", err
		}
		if _, err := pw.Write([]byte(wrapBase64(data))); err != nil {
			return "", err
		}
	}

	if err := mw.Close(); err != nil {
		return "", err
	}
	b.Write(payload.Bytes())
	return b.String(), nil
}

// replySubject prefixes "Re: " unless the subject already carries one.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// encodeRFC2047 makes a header value safe for non-ASCII subjects. ASCII-only
// values pass through unchanged; anything else becomes an RFC 2047 encoded
// word.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// wrapBase64 encodes data and folds it at the RFC 2045 76-column limit.
func wrapBase64(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	return b.String()
}
