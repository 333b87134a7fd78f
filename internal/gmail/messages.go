package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/gmailagent/gmailagent/internal/batch"
	"github.com/gmailagent/gmailagent/internal/instrumentation"
	"github.com/gmailagent/gmailagent/internal/logging"
)

// maxListPageSize is the largest page the Messages.List endpoint serves.
const maxListPageSize = 500

// MessageSummary is one row of a list result.
type MessageSummary struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
}

// MessageDetail is the full view of a single message.
type MessageDetail struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id"`
	Labels   []string `json:"labels"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Date     string   `json:"date"`
	Body     string   `json:"body"`
}

// MessageContent is a body-bearing entry used for label digests.
type MessageContent struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

// maxContentRunes caps digest bodies so a label summary stays promptable.
const maxContentRunes = 2000

// Search returns up to limit messages matching the query, newest first as the
// API reports them. Messages whose metadata fetch fails are skipped.
func (s *Session) Search(ctx context.Context, query string, limit int64) ([]MessageSummary, error) {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesList)
	defer span.End()

	ids, err := s.searchIDs(ctx, query, limit)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		msg, err := s.users.Messages.Get("me", id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).Do()
		if err != nil {
			s.logger.Warn("skipping message, metadata fetch failed",
				logging.Account(s.name), slog.String("message_id", id), logging.Err(err))
			continue
		}
		summaries = append(summaries, MessageSummary{
			ID:       msg.Id,
			ThreadID: msg.ThreadId,
			From:     headerValue(msg, "From", "Unknown"),
			Subject:  headerValue(msg, "Subject", "No Subject"),
			Date:     headerValue(msg, "Date", ""),
			Snippet:  msg.Snippet,
		})
	}
	return summaries, nil
}

// SearchIDs returns the ids of every message matching the query, following
// pagination to the end.
func (s *Session) SearchIDs(ctx context.Context, query string) ([]string, error) {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesList)
	defer span.End()

	ids, err := s.searchIDs(ctx, query, 0)
	if err != nil {
		instrumentation.SetSpanError(span, err)
	}
	return ids, err
}

// searchIDs pages through Messages.List. A limit of 0 means all matches.
func (s *Session) searchIDs(ctx context.Context, query string, limit int64) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		req := s.users.Messages.List("me").Q(query).Context(ctx)
		if limit > 0 {
			remaining := limit - int64(len(ids))
			if remaining <= 0 {
				break
			}
			pageSize := remaining
			if pageSize > maxListPageSize {
				pageSize = maxListPageSize
			}
			req.MaxResults(pageSize)
		}
		if pageToken != "" {
			req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		instrumentation.AddSpanEvent(ctx, "page fetched", attribute.Int("messages", len(res.Messages)))
		if res.NextPageToken == "" || (limit > 0 && int64(len(ids)) >= limit) {
			break
		}
		pageToken = res.NextPageToken
	}

	if limit > 0 && int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	s.logger.Debug("search completed",
		logging.Account(s.name), logging.Query(query), logging.Count(len(ids)))
	return ids, nil
}

// Get retrieves a full message.
func (s *Session) Get(ctx context.Context, messageID string) (*gmail.Message, error) {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesGet, resourceAttrs("message", messageID)...)
	defer span.End()

	msg, err := s.users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// Read fetches a message and flattens it into the detail view. The body is
// the first text/plain part, falling back to the top-level body, falling back
// to the snippet.
func (s *Session) Read(ctx context.Context, messageID string) (*MessageDetail, error) {
	msg, err := s.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}

	body := messageText(msg)
	if body == "" {
		body = msg.Snippet
	}

	return &MessageDetail{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Labels:   msg.LabelIds,
		Subject:  headerValue(msg, "Subject", "No Subject"),
		From:     headerValue(msg, "From", "Unknown"),
		ReplyTo:  headerValue(msg, "Reply-To", ""),
		Date:     headerValue(msg, "Date", ""),
		Body:     body,
	}, nil
}

// TrashMessages moves each id to trash, pausing between chunks. Failures are
// collected per id.
func (s *Session) TrashMessages(ctx context.Context, ids []string) []batch.Result {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesTrash)
	defer span.End()
	return s.eachMessage(ctx, ids, s.pause, func(id string) error {
		_, err := s.users.Messages.Trash("me", id).Context(ctx).Do()
		return err
	})
}

// UntrashMessages restores each id from trash, pausing between chunks.
func (s *Session) UntrashMessages(ctx context.Context, ids []string) []batch.Result {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesUntrash)
	defer span.End()
	return s.eachMessage(ctx, ids, s.pause, func(id string) error {
		_, err := s.users.Messages.Untrash("me", id).Context(ctx).Do()
		return err
	})
}

// TrashAll trashes without the inter-chunk pause. Label cleanup uses it where
// the volume is expected to be large and the operator is watching.
func (s *Session) TrashAll(ctx context.Context, ids []string) []batch.Result {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesTrash)
	defer span.End()
	return s.eachMessage(ctx, ids, 0, func(id string) error {
		_, err := s.users.Messages.Trash("me", id).Context(ctx).Do()
		return err
	})
}

// eachMessage runs op per id in chunks, collecting per-item outcomes instead
// of aborting on the first failure.
func (s *Session) eachMessage(ctx context.Context, ids []string, pause time.Duration, op func(id string) error) []batch.Result {
	start := time.Now()
	var results []batch.Result
	chunks := batch.Chunk(ids, batchChunkSize)
	for i, chunk := range chunks {
		results = append(results, batch.Run(chunk, func(id string) (string, error) {
			if err := op(id); err != nil {
				return "", err
			}
			return "ok", nil
		})...)
		instrumentation.AddSpanEvent(ctx, "chunk processed", attribute.Int("messages", len(chunk)))
		if pause > 0 && i < len(chunks)-1 {
			time.Sleep(pause)
		}
	}
	s.logger.Debug("batch finished",
		logging.Account(s.name), logging.Count(len(ids)), logging.Duration(time.Since(start)))
	return results
}

// Archive removes ids from the inbox in one batch call.
func (s *Session) Archive(ctx context.Context, ids []string, markRead bool) error {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesArchive)
	defer span.End()

	remove := []string{"INBOX"}
	if markRead {
		remove = append(remove, "UNREAD")
	}
	err := s.users.Messages.BatchModify("me", &gmail.BatchModifyMessagesRequest{
		Ids:            ids,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to archive messages: %w", err)
	}
	return nil
}

// MoveToLabel applies labelID to ids and takes them out of the inbox.
func (s *Session) MoveToLabel(ctx context.Context, ids []string, labelID string, markRead bool) error {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesMove, resourceAttrs("label", labelID)...)
	defer span.End()

	remove := []string{"INBOX"}
	if markRead {
		remove = append(remove, "UNREAD")
	}
	err := s.users.Messages.BatchModify("me", &gmail.BatchModifyMessagesRequest{
		Ids:            ids,
		AddLabelIds:    []string{labelID},
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to move messages: %w", err)
	}
	return nil
}

// LabelContent returns up to limit messages under labelID with their bodies
// truncated for digesting.
func (s *Session) LabelContent(ctx context.Context, labelID string, limit int64) ([]MessageContent, error) {
	ctx, span := s.span(ctx, instrumentation.OperationMessagesList, resourceAttrs("label", labelID)...)
	defer span.End()

	res, err := s.users.Messages.List("me").LabelIds(labelID).MaxResults(limit).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list label messages: %w", err)
	}

	contents := make([]MessageContent, 0, len(res.Messages))
	for _, ref := range res.Messages {
		msg, err := s.users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			s.logger.Warn("skipping message, fetch failed",
				logging.Account(s.name), slog.String("message_id", ref.Id), logging.Err(err))
			continue
		}
		body := messageText(msg)
		if body == "" {
			body = msg.Snippet
		}
		contents = append(contents, MessageContent{
			ID:      msg.Id,
			Subject: headerValue(msg, "Subject", "No Subject"),
			From:    headerValue(msg, "From", "Unknown"),
			Date:    headerValue(msg, "Date", ""),
			Body:    truncateRunes(body, maxContentRunes),
		})
	}
	return contents, nil
}

// CleanupQuery builds the search for messages under a label older than the
// cutoff. Labels with spaces need quoting in Gmail's query language.
func CleanupQuery(label string, days int, now time.Time) string {
	cutoff := now.AddDate(0, 0, -days).Format("2006/01/02")
	if strings.Contains(label, " ") {
		label = `"` + label + `"`
	}
	return fmt.Sprintf("label:%s before:%s", label, cutoff)
}

// headerValue finds a header by name, case-insensitively.
func headerValue(m *gmail.Message, header, fallback string) string {
	if m == nil || m.Payload == nil {
		return fallback
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return fallback
}

// messageText extracts the plain-text body: the first text/plain part wins,
// then the top-level body.
func messageText(m *gmail.Message) string {
	if m == nil || m.Payload == nil {
		return ""
	}

	if len(m.Payload.Parts) > 0 {
		var body string
		walkParts(m.Payload, func(part *gmail.MessagePart) {
			if body == "" && part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
				body = decodeBody(part.Body.Data)
			}
		})
		if body != "" {
			return body
		}
	}

	if m.Payload.Body != nil && m.Payload.Body.Data != "" {
		return decodeBody(m.Payload.Body.Data)
	}
	return ""
}

// decodeBody handles the API's base64url body encoding, tolerating standard
// base64 from older messages.
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
