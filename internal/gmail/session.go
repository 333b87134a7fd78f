package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/gmailagent/gmailagent/internal/account"
	"github.com/gmailagent/gmailagent/internal/config"
	"github.com/gmailagent/gmailagent/internal/google"
	"github.com/gmailagent/gmailagent/internal/instrumentation"
	"github.com/gmailagent/gmailagent/internal/logging"
)

const (
	// batchChunkSize caps how many per-message calls go out back to back.
	batchChunkSize = 50
	// batchPause separates write chunks to stay under Gmail rate limits.
	batchPause = 500 * time.Millisecond
)

// Deps carries the collaborators a session needs to authenticate an account.
type Deps struct {
	Store       *config.Store
	Registry    *account.Registry
	Credentials *google.Manager
	Logger      *slog.Logger
}

// Session is an authenticated Gmail connection for one configured account.
type Session struct {
	users  *gmail.UsersService
	name   string
	email  string
	logger *slog.Logger
	pause  time.Duration
}

// NewSession resolves the account, runs the token lifecycle and returns a
// ready session. When the config has no cached address for the account, the
// profile is fetched once and written back; neither step is fatal.
func NewSession(ctx context.Context, name string, deps Deps) (*Session, error) {
	res, err := deps.Registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	httpClient, err := deps.Credentials.HTTPClient(ctx, res.TokenPath)
	if err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		users:  svc.Users,
		name:   res.Name,
		email:  res.Email,
		logger: logger,
		pause:  batchPause,
	}
	s.ensureEmail(ctx, deps.Store)
	return s, nil
}

// ensureEmail fetches the profile address once when the config has none and
// writes it back. Neither step is fatal: a session without a resolved address
// still works, it just reports the account by name.
func (s *Session) ensureEmail(ctx context.Context, store *config.Store) {
	if s.email != "" {
		return
	}
	profile, err := s.users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		s.logger.Debug("profile lookup failed", logging.Account(s.name), logging.Err(err))
		return
	}
	s.email = profile.EmailAddress
	s.logger.Debug("resolved account email", logging.Account(s.name), logging.UserHash(s.email))
	if store == nil {
		return
	}
	if err := store.RecordEmail(s.name, s.email); err != nil {
		s.logger.Warn("could not cache account email", logging.Account(s.name), logging.Err(err))
	}
}

// span opens a client span for one API operation, tagged with the account
// name. Callers end it and record failures with instrumentation.SetSpanError;
// without a configured tracer the span is non-recording and free.
func (s *Session) span(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := instrumentation.NewSpanAttributeBuilder().WithAccount(s.name).Build()
	all = append(all, attrs...)
	return instrumentation.StartGmailSpan(ctx, operation, all...)
}

// resourceAttrs tags a span with the entity the operation touches.
func resourceAttrs(resourceType, resourceID string) []attribute.KeyValue {
	return instrumentation.NewSpanAttributeBuilder().WithResource(resourceType, resourceID).Build()
}

// Profile is the mailbox profile reported by Gmail.
type Profile struct {
	EmailAddress  string `json:"email_address"`
	MessagesTotal int64  `json:"messages_total"`
	ThreadsTotal  int64  `json:"threads_total"`
	HistoryID     uint64 `json:"history_id"`
}

// Profile fetches the mailbox profile for the session's account.
func (s *Session) Profile(ctx context.Context) (*Profile, error) {
	p, err := s.users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &Profile{
		EmailAddress:  p.EmailAddress,
		MessagesTotal: p.MessagesTotal,
		ThreadsTotal:  p.ThreadsTotal,
		HistoryID:     p.HistoryId,
	}, nil
}

// Name returns the configured account name.
func (s *Session) Name() string {
	return s.name
}

// Email returns the account's address, or "" when it could not be determined.
func (s *Session) Email() string {
	return s.email
}

// Account returns the identifier reported in command output: the address when
// known, the configured name otherwise.
func (s *Session) Account() string {
	if s.email != "" {
		return s.email
	}
	return s.name
}
