package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gmailagent/gmailagent/internal/logging"
)

// ConsentFunc obtains a fresh token interactively. The manager calls it when
// no stored token is usable. Tests swap it out; the MCP server runs without
// one.
type ConsentFunc func(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)

// Manager drives the OAuth token lifecycle for account token files. It is
// constructed with explicit paths and scopes and passed down; nothing in
// this package reads ambient state.
type Manager struct {
	credentialsPath string
	scopes          []string
	logger          *slog.Logger
	consent         ConsentFunc
	refreshHook     func(err error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithConsent replaces the interactive consent flow.
func WithConsent(fn ConsentFunc) Option {
	return func(m *Manager) { m.consent = fn }
}

// WithoutConsent disables the consent fallback. Authenticate then returns
// ErrConsentRequired instead of blocking on a browser.
func WithoutConsent() Option {
	return func(m *Manager) { m.consent = nil }
}

// WithRefreshHook registers fn to observe every refresh attempt, with nil for
// success and the *TokenRefreshError otherwise. The server counts refresh
// outcomes through it; fn must not block.
func WithRefreshHook(fn func(err error)) Option {
	return func(m *Manager) { m.refreshHook = fn }
}

// NewManager returns a manager for the OAuth client at credentialsPath
// requesting the given scopes. The default consent flow opens a browser.
func NewManager(credentialsPath string, scopes []string, opts ...Option) *Manager {
	m := &Manager{
		credentialsPath: credentialsPath,
		scopes:          scopes,
		logger:          slog.Default(),
		consent:         RunConsentFlow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate yields a valid token for the token file at tokenPath, walking
// the token state machine: a valid stored token is used as-is, an expired
// one with a refresh token is refreshed, and anything else falls back to
// interactive consent. Each state change writes the token file exactly once.
func (m *Manager) Authenticate(ctx context.Context, tokenPath string) (*oauth2.Token, error) {
	conf, err := m.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, loadErr := LoadTokenFile(tokenPath)
	if loadErr == nil && tok.Valid() {
		return tok, nil
	}

	if loadErr == nil && tok.RefreshToken != "" {
		refreshed, err := m.refresh(ctx, conf, tok)
		if err == nil {
			if err := SaveTokenFile(tokenPath, refreshed); err != nil {
				return nil, err
			}
			m.logger.Debug("token refreshed",
				slog.String("token_file", tokenPath),
				slog.String("access_token", logging.SanitizeToken(refreshed.AccessToken)))
			return refreshed, nil
		}
		var refreshErr *TokenRefreshError
		if !errors.As(err, &refreshErr) || !refreshErr.Permanent {
			return nil, err
		}
		// consentFallback: the grant is gone for good, only a fresh
		// consent can replace it.
		m.logger.Warn("stored grant rejected permanently, starting interactive consent", logging.Err(err))
	}

	if loadErr != nil && !errors.Is(loadErr, os.ErrNotExist) {
		m.logger.Warn("ignoring unreadable token file", slog.String("token_file", tokenPath), logging.Err(loadErr))
	}

	if m.consent == nil {
		return nil, ErrConsentRequired
	}

	tok, err = m.consent(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("interactive consent: %w", err)
	}
	if err := SaveTokenFile(tokenPath, tok); err != nil {
		return nil, err
	}
	m.logger.Info("account authorized", slog.String("token_file", tokenPath))
	return tok, nil
}

// HTTPClient returns an HTTP client that authorizes requests with the token
// for tokenPath. Refreshes during the lifetime of the client stay in memory;
// only the Authenticate state change persists.
func (m *Manager) HTTPClient(ctx context.Context, tokenPath string) (*http.Client, error) {
	conf, err := m.oauthConfig()
	if err != nil {
		return nil, err
	}
	tok, err := m.Authenticate(ctx, tokenPath)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, tok)), nil
}

func (m *Manager) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(m.credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &CredentialsFileMissingError{Path: m.credentialsPath}
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, m.scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return conf, nil
}

// refresh trades the refresh token for a new access token. The stored expiry
// is backdated so the source hits the refresh endpoint immediately, and a
// rotated refresh token is carried forward when the endpoint returns one.
func (m *Manager) refresh(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error) {
	stale := &oauth2.Token{
		RefreshToken: tok.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	refreshed, err := conf.TokenSource(ctx, stale).Token()
	if err != nil {
		refreshErr := &TokenRefreshError{Permanent: isPermanentRefreshError(err), Err: err}
		m.observeRefresh(refreshErr)
		return nil, refreshErr
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	m.observeRefresh(nil)
	return refreshed, nil
}

func (m *Manager) observeRefresh(err error) {
	if m.refreshHook != nil {
		m.refreshHook(err)
	}
}
