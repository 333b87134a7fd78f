package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gmailagent/gmailagent/internal/account"
	"github.com/gmailagent/gmailagent/internal/config"
	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/google"
	"github.com/gmailagent/gmailagent/internal/instrumentation"
)

// ErrShutdown is returned for session requests that arrive after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// ServerContext holds the shared state of the MCP server: the config store,
// the account registry and one cached Gmail session per account. Sessions
// are created lazily on first use and live until Shutdown.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	store    *config.Store
	registry *account.Registry
	creds    *google.Manager
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*gmail.Session
	shutdown bool

	// metrics is atomic rather than guarded by mu: the token refresh hook
	// reads it from inside Session's critical section.
	metrics     atomic.Pointer[instrumentation.Metrics]
	auditLogger *instrumentation.AuditLogger
}

// NewServerContext creates a server context over the given config store. No
// account is authenticated at this point; sessions are opened on first use.
//
// The credential manager runs without a consent fallback: the server cannot
// open a browser on behalf of an MCP client, so accounts must be authorized
// up front with "accounts --auth".
func NewServerContext(ctx context.Context, store *config.Store, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}

	doc, err := store.LoadOrDefault()
	if err != nil {
		return nil, err
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		store:    store,
		registry: account.NewRegistry(store),
		logger:   logger,
		sessions: make(map[string]*gmail.Session),
	}
	sc.creds = google.NewManager(store.CredentialsPath(), doc.Scopes(),
		google.WithoutConsent(),
		google.WithLogger(logger),
		google.WithRefreshHook(sc.recordTokenRefresh),
	)
	return sc, nil
}

// Context returns the server's lifetime context. It is cancelled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Registry returns the account registry backing the server.
func (sc *ServerContext) Registry() *account.Registry {
	return sc.registry
}

// Session returns the Gmail session for the named account, creating and
// caching it on first use. Sessions are bound to the server context, not the
// tool call that triggered their creation, so a cached session stays usable
// after that call returns.
func (sc *ServerContext) Session(name string) (*gmail.Session, error) {
	sc.mu.RLock()
	sess, ok := sc.sessions[name]
	down := sc.shutdown
	sc.mu.RUnlock()
	if down {
		return nil, ErrShutdown
	}
	if ok {
		return sess, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sess, ok := sc.sessions[name]; ok {
		return sess, nil
	}

	sess, err := gmail.NewSession(sc.ctx, name, gmail.Deps{
		Store:       sc.store,
		Registry:    sc.registry,
		Credentials: sc.creds,
		Logger:      sc.logger,
	})
	if err != nil {
		if m := sc.metrics.Load(); m != nil {
			m.RecordOAuthAuth(sc.ctx, instrumentation.OAuthResultFailure)
		}
		return nil, err
	}

	if m := sc.metrics.Load(); m != nil {
		m.RecordOAuthAuth(sc.ctx, instrumentation.OAuthResultSuccess)
		m.IncrementActiveSessions(sc.ctx)
	}
	sc.sessions[name] = sess
	return sess, nil
}

// recordTokenRefresh is the credential manager's refresh hook.
func (sc *ServerContext) recordTokenRefresh(err error) {
	if m := sc.metrics.Load(); m != nil {
		m.RecordOAuthTokenRefresh(sc.ctx, refreshResult(err))
	}
}

// refreshResult maps a refresh outcome to an OAuthResult label. A permanently
// rejected grant counts as expired, any other failure as failure.
func refreshResult(err error) string {
	var refreshErr *google.TokenRefreshError
	switch {
	case err == nil:
		return instrumentation.OAuthResultSuccess
	case errors.As(err, &refreshErr) && refreshErr.Permanent:
		return instrumentation.OAuthResultExpired
	default:
		return instrumentation.OAuthResultFailure
	}
}

// AccountEmail returns the address of an account's cached session, or ""
// when no session exists yet. It never opens one.
func (sc *ServerContext) AccountEmail(name string) string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sess, ok := sc.sessions[name]; ok {
		return sess.Email()
	}
	return ""
}

// SetMetrics installs the metrics recorder. Call before serving starts.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.metrics.Store(m)
}

// Metrics returns the metrics recorder, or nil when none is installed.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics.Load()
}

// SetAuditLogger installs the audit logger. Call before serving starts.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil when none is installed.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown drops all cached sessions and cancels the server context. It is
// safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true

	if m := sc.metrics.Load(); m != nil {
		for range sc.sessions {
			m.DecrementActiveSessions(sc.ctx)
		}
	}
	sc.sessions = nil
	sc.cancel()
	return nil
}
