package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmailagent/gmailagent/internal/account"
	"github.com/gmailagent/gmailagent/internal/config"
	"github.com/gmailagent/gmailagent/internal/google"
	"github.com/gmailagent/gmailagent/internal/instrumentation"
)

func newTestContext(t *testing.T) (*ServerContext, *config.Store) {
	t.Helper()
	store := config.NewStore(t.TempDir())
	sc, err := NewServerContext(context.Background(), store, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, store
}

func TestNewServerContext(t *testing.T) {
	sc, _ := newTestContext(t)

	assert.NotNil(t, sc.Registry())
	assert.NotNil(t, sc.Context())
	assert.False(t, sc.IsShutdown())
}

func TestServerContext_SessionUnknownAccount(t *testing.T) {
	sc, _ := newTestContext(t)

	_, err := sc.Session("nope")
	require.Error(t, err)

	var unknown *account.UnknownAccountError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Requested)
}

func TestServerContext_SessionMissingCredentials(t *testing.T) {
	// A configured account without an OAuth client file fails with the
	// credentials error, not an account error.
	sc, store := newTestContext(t)

	_, err := store.EnsureAccount("default")
	require.NoError(t, err)

	_, err = sc.Session("default")
	require.Error(t, err)

	var missing *google.CredentialsFileMissingError
	assert.ErrorAs(t, err, &missing)
}

func TestServerContext_SessionAfterShutdown(t *testing.T) {
	sc, _ := newTestContext(t)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())

	_, err := sc.Session("default")
	assert.True(t, errors.Is(err, ErrShutdown))
}

func TestServerContext_ShutdownIdempotent(t *testing.T) {
	sc, _ := newTestContext(t)

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())

	// The lifetime context is cancelled exactly once.
	select {
	case <-sc.Context().Done():
	default:
		t.Fatal("server context still live after Shutdown")
	}
}

func TestServerContext_AccountEmailWithoutSession(t *testing.T) {
	sc, _ := newTestContext(t)
	assert.Empty(t, sc.AccountEmail("default"))
}

func TestRefreshResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, instrumentation.OAuthResultSuccess},
		{"permanent rejection", &google.TokenRefreshError{Permanent: true, Err: errors.New("invalid_grant")}, instrumentation.OAuthResultExpired},
		{"transient failure", &google.TokenRefreshError{Err: errors.New("503")}, instrumentation.OAuthResultFailure},
		{"unrelated error", errors.New("boom"), instrumentation.OAuthResultFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refreshResult(tt.err))
		})
	}
}

func TestServerContext_RecordTokenRefreshWithoutMetrics(t *testing.T) {
	// The hook can fire before SetMetrics during CLI-style usage.
	sc, _ := newTestContext(t)
	sc.recordTokenRefresh(nil)
}
