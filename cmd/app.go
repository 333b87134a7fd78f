package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/oauth2"

	"github.com/gmailagent/gmailagent/internal/account"
	"github.com/gmailagent/gmailagent/internal/config"
	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/google"
	"github.com/gmailagent/gmailagent/internal/logging"
	"github.com/gmailagent/gmailagent/internal/outfmt"
	"github.com/gmailagent/gmailagent/internal/ui"
)

// configDirEnv overrides the config directory, mainly for tests.
const configDirEnv = "GMAILAGENT_CONFIG_DIR"

// sessionError marks a failure that happened before any Gmail operation ran:
// unknown account, missing credentials, failed token exchange. Execute turns
// it into an error envelope and a non-zero exit.
type sessionError struct {
	account string
	err     error
}

func (e *sessionError) Error() string { return e.err.Error() }
func (e *sessionError) Unwrap() error { return e.err }

// app wires the config store, account registry and logger for one command
// invocation. Commands construct it in RunE, after flags are parsed.
type app struct {
	store    *config.Store
	doc      *config.Document
	registry *account.Registry
	logger   *slog.Logger
	out      *ui.UI
	stdout   io.Writer
}

// openStore locates the config directory, honoring the environment override,
// and returns a store over it. Nothing is read from disk yet.
func openStore() (*config.Store, error) {
	baseDir := os.Getenv(configDirEnv)
	if baseDir == "" {
		var err error
		baseDir, err = config.DefaultBaseDir()
		if err != nil {
			return nil, err
		}
	}
	return config.NewStore(baseDir), nil
}

func newApp() (*app, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	doc, err := store.LoadOrDefault()
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(verboseFlag)
	slog.SetDefault(logger)

	return &app{
		store:    store,
		doc:      doc,
		registry: account.NewRegistry(store),
		logger:   logger,
		out:      ui.New(colorFlag),
		stdout:   os.Stdout,
	}, nil
}

// credentials returns the OAuth manager for this invocation. With interactive
// true a missing or expired token starts the browser consent flow; otherwise
// authentication fails cleanly so servers never block on a browser.
func (a *app) credentials(interactive bool) *google.Manager {
	opts := []google.Option{google.WithLogger(a.logger)}
	if interactive {
		opts = append(opts, google.WithConsent(a.consent))
	} else {
		opts = append(opts, google.WithoutConsent())
	}
	return google.NewManager(a.store.CredentialsPath(), a.doc.Scopes(), opts...)
}

// consent wraps the browser flow with progress messages on stderr.
func (a *app) consent(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	a.out.Info("Opening browser for Google authorization...")
	tok, err := google.RunConsentFlow(ctx, conf)
	if err != nil {
		return nil, err
	}
	a.out.Success("Authorization complete.")
	return tok, nil
}

// requestedAccount names the account a failure is attributed to when no
// session exists yet: the --account flag when given, the configured default
// otherwise.
func (a *app) requestedAccount() string {
	if accountFlag != "" {
		return accountFlag
	}
	return a.doc.DefaultAccount()
}

// session opens an authenticated session for the --account flag. Failures are
// wrapped in sessionError so Execute can attribute them to the account.
func (a *app) session(ctx context.Context) (*gmail.Session, error) {
	sess, err := gmail.NewSession(ctx, accountFlag, gmail.Deps{
		Store:       a.store,
		Registry:    a.registry,
		Credentials: a.credentials(true),
		Logger:      a.logger,
	})
	if err != nil {
		return nil, &sessionError{account: a.requestedAccount(), err: err}
	}
	return sess, nil
}

// print writes the success envelope to stdout, applying --jq when given.
func (a *app) print(v any) error {
	if jqFlag != "" {
		return outfmt.WriteJSONFiltered(a.stdout, v, jqFlag)
	}
	return outfmt.WriteJSON(a.stdout, v)
}

// operr reports a Gmail operation that failed after the session was already
// established. The error envelope goes to stdout and the command returns nil,
// so the process exits zero: the caller received a parseable outcome.
func (a *app) operr(acct string, err error) error {
	return outfmt.WriteJSON(a.stdout, outfmt.Error(acct, err))
}
