// Package account resolves account names against the configuration and
// reports setup state. It never talks to the network; authentication state
// is judged purely by which files exist.
package account

import (
	"fmt"
	"os"
	"strings"

	"github.com/gmailagent/gmailagent/internal/config"
)

// NotAuthenticatedPlaceholder is shown instead of an email address for
// accounts that have an entry but no cached address yet.
const NotAuthenticatedPlaceholder = "(not authenticated)"

// UnknownAccountError reports a request for an account the config does not
// know about. Known carries the configured names for the remediation hint.
type UnknownAccountError struct {
	Requested string
	Known     []string
}

func (e *UnknownAccountError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("account %q is not configured and no accounts exist yet", e.Requested)
	}
	return fmt.Sprintf("account %q is not configured (configured accounts: %s)", e.Requested, strings.Join(e.Known, ", "))
}

// Resolved is a fully resolved account reference ready for authentication.
type Resolved struct {
	Name      string
	TokenPath string // absolute
	Email     string // cached address, empty before first auth
}

// Summary is one row of the account listing.
type Summary struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsDefault bool   `json:"is_default"`
}

// AccountStatus is the per-account part of a setup check.
type AccountStatus struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// SetupStatus reports whether the installation can serve requests.
type SetupStatus struct {
	ConfigExists      bool            `json:"config_exists"`
	CredentialsExists bool            `json:"credentials_exists"`
	Accounts          []AccountStatus `json:"accounts"`
	Ready             bool            `json:"ready"`
}

// Registry resolves account names using the config store.
type Registry struct {
	store *config.Store
}

// NewRegistry returns a registry backed by store.
func NewRegistry(store *config.Store) *Registry {
	return &Registry{store: store}
}

// Resolve maps a requested account name to its config entry. An empty name
// falls back to gmail.default_account, which itself falls back to "default".
// Unknown names return UnknownAccountError naming the configured accounts.
func (r *Registry) Resolve(requested string) (Resolved, error) {
	doc, err := r.store.LoadOrDefault()
	if err != nil {
		return Resolved{}, err
	}

	name := requested
	if name == "" {
		name = doc.DefaultAccount()
	}

	acct, ok := doc.Account(name)
	if !ok {
		accounts := doc.Accounts()
		known := make([]string, 0, len(accounts))
		for _, a := range accounts {
			known = append(known, a.Name)
		}
		return Resolved{}, &UnknownAccountError{Requested: name, Known: known}
	}

	return Resolved{
		Name:      acct.Name,
		TokenPath: r.store.ResolveTokenPath(acct.TokenPath),
		Email:     acct.Email,
	}, nil
}

// ListAll returns every configured account in file order. It requires no
// authentication and performs no network calls.
func (r *Registry) ListAll() ([]Summary, error) {
	doc, err := r.store.LoadOrDefault()
	if err != nil {
		return nil, err
	}

	def := doc.DefaultAccount()
	accounts := doc.Accounts()
	out := make([]Summary, 0, len(accounts))
	for _, a := range accounts {
		email := a.Email
		if email == "" {
			email = NotAuthenticatedPlaceholder
		}
		out = append(out, Summary{Name: a.Name, Email: email, IsDefault: a.Name == def})
	}
	return out, nil
}

// CheckSetup reports installation state. It never fails: unexpected errors
// degrade into false fields so the check itself cannot be the thing that
// breaks a fresh install.
func (r *Registry) CheckSetup() SetupStatus {
	status := SetupStatus{Accounts: []AccountStatus{}}

	if _, err := os.Stat(r.store.Path()); err == nil {
		status.ConfigExists = true
	}
	if _, err := os.Stat(r.store.CredentialsPath()); err == nil {
		status.CredentialsExists = true
	}

	doc, err := r.store.LoadOrDefault()
	if err != nil {
		return status
	}

	anyAuthenticated := false
	for _, a := range doc.Accounts() {
		s := AccountStatus{Name: a.Name, Email: a.Email}
		if _, err := os.Stat(r.store.ResolveTokenPath(a.TokenPath)); err == nil {
			s.Authenticated = true
			anyAuthenticated = true
		}
		status.Accounts = append(status.Accounts, s)
	}

	status.Ready = status.CredentialsExists && anyAuthenticated
	return status
}
