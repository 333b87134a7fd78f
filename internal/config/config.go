// Package config reads and writes the gmailagent configuration document.
//
// The document lives in a fixed installation directory together with the
// OAuth client credentials and the per-account token files. Edits go through
// the yaml node tree so hand-written comments, key order and quoting survive
// every save.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvConfigDir overrides the base directory holding config.yaml,
	// credentials.json and the tokens directory.
	EnvConfigDir = "GMAILAGENT_CONFIG_DIR"

	// EnvCredentialsPath overrides the OAuth client credentials file location.
	EnvCredentialsPath = "GMAIL_CREDENTIALS_PATH"

	configFileName      = "config.yaml"
	credentialsFileName = "credentials.json"
)

// ErrConfigMissing is returned by Load when no config file exists yet.
// Callers that can run on defaults substitute DefaultDocument.
var ErrConfigMissing = errors.New("config file does not exist")

// Store reads and writes the configuration for one installation directory.
// State never lives in the working directory.
type Store struct {
	baseDir string
}

// NewStore returns a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultBaseDir resolves the installation directory: $GMAILAGENT_CONFIG_DIR
// when set, otherwise the user config dir plus "gmailagent".
func DefaultBaseDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "gmailagent"), nil
}

// BaseDir returns the installation directory.
func (s *Store) BaseDir() string { return s.baseDir }

// Path returns the config file location.
func (s *Store) Path() string { return filepath.Join(s.baseDir, configFileName) }

// CredentialsPath returns the OAuth client credentials file location,
// honoring $GMAIL_CREDENTIALS_PATH.
func (s *Store) CredentialsPath() string {
	if p := os.Getenv(EnvCredentialsPath); p != "" {
		return p
	}
	return filepath.Join(s.baseDir, credentialsFileName)
}

// ResolveTokenPath makes a token path from the config absolute. Relative
// paths resolve against the base directory.
func (s *Store) ResolveTokenPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.baseDir, p)
}

// Load parses the config file preserving formatting and comments.
// Returns ErrConfigMissing when the file does not exist.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigMissing
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads the config file, substituting the default document
// when none exists yet. The default is never written implicitly.
func (s *Store) LoadOrDefault() (*Document, error) {
	doc, err := s.Load()
	if errors.Is(err, ErrConfigMissing) {
		return DefaultDocument(), nil
	}
	return doc, err
}

// Save writes the document to a temp file in the config directory and
// renames it into place, so a concurrent reader never observes a partial
// file.
func (s *Store) Save(doc *Document) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.baseDir, 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.baseDir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// EnsureAccount adds an account entry with the conventional token path when
// absent. The bool reports whether this call created the entry; an entry
// that already exists is success, not an error. A missing config file is
// bootstrapped from the default document.
func (s *Store) EnsureAccount(name string) (bool, error) {
	doc, err := s.Load()
	bootstrapped := errors.Is(err, ErrConfigMissing)
	if bootstrapped {
		doc = DefaultDocument()
	} else if err != nil {
		return false, err
	}
	created := doc.EnsureAccount(name)
	if !created && !bootstrapped {
		return false, nil
	}
	if err := s.Save(doc); err != nil {
		return false, err
	}
	return created, nil
}

// SetDefaultAccount updates gmail.default_account. Returns false without
// error when the named account is not configured.
func (s *Store) SetDefaultAccount(name string) (bool, error) {
	doc, err := s.LoadOrDefault()
	if err != nil {
		return false, err
	}
	if !doc.SetDefaultAccount(name) {
		return false, nil
	}
	if err := s.Save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveAccount drops the account entry. Removing an unknown account is a
// reported no-op. The token file on disk is left alone; deleting it is the
// operator's call.
func (s *Store) RemoveAccount(name string) (bool, error) {
	doc, err := s.Load()
	if errors.Is(err, ErrConfigMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !doc.RemoveAccount(name) {
		return false, nil
	}
	if err := s.Save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// RecordEmail caches the authenticated address for an account, creating the
// entry when a hand-edited config lost it. A value that already matches is
// not rewritten.
func (s *Store) RecordEmail(name, email string) error {
	doc, err := s.LoadOrDefault()
	if err != nil {
		return err
	}
	if !doc.RecordEmail(name, email) {
		return nil
	}
	return s.Save(doc)
}
