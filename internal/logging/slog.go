package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Attribute keys shared by every logging call site, so records stay
// greppable across packages.
const (
	KeyAccount  = "account"
	KeyUserHash = "user_hash"
	KeyDuration = "duration"
	KeyError    = "error"
	KeyLabel    = "label"
	KeyQuery    = "query"
	KeyCount    = "count"
)

// Setup returns a logger writing text records to stderr. Verbose enables
// debug level. Stdout is reserved for structured command output, so all
// diagnostics must go through a logger created here.
func Setup(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Account returns a slog attribute for the configured account name.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

// Label returns a slog attribute for a Gmail label name.
func Label(label string) slog.Attr {
	return slog.String(KeyLabel, label)
}

// Query returns a slog attribute for a Gmail search query.
func Query(query string) slog.Attr {
	return slog.String(KeyQuery, query)
}

// Count returns a slog attribute for a result count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns a slog attribute for an error. A nil err yields an empty
// group, which slog omits, so call sites can pass a maybe-nil error
// without guarding.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a stable hash of an email address. Log entries
// for the same mailbox correlate without the address itself appearing in
// log output.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user-" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized account email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken masks a token for logging. Only the length survives; even
// a prefix of an access token is too much to write to a log file.
func SanitizeToken(token string) string {
	if token == "" {
		return "(no token)"
	}
	return fmt.Sprintf("(%d char token)", len(token))
}
