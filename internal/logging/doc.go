// Package logging sets up slog for the CLI and MCP server and defines the
// attribute vocabulary log records share.
//
// All diagnostics go to stderr; stdout belongs to command output. Callers
// build records from the attribute helpers (Account, Query, Count, ...) so
// the same keys appear everywhere, and from the sanitizers when a value is
// sensitive: UserHash replaces an email address with a stable hash, and
// SanitizeToken reduces a credential to its length.
package logging
