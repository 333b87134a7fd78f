// Package batch runs an operation over many message ids at once and keeps
// the partial results. Both the CLI commands and the MCP tools accept id
// lists in several spellings (single id, comma list, JSON array), and both
// want per-id outcomes rather than an all-or-nothing error, so the parsing
// and result bookkeeping live here.
package batch
