// Package server provides the shared state for the MCP serve mode.
//
// ServerContext owns the config store, the account registry and a cache of
// Gmail sessions keyed by account name. Sessions are created lazily the
// first time a tool touches an account and are dropped on Shutdown. The
// credential manager runs without a consent fallback: an account that has
// never been authorized yields an error instead of a browser prompt, and the
// tool layer turns that into a hint to run "accounts --auth".
//
// MetricsServer optionally exposes Prometheus metrics and health probes on a
// dedicated port so operational endpoints stay off the stdio transport.
package server
