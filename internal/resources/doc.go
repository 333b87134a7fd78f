// Package resources provides MCP resources exposing the account setup.
// Resources are read-only data sources an MCP client can fetch without
// calling a tool: the configured accounts (accounts://list) and the
// installation state (accounts://setup), both as JSON.
package resources
