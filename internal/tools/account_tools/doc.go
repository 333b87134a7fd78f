// Package account_tools provides MCP tools for inspecting the account setup.
//
// Two tools are registered:
//   - accounts_list: the configured accounts and their cached addresses
//   - accounts_check_setup: whether config, credentials, and at least one
//     authorized account are in place
//
// Neither tool opens a Gmail session, so both work on a fresh installation.
// The server deliberately has no way to run an OAuth consent flow itself; when
// setup is incomplete, the tools answer with the terminal commands that
// complete it ("gmailagent accounts --auth <name>").
package account_tools
