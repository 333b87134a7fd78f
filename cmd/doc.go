// Package cmd wires up the gmailagent command tree.
//
// The commands fall into a few groups:
//   - accounts: configure Gmail accounts and run the OAuth consent flow
//   - list, read, summary: search and inspect messages
//   - trash, untrash, archive, move, cleanup: mailbox maintenance
//   - labels, filters: label and filter management
//   - attachments, download, search-download: attachment handling
//   - send, reply, drafts: compose and send mail
//   - serve: expose the same operations as MCP tools for assistants
//   - generate-docs, version: tooling around the binary itself
//
// Every command resolves an account (via --account or the configured
// default), prints a JSON envelope on stdout, and keeps diagnostics on
// stderr so output stays machine-readable.
package cmd
