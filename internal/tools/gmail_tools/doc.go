// Package gmail_tools registers the Gmail MCP tools: the same mailbox
// operations the CLI offers, exposed to MCP clients.
//
// The tools are grouped into families:
//
// Messages:
//   - gmail_list_messages: List messages matching a search query
//   - gmail_read_message: Read headers and body of a single message
//   - gmail_trash_messages: Move messages to the trash
//   - gmail_untrash_messages: Restore messages from the trash
//   - gmail_archive_messages: Remove messages from the inbox
//   - gmail_move_messages: Label messages and remove them from the inbox
//   - gmail_cleanup_label: Trash messages under a label older than a cutoff
//
// Labels:
//   - gmail_list_labels: List labels with message counts
//   - gmail_create_label: Create a label
//   - gmail_delete_label: Delete a user label
//   - gmail_rename_label: Rename a user label
//
// Filters:
//   - gmail_list_filters: List filters with criteria and actions
//   - gmail_create_filter: Create a filter from criteria and action switches
//   - gmail_delete_filter: Delete a filter by ID
//
// Attachments:
//   - gmail_list_attachments: List attachments of a message
//   - gmail_download_attachments: Save attachments to the server host
//
// Email:
//   - gmail_send_email: Send an email
//   - gmail_reply_email: Reply within an existing thread
//   - gmail_create_draft: Create a draft
//   - gmail_list_drafts: List drafts
//   - gmail_delete_draft: Delete a draft
//   - gmail_send_draft: Send an existing draft
//
// Every tool accepts an optional "account" parameter selecting one of the
// configured accounts (default: "default"). Sessions are opened lazily and
// cached per account in the server context. Accounts without a stored token
// are never sent through a browser consent flow by the server; the tool call
// fails with instructions to run "gmailagent accounts --auth <name>" instead.
//
// When the server runs with --read-only, only the tools that cannot modify
// the mailbox are registered. Attachment downloads count as read-only: they
// write to the local disk, not to the mailbox.
package gmail_tools
