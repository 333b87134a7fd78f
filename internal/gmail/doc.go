// Package gmail wraps the Gmail API for account-scoped sessions.
//
// A Session binds one configured account to an authenticated Gmail service.
// Opening a session resolves the account, runs the OAuth token lifecycle and
// fetches the profile address once so later invocations can skip the lookup.
//
// The operation surface mirrors the CLI: message search and modification,
// label and filter management, attachment download, sending and drafts.
// Multi-message operations run in chunks of 50 and collect per-item failures
// instead of aborting the whole run.
//
// Example usage:
//
//	sess, err := gmail.NewSession(ctx, "work", deps)
//	if err != nil {
//	    return err
//	}
//
//	msgs, err := sess.Search(ctx, "label:INBOX", 100)
package gmail
