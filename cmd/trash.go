package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/batch"
	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type trashResponse struct {
	outfmt.Envelope
	Count  int            `json:"count"`
	Failed []failedResult `json:"failed,omitempty"`
}

// failedResult is one message a batch operation could not modify.
type failedResult struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func splitResults(results []batch.Result) (succeeded int, failed []failedResult) {
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, failedResult{ID: r.ID, Error: r.Error})
			continue
		}
		succeeded++
	}
	return succeeded, failed
}

func newTrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trash <ids>",
		Short: "Move messages to the trash",
		Long: `Move one or more messages to the trash.

Ids are given as a comma-separated list or a JSON array. Messages that
fail individually are reported in the output without aborting the rest.

Examples:
  gmailagent trash 18c2f4a9b1e03d57
  gmailagent trash 'id1,id2,id3'
  gmailagent trash '["id1","id2"]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatchModify(cmd.Context(), args[0], func(ctx context.Context, sess *gmail.Session, ids []string) []batch.Result {
				return sess.TrashMessages(ctx, ids)
			})
		},
	}
}

func newUntrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrash <ids>",
		Short: "Restore messages from the trash",
		Long: `Restore one or more trashed messages to the inbox.

Ids are given as a comma-separated list or a JSON array.

Example:
  gmailagent untrash 'id1,id2'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatchModify(cmd.Context(), args[0], func(ctx context.Context, sess *gmail.Session, ids []string) []batch.Result {
				return sess.UntrashMessages(ctx, ids)
			})
		},
	}
}

func runBatchModify(ctx context.Context, rawIDs string, op func(context.Context, *gmail.Session, []string) []batch.Result) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}

	ids := batch.ParseIDs(rawIDs)
	if len(ids) == 0 {
		return a.print(trashResponse{
			Envelope: outfmt.Skipped(sess.Account()),
			Count:    0,
		})
	}

	count, failed := splitResults(op(ctx, sess, ids))
	return a.print(trashResponse{
		Envelope: outfmt.OK(sess.Account()),
		Count:    count,
		Failed:   failed,
	})
}
