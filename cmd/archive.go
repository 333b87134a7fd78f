package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/batch"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type archiveResponse struct {
	outfmt.Envelope
	Count      int    `json:"count"`
	Action     string `json:"action,omitempty"`
	MarkedRead bool   `json:"marked_read,omitempty"`
}

func newArchiveCmd() *cobra.Command {
	var markRead bool

	cmd := &cobra.Command{
		Use:   "archive <ids>",
		Short: "Archive messages (remove from inbox)",
		Long: `Remove one or more messages from the inbox without deleting them.

Ids are given as a comma-separated list or a JSON array. With -r the
messages are also marked as read.

Examples:
  gmailagent archive 18c2f4a9b1e03d57
  gmailagent archive 'id1,id2' -r`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			ids := batch.ParseIDs(args[0])
			if len(ids) == 0 {
				return a.print(archiveResponse{
					Envelope: outfmt.OK(sess.Account()),
					Count:    0,
				})
			}

			if err := sess.Archive(cmd.Context(), ids, markRead); err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(archiveResponse{
				Envelope:   outfmt.OK(sess.Account()),
				Count:      len(ids),
				Action:     "archive",
				MarkedRead: markRead,
			})
		},
	}

	cmd.Flags().BoolVarP(&markRead, "read", "r", false, "also mark the messages as read")

	return cmd
}
