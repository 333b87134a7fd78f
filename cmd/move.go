package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/batch"
	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type moveResponse struct {
	outfmt.Envelope
	Count      int    `json:"count"`
	Label      string `json:"label,omitempty"`
	MarkedRead bool   `json:"marked_read,omitempty"`
}

func newMoveCmd() *cobra.Command {
	var (
		markRead bool
		create   bool
	)

	cmd := &cobra.Command{
		Use:   "move <ids> <label>",
		Short: "Move messages to a label",
		Long: `Apply a label to one or more messages and remove them from the inbox.

The label is matched by id first, then by name case-insensitively. A
missing label is an error unless -c creates it on the fly. With -r the
messages are also marked as read.

Examples:
  gmailagent move 'id1,id2' Receipts
  gmailagent move id3 "Tax 2026" -c -r`,
		Args: cobra.ExactArgs(2),
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
				return a.print(moveResponse{
					Envelope: outfmt.Skipped(sess.Account()),
					Count:    0,
				})
			}

			labelID, err := sess.EnsureLabel(cmd.Context(), args[1], create)
			if err != nil {
				var notFound *gmail.LabelNotFoundError
				if errors.As(err, &notFound) {
					return a.operr(sess.Account(), errors.New(notFound.Hint()))
				}
				return a.operr(sess.Account(), err)
			}

			if err := sess.MoveToLabel(cmd.Context(), ids, labelID, markRead); err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(moveResponse{
				Envelope:   outfmt.OK(sess.Account()),
				Count:      len(ids),
				Label:      args[1],
				MarkedRead: markRead,
			})
		},
	}

	cmd.Flags().BoolVarP(&markRead, "read", "r", false, "also mark the messages as read")
	cmd.Flags().BoolVarP(&create, "create", "c", false, "create the label when it does not exist")

	return cmd
}
