package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type cleanupResponse struct {
	outfmt.Envelope
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

func newCleanupCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup <label>",
		Short: "Trash old messages from a label",
		Long: `Find every message under a label older than the cutoff and move it
to the trash. Progress is reported on stderr while the search and the
trash batches run.

Examples:
  gmailagent cleanup Newsletters
  gmailagent cleanup "Old Projects" -d 90`,
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

			now := time.Now()
			cutoff := now.AddDate(0, 0, -days).Format("2006/01/02")
			query := gmail.CleanupQuery(args[0], days, now)

			a.out.Plain(fmt.Sprintf("[%s] Searching for emails in '%s' before %s...", sess.Account(), args[0], cutoff))

			ids, err := sess.SearchIDs(cmd.Context(), query)
			if err != nil {
				return a.operr(sess.Account(), err)
			}
			if len(ids) == 0 {
				return a.print(cleanupResponse{
					Envelope: outfmt.OK(sess.Account()),
					Count:    0,
					Message:  "No old emails found",
				})
			}

			a.out.Plain(fmt.Sprintf("[%s] Trashing %d emails...", sess.Account(), len(ids)))

			count, _ := splitResults(sess.TrashAll(cmd.Context(), ids))
			return a.print(cleanupResponse{
				Envelope: outfmt.OK(sess.Account()),
				Count:    count,
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "age threshold in days")

	return cmd
}
