package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type summaryResponse struct {
	outfmt.Envelope
	Emails []gmail.MessageContent `json:"emails"`
	Count  int                    `json:"count"`
}

func newSummaryCmd() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "summary <label>",
		Short: "Fetch message bodies from a label for summarization",
		Long: `Fetch the newest messages under a label with their plain-text bodies,
truncated to a digestible length. Useful as input for a summarizer.

Example:
  gmailagent summary Newsletters -n 10`,
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

			label, err := sess.ResolveLabel(cmd.Context(), args[0])
			if err != nil {
				var notFound *gmail.LabelNotFoundError
				if errors.As(err, &notFound) {
					return a.operr(sess.Account(), fmt.Errorf("Label '%s' not found", args[0]))
				}
				return a.operr(sess.Account(), err)
			}

			emails, err := sess.LabelContent(cmd.Context(), label.ID, limit)
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(summaryResponse{
				Envelope: outfmt.OK(sess.Account()),
				Emails:   emails,
				Count:    len(emails),
			})
		},
	}

	cmd.Flags().Int64VarP(&limit, "limit", "n", 20, "maximum number of messages")

	return cmd
}
