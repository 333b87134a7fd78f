package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type listResponse struct {
	outfmt.Envelope
	Emails []gmail.MessageSummary `json:"emails"`
	Count  int                    `json:"count"`
	Query  string                 `json:"query"`
}

func newListCmd() *cobra.Command {
	var (
		query string
		limit int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages matching a search query",
		Long: `List messages matching a Gmail search query, newest first.

The query uses Gmail's search syntax. When no query is given the config
value gmail.default_query is used, falling back to label:INBOX.

Examples:
  gmailagent list
  gmailagent list -q "is:unread from:github.com" -n 25
  gmailagent -a work list -q "label:Receipts"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if query == "" {
				query = a.doc.DefaultQuery()
			}
			if query == "" {
				query = "label:INBOX"
			}

			emails, err := sess.Search(cmd.Context(), query, limit)
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(listResponse{
				Envelope: outfmt.OK(sess.Account()),
				Emails:   emails,
				Count:    len(emails),
				Query:    query,
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Gmail search query")
	cmd.Flags().Int64VarP(&limit, "limit", "n", 100, "maximum number of messages")

	return cmd
}
