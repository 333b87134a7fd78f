package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type readResponse struct {
	outfmt.Envelope
	gmail.MessageDetail
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Read the full content of a message",
		Long: `Read one message: headers, labels and the plain-text body.

The body is the first text/plain part of the message; HTML-only messages
fall back to the snippet.

Example:
  gmailagent read 18c2f4a9b1e03d57`,
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

			detail, err := sess.Read(cmd.Context(), args[0])
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(readResponse{
				Envelope:      outfmt.OK(sess.Account()),
				MessageDetail: *detail,
			})
		},
	}

	return cmd
}
