package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type sendResponse struct {
	outfmt.Envelope
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
}

// splitAddrs turns a comma-separated address list into its entries.
func splitAddrs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newSendCmd() *cobra.Command {
	var (
		to          string
		subject     string
		body        string
		cc          string
		bcc         string
		replyTo     string
		attachments []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email",
		Long: `Send a plain-text email, optionally with attachments.

Recipient lists are comma-separated. Attachment paths are read at send
time; the content type is guessed from the file extension.

Examples:
  gmailagent send --to a@example.com --subject "Hi" --body "Hello"
  gmailagent send --to a@example.com,b@example.com --subject "Report" \
    --body "Attached." --attachment report.pdf --attachment data.csv`,
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

			sent, err := sess.Send(cmd.Context(), &gmail.EmailMessage{
				To:          splitAddrs(to),
				Cc:          splitAddrs(cc),
				Bcc:         splitAddrs(bcc),
				ReplyTo:     replyTo,
				Subject:     subject,
				Body:        body,
				Attachments: attachments,
			})
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(sendResponse{
				Envelope:  outfmt.OK(sess.Account()),
				MessageID: sent.Id,
				ThreadID:  sent.ThreadId,
				To:        to,
				Subject:   subject,
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient address(es), comma-separated")
	cmd.Flags().StringVar(&subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&body, "body", "", "plain-text body")
	cmd.Flags().StringVar(&cc, "cc", "", "CC recipients, comma-separated")
	cmd.Flags().StringVar(&bcc, "bcc", "", "BCC recipients, comma-separated")
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "Reply-To address")
	cmd.Flags().StringArrayVar(&attachments, "attachment", nil, "file to attach (repeatable)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func newReplyCmd() *cobra.Command {
	var (
		body string
		cc   string
	)

	cmd := &cobra.Command{
		Use:   "reply <message-id>",
		Short: "Reply to a message",
		Long: `Reply to a message in its thread. The recipient is the original
sender's Reply-To address, falling back to From, and the subject gets a
Re: prefix when it does not carry one yet.

Example:
  gmailagent reply 18c2f4a9b1e03d57 --body "Sounds good, see you then."`,
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

			msg, err := sess.BuildReply(cmd.Context(), args[0], body, splitAddrs(cc))
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			sent, err := sess.Send(cmd.Context(), msg)
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(sendResponse{
				Envelope:  outfmt.OK(sess.Account()),
				MessageID: sent.Id,
				ThreadID:  sent.ThreadId,
				To:        msg.To[0],
				Subject:   msg.Subject,
			})
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "reply body")
	cmd.Flags().StringVar(&cc, "cc", "", "CC recipients, comma-separated")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}
