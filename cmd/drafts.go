package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type draftListResponse struct {
	outfmt.Envelope
	Drafts []gmail.DraftSummary `json:"drafts"`
	Count  int                  `json:"count"`
}

type draftCreateResponse struct {
	outfmt.Envelope
	DraftID   string `json:"draft_id"`
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id,omitempty"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
}

type draftDeleteResponse struct {
	outfmt.Envelope
	DeletedDraftID string `json:"deleted_draft_id"`
}

type draftSendResponse struct {
	outfmt.Envelope
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}

func newDraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage email drafts",
		Long: `List, create, delete and send drafts. A draft reply threads into the
original conversation just like a sent reply would.

Examples:
  gmailagent drafts list
  gmailagent drafts create --to a@example.com --subject "Hi" --body "Draft text"
  gmailagent drafts reply 18c2f4a9b1e03d57 --body "Thinking about it."
  gmailagent drafts send r1234567890`,
	}

	cmd.AddCommand(newDraftsListCmd())
	cmd.AddCommand(newDraftsCreateCmd())
	cmd.AddCommand(newDraftsReplyCmd())
	cmd.AddCommand(newDraftsDeleteCmd())
	cmd.AddCommand(newDraftsSendCmd())

	return cmd
}

func newDraftsListCmd() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			drafts, err := sess.ListDrafts(cmd.Context(), limit)
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(draftListResponse{
				Envelope: outfmt.OK(sess.Account()),
				Drafts:   drafts,
				Count:    len(drafts),
			})
		},
	}

	cmd.Flags().Int64VarP(&limit, "limit", "n", 20, "maximum number of drafts")

	return cmd
}

func newDraftsCreateCmd() *cobra.Command {
	var (
		to          string
		subject     string
		body        string
		cc          string
		bcc         string
		attachments []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			draft, err := sess.CreateDraft(cmd.Context(), &gmail.EmailMessage{
				To:          splitAddrs(to),
				Cc:          splitAddrs(cc),
				Bcc:         splitAddrs(bcc),
				Subject:     subject,
				Body:        body,
				Attachments: attachments,
			})
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			resp := draftCreateResponse{
				Envelope: outfmt.OK(sess.Account()),
				DraftID:  draft.Id,
				To:       to,
				Subject:  subject,
			}
			if draft.Message != nil {
				resp.MessageID = draft.Message.Id
			}
			return a.print(resp)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient address(es), comma-separated")
	cmd.Flags().StringVar(&subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&body, "body", "", "plain-text body")
	cmd.Flags().StringVar(&cc, "cc", "", "CC recipients, comma-separated")
	cmd.Flags().StringVar(&bcc, "bcc", "", "BCC recipients, comma-separated")
	cmd.Flags().StringArrayVar(&attachments, "attachment", nil, "file to attach (repeatable)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func newDraftsReplyCmd() *cobra.Command {
	var (
		body string
		cc   string
	)

	cmd := &cobra.Command{
		Use:   "reply <message-id>",
		Short: "Create a draft reply to a message",
		Args:  cobra.ExactArgs(1),
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

			draft, err := sess.CreateDraft(cmd.Context(), msg)
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			resp := draftCreateResponse{
				Envelope: outfmt.OK(sess.Account()),
				DraftID:  draft.Id,
				ThreadID: msg.ThreadID,
				To:       msg.To[0],
				Subject:  msg.Subject,
			}
			if draft.Message != nil {
				resp.MessageID = draft.Message.Id
			}
			return a.print(resp)
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "reply body")
	cmd.Flags().StringVar(&cc, "cc", "", "CC recipients, comma-separated")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func newDraftsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <draft-id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if err := sess.DeleteDraft(cmd.Context(), args[0]); err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(draftDeleteResponse{
				Envelope:       outfmt.OK(sess.Account()),
				DeletedDraftID: args[0],
			})
		},
	}
}

func newDraftsSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <draft-id>",
		Short: "Send an existing draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			sent, err := sess.SendDraft(cmd.Context(), args[0])
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(draftSendResponse{
				Envelope:  outfmt.OK(sess.Account()),
				MessageID: sent.Id,
				ThreadID:  sent.ThreadId,
			})
		},
	}
}
