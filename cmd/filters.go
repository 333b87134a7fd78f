package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type filterListResponse struct {
	outfmt.Envelope
	Filters []gmail.FilterInfo `json:"filters"`
	Count   int                `json:"count"`
}

type filterAddResponse struct {
	outfmt.Envelope
	FilterID string `json:"filter_id"`
}

type filterDeleteResponse struct {
	outfmt.Envelope
	DeletedID string `json:"deleted_id"`
}

func newFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage Gmail filters",
		Long: `List, create and delete server-side filters.

A filter needs at least one criteria flag and one action flag. Labels
named with --add-label are created when they do not exist yet.

Examples:
  gmailagent filters list
  gmailagent filters add --from newsletter@example.com --add-label Newsletters --archive
  gmailagent filters delete ANe1Bmj4Xz`,
	}

	cmd.AddCommand(newFiltersListCmd())
	cmd.AddCommand(newFiltersAddCmd())
	cmd.AddCommand(newFiltersDeleteCmd())

	return cmd
}

func newFiltersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all filters",
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

			filters, err := sess.ListFilters(cmd.Context())
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(filterListResponse{
				Envelope: outfmt.OK(sess.Account()),
				Filters:  filters,
				Count:    len(filters),
			})
		},
	}
}

func newFiltersAddCmd() *cobra.Command {
	var (
		criteria gmail.FilterCriteria
		switches gmail.FilterSwitches
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			// Reject empty criteria before the action flags get a chance
			// to create labels.
			if criteria == (gmail.FilterCriteria{}) {
				return a.operr(sess.Account(), errors.New("At least one criteria required"))
			}

			action, err := sess.BuildFilterAction(cmd.Context(), switches)
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			filterID, err := sess.CreateFilter(cmd.Context(), criteria, action)
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(filterAddResponse{
				Envelope: outfmt.OK(sess.Account()),
				FilterID: filterID,
			})
		},
	}

	cmd.Flags().StringVar(&criteria.From, "from", "", "match the sender address")
	cmd.Flags().StringVar(&criteria.To, "to", "", "match the recipient address")
	cmd.Flags().StringVar(&criteria.Subject, "subject", "", "match the subject")
	cmd.Flags().StringVar(&criteria.Query, "query", "", "match a Gmail search query")
	cmd.Flags().BoolVar(&criteria.HasAttachment, "has-attachment", false, "match messages with attachments")

	cmd.Flags().StringVar(&switches.AddLabel, "add-label", "", "apply this label (created when missing)")
	cmd.Flags().BoolVar(&switches.Archive, "archive", false, "skip the inbox")
	cmd.Flags().BoolVar(&switches.MarkRead, "mark-read", false, "mark as read")
	cmd.Flags().BoolVar(&switches.Trash, "trash", false, "move to trash")
	cmd.Flags().BoolVar(&switches.Star, "star", false, "star the message")
	cmd.Flags().StringVar(&switches.Forward, "forward", "", "forward to this address")

	return cmd
}

func newFiltersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <filter-id>",
		Short: "Delete a filter",
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

			if err := sess.DeleteFilter(cmd.Context(), args[0]); err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(filterDeleteResponse{
				Envelope:  outfmt.OK(sess.Account()),
				DeletedID: args[0],
			})
		},
	}
}
