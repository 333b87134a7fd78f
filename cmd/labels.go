package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type labelListResponse struct {
	outfmt.Envelope
	Labels     []gmail.Label `json:"labels"`
	Count      int           `json:"count"`
	UserLabels int           `json:"user_labels"`
}

type labelCreateResponse struct {
	outfmt.Envelope
	LabelID string `json:"label_id"`
	Name    string `json:"name"`
}

type labelDeleteResponse struct {
	outfmt.Envelope
	DeletedLabelID   string `json:"deleted_label_id"`
	DeletedLabelName string `json:"deleted_label_name"`
}

type labelRenameResponse struct {
	outfmt.Envelope
	LabelID string `json:"label_id"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

func newLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Manage Gmail labels",
		Long: `List, create, delete and rename labels. System labels can be listed
but not deleted or renamed.

Examples:
  gmailagent labels list
  gmailagent labels create Receipts
  gmailagent labels rename Receipts "Receipts 2026"
  gmailagent labels delete "Receipts 2026"`,
	}

	cmd.AddCommand(newLabelsListCmd())
	cmd.AddCommand(newLabelsCreateCmd())
	cmd.AddCommand(newLabelsDeleteCmd())
	cmd.AddCommand(newLabelsRenameCmd())

	return cmd
}

func newLabelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all labels",
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

			labels, err := sess.ListLabels(cmd.Context())
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			sorted := gmail.SortLabels(labels)
			userLabels := 0
			for _, l := range sorted {
				if !l.IsSystem() {
					userLabels++
				}
			}

			return a.print(labelListResponse{
				Envelope:   outfmt.OK(sess.Account()),
				Labels:     sorted,
				Count:      len(sorted),
				UserLabels: userLabels,
			})
		},
	}
}

func newLabelsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a label",
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

			label, err := sess.CreateLabel(cmd.Context(), args[0])
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(labelCreateResponse{
				Envelope: outfmt.OK(sess.Account()),
				LabelID:  label.ID,
				Name:     label.Name,
			})
		},
	}
}

func newLabelsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete a label",
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

			label, err := sess.ResolveLabel(cmd.Context(), args[0])
			if err != nil {
				return a.operr(sess.Account(), err)
			}
			if label.IsSystem() {
				return a.operr(sess.Account(), fmt.Errorf("Cannot delete system label: %s", label.Name))
			}

			if err := sess.DeleteLabel(cmd.Context(), label.ID); err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(labelDeleteResponse{
				Envelope:         outfmt.OK(sess.Account()),
				DeletedLabelID:   label.ID,
				DeletedLabelName: label.Name,
			})
		},
	}
}

func newLabelsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name-or-id> <new-name>",
		Short: "Rename a label",
		Args:  cobra.ExactArgs(2),
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
				return a.operr(sess.Account(), err)
			}
			if label.IsSystem() {
				return a.operr(sess.Account(), fmt.Errorf("Cannot rename system label: %s", label.Name))
			}

			newName, err := sess.RenameLabel(cmd.Context(), label.ID, args[1])
			if err != nil {
				return a.operr(sess.Account(), err)
			}

			return a.print(labelRenameResponse{
				Envelope: outfmt.OK(sess.Account()),
				LabelID:  label.ID,
				OldName:  label.Name,
				NewName:  newName,
			})
		},
	}
}
