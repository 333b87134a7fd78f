package gmail

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/gmailagent/gmailagent/internal/instrumentation"
	"github.com/gmailagent/gmailagent/internal/logging"
)

// Label is the flattened view of a Gmail label.
type Label struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	MessagesTotal  int64  `json:"messages_total,omitempty"`
	MessagesUnread int64  `json:"messages_unread,omitempty"`
}

// IsSystem reports whether the label is one of Gmail's built-ins, which
// cannot be deleted or renamed.
func (l *Label) IsSystem() bool {
	return l.Type == "system"
}

// LabelNotFoundError means neither a label id nor a name matched.
type LabelNotFoundError struct {
	Label string
}

func (e *LabelNotFoundError) Error() string {
	return fmt.Sprintf("Label not found: %s", e.Label)
}

// Hint phrases the failure for surfaces that can offer --create.
func (e *LabelNotFoundError) Hint() string {
	return fmt.Sprintf("Label not found: '%s'. Use --create to create it, or check existing labels with 'labels list'.", e.Label)
}

// ListLabels returns every label on the account in API order.
func (s *Session) ListLabels(ctx context.Context) ([]Label, error) {
	ctx, span := s.span(ctx, instrumentation.OperationLabelsList)
	defer span.End()

	res, err := s.users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]Label, 0, len(res.Labels))
	for _, l := range res.Labels {
		labels = append(labels, Label{
			ID:             l.Id,
			Name:           l.Name,
			Type:           l.Type,
			MessagesTotal:  l.MessagesTotal,
			MessagesUnread: l.MessagesUnread,
		})
	}
	return labels, nil
}

// SortLabels orders labels for display: system labels first in API order,
// then user labels sorted case-insensitively by name.
func SortLabels(labels []Label) []Label {
	system := make([]Label, 0, len(labels))
	user := make([]Label, 0, len(labels))
	for _, l := range labels {
		if l.IsSystem() {
			system = append(system, l)
		} else {
			user = append(user, l)
		}
	}
	sort.SliceStable(user, func(i, j int) bool {
		return strings.ToLower(user[i].Name) < strings.ToLower(user[j].Name)
	})
	return append(system, user...)
}

// ResolveLabel finds a label by exact id first, then by case-insensitive
// name. Ids win so a name that happens to collide with another label's id
// stays addressable.
func (s *Session) ResolveLabel(ctx context.Context, nameOrID string) (*Label, error) {
	labels, err := s.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	if match := matchLabel(labels, nameOrID); match != nil {
		return match, nil
	}
	return nil, &LabelNotFoundError{Label: nameOrID}
}

func matchLabel(labels []Label, nameOrID string) *Label {
	for i := range labels {
		if labels[i].ID == nameOrID {
			return &labels[i]
		}
	}
	needle := strings.ToLower(nameOrID)
	for i := range labels {
		if strings.ToLower(labels[i].Name) == needle {
			return &labels[i]
		}
	}
	return nil
}

// EnsureLabel resolves a label by name, creating it when create is set.
// Returns the label id.
func (s *Session) EnsureLabel(ctx context.Context, name string, create bool) (string, error) {
	label, err := s.ResolveLabel(ctx, name)
	if err == nil {
		return label.ID, nil
	}
	if _, notFound := err.(*LabelNotFoundError); !notFound {
		return "", err
	}
	if !create {
		return "", err
	}
	created, err := s.CreateLabel(ctx, name)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// CreateLabel creates a user label visible in both the label and message
// lists.
func (s *Session) CreateLabel(ctx context.Context, name string) (*Label, error) {
	ctx, span := s.span(ctx, instrumentation.OperationLabelsCreate)
	defer span.End()

	res, err := s.users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	s.logger.Debug("label created", logging.Account(s.name), logging.Label(res.Name))
	return &Label{ID: res.Id, Name: res.Name, Type: res.Type}, nil
}

// DeleteLabel removes a label by id. The caller is responsible for refusing
// system labels.
func (s *Session) DeleteLabel(ctx context.Context, labelID string) error {
	ctx, span := s.span(ctx, instrumentation.OperationLabelsDelete, resourceAttrs("label", labelID)...)
	defer span.End()

	if err := s.users.Labels.Delete("me", labelID).Context(ctx).Do(); err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to delete label: %w", err)
	}
	return nil
}

// RenameLabel patches the label's name and returns the new name as the API
// reports it.
func (s *Session) RenameLabel(ctx context.Context, labelID, newName string) (string, error) {
	ctx, span := s.span(ctx, instrumentation.OperationLabelsRename, resourceAttrs("label", labelID)...)
	defer span.End()

	res, err := s.users.Labels.Patch("me", labelID, &gmail.Label{Name: newName}).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("failed to rename label: %w", err)
	}
	return res.Name, nil
}
