package gmail

import (
	"context"
	"errors"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/gmailagent/gmailagent/internal/instrumentation"
)

// FilterCriteria describes what a filter matches on. Zero fields are left
// out of the API call.
type FilterCriteria struct {
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Query         string `json:"query,omitempty"`
	HasAttachment bool   `json:"has_attachment,omitempty"`
}

func (c FilterCriteria) empty() bool {
	return c.From == "" && c.To == "" && c.Subject == "" && c.Query == "" && !c.HasAttachment
}

// FilterAction is the label arithmetic a filter applies.
type FilterAction struct {
	AddLabelIDs    []string `json:"add_labels,omitempty"`
	RemoveLabelIDs []string `json:"remove_labels,omitempty"`
	Forward        string   `json:"forward,omitempty"`
}

func (a FilterAction) empty() bool {
	return len(a.AddLabelIDs) == 0 && len(a.RemoveLabelIDs) == 0 && a.Forward == ""
}

// FilterInfo is one filter as reported by the API.
type FilterInfo struct {
	ID       string         `json:"id"`
	Criteria FilterCriteria `json:"criteria"`
	Action   FilterAction   `json:"action"`
}

// FilterSwitches are the flag-level action toggles a filter command offers.
// AddLabel is a label name and is created on demand.
type FilterSwitches struct {
	AddLabel string
	Archive  bool
	MarkRead bool
	Trash    bool
	Star     bool
	Forward  string
}

// BuildFilterAction assembles the API action from the command switches.
// Special outcomes map onto Gmail's system labels: archive removes INBOX,
// mark-read removes UNREAD, trash adds TRASH, star adds STARRED.
func (s *Session) BuildFilterAction(ctx context.Context, sw FilterSwitches) (FilterAction, error) {
	var action FilterAction

	if sw.AddLabel != "" {
		labelID, err := s.EnsureLabel(ctx, sw.AddLabel, true)
		if err != nil {
			return FilterAction{}, fmt.Errorf("could not find or create label: %s", sw.AddLabel)
		}
		action.AddLabelIDs = append(action.AddLabelIDs, labelID)
	}
	if sw.Archive {
		action.RemoveLabelIDs = append(action.RemoveLabelIDs, "INBOX")
	}
	if sw.MarkRead {
		action.RemoveLabelIDs = append(action.RemoveLabelIDs, "UNREAD")
	}
	if sw.Trash {
		action.AddLabelIDs = append(action.AddLabelIDs, "TRASH")
	}
	if sw.Star {
		action.AddLabelIDs = append(action.AddLabelIDs, "STARRED")
	}
	if sw.Forward != "" {
		action.Forward = sw.Forward
	}

	return action, nil
}

// CreateFilter creates a filter and returns its id. At least one criteria
// field and one action are required.
func (s *Session) CreateFilter(ctx context.Context, criteria FilterCriteria, action FilterAction) (string, error) {
	if criteria.empty() {
		return "", errors.New("At least one criteria required")
	}
	if action.empty() {
		return "", errors.New("At least one action required")
	}

	filter := &gmail.Filter{
		Criteria: &gmail.FilterCriteria{
			From:          criteria.From,
			To:            criteria.To,
			Subject:       criteria.Subject,
			Query:         criteria.Query,
			HasAttachment: criteria.HasAttachment,
		},
		Action: &gmail.FilterAction{
			AddLabelIds:    action.AddLabelIDs,
			RemoveLabelIds: action.RemoveLabelIDs,
			Forward:        action.Forward,
		},
	}

	ctx, span := s.span(ctx, instrumentation.OperationFiltersCreate)
	defer span.End()

	created, err := s.users.Settings.Filters.Create("me", filter).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("failed to create filter: %w", err)
	}
	return created.Id, nil
}

// ListFilters returns all filters on the account.
func (s *Session) ListFilters(ctx context.Context) ([]FilterInfo, error) {
	ctx, span := s.span(ctx, instrumentation.OperationFiltersList)
	defer span.End()

	res, err := s.users.Settings.Filters.List("me").Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}

	filters := make([]FilterInfo, 0, len(res.Filter))
	for _, f := range res.Filter {
		filters = append(filters, filterInfoFromAPI(f))
	}
	return filters, nil
}

// DeleteFilter removes a filter by id.
func (s *Session) DeleteFilter(ctx context.Context, filterID string) error {
	ctx, span := s.span(ctx, instrumentation.OperationFiltersDelete, resourceAttrs("filter", filterID)...)
	defer span.End()

	if err := s.users.Settings.Filters.Delete("me", filterID).Context(ctx).Do(); err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to delete filter: %w", err)
	}
	return nil
}

func filterInfoFromAPI(f *gmail.Filter) FilterInfo {
	info := FilterInfo{ID: f.Id}
	if f.Criteria != nil {
		info.Criteria = FilterCriteria{
			From:          f.Criteria.From,
			To:            f.Criteria.To,
			Subject:       f.Criteria.Subject,
			Query:         f.Criteria.Query,
			HasAttachment: f.Criteria.HasAttachment,
		}
	}
	if f.Action != nil {
		info.Action = FilterAction{
			AddLabelIDs:    f.Action.AddLabelIds,
			RemoveLabelIDs: f.Action.RemoveLabelIds,
			Forward:        f.Action.Forward,
		}
	}
	return info
}
