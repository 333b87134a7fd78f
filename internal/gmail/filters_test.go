package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func TestFilterInfoFromAPI(t *testing.T) {
	tests := []struct {
		name string
		in   *gmail.Filter
		want FilterInfo
	}{
		{
			name: "newsletter archive rule",
			in: &gmail.Filter{
				Id:       "CAbc101",
				Criteria: &gmail.FilterCriteria{From: "news@weekly.example"},
				Action:   &gmail.FilterAction{RemoveLabelIds: []string{"INBOX", "UNREAD"}},
			},
			want: FilterInfo{
				ID:       "CAbc101",
				Criteria: FilterCriteria{From: "news@weekly.example"},
				Action:   FilterAction{RemoveLabelIDs: []string{"INBOX", "UNREAD"}},
			},
		},
		{
			name: "attachment labelling rule",
			in: &gmail.Filter{
				Id: "CAbc102",
				Criteria: &gmail.FilterCriteria{
					To:            "billing@corp.example",
					HasAttachment: true,
				},
				Action: &gmail.FilterAction{AddLabelIds: []string{"Label_7"}},
			},
			want: FilterInfo{
				ID: "CAbc102",
				Criteria: FilterCriteria{
					To:            "billing@corp.example",
					HasAttachment: true,
				},
				Action: FilterAction{AddLabelIDs: []string{"Label_7"}},
			},
		},
		{
			name: "forwarding rule with raw query",
			in: &gmail.Filter{
				Id: "CAbc103",
				Criteria: &gmail.FilterCriteria{
					Subject: "[oncall]",
					Query:   "is:important newer_than:7d",
				},
				Action: &gmail.FilterAction{Forward: "pager@corp.example"},
			},
			want: FilterInfo{
				ID: "CAbc103",
				Criteria: FilterCriteria{
					Subject: "[oncall]",
					Query:   "is:important newer_than:7d",
				},
				Action: FilterAction{Forward: "pager@corp.example"},
			},
		},
		{
			name: "nil criteria and action",
			in:   &gmail.Filter{Id: "bare"},
			want: FilterInfo{ID: "bare"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterInfoFromAPI(tt.in))
		})
	}
}

func TestBuildFilterAction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/labels", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"id":"Label_new","name":"Fresh","type":"user"}`)
			return
		}
		fmt.Fprint(w, `{"labels":[{"id":"Label_1","name":"Work","type":"user"}]}`)
	})
	s := newTestSession(t, mux)

	tests := []struct {
		name     string
		switches FilterSwitches
		expected FilterAction
	}{
		{
			name:     "existing label resolves to id",
			switches: FilterSwitches{AddLabel: "Work"},
			expected: FilterAction{AddLabelIDs: []string{"Label_1"}},
		},
		{
			name:     "unknown label is created",
			switches: FilterSwitches{AddLabel: "Fresh"},
			expected: FilterAction{AddLabelIDs: []string{"Label_new"}},
		},
		{
			name:     "archive removes INBOX",
			switches: FilterSwitches{Archive: true},
			expected: FilterAction{RemoveLabelIDs: []string{"INBOX"}},
		},
		{
			name:     "mark read removes UNREAD",
			switches: FilterSwitches{MarkRead: true},
			expected: FilterAction{RemoveLabelIDs: []string{"UNREAD"}},
		},
		{
			name:     "trash adds TRASH",
			switches: FilterSwitches{Trash: true},
			expected: FilterAction{AddLabelIDs: []string{"TRASH"}},
		},
		{
			name:     "star adds STARRED",
			switches: FilterSwitches{Star: true},
			expected: FilterAction{AddLabelIDs: []string{"STARRED"}},
		},
		{
			name:     "forward sets address",
			switches: FilterSwitches{Forward: "archive@example.com"},
			expected: FilterAction{Forward: "archive@example.com"},
		},
		{
			name: "combined switches",
			switches: FilterSwitches{
				AddLabel: "Work",
				Archive:  true,
				MarkRead: true,
			},
			expected: FilterAction{
				AddLabelIDs:    []string{"Label_1"},
				RemoveLabelIDs: []string{"INBOX", "UNREAD"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := s.BuildFilterAction(context.Background(), tt.switches)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, action)
		})
	}
}

func TestCreateFilter(t *testing.T) {
	var sent *gmail.Filter
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/settings/filters", func(w http.ResponseWriter, r *http.Request) {
		sent = &gmail.Filter{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(sent))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"filter-1"}`)
	})
	s := newTestSession(t, mux)

	t.Run("criteria required", func(t *testing.T) {
		_, err := s.CreateFilter(context.Background(), FilterCriteria{}, FilterAction{AddLabelIDs: []string{"X"}})
		require.EqualError(t, err, "At least one criteria required")
	})

	t.Run("action required", func(t *testing.T) {
		_, err := s.CreateFilter(context.Background(), FilterCriteria{From: "a@example.com"}, FilterAction{})
		require.EqualError(t, err, "At least one action required")
	})

	t.Run("creates filter", func(t *testing.T) {
		id, err := s.CreateFilter(context.Background(),
			FilterCriteria{From: "news@example.com", HasAttachment: true},
			FilterAction{AddLabelIDs: []string{"Label_1"}, RemoveLabelIDs: []string{"INBOX"}})
		require.NoError(t, err)
		assert.Equal(t, "filter-1", id)

		require.NotNil(t, sent)
		assert.Equal(t, "news@example.com", sent.Criteria.From)
		assert.True(t, sent.Criteria.HasAttachment)
		assert.Equal(t, []string{"Label_1"}, sent.Action.AddLabelIds)
		assert.Equal(t, []string{"INBOX"}, sent.Action.RemoveLabelIds)
	})
}

func TestListFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/settings/filters", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"filter":[
			{"id":"f1","criteria":{"from":"a@example.com"},"action":{"removeLabelIds":["INBOX"]}},
			{"id":"f2","criteria":{"subject":"Report"},"action":{"addLabelIds":["Label_2"]}}
		]}`)
	})
	s := newTestSession(t, mux)

	filters, err := s.ListFilters(context.Background())
	require.NoError(t, err)
	require.Len(t, filters, 2)
	assert.Equal(t, "f1", filters[0].ID)
	assert.Equal(t, "a@example.com", filters[0].Criteria.From)
	assert.Equal(t, []string{"INBOX"}, filters[0].Action.RemoveLabelIDs)
	assert.Equal(t, "Report", filters[1].Criteria.Subject)
}

func TestDeleteFilter(t *testing.T) {
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/settings/filters/f1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})
	s := newTestSession(t, mux)

	require.NoError(t, s.DeleteFilter(context.Background(), "f1"))
	assert.True(t, deleted)
}

func TestFilterCriteriaEmpty(t *testing.T) {
	assert.True(t, FilterCriteria{}.empty())
	assert.False(t, FilterCriteria{From: "x"}.empty())
	assert.False(t, FilterCriteria{HasAttachment: true}.empty())

	assert.True(t, FilterAction{}.empty())
	assert.False(t, FilterAction{Forward: "x"}.empty())
	assert.False(t, FilterAction{RemoveLabelIDs: []string{"INBOX"}}.empty())
}
