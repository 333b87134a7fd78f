package outfmt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_FieldOrder(t *testing.T) {
	resp := struct {
		Envelope
		Count int `json:"count"`
	}{
		Envelope: OK("work"),
		Count:    3,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, resp))

	out := buf.String()
	statusIdx := strings.Index(out, `"status"`)
	accountIdx := strings.Index(out, `"account"`)
	countIdx := strings.Index(out, `"count"`)
	require.GreaterOrEqual(t, statusIdx, 0)
	assert.Less(t, statusIdx, accountIdx, "status comes before account")
	assert.Less(t, accountIdx, countIdx, "account comes before the payload")
}

func TestOK_OmitsEmptyAccount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, OK("")))
	assert.NotContains(t, buf.String(), "account")
}

func TestError(t *testing.T) {
	env := Error("work", errors.New("boom"))
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "work", env.Account)
	assert.Equal(t, "boom", env.Message)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, env))
	assert.Contains(t, buf.String(), `"message": "boom"`)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		expression string
		want       any
		wantErr    bool
	}{
		{
			name:       "empty expression passes through",
			data:       map[string]any{"a": 1.0},
			expression: "",
			want:       map[string]any{"a": 1.0},
		},
		{
			name:       "field access",
			data:       map[string]any{"status": "success", "count": 3.0},
			expression: ".count",
			want:       3.0,
		},
		{
			name:       "multiple results become an array",
			data:       map[string]any{"items": []any{"a", "b"}},
			expression: ".items[]",
			want:       []any{"a", "b"},
		},
		{
			name:       "invalid expression",
			data:       map[string]any{},
			expression: ".[unclosed",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.data, tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyToJSON(t *testing.T) {
	out, err := ApplyToJSON([]byte(`{"messages":[{"id":"m1"},{"id":"m2"}]}`), ".messages | length")
	require.NoError(t, err)
	assert.Equal(t, "2", string(out))
}

func TestWriteJSONFiltered(t *testing.T) {
	resp := struct {
		Envelope
		Messages []map[string]string `json:"messages"`
	}{
		Envelope: OK("work"),
		Messages: []map[string]string{{"id": "m1"}, {"id": "m2"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSONFiltered(&buf, resp, ".messages[].id"))
	assert.JSONEq(t, `["m1","m2"]`, buf.String())
}

func TestWriteJSONFiltered_BadExpression(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSONFiltered(&buf, OK(""), "..[[")
	require.Error(t, err)
	assert.Zero(t, buf.Len(), "nothing reaches stdout when the filter is invalid")
}
