package gmail_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterEmailTools(t *testing.T) {
	sc := newEmptyServerContext(t)
	s := mcpserver.NewMCPServer("test", "0.0.1", mcpserver.WithToolCapabilities(true))

	assert.NoError(t, RegisterEmailTools(s, sc, false))
	assert.NoError(t, RegisterEmailTools(s, sc, true))
}

func TestSplitAddressList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single address",
			input:    "a@example.com",
			expected: []string{"a@example.com"},
		},
		{
			name:     "multiple addresses",
			input:    "a@example.com,b@example.com",
			expected: []string{"a@example.com", "b@example.com"},
		},
		{
			name:     "with spaces",
			input:    "a@example.com, b@example.com , c@example.com",
			expected: []string{"a@example.com", "b@example.com", "c@example.com"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "trailing comma",
			input:    "a@example.com,",
			expected: []string{"a@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitAddressList(tt.input))
		})
	}
}

func TestEmailFromArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			name:    "missing to",
			args:    map[string]interface{}{"subject": "Hi", "body": "Hello"},
			wantErr: "to is required",
		},
		{
			name:    "missing subject",
			args:    map[string]interface{}{"to": "a@example.com", "body": "Hello"},
			wantErr: "subject is required",
		},
		{
			name:    "missing body",
			args:    map[string]interface{}{"to": "a@example.com", "subject": "Hi"},
			wantErr: "body is required",
		},
		{
			name: "complete",
			args: map[string]interface{}{
				"to":      "a@example.com, b@example.com",
				"subject": "Hi",
				"body":    "Hello",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, errMsg := emailFromArgs(tt.args)
			if tt.wantErr != "" {
				assert.Nil(t, msg)
				assert.Equal(t, tt.wantErr, errMsg)
				return
			}
			require.Empty(t, errMsg)
			assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)
			assert.Equal(t, "Hi", msg.Subject)
			assert.Equal(t, "Hello", msg.Body)
		})
	}
}

func TestEmailFromArgs_OptionalFields(t *testing.T) {
	msg, errMsg := emailFromArgs(map[string]interface{}{
		"to":          "a@example.com",
		"subject":     "Hi",
		"body":        "Hello",
		"cc":          "c@example.com",
		"bcc":         "d@example.com",
		"replyTo":     "reply@example.com",
		"attachments": "/tmp/report.pdf",
	})

	require.Empty(t, errMsg)
	assert.Equal(t, []string{"c@example.com"}, msg.Cc)
	assert.Equal(t, []string{"d@example.com"}, msg.Bcc)
	assert.Equal(t, "reply@example.com", msg.ReplyTo)
	assert.Equal(t, []string{"/tmp/report.pdf"}, msg.Attachments)
}

func TestHandleSendEmail_MissingRecipient(t *testing.T) {
	sc := newEmptyServerContext(t)

	result, err := handleSendEmail(context.Background(), toolRequest("gmail_send_email", map[string]interface{}{
		"subject": "Hi",
		"body":    "Hello",
	}), sc)

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "to is required", resultText(t, result))
}

func TestHandleReplyEmail_MissingBody(t *testing.T) {
	sc := newEmptyServerContext(t)

	result, err := handleReplyEmail(context.Background(), toolRequest("gmail_reply_email", map[string]interface{}{
		"messageId": "msg1",
	}), sc)

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "body is required", resultText(t, result))
}

func TestHandleDeleteDraft_MissingID(t *testing.T) {
	sc := newEmptyServerContext(t)

	result, err := handleDeleteDraft(context.Background(), toolRequest("gmail_delete_draft", map[string]interface{}{}), sc)

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "draftId is required", resultText(t, result))
}

func TestHandleSendDraft_MissingID(t *testing.T) {
	sc := newEmptyServerContext(t)

	result, err := handleSendDraft(context.Background(), toolRequest("gmail_send_draft", map[string]interface{}{}), sc)

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "draftId is required", resultText(t, result))
}
