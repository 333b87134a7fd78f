package instrumentation

import (
	"strings"
	"testing"
)

func TestExtractAccountDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"finance@corp.example", "corp.example"},
		{"jane.doe+filters@gmail.com", "gmail.com"},
		{"oncall@mail.euw1.corp.example", "mail.euw1.corp.example"},
		{"not-an-address", "unknown"},
		{"", "unknown"},
		{"two@at@signs", "unknown"},
		{"trailing@", "unknown"},
		{"@bare-domain.example", "bare-domain.example"},
	}

	for _, tt := range tests {
		if got := ExtractAccountDomain(tt.email); got != tt.want {
			t.Errorf("ExtractAccountDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

// The operation constants become metric label values, so the set has to stay
// free of duplicates and uniformly resource.verb shaped.
func TestOperationLabels(t *testing.T) {
	ops := []string{
		OperationMessagesList, OperationMessagesGet, OperationMessagesTrash,
		OperationMessagesUntrash, OperationMessagesArchive, OperationMessagesMove,
		OperationMessagesCleanup, OperationMessagesSend, OperationMessagesReply,
		OperationLabelsList, OperationLabelsCreate, OperationLabelsDelete,
		OperationLabelsRename,
		OperationFiltersList, OperationFiltersCreate, OperationFiltersDelete,
		OperationAttachmentsList, OperationAttachmentsDownload,
		OperationDraftsList, OperationDraftsCreate, OperationDraftsDelete,
		OperationDraftsSend,
	}

	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		if seen[op] {
			t.Errorf("duplicate operation label %q", op)
		}
		seen[op] = true

		resource, verb, ok := strings.Cut(op, ".")
		if !ok || resource == "" || verb == "" {
			t.Errorf("operation label %q is not resource.verb shaped", op)
		}
	}
}
