package instrumentation

import "strings"

// ExtractAccountDomain reduces a mailbox address to its domain. Metrics and
// general logs use the domain where the full address would be PII and an
// unbounded label value.
//
//	ExtractAccountDomain("jane@example.com")  // "example.com"
//	ExtractAccountDomain("invalid")           // "unknown"
//	ExtractAccountDomain("")                  // "unknown"
func ExtractAccountDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// Operation label values for Gmail API metrics. Tool handlers record these
// resource-qualified names; keeping the set closed bounds label cardinality.
// Status, OAuth, and Service constants are defined in config.go.
const (
	OperationMessagesList    = "messages.list"
	OperationMessagesGet     = "messages.get"
	OperationMessagesTrash   = "messages.trash"
	OperationMessagesUntrash = "messages.untrash"
	OperationMessagesArchive = "messages.archive"
	OperationMessagesMove    = "messages.move"
	OperationMessagesCleanup = "messages.cleanup"
	OperationMessagesSend    = "messages.send"
	OperationMessagesReply   = "messages.reply"

	OperationLabelsList   = "labels.list"
	OperationLabelsCreate = "labels.create"
	OperationLabelsDelete = "labels.delete"
	OperationLabelsRename = "labels.rename"

	OperationFiltersList   = "filters.list"
	OperationFiltersCreate = "filters.create"
	OperationFiltersDelete = "filters.delete"

	OperationAttachmentsList     = "attachments.list"
	OperationAttachmentsDownload = "attachments.download"

	OperationDraftsList   = "drafts.list"
	OperationDraftsCreate = "drafts.create"
	OperationDraftsDelete = "drafts.delete"
	OperationDraftsSend   = "drafts.send"
)
