package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ToolInvocation is the audit record for one MCP tool call: which tool ran,
// against which account, what Gmail operation it performed and how it ended.
//
// AccountEmail is the mailbox address and therefore PII. General logs carry
// only its domain via LogAttrs; the full address appears solely when the
// audit logger is configured with IncludePII.
type ToolInvocation struct {
	Tool string

	// Target mailbox
	Account      string // configured account name (default, work, ...)
	AccountEmail string // resolved address, "" until a session has opened

	// Gmail surface behind the tool
	ServiceName string // service family (gmail, accounts)
	Operation   string // resource-qualified operation (messages.list, labels.create)

	// Outcome
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Correlation with the tool span
	TraceID string
	SpanID  string
}

// NewToolInvocation starts an audit record for the named tool. Call one of
// the Complete methods when the handler returns.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithAccount records the configured account name.
func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

// WithAccountEmail records the resolved mailbox address.
func (ti *ToolInvocation) WithAccountEmail(email string) *ToolInvocation {
	ti.AccountEmail = email
	return ti
}

// WithService records the service family and operation behind the tool.
func (ti *ToolInvocation) WithService(serviceName, operation string) *ToolInvocation {
	ti.ServiceName = serviceName
	ti.Operation = operation
	return ti
}

// WithSpanContext copies the trace and span ids from the span in ctx, when
// there is a recording one.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stops the clock and records the outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError records a failed invocation.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation { return ti.Complete(false, err) }

// CompleteSuccess records a successful invocation.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation { return ti.Complete(true, nil) }

// Status maps the outcome onto the metric status values.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// AccountDomain returns the domain of the mailbox address, for logs that
// want to distinguish tenants without carrying the address itself.
func (ti *ToolInvocation) AccountDomain() string {
	return ExtractAccountDomain(ti.AccountEmail)
}

// LogAttrs renders the record for general logs: the mailbox reduced to its
// domain, the implicit default account left out.
func (ti *ToolInvocation) LogAttrs() []slog.Attr { return ti.attrs(false) }

// LogAuditAttrs renders the full record, mailbox address and span id
// included. Only the audit logger uses it, and only when IncludePII is set.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr { return ti.attrs(true) }

func (ti *ToolInvocation) attrs(full bool) []slog.Attr {
	attrs := make([]slog.Attr, 0, 10)
	attrs = append(attrs,
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	)

	// The implicit default account only shows up in the full record.
	if ti.Account != "" && (full || ti.Account != "default") {
		attrs = append(attrs, slog.String("account", ti.Account))
	}
	if ti.AccountEmail != "" {
		if full {
			attrs = append(attrs, slog.String("account_email", ti.AccountEmail))
		} else {
			attrs = append(attrs, slog.String("account_domain", ti.AccountDomain()))
		}
	}

	if ti.ServiceName != "" {
		attrs = append(attrs, slog.String("service", ti.ServiceName))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if full && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// AuditLogger writes one log record per tool invocation. Whether records
// carry the mailbox address is a construction-time decision; handlers just
// hand over the finished ToolInvocation.
type AuditLogger struct {
	logger     *slog.Logger
	level      slog.Level
	includePII bool
	enabled    bool
}

// NewAuditLogger builds an audit logger from the audit section of the
// instrumentation config. A nil logger falls back to slog.Default.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		level:      parseAuditLevel(config.LogLevel),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation writes the audit record for a finished invocation.
// Successful calls log at the configured level, failures always at warn.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	attrs := ti.LogAttrs()
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	}

	if ti.Success {
		al.logger.LogAttrs(ctx, al.level, "tool_executed", attrs...)
	} else {
		al.logger.LogAttrs(ctx, slog.LevelWarn, "tool_failed", attrs...)
	}
}

// parseAuditLevel maps the config's level names onto slog levels, with info
// as the fallback for anything unrecognized.
func parseAuditLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
