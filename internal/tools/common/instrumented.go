package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gmailagent/gmailagent/internal/instrumentation"
	"github.com/gmailagent/gmailagent/internal/server"
)

// ToolHandlerFunc matches the handler signature mcp-go expects for tools.
type ToolHandlerFunc = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a handler so every call runs inside a tool
// span and lands in the tool metrics and the audit log.
//
//	s.AddTool(tool, common.InstrumentedToolHandler("accounts_list", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return instrumented(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService additionally records which Gmail
// operation the tool performs, feeding the per-operation API metrics next
// to the per-tool ones.
//
//	s.AddTool(tool, common.InstrumentedToolHandlerWithService("gmail_list_messages", "gmail", "messages.list", sc, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return instrumented(toolName, serviceName, operation, sc, handler)
}

func instrumented(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		account := GetAccountFromArgs(request.GetArguments())

		builder := instrumentation.NewSpanAttributeBuilder().WithAccount(account)
		if serviceName != "" {
			builder = builder.WithService(serviceName).WithOperation(operation)
		}
		// A no-op span until the provider installs a tracer.
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, builder.Build()...)
		defer span.End()

		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		if account != "" {
			invocation.WithAccount(account)
		}
		if serviceName != "" {
			invocation.WithService(serviceName, operation)
		}

		result, err := handler(ctx, request)

		switch {
		case err != nil:
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			// A tool-level error result is a handler failure for metrics
			// even though the MCP call itself succeeded.
			invocation.Complete(false, nil)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		// The handler may have opened the account's session; only the
		// session knows the mailbox address, the arguments just name it.
		if email := sc.AccountEmail(account); email != "" {
			invocation.WithAccountEmail(email)
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, invocation.Status(), account, invocation.Duration)
			if operation != "" {
				// Per-operation series let dashboards break down usage and
				// latency by mailbox operation rather than by tool.
				metrics.RecordGmailOperation(ctx, operation, invocation.Status(), invocation.Duration)
			}
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(ctx, invocation)
		}

		return result, err
	}
}
