// Package instrumentation wires OpenTelemetry metrics and tracing into the
// MCP server. A Provider built from Config owns the exporters; handlers go
// through the Metrics recorder, the span helpers and the audit logger, all
// of which degrade to no-ops when instrumentation is off.
//
// # Metrics
//
// Gmail API usage:
//   - gmail_api_operations_total: operations by resource-qualified name and status
//   - gmail_api_operation_duration_seconds: operation latency
//
// OAuth lifecycle:
//   - oauth_auth_total: authentication attempts by result
//   - oauth_token_refresh_total: token refreshes by result
//
// MCP tool surface:
//   - mcp_tool_invocations_total: tool calls by tool name and status
//   - mcp_tool_duration_seconds: tool latency
//   - active_sessions: cached Gmail sessions
//
// Label sets stay closed: operations come from the Operation constants,
// statuses from the Status constants, and the account label only appears
// when detailed labels are switched on.
//
// # Tracing
//
// Tool invocations run inside tool.<name> spans and each Gmail API call
// nests a gmail.<operation> span below them, tagged with the account and
// the resource it touches. Sampling and the exporter come from Config,
// with tracing off entirely by default.
//
// # Configuration
//
// DefaultConfig reads the environment:
//   - INSTRUMENTATION_ENABLED: master switch (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: collector endpoint for the otlp exporters
//   - OTEL_TRACES_SAMPLER_ARG: trace sampling rate (default: 0.1)
//   - OTEL_SERVICE_NAME: reported service name (default: gmailagent)
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordGmailOperation(ctx, instrumentation.OperationMessagesList,
//		instrumentation.StatusSuccess, time.Since(start))
//	recorder.RecordToolInvocation(ctx, "gmail_list_messages",
//		instrumentation.StatusSuccess, account, time.Since(start))
package instrumentation
