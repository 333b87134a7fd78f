package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
	attrAccount   = "account"
)

// latencyBuckets covers the spread between a cached profile read and a
// paginated cleanup run over a large mailbox.
var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics records the server's meters: Gmail API operations, OAuth flows,
// MCP tool invocations and the session gauge. The zero value is a no-op
// recorder, which is what a disabled provider hands out.
type Metrics struct {
	gmailOperationsTotal   metric.Int64Counter
	gmailOperationDuration metric.Float64Histogram

	oauthAuthTotal         metric.Int64Counter
	oauthTokenRefreshTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	activeSessions metric.Int64UpDownCounter

	// detailedLabels admits the account label on tool metrics. Off by
	// default; every named account is another label value.
	detailedLabels bool
}

// NewMetrics registers all instruments on the meter. The first registration
// error wins; later instruments are skipped once one has failed.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	var err error

	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		c, cErr := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if cErr != nil {
			err = fmt.Errorf("failed to register %s: %w", name, cErr)
		}
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		h, hErr := meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		)
		if hErr != nil {
			err = fmt.Errorf("failed to register %s: %w", name, hErr)
		}
		return h
	}

	m := &Metrics{
		gmailOperationsTotal:   counter("gmail_api_operations_total", "Gmail API operations by operation and status", "{operation}"),
		gmailOperationDuration: histogram("gmail_api_operation_duration_seconds", "Gmail API call latency"),
		oauthAuthTotal:         counter("oauth_auth_total", "OAuth authentication attempts by result", "{attempt}"),
		oauthTokenRefreshTotal: counter("oauth_token_refresh_total", "OAuth token refresh attempts by result", "{attempt}"),
		toolInvocationsTotal:   counter("mcp_tool_invocations_total", "MCP tool invocations by tool and status", "{invocation}"),
		toolDuration:           histogram("mcp_tool_duration_seconds", "MCP tool handler latency"),
		detailedLabels:         detailedLabels,
	}

	if err == nil {
		m.activeSessions, err = meter.Int64UpDownCounter("active_sessions",
			metric.WithDescription("Cached Gmail sessions"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			err = fmt.Errorf("failed to register active_sessions: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordGmailOperation counts one Gmail API operation and records its
// latency. Operation is one of the resource-qualified names from the
// Operation constants, status one of the Status constants.
func (m *Metrics) RecordGmailOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m.gmailOperationsTotal == nil || m.gmailOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.gmailOperationsTotal.Add(ctx, 1, attrs)
	m.gmailOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthAuth counts one authentication attempt. Result is one of the
// OAuthResult constants.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	recordResult(ctx, m.oauthAuthTotal, result)
}

// RecordOAuthTokenRefresh counts one token refresh attempt. Result is one
// of the OAuthResult constants.
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	recordResult(ctx, m.oauthTokenRefreshTotal, result)
}

func recordResult(ctx context.Context, counter metric.Int64Counter, result string) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
	}
}

// RecordToolInvocation counts one MCP tool call and records its latency.
// The account only becomes a label when detailed labels are enabled, so the
// default series stay bounded by the tool set.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	kvs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		kvs = append(kvs, attribute.String(attrAccount, account))
	}

	attrs := metric.WithAttributes(kvs...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// IncrementActiveSessions records a session entering the server's cache.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) { m.addSessions(ctx, 1) }

// DecrementActiveSessions records a cached session going away.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) { m.addSessions(ctx, -1) }

func (m *Metrics) addSessions(ctx context.Context, delta int64) {
	if m.activeSessions != nil {
		m.activeSessions.Add(ctx, delta)
	}
}
