package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/gmailagent/gmailagent/internal/config"
	"github.com/gmailagent/gmailagent/internal/instrumentation"
	"github.com/gmailagent/gmailagent/internal/server"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), config.NewStore(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// withNoopMetrics installs a metrics recorder backed by a noop meter, so the
// recording paths run without an exporter.
func withNoopMetrics(t *testing.T, sc *server.ServerContext) {
	t.Helper()
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	sc.SetMetrics(metrics)
}

func TestInstrumentedToolHandler_PassThrough(t *testing.T) {
	// No metrics, no audit logger: the wrapper must stay out of the way.
	sc := newTestServerContext(t)

	called := false
	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if result == nil {
		t.Error("result missing")
	}
}

func TestInstrumentedToolHandler_PropagatesError(t *testing.T) {
	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wantErr := errors.New("session not available")
	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, wantErr
	})

	if _, err := wrapped(context.Background(), mcp.CallToolRequest{}); err != wantErr {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestInstrumentedToolHandler_PropagatesErrorResult(t *testing.T) {
	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("label not found"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("error result should pass through unchanged")
	}
}

func TestInstrumentedToolHandlerWithService_RecordsMetrics(t *testing.T) {
	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wrapped := InstrumentedToolHandlerWithService("gmail_list_messages", "gmail", "messages.list", sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	// The noop meter cannot surface values; this covers the recording path
	// for both the tool and the per-operation series.
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result == nil {
		t.Error("result missing")
	}
}

func TestInstrumentedToolHandlerWithService_ErrorStatus(t *testing.T) {
	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wantErr := errors.New("gmail API error")
	wrapped := InstrumentedToolHandlerWithService("gmail_send_email", "gmail", "messages.send", sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, wantErr
		})

	if _, err := wrapped(context.Background(), mcp.CallToolRequest{}); err != wantErr {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestInstrumentedToolHandler_AuditRecord(t *testing.T) {
	sc := newTestServerContext(t)

	var buf bytes.Buffer
	auditLogger := instrumentation.NewAuditLogger(
		slog.New(slog.NewTextHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true},
	)
	sc.SetAuditLogger(auditLogger)

	wrapped := InstrumentedToolHandlerWithService("gmail_list_labels", "gmail", "labels.list", sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	if _, err := wrapped(context.Background(), mcp.CallToolRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "tool_executed") {
		t.Errorf("audit output %q missing tool_executed record", out)
	}
	if !strings.Contains(out, "tool=gmail_list_labels") {
		t.Errorf("audit output %q missing tool name", out)
	}
	if !strings.Contains(out, "operation=labels.list") {
		t.Errorf("audit output %q missing operation", out)
	}
}
