package cmd

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gmailagent/gmailagent/internal/config"
	"github.com/gmailagent/gmailagent/internal/server"
)

func TestNewServeCmd_FlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		flag     string
		expected string
	}{
		{flag: "read-only", expected: "false"},
		{flag: "metrics", expected: "false"},
		{flag: "metrics-addr", expected: server.DefaultMetricsAddr},
	}

	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("expected --%s flag to be registered", tt.flag)
			continue
		}
		if f.DefValue != tt.expected {
			t.Errorf("--%s default = %q, want %q", tt.flag, f.DefValue, tt.expected)
		}
	}
}

func TestRegisterAllTools(t *testing.T) {
	for _, readOnly := range []bool{false, true} {
		sc, err := server.NewServerContext(context.Background(), config.NewStore(t.TempDir()), nil)
		if err != nil {
			t.Fatalf("failed to create server context: %v", err)
		}
		defer sc.Shutdown()

		mcpSrv := mcpserver.NewMCPServer("gmailagent", "test",
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithResourceCapabilities(false, false),
		)

		if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
			t.Errorf("registerAllTools(readOnly=%v) returned error: %v", readOnly, err)
		}
	}
}
