package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gmailagent/gmailagent/internal/instrumentation"
	"github.com/gmailagent/gmailagent/internal/logging"
	"github.com/gmailagent/gmailagent/internal/resources"
	"github.com/gmailagent/gmailagent/internal/server"
	"github.com/gmailagent/gmailagent/internal/tools/account_tools"
	"github.com/gmailagent/gmailagent/internal/tools/gmail_tools"
)

func newServeCmd() *cobra.Command {
	var (
		readOnly       bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Gmail tools
for AI assistants.

The server speaks MCP over stdio: stdout carries the protocol and all
diagnostics go to stderr. Accounts must be authorized up front with
"gmailagent accounts --auth <name>"; the server never starts a browser
consent flow of its own, it only refreshes tokens that already exist.

Read-only mode:
  With --read-only, only tools that cannot modify the mailbox are
  registered (listing, reading, downloading). Write tools are left out
  entirely, so a connected assistant cannot discover them.

Metrics:
  With --metrics, Prometheus metrics and health probes are served on a
  dedicated port (default :9090), keeping the MCP transport untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Environment variables fill in flags the user did not set.
			if !cmd.Flags().Changed("metrics") && os.Getenv("METRICS_ENABLED") == "true" {
				metricsEnabled = true
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}

			return runServe(readOnly, metricsEnabled, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Register only tools that cannot modify the mailbox")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", false, "Serve Prometheus metrics and health probes on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(readOnly, metricsEnabled bool, metricsAddr string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(verboseFlag)
	slog.SetDefault(logger)

	store, err := openStore()
	if err != nil {
		return err
	}

	icfg := instrumentation.DefaultConfig()
	icfg.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, icfg)
	if err != nil {
		return fmt.Errorf("failed to set up instrumentation: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	// Tool handlers pick these up through the server context. The audit
	// logger shares the process logger set up above.
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, icfg.AuditLogging))
	}

	metricsServer, err := startMetrics(metricsEnabled, metricsAddr, icfg, provider, serverContext, logger)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("gmailagent", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // no subscribe or listChanged notifications
	)

	if readOnly {
		logger.Info("starting server in read-only mode")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Tools are registered; open the readiness gate.
	if metricsServer != nil {
		metricsServer.Health().SetReady(true)
	}

	// ServeStdio installs its own signal handling and returns once stdin
	// closes or a signal arrives; cancellation is a clean exit.
	if err := mcpserver.ServeStdio(mcpSrv); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server exited: %w", err)
	}
	return nil
}

// startMetrics brings up the metrics listener when both the flag and the
// instrumentation provider allow it, and returns nil otherwise. It waits for
// the bind so port conflicts surface before the MCP transport takes over
// stdio; afterwards there is no channel left to report them on.
func startMetrics(enabled bool, addr string, icfg instrumentation.Config, provider *instrumentation.Provider, sc *server.ServerContext, logger *slog.Logger) (*server.MetricsServer, error) {
	if !enabled || !provider.Enabled() {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		MetricsPath:             icfg.PrometheusEndpoint,
		InstrumentationProvider: provider,
		ServerContext:           sc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	listening := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(listening); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
		close(failed)
	}()

	select {
	case <-listening:
		logger.Info("metrics server listening", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-failed:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

// registerAllTools wires every tool and resource onto the MCP server. The
// gmail registration drops write tools itself in readOnly mode.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := gmail_tools.RegisterGmailTools(mcpSrv, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register gmail tools: %w", err)
	}
	if err := account_tools.RegisterAccountTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register account tools: %w", err)
	}
	if err := resources.RegisterAccountResources(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register account resources: %w", err)
	}
	return nil
}
