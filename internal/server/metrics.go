package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gmailagent/gmailagent/internal/instrumentation"
)

// DefaultMetricsAddr is where the metrics server listens unless configured
// otherwise.
const DefaultMetricsAddr = ":9090"

// Timeouts for the metrics listener. Scrapes are small and quick; anything
// slower is a stuck client.
const (
	metricsReadHeaderTimeout = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 60 * time.Second
)

// MetricsServerConfig configures the dedicated metrics listener.
type MetricsServerConfig struct {
	// Addr is the listen address, DefaultMetricsAddr when empty.
	Addr string

	// MetricsPath is the URL path of the Prometheus scrape endpoint.
	// Defaults to "/metrics".
	MetricsPath string

	// InstrumentationProvider provides the Prometheus metrics registry.
	InstrumentationProvider *instrumentation.Provider

	// ServerContext backs the health endpoints. May be nil; readiness then
	// depends only on the ready gate.
	ServerContext *ServerContext
}

// MetricsServer serves Prometheus metrics and health probes on a dedicated
// port, keeping operational endpoints off the MCP transport.
type MetricsServer struct {
	httpServer  *http.Server
	addr        string
	metricsPath string
	health      *HealthChecker
}

// NewMetricsServer builds the server that exposes /metrics for Prometheus
// scraping plus the /healthz and /readyz probes.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required")
	}

	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}

	return &MetricsServer{
		addr:        config.Addr,
		metricsPath: config.MetricsPath,
		health:      NewHealthChecker(config.ServerContext),
	}, nil
}

// Health returns the health checker so the serve command can open the
// readiness gate once tool registration is done.
func (s *MetricsServer) Health() *HealthChecker {
	return s.health
}

// Start binds the listener and serves until Shutdown. listening is closed
// once the port is bound, so callers can surface port conflicts before the
// MCP transport takes over stdio.
func (s *MetricsServer) Start(listening chan<- struct{}) error {
	mux := http.NewServeMux()

	// The OpenTelemetry prometheus exporter registers with the global
	// Prometheus registry, which promhttp.Handler() exposes.
	mux.Handle(s.metricsPath, promhttp.Handler())
	s.health.RegisterHealthEndpoints(mux)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()

	close(listening)
	return s.httpServer.Serve(ln)
}

// Shutdown stops the listener, letting in-flight scrapes finish.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("stopping metrics server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address until Start signals, the bound
// address after. With a ":0" configuration that is the only way to learn
// the assigned port.
func (s *MetricsServer) Addr() string {
	return s.addr
}
