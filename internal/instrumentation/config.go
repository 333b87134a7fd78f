package instrumentation

import (
	"fmt"
	"os"
	"strconv"
)

// Exporter names accepted by Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Config controls metrics, tracing and audit logging. DefaultConfig reads it
// from the environment; Validate rejects combinations NewProvider cannot
// serve.
type Config struct {
	// ServiceName and ServiceVersion identify the process in exported
	// telemetry. ServiceInstanceID distinguishes replicas and falls back
	// to the hostname.
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string

	// Enabled switches all instrumentation off when false. The provider
	// then hands out no-op recorders.
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout. TracingExporter is
	// otlp, stdout or none; tracing stays off by default.
	MetricsExporter string
	TracingExporter string

	// OTLPEndpoint is the collector address without a scheme, for example
	// "localhost:4318". OTLPInsecure switches the exporter to plain HTTP;
	// traces can carry sensitive metadata, so leave it off outside local
	// collectors.
	OTLPEndpoint string
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based sampling ratio, 0.0 to 1.0.
	TraceSamplingRate float64

	// PrometheusEndpoint is the URL path the metrics server scrapes from.
	PrometheusEndpoint string

	// DetailedLabels adds the account name to tool metrics. Off by
	// default: one time series per account per tool adds up quickly.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit trail of tool invocations.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs full email addresses instead of only their domain.
	// Audit logs with PII need secure storage and access controls.
	IncludePII bool

	// LogLevel is the slog level audit records are written at: debug,
	// info, warn or error.
	LogLevel string
}

// DefaultConfig builds a Config from the environment. Instrumentation and
// audit logging are on, Prometheus serves metrics and tracing stays off
// until TRACING_EXPORTER selects an exporter.
func DefaultConfig() Config {
	return Config{
		ServiceName:        envString("OTEL_SERVICE_NAME", "gmailagent"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  envString("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:            envBool("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  envFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: envString("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     envBool("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envBool("AUDIT_LOGGING_ENABLED", true),
			IncludePII: envBool("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   envString("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate reports the first unusable setting. Empty exporter names pass so
// a zero Config stays valid.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate %g is outside the range 0 to 1", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q (choose prometheus, otlp or stdout)", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q (choose otlp, stdout or none)", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required for the otlp tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required for the otlp metrics exporter")
		}
	}

	return nil
}

// Label values shared by metrics, spans and audit records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
	OAuthResultExpired = "expired"

	// ServiceGmail tags telemetry for calls into the Gmail API.
	ServiceGmail = "gmail"
)

// The env helpers fall back to the default on unset, empty or unparseable
// values.

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}
