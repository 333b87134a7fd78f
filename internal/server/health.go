package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Health status values reported by the probe endpoints.
const (
	probeOK           = "ok"
	probeNotReady     = "not ready"
	probeShuttingDown = "shutting down"
)

// HealthChecker backs the /healthz and /readyz probes on the metrics port.
//
// A new checker reports not ready. The serve command flips it once tool
// registration is done, and readiness drops again when the server context
// starts shutting down.
type HealthChecker struct {
	ready atomic.Bool
	// sc is consulted for shutdown state; may be nil
	sc        *ServerContext
	startTime time.Time
}

// NewHealthChecker creates an unready HealthChecker.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	return &HealthChecker{
		sc:        sc,
		startTime: time.Now(),
	}
}

// SetReady flips the readiness gate.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) isServerShuttingDown() bool {
	return h.sc != nil && h.sc.IsShutdown()
}

// HealthResponse is the JSON body of the probe endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler returns the /healthz handler. Liveness says only that the
// process is running; it never fails while the server can answer at all.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealthJSON(w, http.StatusOK, HealthResponse{
			Status: probeOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		})
	})
}

// ReadinessHandler returns the /readyz handler. Readiness is 503 until the
// ready gate opens and again once the server context shuts down, with the
// failing check named in the body.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks := map[string]string{
			"ready":    probeOK,
			"shutdown": probeOK,
		}
		if !h.ready.Load() {
			checks["ready"] = probeNotReady
		}
		if h.isServerShuttingDown() {
			checks["shutdown"] = probeShuttingDown
		}

		response := HealthResponse{Status: probeOK, Checks: checks}
		code := http.StatusOK
		for _, status := range checks {
			if status != probeOK {
				response.Status = probeNotReady
				code = http.StatusServiceUnavailable
				break
			}
		}
		writeHealthJSON(w, code, response)
	})
}

// RegisterHealthEndpoints registers the probe endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
}

func writeHealthJSON(w http.ResponseWriter, code int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}
