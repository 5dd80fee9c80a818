package health

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Probe reports the status of one dependency; nil means healthy
type Probe func() error

// HealthChecker serves liveness and readiness endpoints
type HealthChecker struct {
	probes map[string]Probe
	logger *zap.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewHealthChecker creates a health checker over the named probes
func NewHealthChecker(probes map[string]Probe, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		probes: probes,
		logger: logger,
	}
}

// LivenessHandler handles liveness probe requests
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// ReadinessHandler handles readiness probe requests
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.probes))
	allHealthy := true

	for name, probe := range h.probes {
		if err := probe(); err != nil {
			h.logger.Debug("Readiness probe failed", zap.String("probe", name), zap.Error(err))
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks[name] = "healthy"
		}
	}

	status := HealthStatus{
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")

	if allHealthy {
		status.Status = "ready"
		w.WriteHeader(http.StatusOK)
	} else {
		status.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(status)
}
