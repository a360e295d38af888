package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves process-level monitoring endpoints.
type SystemHandlers struct {
	startupTime time.Time
	log         zerolog.Logger
}

// NewSystemHandlers creates the system handlers.
func NewSystemHandlers(log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		startupTime: time.Now(),
		log:         log.With().Str("handler", "system").Logger(),
	}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// HandleHealth handles GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
	}

	// Best-effort metrics; health stays "ok" even when the host refuses them
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		resp.CPUPercent = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemoryPercent = vm.UsedPercent
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleValidators returns GET /api/validators: the names the startup
// registry can construct.
func (h *SystemHandlers) HandleValidators(names []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]string{"validators": names})
	}
}
