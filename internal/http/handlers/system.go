package handlers

import (
	"context"
	"runtime"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"

	"github.com/hertelukas/jellyfin/internal/service"
)

// SystemHandler handles health and system status endpoints.
type SystemHandler struct {
	version    string
	startTime  time.Time
	db         *gorm.DB
	recordings *service.RecordingService
}

// NewSystemHandler creates a new system handler.
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version, startTime: time.Now()}
}

// WithDB sets the database connection for health checks.
func (h *SystemHandler) WithDB(db *gorm.DB) *SystemHandler {
	h.db = db
	return h
}

// WithRecordings includes running-recording counts in the status.
func (h *SystemHandler) WithRecordings(recordings *service.RecordingService) *SystemHandler {
	h.recordings = recordings
	return h
}

// Register registers the system routes with the API.
func (h *SystemHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"System"},
	}, h.GetHealth)

	huma.Register(api, huma.Operation{
		OperationID: "getSystemStatus",
		Method:      "GET",
		Path:        "/api/v1/system/status",
		Summary:     "System status",
		Description: "Returns process uptime, host load, and memory usage.",
		Tags:        []string{"System"},
	}, h.GetStatus)
}

// HealthOutput is the health check response.
type HealthOutput struct {
	Body struct {
		Status    string            `json:"status"`
		Version   string            `json:"version"`
		Timestamp string            `json:"timestamp"`
		Uptime    string            `json:"uptime"`
		Checks    map[string]string `json:"checks"`
	}
}

// GetHealth returns the health status of the service.
func (h *SystemHandler) GetHealth(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := &HealthOutput{}
	resp.Body.Status = "healthy"
	resp.Body.Version = h.version
	resp.Body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	resp.Body.Uptime = time.Since(h.startTime).Round(time.Second).String()
	resp.Body.Checks = map[string]string{
		"database": h.databaseStatus(ctx),
	}
	return resp, nil
}

func (h *SystemHandler) databaseStatus(ctx context.Context) string {
	if h.db == nil {
		return "not configured"
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return "error"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}

// SystemStatusOutput is the system status response.
type SystemStatusOutput struct {
	Body struct {
		Version          string  `json:"version"`
		UptimeSeconds    float64 `json:"uptime_seconds"`
		NumGoroutines    int     `json:"num_goroutines"`
		NumCPU           int     `json:"num_cpu"`
		Load1            float64 `json:"load_1,omitempty"`
		Load5            float64 `json:"load_5,omitempty"`
		Load15           float64 `json:"load_15,omitempty"`
		MemoryUsedBytes  uint64  `json:"memory_used_bytes,omitempty"`
		MemoryTotalBytes uint64  `json:"memory_total_bytes,omitempty"`
		MemoryUsedPct    float64 `json:"memory_used_pct,omitempty"`
		ActiveRecordings int     `json:"active_recordings"`
	}
}

// GetStatus returns process and host metrics.
func (h *SystemHandler) GetStatus(ctx context.Context, _ *struct{}) (*SystemStatusOutput, error) {
	resp := &SystemStatusOutput{}
	resp.Body.Version = h.version
	resp.Body.UptimeSeconds = time.Since(h.startTime).Seconds()
	resp.Body.NumGoroutines = runtime.NumGoroutine()
	resp.Body.NumCPU = runtime.NumCPU()

	// Host metrics are best effort; some platforms report neither load
	// averages nor memory details.
	if avg, err := load.AvgWithContext(ctx); err == nil {
		resp.Body.Load1 = avg.Load1
		resp.Body.Load5 = avg.Load5
		resp.Body.Load15 = avg.Load15
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.Body.MemoryUsedBytes = vm.Used
		resp.Body.MemoryTotalBytes = vm.Total
		resp.Body.MemoryUsedPct = vm.UsedPercent
	}
	if h.recordings != nil {
		resp.Body.ActiveRecordings = len(h.recordings.List())
	}

	return resp, nil
}
