package handlers

import (
	"net/http"
	"runtime"
	"time"
)

var (
	// Set during build time using ldflags
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = runtime.Version()
)

var serverStartTime = time.Now()

type HealthResponse struct {
	Status       string    `json:"status"`
	Database     string    `json:"database"`
	Version      string    `json:"version"`
	BuildTime    string    `json:"build_time"`
	GitCommit    string    `json:"git_commit"`
	GoVersion    string    `json:"go_version"`
	Uptime       string    `json:"uptime"`
	UptimeMs     int64     `json:"uptime_ms"`
	StartTime    time.Time `json:"start_time"`
	NumGoroutine int       `json:"num_goroutine"`
	MemoryMB     int64     `json:"memory_mb"`
}

// HealthHandler reports build information and whether the database answers.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(serverStartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := HealthResponse{
		Status:       "ok",
		Database:     "ok",
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    GoVersion,
		Uptime:       uptime.String(),
		UptimeMs:     uptime.Milliseconds(),
		StartTime:    serverStartTime,
		NumGoroutine: runtime.NumGoroutine(),
		MemoryMB:     int64(memStats.Alloc / 1024 / 1024),
	}

	status := http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
