// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/stanzacms/stanza/internal/middleware"
	"github.com/stanzacms/stanza/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db          *sql.DB
	versionInfo version.Info
	startTime   time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, versionInfo version.Info) *HealthHandler {
	return &HealthHandler{
		db:          db,
		versionInfo: versionInfo,
		startTime:   time.Now(),
	}
}

// HealthStatusPublic is the minimal response for unauthenticated callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the full response for authenticated callers.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains process-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Unauthenticated callers get a bare status;
// requests with a valid API key get check details and system info.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r)

	overallStatus := "healthy"
	if dbCheck.Status != "healthy" {
		overallStatus = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if middleware.GetAPIKey(r) == nil {
		_ = json.NewEncoder(w).Encode(HealthStatusPublic{Status: overallStatus})
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.versionInfo.String(),
		Checks:    map[string]Check{"database": dbCheck},
		System: &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     fmt.Sprintf("%.1f MB", float64(mem.Alloc)/1024/1024),
			MemSys:       fmt.Sprintf("%.1f MB", float64(mem.Sys)/1024/1024),
		},
	})
}

// Live handles GET /health/live. It only proves the process is serving.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /health/ready for load balancer probes.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *HealthHandler) checkDatabase(r *http.Request) Check {
	start := time.Now()
	if err := h.db.PingContext(r.Context()); err != nil {
		return Check{Status: "unhealthy", Message: err.Error()}
	}

	var n int64
	if err := h.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM pages").Scan(&n); err != nil {
		return Check{Status: "unhealthy", Message: err.Error()}
	}

	return Check{
		Status:  "healthy",
		Latency: time.Since(start).Round(time.Microsecond).String(),
	}
}
