package api

import (
	"net/http"
	"time"

	"bazi/internal/jobs"
	"bazi/internal/storage"
	"bazi/internal/version"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   version.BuildInfo      `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runner    *jobs.RunnerStats      `json:"runner,omitempty"`
	Snapshots *storage.SnapshotStats `json:"snapshots,omitempty"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// handleHealth reports liveness plus runner and cache statistics. A stopped
// runner or an unreadable cache degrades the status but still answers 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Current(),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
	}

	if s.deps.Runner != nil {
		stats := s.deps.Runner.Stats()
		resp.Runner = &stats
		if !s.deps.Runner.IsRunning() {
			resp.Warnings = append(resp.Warnings, "job runner is stopped")
		}
	}

	if s.deps.Library != nil {
		stats, err := s.deps.Library.SnapshotStats()
		if err != nil {
			resp.Warnings = append(resp.Warnings, "snapshot cache unavailable: "+err.Error())
		}
		resp.Snapshots = stats
	}

	if len(resp.Warnings) > 0 {
		resp.Status = "degraded"
	}
	WriteJSON(w, resp, http.StatusOK)
}
