package web

import (
	"net/http"
	"time"

	"github.com/nsiona/tvb-framework/internal/telemetry"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

type loggingStats struct {
	EventsTotal  uint64 `json:"eventsTotal"`
	DroppedTotal uint64 `json:"droppedTotal"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Status        string             `json:"status"`
		ServerTime    int64              `json:"serverTime"`
		UptimeSeconds int64              `json:"uptimeSeconds"`
		Sessions      int                `json:"sessions"`
		Telemetry     telemetry.Snapshot `json:"telemetry"`
		Logging       *loggingStats      `json:"logging,omitempty"`
	}{
		Status:        "ok",
		ServerTime:    time.Now().UnixMilli(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Sessions:      s.sessions.Count(),
		Telemetry:     s.counters.Snapshot(),
	}
	if s.logStats != nil {
		stats := s.logStats()
		payload.Logging = &loggingStats{
			EventsTotal:  stats.EventsTotal,
			DroppedTotal: stats.DroppedTotal,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}
