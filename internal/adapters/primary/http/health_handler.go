package http

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthStats exposes live connection counts for the health report.
type HealthStats interface {
	ClientCount() int
	RoomCount() int
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db    HealthChecker
	stats HealthStats
}

func NewHealthHandler(db HealthChecker, stats HealthStats) *HealthHandler {
	return &HealthHandler{db: db, stats: stats}
}

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database,omitempty"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
}

// Live reports process liveness. Always 200 while the server is running.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Connections: h.stats.ClientCount(),
		Rooms:       h.stats.RoomCount(),
	})
}

// Ready reports readiness: 503 until the database answers a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Database:    "ok",
		Connections: h.stats.ClientCount(),
		Rooms:       h.stats.RoomCount(),
	}

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}
