package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cargo-console/internal/shared/response"
)

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database"`
	Realtime    string `json:"realtime"`
	Broker      string `json:"broker"`
	Connections int    `json:"connections"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Broker interface {
	Pinger
	Name() string
}

type ConnectionCounter interface {
	Connections() int
}

type HealthHandler struct {
	db     Pinger
	broker Broker
	hub    ConnectionCounter
}

// NewHealthHandler takes a nil db when the database is disabled.
func NewHealthHandler(db Pinger, broker Broker, hub ConnectionCounter) *HealthHandler {
	return &HealthHandler{db: db, broker: broker, hub: hub}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "connected"
		if err := h.db.Ping(ctx); err != nil {
			logger.Warn("Database ping failed", "error", err)
			dbStatus = "disconnected"
			status = "degraded"
		}
	}

	realtimeStatus := "connected"
	if err := h.broker.Ping(ctx); err != nil {
		logger.Warn("Realtime broker ping failed", "broker", h.broker.Name(), "error", err)
		realtimeStatus = "disconnected"
		status = "degraded"
	}

	resp := HealthResponse{
		Status:      status,
		Timestamp:   time.Now().Format(time.RFC3339),
		Database:    dbStatus,
		Realtime:    realtimeStatus,
		Broker:      h.broker.Name(),
		Connections: h.hub.Connections(),
	}

	response.Success(w, http.StatusOK, resp)
}
