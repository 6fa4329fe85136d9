package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"cargo-console/internal/middleware"
	"cargo-console/internal/realtime"
	"cargo-console/internal/shared/errors"
	"cargo-console/internal/shared/response"

	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts browser upgrades from allowedOrigin only. Non-browser
// clients send no Origin header and are always accepted.
func NewHandler(hub *realtime.Hub, allowedOrigin string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// RoomEvents upgrades GET /ws/rooms/{room} and streams the room's events.
func (h *Handler) RoomEvents(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "room_events", "remote_addr", r.RemoteAddr)

	roomID, err := strconv.Atoi(r.PathValue("room"))
	if err != nil || roomID <= 0 {
		response.Error(w, r, logger, errors.Validationf("invalid room ID %q", r.PathValue("room")))
		return
	}

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logger.Debug("Websocket upgrade failed", "error", err)
		return
	}

	logger.Info("Room subscription opened", "room_id", roomID, "user_id", claims.UserID)
	h.hub.Serve(conn, roomID, claims.UserID)
	logger.Info("Room subscription closed", "room_id", roomID, "user_id", claims.UserID)
}
