package server

import (
	"log/slog"
	"net/http"

	"cargo-console/internal/middleware"
	"cargo-console/internal/realtime"
	realtimeHandlers "cargo-console/internal/realtime/handlers"
	"cargo-console/internal/room"
	roomHandlers "cargo-console/internal/room/handlers"
	serverHandlers "cargo-console/internal/server/handlers"
	"cargo-console/internal/shipbay"
	shipbayHandlers "cargo-console/internal/shipbay/handlers"
)

type Routes struct {
	database       serverHandlers.Pinger
	shipBayService *shipbay.Service
	roomService    *room.Service
	hub            *realtime.Hub
	broker         realtime.Broker
	frontendURL    string
	logger         *slog.Logger
}

// NewRoutes takes a nil database when arena records are kept in memory.
func NewRoutes(
	database serverHandlers.Pinger,
	shipBayService *shipbay.Service,
	roomService *room.Service,
	hub *realtime.Hub,
	broker realtime.Broker,
	frontendURL string,
	logger *slog.Logger,
) *Routes {
	return &Routes{
		database:       database,
		shipBayService: shipBayService,
		roomService:    roomService,
		hub:            hub,
		broker:         broker,
		frontendURL:    frontendURL,
		logger:         logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.database, r.broker, r.hub)
	shipBayHandler := shipbayHandlers.NewShipBayHandler(r.shipBayService)
	roomHandler := roomHandlers.NewRoomHandler(r.roomService)
	wsHandler := realtimeHandlers.NewHandler(r.hub, r.frontendURL)

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)

	// Participant endpoints (own user id, or admin)
	mux.Handle("GET /api/ship-bays/{room}/{user}", middleware.RequireParticipant(http.HandlerFunc(shipBayHandler.GetShipBays)))
	mux.Handle("POST /api/ship-bays", middleware.RequireParticipant(http.HandlerFunc(shipBayHandler.SaveShipBays)))
	mux.Handle("GET /ws/rooms/{room}", middleware.JWTMiddleware(http.HandlerFunc(wsHandler.RoomEvents)))

	// Admin-only endpoints
	mux.Handle("POST /api/rooms/{room}/participants/{user}/kick", middleware.RequireAdmin(http.HandlerFunc(roomHandler.KickParticipant)))
	mux.Handle("POST /api/rooms/{room}/end", middleware.RequireAdmin(http.HandlerFunc(roomHandler.EndSimulation)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health"},
		"participant_endpoints", []string{"/api/ship-bays/{room}/{user}", "/api/ship-bays", "/ws/rooms/{room}"},
		"admin_endpoints", []string{"/api/rooms/{room}/participants/{user}/kick", "/api/rooms/{room}/end"},
		"broker", r.broker.Name(),
	)

	return mux
}
