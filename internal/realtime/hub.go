package realtime

import (
	"log/slog"
	"sync"
	"time"

	"cargo-console/internal/shared/config"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Options tune connection keep-alive and buffering.
type Options struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
	SendBuffer int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		WriteWait:  cfg.Realtime.WriteWait,
		PongWait:   cfg.Realtime.PongWait,
		PingPeriod: cfg.PingPeriod(),
		SendBuffer: cfg.Realtime.SendBuffer,
	}
}

func (o Options) withDefaults() Options {
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.SendBuffer < 1 {
		o.SendBuffer = 16
	}
	return o
}

// Hub tracks the websocket connections of every room on this instance.
type Hub struct {
	opts   Options
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[int]map[*Client]struct{}
}

func NewHub(opts Options) *Hub {
	return &Hub{
		opts:   opts.withDefaults(),
		logger: slog.With("component", "realtime_hub"),
		rooms:  make(map[int]map[*Client]struct{}),
	}
}

// Serve registers conn in the room and blocks until the connection closes.
func (h *Hub) Serve(conn *websocket.Conn, roomID, userID int) {
	c := &Client{
		id:     uuid.NewString(),
		roomID: roomID,
		userID: userID,
		conn:   conn,
		send:   make(chan Event, h.opts.SendBuffer),
		hub:    h,
	}

	h.register(c)
	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	clients, ok := h.rooms[c.roomID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[c.roomID] = clients
	}
	clients[c] = struct{}{}
	size := len(clients)
	h.mu.Unlock()

	h.logger.Debug("Client joined room",
		"operation", "register",
		"client_id", c.id,
		"room_id", c.roomID,
		"user_id", c.userID,
		"room_size", size)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	clients, ok := h.rooms[c.roomID]
	if ok {
		if _, member := clients[c]; member {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	h.mu.Unlock()

	h.logger.Debug("Client left room",
		"operation", "unregister",
		"client_id", c.id,
		"room_id", c.roomID,
		"user_id", c.userID)
}

// Deliver fans an event out to the room's connections. A client whose
// buffer is full is disconnected rather than allowed to stall the room.
func (h *Hub) Deliver(event Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.rooms[event.RoomID] {
		select {
		case c.send <- event:
			delivered++
		default:
			h.logger.Warn("Dropping slow client",
				"operation", "deliver",
				"client_id", c.id,
				"room_id", c.roomID,
				"event_type", event.Type)
			delete(h.rooms[event.RoomID], c)
			close(c.send)
		}
	}
	if len(h.rooms[event.RoomID]) == 0 {
		delete(h.rooms, event.RoomID)
	}
	return delivered
}

// RoomSize reports how many connections are subscribed to a room.
func (h *Hub) RoomSize(roomID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Connections reports the total number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, clients := range h.rooms {
		total += len(clients)
	}
	return total
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, clients := range h.rooms {
		for c := range clients {
			close(c.send)
		}
		delete(h.rooms, roomID)
	}
}
