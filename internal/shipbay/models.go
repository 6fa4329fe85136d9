package shipbay

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("ship bay record not found")

// Record is one participant's persisted bay arrangement in a room. Arena
// holds the JSON-encoded arena exactly as exchanged with clients.
type Record struct {
	RoomID    int       `json:"room_id"`
	UserID    int       `json:"user_id"`
	Arena     string    `json:"arena"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveRequest is the body of POST /api/ship-bays.
type SaveRequest struct {
	Arena  string `json:"arena"`
	UserID int    `json:"user_id"`
	RoomID int    `json:"room_id"`
}
