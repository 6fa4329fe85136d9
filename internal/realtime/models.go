package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

type EventType string

const (
	// EventSwapBays tells a room that a participant's arena changed.
	EventSwapBays EventType = "swap_bays"
	// EventUserKicked removes UserID from the room.
	EventUserKicked EventType = "user_kicked"
	// EventEndSimulation closes the room for everyone.
	EventEndSimulation EventType = "end_simulation"
)

func (t EventType) Valid() bool {
	switch t {
	case EventSwapBays, EventUserKicked, EventEndSimulation:
		return true
	}
	return false
}

// Event is broadcast to every connection in a room. Receivers filter on
// RoomID and UserID themselves.
type Event struct {
	Type   EventType `json:"type"`
	RoomID int       `json:"room_id"`
	UserID int       `json:"user_id,omitempty"`
}

func (e Event) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.RoomID <= 0 {
		return fmt.Errorf("event %s has no room", e.Type)
	}
	if e.Type == EventUserKicked && e.UserID <= 0 {
		return fmt.Errorf("event %s has no user", e.Type)
	}
	return nil
}

func SwapBays(roomID, userID int) Event {
	return Event{Type: EventSwapBays, RoomID: roomID, UserID: userID}
}

func UserKicked(roomID, userID int) Event {
	return Event{Type: EventUserKicked, RoomID: roomID, UserID: userID}
}

func EndSimulation(roomID int) Event {
	return Event{Type: EventEndSimulation, RoomID: roomID}
}

// RoomChannel names the pub/sub channel carrying a room's events.
func RoomChannel(prefix string, roomID int) string {
	return prefix + ":" + strconv.Itoa(roomID)
}

// RoomFromChannel is the inverse of RoomChannel.
func RoomFromChannel(prefix, channel string) (int, error) {
	rest, ok := strings.CutPrefix(channel, prefix+":")
	if !ok {
		return 0, fmt.Errorf("channel %q does not start with %q", channel, prefix)
	}
	roomID, err := strconv.Atoi(rest)
	if err != nil || roomID <= 0 {
		return 0, fmt.Errorf("channel %q has no room id", channel)
	}
	return roomID, nil
}
