package participant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"cargo-console/internal/realtime"

	"github.com/gorilla/websocket"
)

type ChannelState int

const (
	Disconnected ChannelState = iota
	Connected
)

func (s ChannelState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// EventSource opens a subscription to one room's events.
type EventSource interface {
	Subscribe(ctx context.Context, roomID int, handle func(realtime.Event), closed func(error)) (Subscription, error)
}

type Subscription interface {
	State() ChannelState
	Close() error
}

// WebsocketSource dials GET /ws/rooms/{room} on the console server.
type WebsocketSource struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
}

func NewWebsocketSource(baseURL, token string) *WebsocketSource {
	return &WebsocketSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (s *WebsocketSource) roomURL(roomID int) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/rooms/" + strconv.Itoa(roomID)
	return u.String(), nil
}

func (s *WebsocketSource) Subscribe(ctx context.Context, roomID int, handle func(realtime.Event), closed func(error)) (Subscription, error) {
	target, err := s.roomURL(roomID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to join room %d: %w (status %d)", roomID, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to join room %d: %w", roomID, err)
	}

	ch := &Channel{
		conn:   conn,
		roomID: roomID,
		state:  Connected,
		done:   make(chan struct{}),
		logger: slog.With("component", "realtime_channel", "room_id", roomID),
	}
	go ch.readLoop(handle, closed)
	return ch, nil
}

// Channel is one live room subscription. It is owned by a session and
// released when the session deactivates.
type Channel struct {
	conn   *websocket.Conn
	roomID int
	logger *slog.Logger

	mu      sync.Mutex
	state   ChannelState
	closing bool

	done chan struct{}
}

func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) readLoop(handle func(realtime.Event), closed func(error)) {
	defer close(c.done)

	var err error
	for {
		var event realtime.Event
		if err = c.conn.ReadJSON(&event); err != nil {
			break
		}
		if event.RoomID != c.roomID {
			continue
		}
		handle(event)
	}

	c.mu.Lock()
	c.state = Disconnected
	closing := c.closing
	c.mu.Unlock()
	c.conn.Close()

	if closing {
		return
	}
	c.logger.Debug("Room subscription lost", "operation", "read_loop", "error", err)
	if closed != nil {
		closed(err)
	}
}

// Close releases the subscription and waits for the read loop to stop. It
// must not be called from inside the event handler.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		c.conn.Close()
		<-c.done
	}
	return nil
}
