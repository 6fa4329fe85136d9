package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Broker publishes room events to every server instance.
type Broker interface {
	Publish(ctx context.Context, event Event) error
	// Run feeds events from other instances into the hub until ctx is done.
	Run(ctx context.Context) error
	// Ping reports whether the transport is reachable.
	Ping(ctx context.Context) error
	Name() string
}

// MemoryBroker delivers straight to the local hub. It is used when Redis is
// disabled and the service runs as a single instance.
type MemoryBroker struct {
	hub *Hub
}

func NewMemoryBroker(hub *Hub) *MemoryBroker {
	return &MemoryBroker{hub: hub}
}

func (b *MemoryBroker) Publish(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	b.hub.Deliver(event)
	return nil
}

func (b *MemoryBroker) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (b *MemoryBroker) Ping(ctx context.Context) error { return nil }

func (b *MemoryBroker) Name() string { return "memory" }

// RedisBroker publishes to <prefix>:<room> and pattern-subscribes to
// <prefix>:* so every instance delivers every room's events locally.
type RedisBroker struct {
	client   *redis.Client
	hub      *Hub
	prefix   string
	instance string
	logger   *slog.Logger
}

func NewRedisBroker(client *redis.Client, hub *Hub, prefix string) *RedisBroker {
	instance := uuid.NewString()
	return &RedisBroker{
		client:   client,
		hub:      hub,
		prefix:   prefix,
		instance: instance,
		logger:   slog.With("component", "redis_broker", "instance", instance),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	channel := RoomChannel(b.prefix, event.RoomID)
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBroker) Run(ctx context.Context) error {
	logger := b.logger.With("operation", "run")

	sub := b.client.PSubscribe(ctx, b.prefix+":*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s:*: %w", b.prefix, err)
	}
	logger.Info("Subscribed to room events", "pattern", b.prefix+":*")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := b.decode(msg)
			if err != nil {
				logger.Warn("Discarding malformed room event", "channel", msg.Channel, "error", err)
				continue
			}
			b.hub.Deliver(event)
		}
	}
}

func (b *RedisBroker) decode(msg *redis.Message) (Event, error) {
	roomID, err := RoomFromChannel(b.prefix, msg.Channel)
	if err != nil {
		return Event{}, err
	}

	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		return Event{}, err
	}
	if event.RoomID != roomID {
		return Event{}, fmt.Errorf("event for room %d arrived on channel of room %d", event.RoomID, roomID)
	}
	return event, event.Validate()
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Name() string { return "redis" }
