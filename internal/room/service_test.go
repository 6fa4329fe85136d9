package room

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"cargo-console/internal/realtime"
	"cargo-console/internal/shared/errors"
)

type fakePublisher struct {
	events []realtime.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event realtime.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newService(pub *fakePublisher) *Service {
	return NewService(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLifecycleEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc := newService(pub)
	ctx := context.Background()

	if err := svc.KickParticipant(ctx, 4, 9); err != nil {
		t.Fatalf("KickParticipant: %v", err)
	}
	if err := svc.EndSimulation(ctx, 4); err != nil {
		t.Fatalf("EndSimulation: %v", err)
	}

	want := []realtime.Event{realtime.UserKicked(4, 9), realtime.EndSimulation(4)}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), pub.events)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], pub.events[i])
		}
	}
}

func TestLifecycleErrors(t *testing.T) {
	svc := newService(&fakePublisher{})
	ctx := context.Background()

	if err := svc.KickParticipant(ctx, 0, 1); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := svc.EndSimulation(ctx, -1); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	broken := newService(&fakePublisher{err: stderrors.New("redis down")})
	if err := broken.EndSimulation(ctx, 1); errors.GetType(err) != errors.ErrorTypeExternal {
		t.Errorf("expected external error, got %v", err)
	}
}
