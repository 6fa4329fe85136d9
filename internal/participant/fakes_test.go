package participant

import (
	"context"
	"sync"
	"testing"
	"time"

	"cargo-console/internal/bay"
	"cargo-console/internal/realtime"
)

type fakeStore struct {
	mu      sync.Mutex
	arena   bay.Arena
	loadErr error
	saveErr error
	saves   []bay.Arena
	loads   int

	// When set, Load and Save block until the gate yields.
	loadGate chan struct{}
	saveGate chan struct{}
	entered  chan string
}

func (f *fakeStore) Load(ctx context.Context, roomID, userID int) (bay.Arena, error) {
	f.signal("load")
	if f.loadGate != nil {
		<-f.loadGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.arena, nil
}

func (f *fakeStore) Save(ctx context.Context, roomID, userID int, arena bay.Arena) error {
	f.signal("save")
	if f.saveGate != nil {
		<-f.saveGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, arena)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.arena = arena
	return nil
}

func (f *fakeStore) signal(op string) {
	if f.entered != nil {
		f.entered <- op
	}
}

func (f *fakeStore) setArena(arena bay.Arena) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.arena = arena
}

func (f *fakeStore) saved() []bay.Arena {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bay.Arena, len(f.saves))
	copy(out, f.saves)
	return out
}

type fakeSubscription struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSubscription) State() ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Disconnected
	}
	return Connected
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	handle func(realtime.Event)
	sub    *fakeSubscription
	err    error
}

func (f *fakeEvents) Subscribe(ctx context.Context, roomID int, handle func(realtime.Event), closed func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.handle = handle
	f.sub = &fakeSubscription{}
	return f.sub, nil
}

func (f *fakeEvents) fire(event realtime.Event) {
	f.mu.Lock()
	handle := f.handle
	f.mu.Unlock()
	handle(event)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

var testLayout = Layout{Bays: 1, Rows: 2, Columns: 2, Containers: []string{"C1", "C2", "C3"}}

const (
	roomID = 11
	userID = 22
)

func newTestSession(t *testing.T, store *fakeStore, events *fakeEvents, notifier *recordingNotifier) *Session {
	t.Helper()
	s, err := NewSession(Options{
		RoomID:   roomID,
		UserID:   userID,
		Layout:   testLayout,
		PageSize: 2,
		Store:    store,
		Events:   events,
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func mustDecode(t *testing.T, s string) bay.Arena {
	t.Helper()
	arena, err := bay.DecodeArena(s)
	if err != nil {
		t.Fatalf("DecodeArena(%s): %v", s, err)
	}
	return arena
}

func mustEncode(t *testing.T, arena bay.Arena) string {
	t.Helper()
	s, err := arena.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return s
}
