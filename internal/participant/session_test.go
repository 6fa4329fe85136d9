package participant

import (
	"context"
	"errors"
	"testing"

	"cargo-console/internal/bay"
	"cargo-console/internal/realtime"
)

func activate(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
}

func TestActivateRestoresStoredArena(t *testing.T) {
	store := &fakeStore{arena: mustDecode(t, `[[["C1",null],[null,null]]]`)}
	events := &fakeEvents{}
	s := newTestSession(t, store, events, &recordingNotifier{})
	activate(t, s)

	if a, _ := s.AddressOf("C1"); a != bay.BayAddress(0, 0, 0) {
		t.Fatalf("C1 expected in bay(0,0,0), got %s", a)
	}
	for _, token := range []bay.Token{"C2", "C3"} {
		if a, ok := s.AddressOf(token); !ok || !a.IsDock() {
			t.Fatalf("%s expected in the dock, got %s", token, a)
		}
	}
	if s.ChannelState() != Connected {
		t.Fatalf("expected connected channel")
	}
}

func TestDragSavesFullArena(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(t, store, &fakeEvents{}, &recordingNotifier{})
	activate(t, s)

	if _, err := s.Drag("C1", bay.DockAddress(0), bay.BayAddress(0, 0, 0)); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	if err := s.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	saves := store.saved()
	if len(saves) != 1 {
		t.Fatalf("expected one save, got %d", len(saves))
	}
	if got := mustEncode(t, saves[0]); got != `[[["C1",null],[null,null]]]` {
		t.Fatalf("unexpected arena %s", got)
	}
}

func TestDragOntoSameAddressIsNoop(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(t, store, &fakeEvents{}, &recordingNotifier{})
	activate(t, s)

	out, err := s.Drag("C2", bay.DockAddress(1), bay.DockAddress(1))
	if err != nil || out.Moved {
		t.Fatalf("expected a silent no-op, got %+v, %v", out, err)
	}
	_ = s.Drain(context.Background())
	if len(store.saved()) != 0 {
		t.Fatalf("a no-op gesture must not save")
	}
}

func TestRapidDragsLastWriteWins(t *testing.T) {
	store := &fakeStore{saveGate: make(chan struct{}), entered: make(chan string, 8)}
	s := newTestSession(t, store, &fakeEvents{}, &recordingNotifier{})
	activate(t, s)
	<-store.entered // initial load

	if _, err := s.Drag("C1", bay.DockAddress(0), bay.BayAddress(0, 0, 0)); err != nil {
		t.Fatalf("first drag: %v", err)
	}
	if op := <-store.entered; op != "save" {
		t.Fatalf("expected the first save to start, got %s", op)
	}

	// The first save is still in flight while the container moves twice more.
	if _, err := s.Drag("C1", bay.BayAddress(0, 0, 0), bay.BayAddress(0, 1, 0)); err != nil {
		t.Fatalf("second drag: %v", err)
	}
	if _, err := s.Drag("C1", bay.BayAddress(0, 1, 0), bay.BayAddress(0, 1, 1)); err != nil {
		t.Fatalf("third drag: %v", err)
	}

	store.saveGate <- struct{}{}
	if op := <-store.entered; op != "save" {
		t.Fatalf("expected a follow-up save, got %s", op)
	}
	store.saveGate <- struct{}{}
	if err := s.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	saves := store.saved()
	if len(saves) != 2 {
		t.Fatalf("expected the middle save to be superseded, got %d saves", len(saves))
	}
	if got := mustEncode(t, saves[1]); got != `[[[null,null],[null,"C1"]]]` {
		t.Fatalf("final arena must reflect the last drag, got %s", got)
	}
}

func TestSaveFailureKeepsLocalMove(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("gateway timeout")}
	notifier := &recordingNotifier{}
	s := newTestSession(t, store, &fakeEvents{}, notifier)
	activate(t, s)

	if _, err := s.Drag("C3", bay.DockAddress(2), bay.BayAddress(0, 1, 1)); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	_ = s.Drain(context.Background())

	if a, _ := s.AddressOf("C3"); a != bay.BayAddress(0, 1, 1) {
		t.Fatalf("local move must not be rolled back, C3 at %s", a)
	}
	notices := notifier.all()
	if len(notices) != 1 || notices[0].Operation != "save" {
		t.Fatalf("expected one save notice, got %+v", notices)
	}
}

func TestLoadFailureStartsFromSeededDock(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("connection refused")}
	notifier := &recordingNotifier{}
	s := newTestSession(t, store, &fakeEvents{}, notifier)
	activate(t, s)

	if !s.Active() {
		t.Fatalf("session should be active")
	}
	if a, _ := s.AddressOf("C1"); a != bay.DockAddress(0) {
		t.Fatalf("C1 should stay in its seeded slot, got %s", a)
	}
	if notices := notifier.all(); len(notices) != 1 || notices[0].Operation != "load" {
		t.Fatalf("expected one load notice, got %+v", notices)
	}
}

func TestActivateFailsWhenChannelCannotOpen(t *testing.T) {
	s := newTestSession(t, &fakeStore{}, &fakeEvents{err: errors.New("dial refused")}, &recordingNotifier{})
	if err := s.Activate(context.Background()); err == nil {
		t.Fatalf("expected Activate to fail")
	}
	if s.Active() {
		t.Fatalf("session must stay inactive")
	}
	if _, err := s.Drag("C1", bay.DockAddress(0), bay.BayAddress(0, 0, 0)); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestReloadAfterDeactivateIsDiscarded(t *testing.T) {
	store := &fakeStore{entered: make(chan string, 8)}
	s := newTestSession(t, store, &fakeEvents{}, &recordingNotifier{})
	activate(t, s)
	<-store.entered

	store.loadGate = make(chan struct{})
	store.setArena(mustDecode(t, `[[["C2",null],[null,null]]]`))

	result := make(chan bool, 1)
	go func() {
		applied, _ := s.Reload(context.Background())
		result <- applied
	}()
	<-store.entered

	s.Deactivate()
	close(store.loadGate)

	if <-result {
		t.Fatalf("a reload finishing after teardown must not be applied")
	}
	if a, _ := s.AddressOf("C2"); !a.IsDock() {
		t.Fatalf("grid changed after teardown: C2 at %s", a)
	}
}

func TestReloadOlderThanLocalMoveIsDiscarded(t *testing.T) {
	store := &fakeStore{entered: make(chan string, 8)}
	s := newTestSession(t, store, &fakeEvents{}, &recordingNotifier{})
	activate(t, s)
	<-store.entered

	store.loadGate = make(chan struct{})
	result := make(chan bool, 1)
	go func() {
		applied, _ := s.Reload(context.Background())
		result <- applied
	}()
	<-store.entered

	if _, err := s.Drag("C1", bay.DockAddress(0), bay.BayAddress(0, 0, 1)); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	close(store.loadGate)

	if <-result {
		t.Fatalf("reload started before the move must not overwrite it")
	}
	if a, _ := s.AddressOf("C1"); a != bay.BayAddress(0, 0, 1) {
		t.Fatalf("local move lost, C1 at %s", a)
	}
	_ = s.Drain(context.Background())
}

func TestSwapBaysReloadsGrid(t *testing.T) {
	store := &fakeStore{}
	events := &fakeEvents{}
	s := newTestSession(t, store, events, &recordingNotifier{})
	activate(t, s)

	store.setArena(mustDecode(t, `[[[null,null],["C3",null]]]`))
	events.fire(realtime.SwapBays(roomID, 99))

	waitFor(t, "reload after swap_bays", func() bool {
		a, _ := s.AddressOf("C3")
		return a == bay.BayAddress(0, 1, 0)
	})

	// Another room's change is ignored.
	store.setArena(mustDecode(t, `[[[null,null],[null,null]]]`))
	events.fire(realtime.SwapBays(roomID+1, 99))
	if a, _ := s.AddressOf("C3"); a != bay.BayAddress(0, 1, 0) {
		t.Fatalf("event for another room changed the grid")
	}
}

func TestLifecycleInterrupts(t *testing.T) {
	cases := []struct {
		name   string
		event  realtime.Event
		reason DepartureReason
		leaves bool
	}{
		{"kicked", realtime.UserKicked(roomID, userID), DepartureKicked, true},
		{"other participant kicked", realtime.UserKicked(roomID, userID+1), "", false},
		{"simulation ended", realtime.EndSimulation(roomID), DepartureSimulationEnded, true},
		{"other room ended", realtime.EndSimulation(roomID + 1), "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{entered: make(chan string, 8)}
			events := &fakeEvents{}
			s := newTestSession(t, store, events, &recordingNotifier{})
			activate(t, s)
			<-store.entered

			// A load is pending when the interrupt arrives.
			store.loadGate = make(chan struct{})
			defer close(store.loadGate)
			go func() { _, _ = s.Reload(context.Background()) }()
			<-store.entered

			events.fire(tc.event)

			if !tc.leaves {
				select {
				case d := <-s.Departed():
					t.Fatalf("unexpected departure %+v", d)
				default:
				}
				if !s.Active() {
					t.Fatalf("session should still be active")
				}
				return
			}

			d, ok := <-s.Departed()
			if !ok || d.Reason != tc.reason || d.RoomID != roomID {
				t.Fatalf("unexpected departure %+v (ok=%v)", d, ok)
			}
			if s.Active() {
				t.Fatalf("session must deactivate on departure")
			}
			waitFor(t, "channel release", func() bool { return events.sub.State() == Disconnected })

			// Later interrupts are not delivered twice.
			events.fire(realtime.EndSimulation(roomID))
			if _, open := <-s.Departed(); open {
				t.Fatalf("Departed must close after the first departure")
			}
			if err := s.Activate(context.Background()); !errors.Is(err, ErrDeparted) {
				t.Fatalf("expected ErrDeparted, got %v", err)
			}
		})
	}
}

func TestDockPagination(t *testing.T) {
	s := newTestSession(t, &fakeStore{}, &fakeEvents{}, &recordingNotifier{})
	activate(t, s)

	if s.PageCount() != 2 {
		t.Fatalf("3 slots at 2 per page should give 2 pages, got %d", s.PageCount())
	}
	first := s.VisibleDock()
	if len(first) != 2 || first[0] != (DockSlot{0, "C1"}) || first[1] != (DockSlot{1, "C2"}) {
		t.Fatalf("unexpected first page %+v", first)
	}

	if err := s.SetPage(1); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	second := s.VisibleDock()
	if len(second) != 1 || second[0] != (DockSlot{2, "C3"}) {
		t.Fatalf("unexpected second page %+v", second)
	}

	// Moving a container out leaves its slot visible and empty.
	if _, err := s.Drag("C3", bay.DockAddress(2), bay.BayAddress(0, 0, 0)); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	if got := s.VisibleDock(); got[0] != (DockSlot{2, ""}) {
		t.Fatalf("expected free slot 2, got %+v", got)
	}
	if err := s.SetPage(2); err == nil {
		t.Fatalf("expected out-of-range page to fail")
	}
	_ = s.Drain(context.Background())
}

func TestSwapBaysDuringFailedSaveReloadsAfterwards(t *testing.T) {
	store := &fakeStore{entered: make(chan string, 8)}
	events := &fakeEvents{}
	notifier := &recordingNotifier{}
	s := newTestSession(t, store, events, notifier)
	activate(t, s)
	<-store.entered // initial load

	store.saveGate = make(chan struct{})
	store.saveErr = errors.New("backend unavailable")
	if _, err := s.Drag("C1", bay.DockAddress(0), bay.BayAddress(0, 0, 0)); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	if op := <-store.entered; op != "save" {
		t.Fatalf("expected a save, got %s", op)
	}

	store.setArena(mustDecode(t, `[[[null,null],["C3",null]]]`))
	events.fire(realtime.SwapBays(roomID, 99))
	if op := <-store.entered; op != "load" {
		t.Fatalf("expected a load, got %s", op)
	}
	waitFor(t, "load while the save is held", func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.loads == 2
	})

	close(store.saveGate)
	waitFor(t, "remote change after the save failed", func() bool {
		a, _ := s.AddressOf("C3")
		return a == bay.BayAddress(0, 1, 0)
	})
	if len(notifier.all()) == 0 {
		t.Fatalf("expected the failed save to be reported")
	}
}

func TestInactiveDragClearsDragFlag(t *testing.T) {
	s := newTestSession(t, &fakeStore{}, &fakeEvents{}, &recordingNotifier{})
	activate(t, s)
	s.Deactivate()

	s.Begin("C1")
	if _, err := s.Drag("C1", bay.DockAddress(0), bay.BayAddress(0, 0, 0)); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	if v := s.View(); v.Dragging != "" {
		t.Fatalf("drag flag survived the gesture: %q", v.Dragging)
	}
}

func TestConcurrentActivateSubscribesOnce(t *testing.T) {
	store := &fakeStore{loadGate: make(chan struct{}), entered: make(chan string, 8)}
	s := newTestSession(t, store, &fakeEvents{}, &recordingNotifier{})

	first := make(chan error, 1)
	go func() { first <- s.Activate(context.Background()) }()
	<-store.entered

	if err := s.Activate(context.Background()); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive while activating, got %v", err)
	}
	close(store.loadGate)
	if err := <-first; err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !s.Active() {
		t.Fatalf("expected the first activation to win")
	}
}
