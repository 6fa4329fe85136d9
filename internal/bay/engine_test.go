package bay

import (
	"errors"
	"testing"
)

type recordingPersister struct {
	arenas []Arena
}

func (p *recordingPersister) Persist(a Arena) {
	p.arenas = append(p.arenas, a)
}

func TestDropOntoSourceIsNoop(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 1, Rows: 2, Columns: 2}, "C1", "C2")
	mustPlace(t, g, "C1", BayAddress(0, 1, 1))
	p := &recordingPersister{}
	e := NewEngine(g, p, RejectOccupied)

	for _, a := range []Address{BayAddress(0, 1, 1), DockAddress(1)} {
		token, _ := g.CellAt(a)
		e.Begin(token)
		out, err := e.Drop(Gesture{Token: token, Source: a, Target: a})
		if err != nil {
			t.Fatalf("Drop: %v", err)
		}
		if out.Moved {
			t.Fatalf("expected no move for %s", a)
		}
		if got, _ := g.AddressOf(token); got != a {
			t.Fatalf("expected %s to stay at %s, got %s", token, a, got)
		}
	}
	if len(p.arenas) != 0 {
		t.Fatalf("expected no persistence calls, got %d", len(p.arenas))
	}
	if _, active := e.Active(); active {
		t.Fatalf("expected active flag to be cleared")
	}
}

func TestEndClearsActiveFlag(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 1, Rows: 1, Columns: 1}, "C1")
	p := &recordingPersister{}
	e := NewEngine(g, p, RejectOccupied)

	e.Begin("C1")
	e.End()
	if token, active := e.Active(); active {
		t.Fatalf("expected no active container, got %q", token)
	}
	if len(p.arenas) != 0 {
		t.Fatalf("ending a gesture must not persist")
	}
}

func TestDropMovesAndPersistsOnce(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 1, Rows: 2, Columns: 2}, "C1", "C2", "C3")
	p := &recordingPersister{}
	e := NewEngine(g, p, RejectOccupied)

	e.Begin("C1")
	if token, active := e.Active(); !active || token != "C1" {
		t.Fatalf("expected C1 to be active, got %q", token)
	}
	out, err := e.Drop(Gesture{Token: "C1", Source: DockAddress(0), Target: BayAddress(0, 0, 0)})
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if !out.Moved {
		t.Fatalf("expected a move")
	}
	if len(p.arenas) != 1 {
		t.Fatalf("expected 1 persistence call, got %d", len(p.arenas))
	}
	want := Arena{{{"C1", ""}, {"", ""}}}
	if !p.arenas[0].Equal(want) {
		t.Fatalf("expected arena %v, got %v", want, p.arenas[0])
	}
	if _, active := e.Active(); active {
		t.Fatalf("expected active flag to be cleared")
	}
}

func TestDropRejectsOccupiedTarget(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 1, Rows: 1, Columns: 1}, "C1", "C2")
	mustPlace(t, g, "C1", BayAddress(0, 0, 0))
	p := &recordingPersister{}
	e := NewEngine(g, p, RejectOccupied)

	e.Begin("C2")
	_, err := e.Drop(Gesture{Token: "C2", Source: DockAddress(1), Target: BayAddress(0, 0, 0)})
	if !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("expected ErrCellOccupied, got %v", err)
	}
	if len(p.arenas) != 0 {
		t.Fatalf("rejected drop must not persist")
	}
	if _, active := e.Active(); active {
		t.Fatalf("expected active flag to be cleared after a failed drop")
	}
	assertBijective(t, g)
}

func TestDropEvictsOccupantToDock(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 1, Rows: 1, Columns: 1}, "C1", "C2")
	mustPlace(t, g, "C1", BayAddress(0, 0, 0))
	p := &recordingPersister{}
	e := NewEngine(g, p, EvictToDock)

	out, err := e.Drop(Gesture{Token: "C2", Source: DockAddress(1), Target: BayAddress(0, 0, 0)})
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if out.Evicted != "C1" || out.EvictedTo != DockAddress(0) {
		t.Fatalf("expected C1 evicted to dock:0, got %q to %s", out.Evicted, out.EvictedTo)
	}
	if got, _ := g.CellAt(BayAddress(0, 0, 0)); got != "C2" {
		t.Fatalf("expected C2 in the bay, got %q", got)
	}
	assertBijective(t, g)
}

func TestDropEvictWithinFullDock(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 1, Rows: 1, Columns: 1}, "C1", "C2")
	e := NewEngine(g, nil, EvictToDock)

	out, err := e.Drop(Gesture{Token: "C1", Source: DockAddress(0), Target: DockAddress(1)})
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if out.Evicted != "C2" || out.EvictedTo != DockAddress(0) {
		t.Fatalf("expected C2 to take the freed slot, got %q at %s", out.Evicted, out.EvictedTo)
	}
	assertBijective(t, g)
}

func TestDropValidation(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 1, Rows: 2, Columns: 2}, "C1")
	e := NewEngine(g, nil, RejectOccupied)

	cases := []struct {
		name string
		g    Gesture
		want error
	}{
		{"unknown", Gesture{Token: "nope", Source: DockAddress(0), Target: BayAddress(0, 0, 0)}, ErrUnknownToken},
		{"stale source", Gesture{Token: "C1", Source: BayAddress(0, 1, 1), Target: BayAddress(0, 0, 0)}, ErrStaleSource},
		{"bay out of bounds", Gesture{Token: "C1", Source: DockAddress(0), Target: BayAddress(1, 0, 0)}, ErrOutOfBounds},
		{"column out of bounds", Gesture{Token: "C1", Source: DockAddress(0), Target: BayAddress(0, 0, 2)}, ErrOutOfBounds},
		{"dock out of bounds", Gesture{Token: "C1", Source: DockAddress(0), Target: DockAddress(5)}, ErrOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Drop(tc.g); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLegalMoveSequenceStaysBijective(t *testing.T) {
	g := newTestGrid(t, Config{Bays: 2, Rows: 2, Columns: 2}, "A", "B", "C", "D")
	e := NewEngine(g, nil, EvictToDock)

	moves := []struct {
		token  Token
		target Address
	}{
		{"A", BayAddress(0, 0, 0)},
		{"B", BayAddress(0, 0, 0)},
		{"C", BayAddress(1, 1, 1)},
		{"A", BayAddress(1, 1, 1)},
		{"D", DockAddress(0)},
		{"B", DockAddress(3)},
		{"C", BayAddress(0, 1, 0)},
	}
	for _, m := range moves {
		src, _ := g.AddressOf(m.token)
		if _, err := e.Drop(Gesture{Token: m.token, Source: src, Target: m.target}); err != nil {
			t.Fatalf("move %s -> %s: %v", m.token, m.target, err)
		}
		assertBijective(t, g)
	}
}
