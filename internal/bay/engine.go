package bay

import "fmt"

// OccupancyPolicy decides what a drop onto an occupied cell does.
type OccupancyPolicy int

const (
	// RejectOccupied refuses the move and leaves the grid unchanged.
	RejectOccupied OccupancyPolicy = iota
	// EvictToDock moves the dragged container in and sends the previous
	// occupant back to the dock.
	EvictToDock
)

func (p OccupancyPolicy) String() string {
	switch p {
	case RejectOccupied:
		return "reject"
	case EvictToDock:
		return "evict"
	default:
		return "unknown"
	}
}

func ParseOccupancyPolicy(s string) (OccupancyPolicy, error) {
	switch s {
	case "", "reject":
		return RejectOccupied, nil
	case "evict":
		return EvictToDock, nil
	default:
		return RejectOccupied, fmt.Errorf("unknown occupancy policy %q", s)
	}
}

// Persister receives the full arena after every mutation. Persist must not
// block on I/O.
type Persister interface {
	Persist(Arena)
}

// Gesture is one completed drag: a container picked up at Source and
// released over Target.
type Gesture struct {
	Token  Token
	Source Address
	Target Address
}

// Outcome reports what a drop changed.
type Outcome struct {
	Moved     bool
	Evicted   Token
	EvictedTo Address
}

// Engine turns drag gestures into grid mutations and hands the resulting
// arena to a Persister.
type Engine struct {
	grid      *Grid
	persister Persister
	policy    OccupancyPolicy
	active    Token
}

func NewEngine(grid *Grid, persister Persister, policy OccupancyPolicy) *Engine {
	return &Engine{
		grid:      grid,
		persister: persister,
		policy:    policy,
	}
}

func (e *Engine) Grid() *Grid { return e.grid }

// Begin flags a container as being dragged. The flag only affects rendering.
func (e *Engine) Begin(token Token) {
	e.active = token
}

// End clears the drag flag for a gesture that ends without a drop.
func (e *Engine) End() {
	e.active = ""
}

// Active returns the container currently being dragged, if any.
func (e *Engine) Active() (Token, bool) {
	return e.active, e.active != ""
}

// Drop applies a gesture. Dropping a container onto its own address changes
// nothing and persists nothing. Any other legal drop mutates the grid once
// and persists the full arena once. The active flag is always cleared.
func (e *Engine) Drop(g Gesture) (Outcome, error) {
	defer func() { e.active = "" }()

	if g.Target == g.Source {
		return Outcome{}, nil
	}

	current, ok := e.grid.AddressOf(g.Token)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownToken, g.Token)
	}
	if current != g.Source {
		return Outcome{}, fmt.Errorf("%w: %q is at %s, gesture started at %s", ErrStaleSource, g.Token, current, g.Source)
	}
	if !e.grid.Contains(g.Target) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrOutOfBounds, g.Target)
	}

	var out Outcome
	occupant, occupied := e.grid.CellAt(g.Target)
	switch {
	case !occupied:
		if err := e.grid.Place(g.Token, g.Target); err != nil {
			return Outcome{}, err
		}
	case e.policy == EvictToDock:
		e.grid.vacate(occupant)
		if err := e.grid.Place(g.Token, g.Target); err != nil {
			return Outcome{}, err
		}
		to, err := e.grid.Evict(occupant)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to evict %q: %w", occupant, err)
		}
		out.Evicted = occupant
		out.EvictedTo = to
	default:
		return Outcome{}, fmt.Errorf("%w: %s holds %q", ErrCellOccupied, g.Target, occupant)
	}

	out.Moved = true
	if e.persister != nil {
		e.persister.Persist(e.grid.Arena())
	}
	return out, nil
}
