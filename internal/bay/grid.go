package bay

import (
	"fmt"
	"sort"
)

// Grid holds the placement map over the dock staging area and the ship bays.
// It is not safe for concurrent use; callers serialize access.
type Grid struct {
	config Config

	// home[t] is the dock slot t was seeded into. Dock slot count equals the
	// number of known containers, so a free slot exists whenever any
	// container sits in a bay.
	home  map[Token]int
	slots []Token

	byToken map[Token]Address
	byCell  map[Address]Token
}

// NewGrid seeds container i into dock slot i. Duplicate tokens and empty
// tokens are rejected.
func NewGrid(cfg Config, dock []Token) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		config:  cfg,
		home:    make(map[Token]int, len(dock)),
		slots:   make([]Token, 0, len(dock)),
		byToken: make(map[Token]Address, len(dock)),
		byCell:  make(map[Address]Token, len(dock)),
	}
	for _, token := range dock {
		if token == "" {
			return nil, fmt.Errorf("container id must not be empty")
		}
		if _, dup := g.home[token]; dup {
			return nil, fmt.Errorf("duplicate container %q", token)
		}
		slot := g.register(token)
		g.set(token, DockAddress(slot))
	}
	return g, nil
}

func (g *Grid) Config() Config { return g.config }

// DockSlotCount is the fixed size of the dock staging area.
func (g *Grid) DockSlotCount() int { return len(g.slots) }

// Tokens returns every known container in home slot order.
func (g *Grid) Tokens() []Token {
	out := make([]Token, len(g.slots))
	copy(out, g.slots)
	return out
}

// CellAt returns the occupant of an address.
func (g *Grid) CellAt(a Address) (Token, bool) {
	token, ok := g.byCell[a]
	return token, ok
}

// AddressOf returns where a container currently sits.
func (g *Grid) AddressOf(token Token) (Address, bool) {
	a, ok := g.byToken[token]
	return a, ok
}

// Contains reports whether an address exists in the current layout.
func (g *Grid) Contains(a Address) bool {
	if a.Area == AreaDock {
		return a.Index >= 0 && a.Index < len(g.slots)
	}
	return g.config.ContainsBayCell(a)
}

// Place moves a known container to an address. It fails with
// ErrCellOccupied when a different container holds the address; the grid is
// left unchanged in that case.
func (g *Grid) Place(token Token, a Address) error {
	if _, known := g.home[token]; !known {
		return fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	if occupant, ok := g.byCell[a]; ok && occupant != token {
		return fmt.Errorf("%w: %s holds %q", ErrCellOccupied, a, occupant)
	}
	g.vacate(token)
	g.set(token, a)
	return nil
}

// Evict sends a container back to the dock: its home slot when free,
// otherwise the lowest free slot.
func (g *Grid) Evict(token Token) (Address, error) {
	slot, known := g.home[token]
	if !known {
		return Address{}, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	if current, ok := g.byToken[token]; ok && current.IsDock() {
		return current, nil
	}
	g.vacate(token)

	target := DockAddress(slot)
	if _, taken := g.byCell[target]; taken {
		free, ok := g.freeDockSlot()
		if !ok {
			return Address{}, ErrNoFreeSlot
		}
		target = free
	}
	g.set(token, target)
	return target, nil
}

// Arena projects the bay placements into the storage format. Dock-resident
// containers are left out.
func (g *Grid) Arena() Arena {
	arena := NewArena(g.config)
	for token, a := range g.byToken {
		if a.IsBay() && g.config.ContainsBayCell(a) {
			arena[a.Bay][a.Row][a.Column] = token
		}
	}
	return arena
}

// RestoreReport describes arena entries Restore could not honour.
type RestoreReport struct {
	Registered  []Token
	OutOfBounds []Placement
	Duplicates  []Placement
}

// Restore replaces the placement map with the arena in one step. Arena
// containers take their bay cells; containers missing from the arena stay on
// their current dock slot when they are in the dock, otherwise they return to
// the dock. Unknown arena containers are registered with a new home slot.
// Cells outside the current layout are dropped and their containers docked.
func (g *Grid) Restore(arena Arena) RestoreReport {
	var report RestoreReport

	home := make(map[Token]int, len(g.home))
	slots := make([]Token, len(g.slots))
	for t, s := range g.home {
		home[t] = s
	}
	copy(slots, g.slots)

	byToken := make(map[Token]Address, len(home))
	byCell := make(map[Address]Token, len(home))
	place := func(t Token, a Address) {
		byToken[t] = a
		byCell[a] = t
	}

	for _, p := range arena.Placements() {
		if _, known := home[p.Token]; !known {
			home[p.Token] = len(slots)
			slots = append(slots, p.Token)
			report.Registered = append(report.Registered, p.Token)
		}
		if _, dup := byToken[p.Token]; dup {
			report.Duplicates = append(report.Duplicates, p)
			continue
		}
		if !g.config.ContainsBayCell(p.Address) {
			report.OutOfBounds = append(report.OutOfBounds, p)
			continue
		}
		place(p.Token, p.Address)
	}

	// Containers already in the dock keep their slot.
	var homeless []Token
	for _, t := range slots {
		if _, placed := byToken[t]; placed {
			continue
		}
		if current, ok := g.byToken[t]; ok && current.IsDock() && current.Index < len(slots) {
			if _, taken := byCell[current]; !taken {
				place(t, current)
				continue
			}
		}
		homeless = append(homeless, t)
	}

	next := 0
	for _, t := range homeless {
		target := DockAddress(home[t])
		if _, taken := byCell[target]; taken {
			for ; next < len(slots); next++ {
				if _, used := byCell[DockAddress(next)]; !used {
					break
				}
			}
			target = DockAddress(next)
		}
		place(t, target)
	}

	g.home = home
	g.slots = slots
	g.byToken = byToken
	g.byCell = byCell
	return report
}

// Reconfigure applies a new ship layout. Containers whose bay cell falls
// outside the new bounds are returned to the dock.
func (g *Grid) Reconfigure(cfg Config) ([]Token, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g.config = cfg

	var displaced []Token
	for t, a := range g.byToken {
		if a.IsBay() && !cfg.ContainsBayCell(a) {
			displaced = append(displaced, t)
		}
	}
	sort.Slice(displaced, func(i, j int) bool { return g.home[displaced[i]] < g.home[displaced[j]] })
	for _, t := range displaced {
		if _, err := g.Evict(t); err != nil {
			return displaced, err
		}
	}
	return displaced, nil
}

// DockSlots returns the occupant of every dock slot, "" for empty slots.
func (g *Grid) DockSlots() []Token {
	out := make([]Token, len(g.slots))
	for i := range out {
		out[i] = g.byCell[DockAddress(i)]
	}
	return out
}

func (g *Grid) register(token Token) int {
	slot := len(g.slots)
	g.home[token] = slot
	g.slots = append(g.slots, token)
	return slot
}

func (g *Grid) set(token Token, a Address) {
	g.byToken[token] = a
	g.byCell[a] = token
}

func (g *Grid) vacate(token Token) {
	if a, ok := g.byToken[token]; ok {
		delete(g.byToken, token)
		if g.byCell[a] == token {
			delete(g.byCell, a)
		}
	}
}

func (g *Grid) freeDockSlot() (Address, bool) {
	for i := range g.slots {
		a := DockAddress(i)
		if _, taken := g.byCell[a]; !taken {
			return a, true
		}
	}
	return Address{}, false
}
