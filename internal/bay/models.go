package bay

import (
	"errors"
	"fmt"
)

var (
	ErrCellOccupied = errors.New("cell is occupied by another container")
	ErrOutOfBounds  = errors.New("address is outside the ship layout")
	ErrUnknownToken = errors.New("unknown container")
	ErrStaleSource  = errors.New("container is no longer at the gesture source")
	ErrNoFreeSlot   = errors.New("no free dock slot")
	ErrInvalidArena = errors.New("invalid arena")
)

// Token identifies one container. It carries no state beyond identity.
type Token string

// Config is the administrator-configured ship layout.
type Config struct {
	Bays    int `json:"bays" yaml:"bays"`
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

func (c Config) Validate() error {
	if c.Bays < 1 {
		return fmt.Errorf("bay count must be at least 1, got %d", c.Bays)
	}
	if c.Rows < 1 {
		return fmt.Errorf("row count must be at least 1, got %d", c.Rows)
	}
	if c.Columns < 1 {
		return fmt.Errorf("column count must be at least 1, got %d", c.Columns)
	}
	return nil
}

// CellsPerBay returns rows * columns.
func (c Config) CellsPerBay() int {
	return c.Rows * c.Columns
}

// ContainsBayCell reports whether a bay address falls inside the layout.
func (c Config) ContainsBayCell(a Address) bool {
	return a.Area == AreaBay &&
		a.Bay >= 0 && a.Bay < c.Bays &&
		a.Row >= 0 && a.Row < c.Rows &&
		a.Column >= 0 && a.Column < c.Columns
}
