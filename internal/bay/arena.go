package bay

import (
	"encoding/json"
	"fmt"
)

// Arena is the bay-only projection of a placement map, indexed
// [bay][row][column]. An empty Token marks an empty cell; on the wire it is
// null. Dock-resident containers are not represented.
type Arena [][][]Token

// NewArena returns an empty arena shaped by the configuration.
func NewArena(cfg Config) Arena {
	arena := make(Arena, cfg.Bays)
	for b := range arena {
		arena[b] = make([][]Token, cfg.Rows)
		for r := range arena[b] {
			arena[b][r] = make([]Token, cfg.Columns)
		}
	}
	return arena
}

func (a Arena) MarshalJSON() ([]byte, error) {
	wire := make([][][]*string, len(a))
	for b, rows := range a {
		wire[b] = make([][]*string, len(rows))
		for r, cols := range rows {
			wire[b][r] = make([]*string, len(cols))
			for c, token := range cols {
				if token != "" {
					s := string(token)
					wire[b][r][c] = &s
				}
			}
		}
	}
	return json.Marshal(wire)
}

func (a *Arena) UnmarshalJSON(data []byte) error {
	var wire [][][]*string
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(Arena, len(wire))
	for b, rows := range wire {
		out[b] = make([][]Token, len(rows))
		for r, cols := range rows {
			out[b][r] = make([]Token, len(cols))
			for c, s := range cols {
				if s != nil {
					out[b][r][c] = Token(*s)
				}
			}
		}
	}
	*a = out
	return nil
}

// Encode renders the arena as the JSON text stored by the remote store.
func (a Arena) Encode() (string, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode arena: %w", err)
	}
	return string(data), nil
}

// DecodeArena parses the stored JSON text. Empty input is an empty arena.
func DecodeArena(s string) (Arena, error) {
	if s == "" {
		return Arena{}, nil
	}
	var arena Arena
	if err := json.Unmarshal([]byte(s), &arena); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArena, err)
	}
	return arena, nil
}

// Validate checks that every bay is rectangular and that no container
// appears in two cells.
func (a Arena) Validate() error {
	seen := make(map[Token]Address)
	for b, rows := range a {
		width := -1
		for r, cols := range rows {
			if width == -1 {
				width = len(cols)
			} else if len(cols) != width {
				return fmt.Errorf("%w: bay %d row %d has %d columns, expected %d", ErrInvalidArena, b, r, len(cols), width)
			}
			for c, token := range cols {
				if token == "" {
					continue
				}
				here := BayAddress(b, r, c)
				if prev, dup := seen[token]; dup {
					return fmt.Errorf("%w: container %q at both %s and %s", ErrInvalidArena, token, prev, here)
				}
				seen[token] = here
			}
		}
	}
	return nil
}

// Placements lists every occupied cell in bay, row, column order.
func (a Arena) Placements() []Placement {
	var out []Placement
	for b, rows := range a {
		for r, cols := range rows {
			for c, token := range cols {
				if token != "" {
					out = append(out, Placement{Token: token, Address: BayAddress(b, r, c)})
				}
			}
		}
	}
	return out
}

// Equal compares two arenas cell by cell, including their shape.
func (a Arena) Equal(other Arena) bool {
	if len(a) != len(other) {
		return false
	}
	for b := range a {
		if len(a[b]) != len(other[b]) {
			return false
		}
		for r := range a[b] {
			if len(a[b][r]) != len(other[b][r]) {
				return false
			}
			for c := range a[b][r] {
				if a[b][r][c] != other[b][r][c] {
					return false
				}
			}
		}
	}
	return true
}

// Placement pairs a container with its address.
type Placement struct {
	Token   Token
	Address Address
}
