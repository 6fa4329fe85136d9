package bay

import (
	"fmt"
	"strconv"
	"strings"
)

type Area int

const (
	AreaDock Area = iota
	AreaBay
)

func (a Area) String() string {
	switch a {
	case AreaDock:
		return "dock"
	case AreaBay:
		return "bay"
	default:
		return "unknown"
	}
}

// Address is either (dock, index) or (bay, row, column). Only the fields of
// the matching area are set, so two addresses compare equal with ==.
type Address struct {
	Area   Area
	Index  int
	Bay    int
	Row    int
	Column int
}

func DockAddress(index int) Address {
	return Address{Area: AreaDock, Index: index}
}

func BayAddress(bay, row, column int) Address {
	return Address{Area: AreaBay, Bay: bay, Row: row, Column: column}
}

func (a Address) IsDock() bool { return a.Area == AreaDock }

func (a Address) IsBay() bool { return a.Area == AreaBay }

// CellIndex flattens a bay address to row*columns+column, the index used by
// the storage format. Dock addresses return their slot index.
func (a Address) CellIndex(columns int) int {
	if a.Area == AreaDock {
		return a.Index
	}
	return a.Row*columns + a.Column
}

func (a Address) String() string {
	if a.Area == AreaDock {
		return fmt.Sprintf("dock:%d", a.Index)
	}
	return fmt.Sprintf("bay:%d:%d:%d", a.Bay, a.Row, a.Column)
}

// ParseAddress accepts "dock:<slot>" or "bay:<bay>:<row>:<column>".
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	nums := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
		}
		if n < 0 {
			return Address{}, fmt.Errorf("invalid address %q: negative coordinate", s)
		}
		nums = append(nums, n)
	}

	switch {
	case parts[0] == "dock" && len(nums) == 1:
		return DockAddress(nums[0]), nil
	case parts[0] == "bay" && len(nums) == 3:
		return BayAddress(nums[0], nums[1], nums[2]), nil
	default:
		return Address{}, fmt.Errorf("invalid address %q: expected dock:<slot> or bay:<bay>:<row>:<column>", s)
	}
}
