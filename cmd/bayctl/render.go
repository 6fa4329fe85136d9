package main

import (
	"fmt"
	"io"
	"strings"

	"cargo-console/internal/participant"
)

const emptyCell = "."

func render(w io.Writer, v participant.View) {
	var b strings.Builder

	fmt.Fprintf(&b, "dock page %d/%d\n", v.Page+1, max(v.PageCount, 1))
	for _, slot := range v.Dock {
		name := string(slot.Token)
		if name == "" {
			name = emptyCell
		}
		if slot.Token != "" && slot.Token == v.Dragging {
			name += "*"
		}
		fmt.Fprintf(&b, "  [%d] %s\n", slot.Index, name)
	}

	width := cellWidth(v)
	for bayIndex, rows := range v.Arena {
		fmt.Fprintf(&b, "bay %d\n", bayIndex)
		for _, cols := range rows {
			cells := make([]string, len(cols))
			for c, token := range cols {
				name := string(token)
				if name == "" {
					name = emptyCell
				}
				cells[c] = fmt.Sprintf("%-*s", width, name)
			}
			fmt.Fprintf(&b, "  %s\n", strings.TrimRight(strings.Join(cells, " "), " "))
		}
	}

	_, _ = io.WriteString(w, b.String())
}

func cellWidth(v participant.View) int {
	width := len(emptyCell)
	for _, rows := range v.Arena {
		for _, cols := range rows {
			for _, token := range cols {
				width = max(width, len(token))
			}
		}
	}
	return width
}
