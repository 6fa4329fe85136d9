package bay

import "testing"

func TestVisibleSlotsCoverDockExactlyOnce(t *testing.T) {
	for slots := 0; slots <= 23; slots++ {
		for size := 1; size <= 9; size++ {
			seen := make([]int, slots)
			pages := PageCount(slots, size)
			for page := 0; page < pages; page++ {
				visible := VisibleSlots(slots, size, page)
				if len(visible) == 0 || len(visible) > size {
					t.Fatalf("slots=%d size=%d page=%d: bad page length %d", slots, size, page, len(visible))
				}
				for _, s := range visible {
					seen[s]++
				}
			}
			for s, n := range seen {
				if n != 1 {
					t.Fatalf("slots=%d size=%d: slot %d seen %d times", slots, size, s, n)
				}
			}
		}
	}
}

func TestPageCount(t *testing.T) {
	cases := []struct{ slots, size, want int }{
		{0, 4, 0},
		{1, 4, 1},
		{4, 4, 1},
		{5, 4, 2},
		{12, 5, 3},
		{3, 0, 0},
	}
	for _, tc := range cases {
		if got := PageCount(tc.slots, tc.size); got != tc.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tc.slots, tc.size, got, tc.want)
		}
	}
}

func TestPaginatorNavigation(t *testing.T) {
	p, err := NewPaginator(10, 4)
	if err != nil {
		t.Fatalf("NewPaginator: %v", err)
	}
	if p.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", p.PageCount())
	}
	if p.Prev() {
		t.Fatalf("expected Prev to fail on first page")
	}
	if !p.Next() || !p.Next() || p.Next() {
		t.Fatalf("expected exactly two Next calls to succeed")
	}
	if got := p.Visible(); len(got) != 2 || got[0] != 8 || got[1] != 9 {
		t.Fatalf("unexpected last page %v", got)
	}

	p.Resize(5)
	if p.Page() != 1 {
		t.Fatalf("expected page clamped to 1, got %d", p.Page())
	}
	if err := p.SetPage(2); err == nil {
		t.Fatalf("expected SetPage out of range to fail")
	}
	if _, err := NewPaginator(3, 0); err == nil {
		t.Fatalf("expected page size 0 to fail")
	}
}
