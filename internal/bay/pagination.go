package bay

import "fmt"

// PageCount returns ceil(slots / pageSize).
func PageCount(slots, pageSize int) int {
	if pageSize < 1 || slots <= 0 {
		return 0
	}
	return (slots + pageSize - 1) / pageSize
}

// VisibleSlots returns the dock slot indices shown on a page. Pages outside
// the range return nil.
func VisibleSlots(slots, pageSize, page int) []int {
	if page < 0 || page >= PageCount(slots, pageSize) {
		return nil
	}
	start := page * pageSize
	end := min(start+pageSize, slots)
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}

// Paginator tracks the current dock page. Turning pages never changes grid
// addresses; it only shifts which slot indices are displayed.
type Paginator struct {
	pageSize int
	slots    int
	page     int
}

func NewPaginator(slots, pageSize int) (*Paginator, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be at least 1, got %d", pageSize)
	}
	return &Paginator{pageSize: pageSize, slots: slots}, nil
}

func (p *Paginator) PageSize() int { return p.pageSize }

func (p *Paginator) Page() int { return p.page }

func (p *Paginator) PageCount() int { return PageCount(p.slots, p.pageSize) }

func (p *Paginator) Visible() []int { return VisibleSlots(p.slots, p.pageSize, p.page) }

func (p *Paginator) SetPage(page int) error {
	if page < 0 || page >= max(p.PageCount(), 1) {
		return fmt.Errorf("page %d out of range [0, %d)", page, p.PageCount())
	}
	p.page = page
	return nil
}

func (p *Paginator) Next() bool {
	if p.page+1 >= p.PageCount() {
		return false
	}
	p.page++
	return true
}

func (p *Paginator) Prev() bool {
	if p.page == 0 {
		return false
	}
	p.page--
	return true
}

// Resize follows a change in dock slot count, keeping the page in range.
func (p *Paginator) Resize(slots int) {
	p.slots = slots
	if last := p.PageCount() - 1; p.page > last {
		p.page = max(last, 0)
	}
}
