package listview

import "fmt"

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// Page is one page of a derived list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
	// Start is inclusive, End exclusive; End may exceed TotalItems.
	Start int `json:"start"`
	End   int `json:"end"`
}

// TotalPages returns max(1, ceil(total/pageSize)).
func TotalPages(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if total <= 0 {
		return 1
	}
	return (total-1)/pageSize + 1
}

// ClampPage bounds page to [1, TotalPages(total, pageSize)].
func ClampPage(page, total, pageSize int) int {
	if tp := TotalPages(total, pageSize); page > tp {
		page = tp
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate slices items to the requested page, clamping the page number into
// range. A pageSize below 1 is treated as 1.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(items)
	page = ClampPage(page, total, pageSize)

	start := (page - 1) * pageSize
	end := start + pageSize
	lo, hi := min(start, total), min(end, total)

	visible := make([]T, hi-lo)
	copy(visible, items[lo:hi])

	return Page[T]{
		Items:      visible,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: TotalPages(total, pageSize),
		Start:      start,
		End:        end,
	}
}

// Label renders "Showing X to Y of Z", or "No items" for an empty list.
func (p Page[T]) Label() string {
	if p.TotalItems == 0 {
		return "No items"
	}
	return fmt.Sprintf("Showing %d to %d of %d", p.Start+1, min(p.End, p.TotalItems), p.TotalItems)
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether a preceding page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }
