package listview

import (
	"fmt"
	"slices"
)

// State is the view state of one list screen. It is mutated only through its
// methods; the visible set is always recomputed from it by Screen.Apply.
type State struct {
	Query     string `json:"query"`
	Field     string `json:"field,omitempty"`
	SortKey   string `json:"sort_key,omitempty"`
	Ascending bool   `json:"ascending"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// NewState returns the initial state for a screen.
func NewState(pageSize int) State {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return State{Ascending: true, Page: 1, PageSize: pageSize}
}

// SetQuery changes the search query and field and returns to page 1.
func (s *State) SetQuery(query, field string) {
	s.Query = query
	s.Field = field
	s.Page = 1
}

// ClearQuery drops the search and returns to page 1.
func (s *State) ClearQuery() {
	s.SetQuery("", s.Field)
}

// SortBy selects a sort column. Re-selecting the current column flips the
// direction; a new column starts ascending. Sorting returns to page 1.
func (s *State) SortBy(key string) {
	if s.SortKey == key {
		s.Ascending = !s.Ascending
	} else {
		s.SortKey = key
		s.Ascending = true
	}
	s.Page = 1
}

// SetPage requests a page. It is clamped the next time the state is applied.
func (s *State) SetPage(page int) {
	s.Page = page
}

// SetPageSize changes the page size and returns to page 1.
func (s *State) SetPageSize(size int) {
	if size < 1 {
		size = 1
	}
	s.PageSize = size
	s.Page = 1
}

// Next advances one page when totalPages allows it.
func (s *State) Next(totalPages int) bool {
	if s.Page < totalPages {
		s.Page++
		return true
	}
	return false
}

// Prev goes back one page unless already on the first.
func (s *State) Prev() bool {
	if s.Page > 1 {
		s.Page--
		return true
	}
	return false
}

// Screen declares how a list of T is searched and sorted.
type Screen[T any] struct {
	// Fields maps a search field name to its extractor.
	Fields map[string]Field[T]
	// SearchAll lists the fields searched when no field is selected, in order.
	SearchAll []string
	Columns   Columns[T]
}

// ValidateField reports whether field names a searchable field. The empty
// string selects SearchAll.
func (sc Screen[T]) ValidateField(field string) error {
	if field == "" {
		return nil
	}
	if _, ok := sc.Fields[field]; !ok {
		return fmt.Errorf("unknown search field %q", field)
	}
	return nil
}

// ValidateColumn reports whether key names a sortable column.
func (sc Screen[T]) ValidateColumn(key string) error {
	if _, ok := sc.Columns.Lookup(key); !ok {
		return fmt.Errorf("unknown sort column %q", key)
	}
	return nil
}

// Derive filters and sorts items according to st without paginating.
func (sc Screen[T]) Derive(items []T, st State) []T {
	filtered := Filter(items, st.Query, sc.searchFields(st.Field)...)
	if col, ok := sc.Columns.Lookup(st.SortKey); ok {
		return Sort(filtered, col, st.Ascending)
	}
	return filtered
}

// Apply derives the visible page and writes the clamped page number back
// into st, so 1 <= st.Page <= TotalPages holds afterwards.
func (sc Screen[T]) Apply(items []T, st *State) Page[T] {
	p := Paginate(sc.Derive(items, *st), st.Page, st.PageSize)
	st.Page = p.Page
	st.PageSize = p.PageSize
	return p
}

func (sc Screen[T]) searchFields(field string) []Field[T] {
	if f, ok := sc.Fields[field]; ok {
		return []Field[T]{f}
	}
	names := sc.SearchAll
	if len(names) == 0 {
		names = make([]string, 0, len(sc.Fields))
		for name := range sc.Fields {
			names = append(names, name)
		}
		slices.Sort(names)
	}
	fields := make([]Field[T], 0, len(names))
	for _, name := range names {
		if f, ok := sc.Fields[name]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}
