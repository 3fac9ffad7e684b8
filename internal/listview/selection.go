package listview

import (
	"errors"
	"slices"
)

// ConfirmPhrase must be typed exactly to allow a bulk action.
const ConfirmPhrase = "confirm"

// ErrEmptySelection is returned when a bulk action is requested with nothing selected.
var ErrEmptySelection = errors.New("no items selected")

// HeaderState is the tri-state of a select-all checkbox.
type HeaderState string

const (
	HeaderUnchecked     HeaderState = "unchecked"
	HeaderChecked       HeaderState = "checked"
	HeaderIndeterminate HeaderState = "indeterminate"
)

// Selection tracks which of the currently visible items are checked.
type Selection struct {
	scope   []string
	checked map[string]bool
}

// NewSelection returns an empty selection with an empty scope.
func NewSelection() *Selection {
	return &Selection{checked: make(map[string]bool)}
}

// SetScope replaces the set of selectable identifiers, e.g. after the visible
// page changes. Checks on identifiers that left the scope are dropped.
func (s *Selection) SetScope(ids []string) {
	s.scope = slices.Clone(ids)
	inScope := make(map[string]bool, len(ids))
	for _, id := range ids {
		inScope[id] = true
	}
	for id := range s.checked {
		if !inScope[id] {
			delete(s.checked, id)
		}
	}
}

// Toggle sets the check state of one identifier. Identifiers outside the
// scope are ignored and false is returned.
func (s *Selection) Toggle(id string, checked bool) bool {
	if !slices.Contains(s.scope, id) {
		return false
	}
	if checked {
		s.checked[id] = true
	} else {
		delete(s.checked, id)
	}
	return true
}

// SelectAll checks or unchecks every identifier in scope.
func (s *Selection) SelectAll(checked bool) {
	clear(s.checked)
	if !checked {
		return
	}
	for _, id := range s.scope {
		s.checked[id] = true
	}
}

// Clear unchecks everything.
func (s *Selection) Clear() {
	clear(s.checked)
}

// Count returns the number of checked identifiers.
func (s *Selection) Count() int {
	return len(s.checked)
}

// Total returns the number of selectable identifiers.
func (s *Selection) Total() int {
	return len(s.scope)
}

// Selected returns the checked identifiers in scope order.
func (s *Selection) Selected() []string {
	out := make([]string, 0, len(s.checked))
	for _, id := range s.scope {
		if s.checked[id] {
			out = append(out, id)
		}
	}
	return out
}

// IsChecked reports whether id is checked.
func (s *Selection) IsChecked(id string) bool {
	return s.checked[id]
}

// Header returns the select-all checkbox state.
func (s *Selection) Header() HeaderState {
	n := s.Count()
	switch {
	case n == 0:
		return HeaderUnchecked
	case n == len(s.scope):
		return HeaderChecked
	default:
		return HeaderIndeterminate
	}
}

// BulkGuard gates a destructive bulk action behind a non-empty selection and
// a typed confirmation phrase.
type BulkGuard struct {
	open    bool
	pending []string
}

// Open arms the guard for the given selection.
func (g *BulkGuard) Open(selected []string) error {
	if len(selected) == 0 {
		return ErrEmptySelection
	}
	g.open = true
	g.pending = slices.Clone(selected)
	return nil
}

// IsOpen reports whether a confirmation is pending.
func (g *BulkGuard) IsOpen() bool { return g.open }

// Pending returns the identifiers awaiting confirmation.
func (g *BulkGuard) Pending() []string { return slices.Clone(g.pending) }

// Confirm returns the pending identifiers and disarms the guard when text is
// exactly ConfirmPhrase. Any other text leaves the guard untouched.
func (g *BulkGuard) Confirm(text string) ([]string, bool) {
	if !g.open || text != ConfirmPhrase {
		return nil, false
	}
	ids := g.pending
	g.Cancel()
	return ids, true
}

// Rescope disarms the guard unless every pending identifier is still in
// selected. It reports whether the guard stays armed.
func (g *BulkGuard) Rescope(selected []string) bool {
	if !g.open {
		return false
	}
	for _, id := range g.pending {
		if !slices.Contains(selected, id) {
			g.Cancel()
			return false
		}
	}
	return true
}

// Cancel disarms the guard.
func (g *BulkGuard) Cancel() {
	g.open = false
	g.pending = nil
}
