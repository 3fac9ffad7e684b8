package listview

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind selects the comparator used for a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindDate
)

// dateLayouts are tried in order when parsing date columns.
var dateLayouts = []string{"2006-01-02", "02-01-2006", time.RFC3339}

// Column declares a sortable column of T.
type Column[T any] struct {
	Key   string
	Kind  Kind
	Value func(T) string
}

// Compare orders a and b by the column's declared kind.
func (c Column[T]) Compare(a, b T) int {
	va, vb := c.Value(a), c.Value(b)
	switch c.Kind {
	case KindInt:
		return cmp.Compare(parseInt(va), parseInt(vb))
	case KindDate:
		return parseDate(va).Compare(parseDate(vb))
	default:
		return strings.Compare(va, vb)
	}
}

// Sort returns a stably sorted copy of items. Equal keys keep their input order.
func Sort[T any](items []T, col Column[T], ascending bool) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		if ascending {
			return col.Compare(a, b)
		}
		return col.Compare(b, a)
	})
	return out
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// Columns is a lookup table of the sortable columns of a screen.
type Columns[T any] []Column[T]

// Lookup finds the column with the given key.
func (cs Columns[T]) Lookup(key string) (Column[T], bool) {
	for _, c := range cs {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}
