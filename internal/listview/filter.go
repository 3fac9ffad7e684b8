// Package listview derives the visible set of a list screen:
// paginate(sort(filter(source))). Every function here returns new slices
// and leaves its input untouched.
package listview

import "strings"

// Field extracts the searchable values of one field of an entity. Missing
// values should be returned as nil or empty strings.
type Field[T any] func(T) []string

// Text adapts a single-valued string field.
func Text[T any](get func(T) string) Field[T] {
	return func(item T) []string {
		return []string{get(item)}
	}
}

// List adapts a multi-valued field such as a template's domain list.
func List[T any](get func(T) []string) Field[T] {
	return Field[T](get)
}

// NormalizeQuery trims and lower-cases a search query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Filter returns the items for which at least one field contains the query,
// compared case-insensitively. An empty query returns a copy of items in
// their original order.
func Filter[T any](items []T, query string, fields ...Field[T]) []T {
	q := NormalizeQuery(query)
	out := make([]T, 0, len(items))
	if q == "" {
		return append(out, items...)
	}
	for _, item := range items {
		if Matches(item, q, fields...) {
			out = append(out, item)
		}
	}
	return out
}

// Matches reports whether any field of item contains the normalized query q.
func Matches[T any](item T, q string, fields ...Field[T]) bool {
	for _, field := range fields {
		for _, v := range field(item) {
			if v != "" && strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
	}
	return false
}
