package form

import (
	"slices"
	"strings"

	"github.com/wlconsole/wlconsole/internal/entity"
	"github.com/wlconsole/wlconsole/internal/listview"
)

// MergeDomains appends add to the newline-separated domain list current,
// skipping entries already present. Existing entries keep their order and
// come first; the result is newline-joined.
func MergeDomains(current string, add []string) string {
	merged := entity.SplitDomains(current)
	seen := make(map[string]bool, len(merged)+len(add))
	out := merged[:0]
	for _, d := range merged {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, d := range add {
		d = strings.TrimSpace(d)
		if d != "" && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return strings.Join(out, "\n")
}

// MergedPreview returns the deduplicated union of the selected groups'
// domains in selection order. Unknown groups are skipped.
func MergedPreview(groups map[string][]string, selected []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range selected {
		for _, d := range groups[name] {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// FilterGroups keeps the groups whose name or any domain contains search,
// case-insensitively. An empty search keeps every group.
func FilterGroups(groups map[string][]string, search string) map[string][]string {
	q := listview.NormalizeQuery(search)
	out := make(map[string][]string, len(groups))
	for name, domains := range groups {
		if q == "" || strings.Contains(strings.ToLower(name), q) ||
			slices.ContainsFunc(domains, func(d string) bool { return strings.Contains(strings.ToLower(d), q) }) {
			out[name] = domains
		}
	}
	return out
}

// GroupNames returns the group names sorted for display.
func GroupNames(groups map[string][]string) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
