package listview

import (
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	name    string
	note    string
	tags    []string
	days    string
	expires string
}

var rowScreen = Screen[row]{
	Fields: map[string]Field[row]{
		"name": Text(func(r row) string { return r.name }),
		"note": Text(func(r row) string { return r.note }),
		"tags": List(func(r row) []string { return r.tags }),
	},
	SearchAll: []string{"name", "note", "tags"},
	Columns: Columns[row]{
		{Key: "name", Value: func(r row) string { return r.name }},
		{Key: "days", Kind: KindInt, Value: func(r row) string { return r.days }},
		{Key: "expires", Kind: KindDate, Value: func(r row) string { return r.expires }},
	},
}

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.name
	}
	return out
}

func sampleRows() []row {
	return []row{
		{name: "Charlie", note: "vpn", days: "10", expires: "2026-03-01"},
		{name: "alpha", tags: []string{"Mail.example.com"}, days: "x", expires: "01-02-2026"},
		{name: "bravo", note: "VPN backup", days: "-3", expires: "2026-01-15"},
		{name: "alpha", note: "second", days: "10", expires: ""},
	}
}

func TestFilter(t *testing.T) {
	rows := sampleRows()
	all := rowScreen.searchFields("")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Charlie", "alpha", "bravo", "alpha"}},
		{"   ", []string{"Charlie", "alpha", "bravo", "alpha"}},
		{"vpn", []string{"Charlie", "bravo"}},
		{"  MAIL ", []string{"alpha"}},
		{"ALPHA", []string{"alpha", "alpha"}},
		{"nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.query), func(t *testing.T) {
			got := Filter(rows, tt.query, all...)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	got := Filter(rows, "", rowScreen.searchFields("")...)
	got[0].name = "changed"
	assert.Equal(t, "Charlie", rows[0].name)
}

func TestFilterSingleField(t *testing.T) {
	rows := sampleRows()
	got := Filter(rows, "vpn", rowScreen.searchFields("name")...)
	assert.Empty(t, got)
}

func TestSortString(t *testing.T) {
	col, _ := rowScreen.Columns.Lookup("name")
	got := Sort(sampleRows(), col, true)
	// Lexicographic: upper case sorts before lower case.
	assert.Equal(t, []string{"Charlie", "alpha", "alpha", "bravo"}, names(got))
	assert.Equal(t, "", got[1].note, "equal keys keep input order")
	assert.Equal(t, "second", got[2].note)
}

func TestSortIntTreatsGarbageAsZero(t *testing.T) {
	col, _ := rowScreen.Columns.Lookup("days")
	got := Sort(sampleRows(), col, true)
	assert.Equal(t, []string{"-3", "x", "10", "10"}, []string{got[0].days, got[1].days, got[2].days, got[3].days})
	assert.Equal(t, "Charlie", got[2].name, "stable among equal days")

	desc := Sort(sampleRows(), col, false)
	assert.Equal(t, []string{"Charlie", "alpha", "alpha", "bravo"}, names(desc))
	assert.Equal(t, "second", desc[1].note, "descending is stable too")
}

func TestSortDate(t *testing.T) {
	col, _ := rowScreen.Columns.Lookup("expires")
	got := Sort(sampleRows(), col, true)
	assert.Equal(t, []string{"", "2026-01-15", "01-02-2026", "2026-03-01"},
		[]string{got[0].expires, got[1].expires, got[2].expires, got[3].expires})
}

func numbered(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{name: strconv.Itoa(i + 1)}
	}
	return rows
}

func TestPaginateScenario(t *testing.T) {
	rows := numbered(25)

	p := Paginate(rows, 1, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, "1", p.Items[0].name)
	assert.Equal(t, "10", p.Items[9].name)
	assert.Equal(t, "Showing 1 to 10 of 25", p.Label())

	p = Paginate(rows, 4, 10)
	assert.Equal(t, 3, p.Page)
	require.Len(t, p.Items, 5)
	assert.Equal(t, "21", p.Items[0].name)
	assert.Equal(t, "25", p.Items[4].name)
	assert.Equal(t, 30, p.End, "end is not clamped")
	assert.Equal(t, "Showing 21 to 25 of 25", p.Label())
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate([]row{}, 3, 10)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Items)
	assert.Equal(t, "No items", p.Label())
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())
}

func TestTotalPagesProperty(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for size := 1; size <= 12; size++ {
			tp := TotalPages(total, size)
			want := (total + size - 1) / size
			if want < 1 {
				want = 1
			}
			require.Equal(t, want, tp, "total=%d size=%d", total, size)
			for page := -2; page <= tp+2; page++ {
				p := Paginate(numbered(total), page, size)
				require.GreaterOrEqual(t, p.Page, 1)
				require.LessOrEqual(t, p.Page, tp)
			}
		}
	}

	for _, total := range []int{0, 1, 5, math.MaxInt} {
		assert.Equal(t, 1, TotalPages(total, math.MaxInt), "total=%d", total)
	}
	assert.Equal(t, math.MaxInt, TotalPages(math.MaxInt, 1))

	p := Paginate(numbered(5), 1, math.MaxInt)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.Page)
	assert.Len(t, p.Items, 5)
	assert.Equal(t, "Showing 1 to 5 of 5", p.Label())
}

func TestStateSortToggle(t *testing.T) {
	st := NewState(10)
	st.SetPage(3)

	st.SortBy("name")
	assert.Equal(t, "name", st.SortKey)
	assert.True(t, st.Ascending)
	assert.Equal(t, 1, st.Page)

	first := rowScreen.Apply(sampleRows(), &st)

	st.SortBy("name")
	assert.False(t, st.Ascending)
	st.SortBy("name")
	assert.True(t, st.Ascending)
	again := rowScreen.Apply(sampleRows(), &st)
	assert.Equal(t, first.Items, again.Items)

	st.SortBy("days")
	assert.True(t, st.Ascending, "new column resets to ascending")
}

func TestStateApplyClampsPage(t *testing.T) {
	st := NewState(10)
	st.SetPage(9)
	p := rowScreen.Apply(numbered(25), &st)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 3, st.Page)

	st.SetPageSize(5)
	assert.Equal(t, 1, st.Page)
	p = rowScreen.Apply(numbered(25), &st)
	assert.Equal(t, 5, p.TotalPages)

	assert.True(t, st.Next(p.TotalPages))
	assert.Equal(t, 2, st.Page)
	assert.True(t, st.Prev())
	assert.False(t, st.Prev())

	st.SetQuery("2", "name")
	assert.Equal(t, 1, st.Page)
	p = rowScreen.Apply(numbered(25), &st)
	// 2, 12, 20..25
	assert.Equal(t, 8, p.TotalItems)
}

func TestScreenValidation(t *testing.T) {
	assert.NoError(t, rowScreen.ValidateField(""))
	assert.NoError(t, rowScreen.ValidateField("tags"))
	assert.Error(t, rowScreen.ValidateField("bogus"))
	assert.NoError(t, rowScreen.ValidateColumn("days"))
	assert.Error(t, rowScreen.ValidateColumn("bogus"))
}

func TestSelection(t *testing.T) {
	s := NewSelection()
	s.SetScope([]string{"1", "2", "3"})
	assert.Equal(t, HeaderUnchecked, s.Header())

	s.SelectAll(true)
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, HeaderChecked, s.Header())

	s.Toggle("2", false)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, HeaderIndeterminate, s.Header())
	assert.Equal(t, []string{"1", "3"}, s.Selected())

	assert.False(t, s.Toggle("9", true), "outside scope")

	s.SetScope([]string{"3", "4"})
	assert.Equal(t, 1, s.Count(), "checks outside the new scope are dropped")
	assert.Equal(t, HeaderIndeterminate, s.Header())

	s.SelectAll(false)
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, HeaderUnchecked, s.Header())

	s.SetScope(nil)
	assert.Equal(t, HeaderUnchecked, s.Header())
}

func TestBulkGuard(t *testing.T) {
	var g BulkGuard
	assert.ErrorIs(t, g.Open(nil), ErrEmptySelection)
	assert.False(t, g.IsOpen())

	require.NoError(t, g.Open([]string{"1", "2"}))

	for _, text := range []string{"", "Confirm", "CONFIRM", " confirm", "confirm "} {
		ids, ok := g.Confirm(text)
		assert.False(t, ok, "text %q", text)
		assert.Nil(t, ids)
		assert.True(t, g.IsOpen())
	}

	ids, ok := g.Confirm("confirm")
	assert.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, ids)
	assert.False(t, g.IsOpen())

	_, ok = g.Confirm("confirm")
	assert.False(t, ok, "guard is single use")
}

func TestBulkGuardRescope(t *testing.T) {
	var g BulkGuard
	assert.False(t, g.Rescope([]string{"1"}), "closed guard stays closed")

	require.NoError(t, g.Open([]string{"1", "2"}))
	assert.True(t, g.Rescope([]string{"0", "1", "2"}))
	assert.True(t, g.IsOpen())

	assert.False(t, g.Rescope([]string{"1"}))
	assert.False(t, g.IsOpen())
	_, ok := g.Confirm("confirm")
	assert.False(t, ok)

	require.NoError(t, g.Open([]string{"3"}))
	assert.False(t, g.Rescope(nil))
	assert.Empty(t, g.Pending())
}
