package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlconsole/wlconsole/internal/backend"
	"github.com/wlconsole/wlconsole/internal/entity"
	"github.com/wlconsole/wlconsole/internal/form"
	"github.com/wlconsole/wlconsole/internal/listview"
	"github.com/wlconsole/wlconsole/internal/prefs"
	"github.com/wlconsole/wlconsole/internal/router"
	"github.com/wlconsole/wlconsole/internal/source"
)

type fakeBackend struct {
	mu   sync.Mutex
	subs []form.Submission

	env       backend.Envelope
	submitErr error

	templates    map[string][]string
	templatesErr error

	hosts     map[string]string
	gates     map[string]chan struct{}
	entered   chan string
	lookupErr error
	lookups   int

	uploads []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		env:     backend.Envelope{Message: "Done", Type: "success"},
		hosts:   map[string]string{},
		gates:   map[string]chan struct{}{},
		entered: make(chan string, 8),
	}
}

func (f *fakeBackend) Submit(ctx context.Context, sub form.Submission) (backend.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	return f.env, f.submitErr
}

func (f *fakeBackend) FetchTemplates(ctx context.Context) (map[string][]string, error) {
	if f.templatesErr != nil {
		return map[string][]string{}, f.templatesErr
	}
	return f.templates, nil
}

func (f *fakeBackend) Lookup(ctx context.Context, ip string) (string, error) {
	f.mu.Lock()
	f.lookups++
	gate := f.gates[ip]
	host := f.hosts[ip]
	err := f.lookupErr
	f.mu.Unlock()

	f.entered <- ip
	if gate != nil {
		<-gate
	}
	return host, err
}

func (f *fakeBackend) Import(ctx context.Context, r router.Resource, filename string, content io.Reader, overwrite bool) (backend.Envelope, error) {
	data, _ := io.ReadAll(content)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, fmt.Sprintf("%s:%s:%s:%t", r, filename, data, overwrite))
	return backend.Envelope{Message: "Imported", Type: "success"}, nil
}

func (f *fakeBackend) Export(ctx context.Context, r router.Resource) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader(`[{"id":1}]`)), "application/json", nil
}

func (f *fakeBackend) submissions() []form.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]form.Submission(nil), f.subs...)
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
}

func clientRows(n int) []entity.ClientRow {
	rows := make([]entity.ClientRow, n)
	for i := range rows {
		id := i + 1
		rows[i] = entity.ClientRow{
			ID:         strconv.Itoa(id),
			IP:         fmt.Sprintf("10.0.0.%d", id),
			DNS:        fmt.Sprintf("host%d.lan", id),
			Domains:    []string{"example.com"},
			Expiration: "2026-12-01",
			Ticket:     fmt.Sprintf("T-%d", id),
			Days:       strconv.Itoa(id),
		}
	}
	return rows
}

func newClientManager(t *testing.T, rows []entity.ClientRow) (*ClientManager, *fakeBackend, *source.MemoryRepository[entity.ClientRow], *Notifier) {
	t.Helper()
	be := newFakeBackend()
	repo := source.NewMemoryRepository(rows)
	n := NewNotifier(time.Hour)
	t.Cleanup(n.Close)
	m := NewClientManager(repo, be, n, WithClock(fixedClock))
	require.NoError(t, m.Reload(context.Background()))
	return m, be, repo, n
}

func pageIDs(p listview.Page[entity.ClientRow]) []string {
	ids := make([]string, len(p.Items))
	for i, r := range p.Items {
		ids[i] = r.ID
	}
	return ids
}

func TestClientPaginationClamp(t *testing.T) {
	m, _, _, _ := newClientManager(t, clientRows(25))

	v := m.View()
	assert.Equal(t, 3, v.Page.TotalPages)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, pageIDs(v.Page))
	assert.Equal(t, "Showing 1 to 10 of 25", v.Label)

	m.SetPage(4)
	v = m.View()
	assert.Equal(t, 3, v.State.Page)
	assert.Equal(t, []string{"21", "22", "23", "24", "25"}, pageIDs(v.Page))
	assert.Equal(t, "Showing 21 to 25 of 25", v.Label)

	assert.False(t, m.Next())
	assert.True(t, m.Prev())
	assert.Equal(t, 2, m.View().State.Page)
}

func TestClientSearchAndReset(t *testing.T) {
	m, _, _, _ := newClientManager(t, clientRows(25))

	require.NoError(t, m.Search("10.0.0.2", "ip"))
	v := m.View()
	// 10.0.0.2 and 10.0.0.20-25
	assert.Equal(t, 7, v.Page.TotalItems)
	assert.Equal(t, 1, v.State.Page)

	require.NoError(t, m.Search("t-13", "ticket"))
	assert.Equal(t, []string{"13"}, pageIDs(m.View().Page))

	assert.Error(t, m.Search("x", "password"))

	m.ResetFilter()
	assert.Equal(t, 25, m.View().Page.TotalItems)
}

func TestClientSortToggle(t *testing.T) {
	m, _, _, _ := newClientManager(t, clientRows(12))

	require.NoError(t, m.SortBy("days"))
	assert.Equal(t, "1", m.View().Page.Items[0].ID)

	require.NoError(t, m.SortBy("days"))
	v := m.View()
	assert.False(t, v.State.Ascending)
	assert.Equal(t, "12", v.Page.Items[0].ID)

	assert.Error(t, m.SortBy("bogus"))
}

func TestClientSelectionFollowsPage(t *testing.T) {
	m, _, _, _ := newClientManager(t, clientRows(25))

	m.SelectAll(true)
	sel := m.View().Selection
	assert.Equal(t, 10, sel.Count)
	assert.Equal(t, listview.HeaderChecked, sel.Header)

	assert.True(t, m.Toggle("3", false))
	assert.Equal(t, listview.HeaderIndeterminate, m.View().Selection.Header)

	// Rows off the visible page cannot be selected.
	assert.False(t, m.Toggle("15", true))

	m.Next()
	sel = m.View().Selection
	assert.Equal(t, 0, sel.Count)
	assert.Equal(t, listview.HeaderUnchecked, sel.Header)
}

func TestClientBulkDelete(t *testing.T) {
	m, be, repo, n := newClientManager(t, clientRows(5))

	_, err := m.OpenBulkDelete()
	assert.ErrorIs(t, err, listview.ErrEmptySelection)

	m.Toggle("1", true)
	m.Toggle("4", true)
	count, err := m.OpenBulkDelete()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, m.View().Selection.BulkPending)

	for _, text := range []string{"", "Confirm", "confirm ", "yes"} {
		_, ok, err := m.ConfirmBulkDelete(context.Background(), text)
		assert.NoError(t, err)
		assert.False(t, ok, "text %q must not confirm", text)
	}
	assert.Empty(t, be.submissions())

	repo.Replace(clientRows(3))
	env, ok, err := m.ConfirmBulkDelete(context.Background(), "confirm")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Done", env.Message)

	subs := be.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "/clients/delete_clients", subs[0].Path)
	assert.Equal(t, []string{"1", "4"}, subs[0].Values["selected_clients"])

	v := m.View()
	assert.Equal(t, 3, v.Page.TotalItems)
	assert.Equal(t, 0, v.Selection.Count)
	assert.False(t, v.Selection.BulkPending)
	require.Len(t, n.List(), 1)
	assert.Equal(t, "Done", n.List()[0].Message)
}

func TestClientBulkDeleteDisarmedWhenSelectionLeavesPage(t *testing.T) {
	ctx := context.Background()
	moves := []struct {
		name string
		move func(m *ClientManager)
	}{
		{"next", func(m *ClientManager) { m.Next() }},
		{"set page", func(m *ClientManager) { m.SetPage(3) }},
		{"page size", func(m *ClientManager) { m.SetPageSize(5) }},
		{"search", func(m *ClientManager) { require.NoError(t, m.Search("10.0.0.2", "ip")) }},
		{"sort", func(m *ClientManager) { require.NoError(t, m.SortBy("days")); require.NoError(t, m.SortBy("days")) }},
		{"uncheck", func(m *ClientManager) { m.Toggle("4", false) }},
	}
	for _, tc := range moves {
		t.Run(tc.name, func(t *testing.T) {
			m, be, _, _ := newClientManager(t, clientRows(25))
			m.SelectAll(true)
			_, err := m.OpenBulkDelete()
			require.NoError(t, err)

			tc.move(m)

			assert.False(t, m.View().Selection.BulkPending)
			_, ok, err := m.ConfirmBulkDelete(ctx, "confirm")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, be.submissions())
		})
	}
}

func TestClientBulkDeleteSurvivesSameSelection(t *testing.T) {
	m, be, _, _ := newClientManager(t, clientRows(25))
	m.SelectAll(true)
	_, err := m.OpenBulkDelete()
	require.NoError(t, err)

	// Page 1 already; the checked rows stay visible.
	m.SetPage(1)
	m.ResetFilter()
	assert.True(t, m.View().Selection.BulkPending)

	_, ok, err := m.ConfirmBulkDelete(context.Background(), "confirm")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, be.submissions(), 1)
	assert.Len(t, be.submissions()[0].Values["selected_clients"], 10)
}

func TestClientSingleDelete(t *testing.T) {
	m, be, _, _ := newClientManager(t, clientRows(3))

	_, err := m.Delete(context.Background(), "2")
	require.NoError(t, err)
	subs := be.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "GET", subs[0].Method)
	assert.Equal(t, "/clients/delete/2", subs[0].Path)

	_, err = m.Delete(context.Background(), "abc")
	assert.Error(t, err)
	assert.Len(t, be.submissions(), 1)
}

func TestClientFormModes(t *testing.T) {
	rows := clientRows(3)
	rows[2].Domains = []string{entity.AnyDomain}
	rows[2].Expiration = "2027-01-01"
	m, _, _, _ := newClientManager(t, rows)

	v, err := m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	assert.Equal(t, "Add New Client", v.Title)
	assert.Equal(t, "2026-10-23", v.Draft.Expiration)

	v, err = m.OpenForm(form.ModeEdit, "3")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.3", v.Draft.IP)
	assert.Equal(t, "2027-01-01", v.Draft.Expiration)
	assert.True(t, v.Unrestricted)

	v, err = m.OpenForm(form.ModeClone, "3")
	require.NoError(t, err)
	assert.Equal(t, "Clone Client Rules", v.Title)
	assert.Empty(t, v.Draft.IP)
	assert.Empty(t, v.Draft.DNS)
	assert.Equal(t, "2026-10-23", v.Draft.Expiration)
	assert.Equal(t, entity.AnyDomain, v.Draft.Domains)

	_, err = m.OpenForm(form.ModeEdit, "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientUnrestrictedIsLossy(t *testing.T) {
	m, _, _, _ := newClientManager(t, nil)
	_, err := m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)

	d := m.Form().Draft
	d.Domains = "a.com\nb.com"
	_, err = m.UpdateDraft(d)
	require.NoError(t, err)

	v, err := m.SetUnrestricted(true)
	require.NoError(t, err)
	assert.Equal(t, "ANY", v.Draft.Domains)

	v, err = m.SetUnrestricted(false)
	require.NoError(t, err)
	assert.Equal(t, "", v.Draft.Domains)
}

func TestClientTemplates(t *testing.T) {
	m, be, _, _ := newClientManager(t, nil)
	be.templates = map[string][]string{
		"office": {"x.com", "y.com"},
		"dev":    {"git.dev", "x.com"},
	}
	m.LoadTemplates(context.Background())

	picker := m.Templates("git", []string{"office", "dev"})
	assert.Equal(t, []string{"dev"}, picker.Names)
	assert.Equal(t, []string{"x.com", "y.com", "git.dev"}, picker.Preview)

	_, err := m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	d := m.Form().Draft
	d.Domains = "y.com"
	_, err = m.UpdateDraft(d)
	require.NoError(t, err)

	v, err := m.ApplyTemplates([]string{"office"})
	require.NoError(t, err)
	assert.Equal(t, "y.com\nx.com", v.Draft.Domains)
}

func TestClientTemplatesFailureKeepsGroups(t *testing.T) {
	m, be, _, _ := newClientManager(t, nil)
	be.templates = map[string][]string{"office": {"x.com"}}
	m.LoadTemplates(context.Background())

	be.templatesErr = errors.New("not json")
	m.LoadTemplates(context.Background())
	assert.Equal(t, []string{"office"}, m.Templates("", nil).Names)
}

func TestClientLookup(t *testing.T) {
	m, be, _, _ := newClientManager(t, nil)
	be.hosts["10.0.0.7"] = "printer.lan"

	_, err := m.Lookup(context.Background())
	assert.ErrorIs(t, err, form.ErrNotOpen)

	_, err = m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	d := m.Form().Draft
	d.IP = "10.0.0.7"
	_, err = m.UpdateDraft(d)
	require.NoError(t, err)

	res, err := m.AutoLookup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LookupResult{Hostname: "printer.lan", Applied: true}, res)
	assert.Equal(t, "printer.lan", m.Form().Draft.DNS)

	// DNS is filled now, so the automatic lookup does nothing.
	_, err = m.AutoLookup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, be.lookups)
}

func TestClientLookupFailureLeavesDraft(t *testing.T) {
	m, be, _, _ := newClientManager(t, nil)
	be.lookupErr = errors.New("timeout")

	_, err := m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	d := m.Form().Draft
	d.IP = "10.0.0.7"
	d.DNS = "old.lan"
	_, err = m.UpdateDraft(d)
	require.NoError(t, err)

	_, err = m.Lookup(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "old.lan", m.Form().Draft.DNS)
}

func TestClientLookupStaleResponseDiscarded(t *testing.T) {
	m, be, _, _ := newClientManager(t, nil)
	be.hosts["10.0.0.1"] = "slow.lan"
	be.hosts["10.0.0.2"] = "fast.lan"
	gate := make(chan struct{})
	be.gates["10.0.0.1"] = gate

	_, err := m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	setIP := func(ip string) {
		d := m.Form().Draft
		d.IP = ip
		_, err := m.UpdateDraft(d)
		require.NoError(t, err)
	}

	setIP("10.0.0.1")
	slow := make(chan LookupResult, 1)
	go func() {
		res, _ := m.Lookup(context.Background())
		slow <- res
	}()
	<-be.entered

	setIP("10.0.0.2")
	res, err := m.Lookup(context.Background())
	require.NoError(t, err)
	<-be.entered
	assert.True(t, res.Applied)

	close(gate)
	stale := <-slow
	assert.Equal(t, "slow.lan", stale.Hostname)
	assert.False(t, stale.Applied)
	assert.Equal(t, "fast.lan", m.Form().Draft.DNS)
}

func TestClientLookupAfterReopenDiscarded(t *testing.T) {
	m, be, _, _ := newClientManager(t, nil)
	be.hosts["10.0.0.1"] = "late.lan"
	gate := make(chan struct{})
	be.gates["10.0.0.1"] = gate

	_, err := m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	d := m.Form().Draft
	d.IP = "10.0.0.1"
	_, err = m.UpdateDraft(d)
	require.NoError(t, err)

	done := make(chan LookupResult, 1)
	go func() {
		res, _ := m.Lookup(context.Background())
		done <- res
	}()
	<-be.entered

	m.CloseForm()
	_, err = m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	close(gate)

	assert.False(t, (<-done).Applied)
	assert.Empty(t, m.Form().Draft.DNS)
}

func TestClientSubmitForm(t *testing.T) {
	m, be, repo, n := newClientManager(t, clientRows(2))

	_, err := m.SubmitForm(context.Background())
	assert.ErrorIs(t, err, form.ErrNotOpen)

	_, err = m.OpenForm(form.ModeEdit, "2")
	require.NoError(t, err)
	repo.Replace(clientRows(4))

	env, err := m.SubmitForm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "success", env.Type)

	subs := be.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "/clients/edit/2", subs[0].Path)
	assert.Equal(t, "10.0.0.2", subs[0].Values.Get("ip_address"))
	assert.False(t, m.Form().Open)
	assert.Equal(t, 4, m.View().Page.TotalItems)
	assert.Len(t, n.List(), 1)
}

func TestClientSubmitFailureKeepsDialog(t *testing.T) {
	m, be, _, n := newClientManager(t, clientRows(2))
	be.submitErr = errors.New("connection reset")

	_, err := m.OpenForm(form.ModeAdd, "")
	require.NoError(t, err)
	env, err := m.SubmitForm(context.Background())
	assert.Error(t, err)
	assert.Equal(t, FailureMessage, env.Message)
	assert.True(t, m.Form().Open)

	notes := n.List()
	require.Len(t, notes, 1)
	assert.Equal(t, FailureMessage, notes[0].Message)
	assert.Equal(t, TypeError, notes[0].Type)
}

func TestClientInitLoadsConcurrently(t *testing.T) {
	be := newFakeBackend()
	be.templates = map[string][]string{"office": {"x.com"}}
	n := NewNotifier(time.Hour)
	defer n.Close()
	m := NewClientManager(source.NewMemoryRepository(clientRows(3)), be, n)

	require.NoError(t, m.Init(context.Background()))
	assert.Equal(t, 3, m.View().Page.TotalItems)
	assert.Equal(t, []string{"office"}, m.Templates("", nil).Names)
}

func TestClientReloadFailureKeepsRows(t *testing.T) {
	be := newFakeBackend()
	n := NewNotifier(time.Hour)
	defer n.Close()
	calls := 0
	repo := source.FuncRepository[entity.ClientRow](func(ctx context.Context) ([]entity.ClientRow, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("backend down")
		}
		return clientRows(4), nil
	})
	m := NewClientManager(repo, be, n)
	require.NoError(t, m.Reload(context.Background()))
	assert.Error(t, m.Reload(context.Background()))
	assert.Equal(t, 4, m.View().Page.TotalItems)
}

func whitelistSnapshot() source.StaticSnapshot {
	return source.StaticSnapshot{
		Domains: []entity.DomainEntry{
			{ID: 1, Domain: "example.com", Description: "main"},
			{ID: 2, Domain: "cdn.example.com"},
			{ID: 3, Domain: "other.org", Description: "Example partner"},
		},
		IPs: []entity.IPEntry{
			{ID: 7, IPAddress: "192.0.2.1", Description: "gateway"},
		},
		Templates: []entity.TemplateEntry{
			{ID: 4, Name: "office", Domains: []string{"x.com", "y.com"}},
		},
	}
}

func newWhitelistManager(t *testing.T, store *prefs.Store) (*WhitelistManager, *fakeBackend, *Notifier) {
	t.Helper()
	be := newFakeBackend()
	n := NewNotifier(time.Hour)
	t.Cleanup(n.Close)
	m := NewWhitelistManager(whitelistSnapshot(), be, store, n)
	require.NoError(t, m.Reload(context.Background()))
	return m, be, n
}

func TestWhitelistDefaultTab(t *testing.T) {
	m, _, _ := newWhitelistManager(t, nil)
	v := m.View()
	assert.Equal(t, router.Domains, v.Tab)
	require.NotNil(t, v.Domains)
	assert.Nil(t, v.IPs)
	assert.Equal(t, 3, v.Domains.TotalItems)
}

func TestWhitelistSearchMatchesDescription(t *testing.T) {
	m, _, _ := newWhitelistManager(t, nil)
	require.NoError(t, m.Search("EXAMPLE", ""))
	assert.Equal(t, 3, m.View().Domains.TotalItems)

	require.NoError(t, m.Search("partner", ""))
	assert.Equal(t, 1, m.View().Domains.TotalItems)

	assert.Error(t, m.Search("x", "ip_address"))
}

func TestWhitelistSwitchTabResetsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	m, _, _ := newWhitelistManager(t, prefs.Open(path))

	require.NoError(t, m.Search("example", ""))
	m.SelectAll(true)
	_, err := m.OpenBulkDelete()
	require.NoError(t, err)

	require.NoError(t, m.SwitchTab("templates"))
	v := m.View()
	assert.Equal(t, router.Templates, v.Tab)
	assert.Empty(t, v.State.Query)
	assert.Equal(t, 1, v.State.Page)
	assert.Equal(t, 0, v.Selection.Count)
	assert.False(t, v.Selection.BulkPending)
	require.NotNil(t, v.Templates)
	assert.Equal(t, 1, v.Templates.TotalItems)

	assert.Error(t, m.SwitchTab("clients"))

	// A new session restores the remembered tab.
	again, _, _ := newWhitelistManager(t, prefs.Open(path))
	assert.Equal(t, router.Templates, again.Tab())
}

func TestWhitelistBulkDelete(t *testing.T) {
	m, be, _ := newWhitelistManager(t, nil)

	_, err := m.OpenBulkDelete()
	assert.ErrorIs(t, err, listview.ErrEmptySelection)

	require.NoError(t, m.SwitchTab("ips"))
	assert.True(t, m.Toggle("7", true))
	_, err = m.OpenBulkDelete()
	require.NoError(t, err)

	_, ok, err := m.ConfirmBulkDelete(context.Background(), "CONFIRM")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.ConfirmBulkDelete(context.Background(), "confirm")
	require.NoError(t, err)
	assert.True(t, ok)

	subs := be.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "/whitelist/ips/delete-bulk", subs[0].Path)
	assert.Equal(t, []string{"7"}, subs[0].Values["item_ids"])
}

func TestWhitelistBulkDeleteDisarmedWhenSelectionLeavesPage(t *testing.T) {
	m, be, _ := newWhitelistManager(t, nil)
	m.SetPageSize(1)
	m.SelectAll(true)
	_, err := m.OpenBulkDelete()
	require.NoError(t, err)

	assert.True(t, m.Next())
	v := m.View()
	assert.Equal(t, 0, v.Selection.Count)
	assert.False(t, v.Selection.BulkPending)

	_, ok, err := m.ConfirmBulkDelete(context.Background(), "confirm")
	require.NoError(t, err)
	assert.False(t, ok)

	m.SelectAll(true)
	_, err = m.OpenBulkDelete()
	require.NoError(t, err)
	assert.True(t, m.Prev())
	_, ok, err = m.ConfirmBulkDelete(context.Background(), "confirm")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, be.submissions())
}

func TestWhitelistFormEditTemplate(t *testing.T) {
	m, be, _ := newWhitelistManager(t, nil)
	require.NoError(t, m.SwitchTab("templates"))

	v, err := m.OpenForm(form.ModeEdit, "4")
	require.NoError(t, err)
	assert.Equal(t, "Edit Template", v.Title)
	assert.Equal(t, "x.com\ny.com", v.Draft.TemplateDomains)

	_, err = m.OpenForm(form.ModeClone, "4")
	assert.ErrorIs(t, err, form.ErrUnknownMode)

	_, err = m.SubmitForm(context.Background())
	require.NoError(t, err)
	subs := be.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "/whitelist/templates/edit/4", subs[0].Path)
	assert.Equal(t, "office", subs[0].Values.Get("name"))
	assert.False(t, m.Form().Open)

	_, err = m.OpenForm(form.ModeEdit, "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWhitelistImportExport(t *testing.T) {
	m, be, n := newWhitelistManager(t, nil)
	require.NoError(t, m.SwitchTab("ips"))

	env, err := m.Import(context.Background(), "ips.json", strings.NewReader("[]"), false)
	require.NoError(t, err)
	assert.Equal(t, "Imported", env.Message)
	_, err = m.Import(context.Background(), "ips.json", strings.NewReader("[]"), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"ips:ips.json:[]:false", "ips:ips.json:[]:true"}, be.uploads)
	assert.Len(t, n.List(), 2)

	body, ctype, tab, err := m.Export(context.Background())
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, router.IPs, tab)
}

func TestNotifierAutoDismiss(t *testing.T) {
	n := NewNotifier(20 * time.Millisecond)
	defer n.Close()

	n.Notify("Saved", "")
	notes := n.List()
	require.Len(t, notes, 1)
	assert.Equal(t, TypeSuccess, notes[0].Type)

	assert.Eventually(t, func() bool { return len(n.List()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestNotifierDropsAfterClose(t *testing.T) {
	n := NewNotifier(time.Hour)
	n.Notify("before", TypeSuccess)
	n.Close()

	for i := 0; i < 5; i++ {
		n.Notify("after", TypeError)
	}
	notes := n.List()
	require.Len(t, notes, 1)
	assert.Equal(t, "before", notes[0].Message)
}

func TestNotifierDismiss(t *testing.T) {
	n := NewNotifier(time.Hour)
	defer n.Close()

	a := n.Notify("first", TypeSuccess)
	n.Notify("second", TypeError)
	assert.True(t, n.Dismiss(a.ID))
	assert.False(t, n.Dismiss(a.ID))

	notes := n.List()
	require.Len(t, notes, 1)
	assert.Equal(t, "second", notes[0].Message)
}
