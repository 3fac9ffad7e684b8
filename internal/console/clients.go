package console

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wlconsole/wlconsole/internal/backend"
	"github.com/wlconsole/wlconsole/internal/entity"
	"github.com/wlconsole/wlconsole/internal/form"
	"github.com/wlconsole/wlconsole/internal/listview"
	"github.com/wlconsole/wlconsole/internal/metrics"
	"github.com/wlconsole/wlconsole/internal/router"
	"github.com/wlconsole/wlconsole/internal/source"
)

const (
	kindLookup    = "lookup"
	kindTemplates = "templates"

	// DefaultClientSearchField is the field searched when none is given.
	DefaultClientSearchField = "ip"
)

var clientScreen = listview.Screen[entity.ClientRow]{
	Fields: map[string]listview.Field[entity.ClientRow]{
		"ip":      listview.Text(func(c entity.ClientRow) string { return c.IP }),
		"dns":     listview.Text(func(c entity.ClientRow) string { return c.DNS }),
		"ticket":  listview.Text(func(c entity.ClientRow) string { return c.Ticket }),
		"domains": listview.List(func(c entity.ClientRow) []string { return c.Domains }),
		"notes":   listview.Text(func(c entity.ClientRow) string { return c.Notes }),
	},
	SearchAll: []string{"ip", "dns", "ticket", "domains", "notes"},
	Columns: listview.Columns[entity.ClientRow]{
		{Key: "ip", Kind: listview.KindString, Value: func(c entity.ClientRow) string { return c.IP }},
		{Key: "dns", Kind: listview.KindString, Value: func(c entity.ClientRow) string { return c.DNS }},
		{Key: "ticket", Kind: listview.KindString, Value: func(c entity.ClientRow) string { return c.Ticket }},
		{Key: "expiration", Kind: listview.KindDate, Value: func(c entity.ClientRow) string { return c.Expiration }},
		{Key: "added", Kind: listview.KindDate, Value: func(c entity.ClientRow) string { return c.AddedISO }},
		{Key: "days", Kind: listview.KindInt, Value: func(c entity.ClientRow) string { return c.Days }},
	},
}

// ClientView is the rendered state of the clients screen.
type ClientView struct {
	Page      listview.Page[entity.ClientRow] `json:"page"`
	Label     string                          `json:"label"`
	State     listview.State                  `json:"state"`
	Selection SelectionView                   `json:"selection"`
}

// ClientFormView is the rendered state of the client dialog.
type ClientFormView struct {
	Open         bool             `json:"open"`
	Mode         form.Mode        `json:"mode,omitempty"`
	Title        string           `json:"title,omitempty"`
	Draft        form.ClientDraft `json:"draft"`
	Unrestricted bool             `json:"unrestricted"`
	Generation   uint64           `json:"generation"`
}

// TemplatePicker is the rendered template chooser of the client dialog.
type TemplatePicker struct {
	Groups  map[string][]string `json:"groups"`
	Names   []string            `json:"names"`
	Preview []string            `json:"preview"`
}

// LookupResult reports a hostname lookup and whether it reached the dialog.
type LookupResult struct {
	Hostname string `json:"hostname"`
	Applied  bool   `json:"applied"`
}

// ClientManager is the clients screen session.
type ClientManager struct {
	mu sync.Mutex

	repo     source.Repository[entity.ClientRow]
	backend  ClientBackend
	notifier *Notifier
	metrics  *metrics.Collector
	table    *router.Table
	seq      *backend.Sequencer

	rows      []entity.ClientRow
	templates map[string][]string
	state     listview.State
	page      listview.Page[entity.ClientRow]
	selection *listview.Selection
	guard     listview.BulkGuard
	form      *form.ClientForm
}

// NewClientManager creates a clients session reading rows from repo.
func NewClientManager(repo source.Repository[entity.ClientRow], be ClientBackend, n *Notifier, opts ...Option) *ClientManager {
	o := buildOptions(opts)

	var formOpts []form.ClientOption
	if o.clock != nil {
		formOpts = append(formOpts, form.WithClock(o.clock))
	}
	if o.defaultDays > 0 {
		formOpts = append(formOpts, form.WithDefaultDays(o.defaultDays))
	}

	m := &ClientManager{
		repo:      repo,
		backend:   be,
		notifier:  n,
		metrics:   o.metrics,
		table:     o.table,
		seq:       backend.NewSequencer(),
		templates: map[string][]string{},
		state:     listview.NewState(o.pageSize),
		selection: listview.NewSelection(),
		form:      form.NewClientForm(formOpts...),
	}
	m.state.Field = DefaultClientSearchField
	m.refresh()
	return m
}

// Init loads rows and templates concurrently. A template failure is logged
// and leaves the picker empty; a row failure is returned.
func (m *ClientManager) Init(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.Reload(ctx)
	})
	g.Go(func() error {
		m.LoadTemplates(ctx)
		return nil
	})
	return g.Wait()
}

// Reload replaces the rows from the repository. A full refresh clears the
// selection. On failure the current rows are kept.
func (m *ClientManager) Reload(ctx context.Context) error {
	rows, err := m.repo.ListEntities(ctx)
	if err != nil {
		slog.Warn("loading clients failed", "error", err)
		return fmt.Errorf("loading clients: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	m.selection.Clear()
	m.guard.Cancel()
	m.refresh()
	slog.Debug("clients loaded", "count", len(rows))
	return nil
}

// LoadTemplates fetches the template groups. Only the latest request may
// replace the groups; a failure leaves them unchanged.
func (m *ClientManager) LoadTemplates(ctx context.Context) {
	token := m.seq.Next(kindTemplates)
	groups, err := m.backend.FetchTemplates(ctx)
	if err != nil {
		slog.Warn("failed to load templates", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.seq.IsLatest(kindTemplates, token) {
		return
	}
	m.templates = groups
}

// refresh recomputes the visible page and rescopes the selection to it.
// Callers hold m.mu.
func (m *ClientManager) refresh() {
	m.page = clientScreen.Apply(m.rows, &m.state)
	ids := make([]string, len(m.page.Items))
	for i, row := range m.page.Items {
		ids[i] = row.ID
	}
	m.selection.SetScope(ids)
	m.guard.Rescope(m.selection.Selected())
}

// View returns the current visible page and selection.
func (m *ClientManager) View() ClientView {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.ViewRendered(string(router.Clients))
	}
	return ClientView{
		Page:      m.page,
		Label:     m.page.Label(),
		State:     m.state,
		Selection: selectionView(m.selection, &m.guard),
	}
}

// Search filters by query on field. An empty field searches every field.
func (m *ClientManager) Search(query, field string) error {
	if err := clientScreen.ValidateField(field); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SetQuery(query, field)
	m.refresh()
	return nil
}

// ResetFilter clears the search.
func (m *ClientManager) ResetFilter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ClearQuery()
	m.refresh()
}

// SortBy sorts by column key, toggling direction on repeat.
func (m *ClientManager) SortBy(key string) error {
	if err := clientScreen.ValidateColumn(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SortBy(key)
	m.refresh()
	return nil
}

// SetPage jumps to page, clamped into range.
func (m *ClientManager) SetPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SetPage(page)
	m.refresh()
}

// SetPageSize changes the page size and returns to page 1.
func (m *ClientManager) SetPageSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SetPageSize(size)
	m.refresh()
}

// Next advances one page if possible.
func (m *ClientManager) Next() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := m.state.Next(m.page.TotalPages)
	m.refresh()
	return moved
}

// Prev goes back one page if possible.
func (m *ClientManager) Prev() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := m.state.Prev()
	m.refresh()
	return moved
}

// Toggle checks or unchecks one visible row.
func (m *ClientManager) Toggle(id string, checked bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.selection.Toggle(id, checked)
	m.guard.Rescope(m.selection.Selected())
	return ok
}

// SelectAll checks or unchecks every visible row.
func (m *ClientManager) SelectAll(checked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection.SelectAll(checked)
	m.guard.Rescope(m.selection.Selected())
}

// OpenBulkDelete arms the bulk delete confirmation for the current selection.
func (m *ClientManager) OpenBulkDelete() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guard.Open(m.selection.Selected()); err != nil {
		return 0, err
	}
	return len(m.guard.Pending()), nil
}

// CancelBulkDelete disarms the bulk delete confirmation.
func (m *ClientManager) CancelBulkDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guard.Cancel()
}

// ConfirmBulkDelete deletes the pending rows when text is exactly the
// confirmation phrase. Any other text does nothing and reports false.
func (m *ClientManager) ConfirmBulkDelete(ctx context.Context, text string) (backend.Envelope, bool, error) {
	m.mu.Lock()
	m.guard.Rescope(m.selection.Selected())
	ids, ok := m.guard.Confirm(text)
	m.mu.Unlock()
	if !ok {
		return backend.Envelope{}, false, nil
	}

	values := url.Values{router.BulkField(router.Clients): ids}
	sub, err := form.NewSubmission(m.table, router.Clients, router.DeleteBulk, "", values)
	if err != nil {
		return backend.Envelope{}, false, err
	}
	env, err := m.send(ctx, sub)
	return env, true, err
}

// Delete removes a single client.
func (m *ClientManager) Delete(ctx context.Context, id string) (backend.Envelope, error) {
	sub, err := form.NewSubmission(m.table, router.Clients, router.Delete, id, nil)
	if err != nil {
		return backend.Envelope{}, err
	}
	return m.send(ctx, sub)
}

func (m *ClientManager) send(ctx context.Context, sub form.Submission) (backend.Envelope, error) {
	env, ok, err := submit(ctx, m.backend, m.notifier, m.metrics, router.Clients, sub)
	if err != nil || !ok {
		return env, err
	}
	// A failed reload is logged and keeps the previous rows.
	_ = m.Reload(ctx)
	return env, nil
}

func (m *ClientManager) findRow(id string) (entity.ClientRow, error) {
	i := slices.IndexFunc(m.rows, func(r entity.ClientRow) bool { return r.ID == id })
	if i < 0 {
		return entity.ClientRow{}, fmt.Errorf("%w: client %q", ErrNotFound, id)
	}
	return m.rows[i], nil
}

// OpenForm opens the client dialog. Edit and clone take the id of a loaded row.
func (m *ClientManager) OpenForm(mode form.Mode, id string) (ClientFormView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var row entity.ClientRow
	if mode != form.ModeAdd {
		var err error
		if row, err = m.findRow(id); err != nil {
			return ClientFormView{}, err
		}
	}
	if err := m.form.Open(mode, row); err != nil {
		return ClientFormView{}, err
	}
	return m.formView(), nil
}

// CloseForm closes the dialog. Lookups still in flight are discarded.
func (m *ClientManager) CloseForm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form.Close()
	m.seq.Invalidate(kindLookup)
}

// Form returns the dialog state.
func (m *ClientManager) Form() ClientFormView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.formView()
}

func (m *ClientManager) formView() ClientFormView {
	v := ClientFormView{Open: m.form.IsOpen(), Generation: m.form.Generation()}
	if v.Open {
		v.Mode = m.form.Mode()
		v.Title = m.form.Title()
		v.Draft = m.form.Draft()
		v.Unrestricted = m.form.Unrestricted()
	}
	return v
}

// UpdateDraft replaces the dialog fields.
func (m *ClientManager) UpdateDraft(d form.ClientDraft) (ClientFormView, error) {
	return m.withForm(func(f *form.ClientForm) error { return f.Update(d) })
}

// SetUnrestricted toggles the unrestricted flag of the dialog.
func (m *ClientManager) SetUnrestricted(on bool) (ClientFormView, error) {
	return m.withForm(func(f *form.ClientForm) error { return f.SetUnrestricted(on) })
}

// AddDays sets the dialog's expiration to today plus days.
func (m *ClientManager) AddDays(days int) (ClientFormView, error) {
	return m.withForm(func(f *form.ClientForm) error { return f.AddDays(days) })
}

// ApplyTemplates merges the selected template groups into the dialog's domains.
func (m *ClientManager) ApplyTemplates(selected []string) (ClientFormView, error) {
	return m.withForm(func(f *form.ClientForm) error { return f.ApplyTemplates(m.templates, selected) })
}

func (m *ClientManager) withForm(fn func(*form.ClientForm) error) (ClientFormView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := fn(m.form); err != nil {
		return ClientFormView{}, err
	}
	return m.formView(), nil
}

// Templates returns the template picker filtered by search, with the merged
// preview of the selected groups.
func (m *ClientManager) Templates(search string, selected []string) TemplatePicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := form.FilterGroups(m.templates, search)
	return TemplatePicker{
		Groups:  groups,
		Names:   form.GroupNames(groups),
		Preview: form.MergedPreview(m.templates, selected),
	}
}

// Lookup resolves the dialog's IP and writes the hostname into the DNS
// field. The result is dropped if a newer lookup was issued or the dialog
// was reopened meanwhile. A failed request leaves the dialog unchanged.
func (m *ClientManager) Lookup(ctx context.Context) (LookupResult, error) {
	m.mu.Lock()
	if !m.form.IsOpen() {
		m.mu.Unlock()
		return LookupResult{}, form.ErrNotOpen
	}
	ip := strings.TrimSpace(m.form.Draft().IP)
	gen := m.form.Generation()
	m.mu.Unlock()

	if ip == "" {
		return LookupResult{}, nil
	}
	return m.lookup(ctx, ip, gen)
}

// AutoLookup runs Lookup only when the DNS field is still empty.
func (m *ClientManager) AutoLookup(ctx context.Context) (LookupResult, error) {
	m.mu.Lock()
	open := m.form.IsOpen()
	dns := strings.TrimSpace(m.form.Draft().DNS)
	m.mu.Unlock()

	if open && dns != "" {
		return LookupResult{}, nil
	}
	return m.Lookup(ctx)
}

func (m *ClientManager) lookup(ctx context.Context, ip string, gen uint64) (LookupResult, error) {
	token := m.seq.Next(kindLookup)
	host, err := m.backend.Lookup(ctx, ip)
	if err != nil {
		slog.Warn("hostname lookup failed", "ip", ip, "error", err)
		return LookupResult{}, fmt.Errorf("looking up %s: %w", ip, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res := LookupResult{Hostname: host}
	if m.seq.IsLatest(kindLookup, token) {
		res.Applied = m.form.SetHostname(gen, host)
	}
	return res, nil
}

// SubmitForm posts the dialog. On success the dialog closes and the rows
// are reloaded; on failure the dialog stays open.
func (m *ClientManager) SubmitForm(ctx context.Context) (backend.Envelope, error) {
	m.mu.Lock()
	sub, err := m.form.Submission(m.table)
	gen := m.form.Generation()
	m.mu.Unlock()
	if err != nil {
		return backend.Envelope{}, err
	}

	env, ok, err := submit(ctx, m.backend, m.notifier, m.metrics, router.Clients, sub)
	if err != nil || !ok {
		return env, err
	}

	m.mu.Lock()
	if m.form.Generation() == gen {
		m.form.Close()
	}
	m.mu.Unlock()
	// A failed reload is logged and keeps the previous rows.
	_ = m.Reload(ctx)
	return env, nil
}
