package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/wlconsole/wlconsole/internal/backend"
	"github.com/wlconsole/wlconsole/internal/entity"
	"github.com/wlconsole/wlconsole/internal/form"
	"github.com/wlconsole/wlconsole/internal/listview"
	"github.com/wlconsole/wlconsole/internal/metrics"
	"github.com/wlconsole/wlconsole/internal/prefs"
	"github.com/wlconsole/wlconsole/internal/router"
	"github.com/wlconsole/wlconsole/internal/source"
)

var domainScreen = listview.Screen[entity.DomainEntry]{
	Fields: map[string]listview.Field[entity.DomainEntry]{
		"domain":      listview.Text(func(d entity.DomainEntry) string { return d.Domain }),
		"description": listview.Text(func(d entity.DomainEntry) string { return d.Description }),
	},
	SearchAll: []string{"domain", "description"},
	Columns: listview.Columns[entity.DomainEntry]{
		{Key: "domain", Kind: listview.KindString, Value: func(d entity.DomainEntry) string { return d.Domain }},
		{Key: "description", Kind: listview.KindString, Value: func(d entity.DomainEntry) string { return d.Description }},
	},
}

var ipScreen = listview.Screen[entity.IPEntry]{
	Fields: map[string]listview.Field[entity.IPEntry]{
		"ip_address":  listview.Text(func(ip entity.IPEntry) string { return ip.IPAddress }),
		"description": listview.Text(func(ip entity.IPEntry) string { return ip.Description }),
	},
	SearchAll: []string{"ip_address", "description"},
	Columns: listview.Columns[entity.IPEntry]{
		{Key: "ip_address", Kind: listview.KindString, Value: func(ip entity.IPEntry) string { return ip.IPAddress }},
		{Key: "description", Kind: listview.KindString, Value: func(ip entity.IPEntry) string { return ip.Description }},
	},
}

var templateScreen = listview.Screen[entity.TemplateEntry]{
	Fields: map[string]listview.Field[entity.TemplateEntry]{
		"name":        listview.Text(func(t entity.TemplateEntry) string { return t.Name }),
		"description": listview.Text(func(t entity.TemplateEntry) string { return t.Description }),
		"domains":     listview.List(func(t entity.TemplateEntry) []string { return t.Domains }),
	},
	SearchAll: []string{"name", "description", "domains"},
	Columns: listview.Columns[entity.TemplateEntry]{
		{Key: "name", Kind: listview.KindString, Value: func(t entity.TemplateEntry) string { return t.Name }},
		{Key: "description", Kind: listview.KindString, Value: func(t entity.TemplateEntry) string { return t.Description }},
		{Key: "domains", Kind: listview.KindInt, Value: func(t entity.TemplateEntry) string { return strconv.Itoa(len(t.Domains)) }},
	},
}

// tabList is the entity list behind one whitelist tab.
type tabList[T any] struct {
	screen listview.Screen[T]
	id     func(T) int
	items  []T
	page   listview.Page[T]
}

func (l *tabList[T]) apply(st *listview.State) []string {
	l.page = l.screen.Apply(l.items, st)
	ids := make([]string, len(l.page.Items))
	for i, it := range l.page.Items {
		ids[i] = strconv.Itoa(l.id(it))
	}
	return ids
}

func (l *tabList[T]) find(id string) (T, error) {
	var zero T
	n, err := strconv.Atoi(id)
	if err != nil {
		return zero, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	i := slices.IndexFunc(l.items, func(it T) bool { return l.id(it) == n })
	if i < 0 {
		return zero, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	return l.items[i], nil
}

// WhitelistView is the rendered state of the whitelist screen. Only the
// page of the active tab is set.
type WhitelistView struct {
	Tab       router.Resource                      `json:"tab"`
	Domains   *listview.Page[entity.DomainEntry]   `json:"domains,omitempty"`
	IPs       *listview.Page[entity.IPEntry]       `json:"ips,omitempty"`
	Templates *listview.Page[entity.TemplateEntry] `json:"templates,omitempty"`
	Label     string                               `json:"label"`
	State     listview.State                       `json:"state"`
	Selection SelectionView                        `json:"selection"`
}

// WhitelistFormView is the rendered state of the whitelist dialog.
type WhitelistFormView struct {
	Open     bool                `json:"open"`
	Mode     form.Mode           `json:"mode,omitempty"`
	Resource router.Resource     `json:"resource,omitempty"`
	Title    string              `json:"title,omitempty"`
	Draft    form.WhitelistDraft `json:"draft"`
}

// WhitelistManager is the whitelist screen session with its three tabs.
type WhitelistManager struct {
	mu sync.Mutex

	src      source.SnapshotSource
	backend  WhitelistBackend
	prefs    *prefs.Store
	notifier *Notifier
	metrics  *metrics.Collector
	table    *router.Table

	domains   tabList[entity.DomainEntry]
	ips       tabList[entity.IPEntry]
	templates tabList[entity.TemplateEntry]

	tab       router.Resource
	state     listview.State
	label     string
	selection *listview.Selection
	guard     listview.BulkGuard
	form      *form.WhitelistForm
}

// NewWhitelistManager creates a whitelist session. The active tab is
// restored from store; a nil store keeps the tab in memory.
func NewWhitelistManager(src source.SnapshotSource, be WhitelistBackend, store *prefs.Store, n *Notifier, opts ...Option) *WhitelistManager {
	o := buildOptions(opts)
	if store == nil {
		store = prefs.Open("")
	}
	m := &WhitelistManager{
		src:       src,
		backend:   be,
		prefs:     store,
		notifier:  n,
		metrics:   o.metrics,
		table:     o.table,
		domains:   tabList[entity.DomainEntry]{screen: domainScreen, id: func(d entity.DomainEntry) int { return d.ID }},
		ips:       tabList[entity.IPEntry]{screen: ipScreen, id: func(ip entity.IPEntry) int { return ip.ID }},
		templates: tabList[entity.TemplateEntry]{screen: templateScreen, id: func(t entity.TemplateEntry) int { return t.ID }},
		tab:       router.Resource(store.ActiveTab()),
		state:     listview.NewState(o.pageSize),
		selection: listview.NewSelection(),
		form:      form.NewWhitelistForm(),
	}
	m.refresh()
	return m
}

// Reload replaces all three lists from the snapshot source and clears the
// selection. On failure the current lists are kept.
func (m *WhitelistManager) Reload(ctx context.Context) error {
	snap, err := m.src.Snapshot(ctx)
	if err != nil {
		slog.Warn("loading whitelist failed", "error", err)
		return fmt.Errorf("loading whitelist: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains.items = snap.Domains
	m.ips.items = snap.IPs
	m.templates.items = snap.Templates
	m.selection.Clear()
	m.guard.Cancel()
	m.refresh()
	slog.Debug("whitelist loaded", "domains", len(snap.Domains), "ips", len(snap.IPs), "templates", len(snap.Templates))
	return nil
}

// refresh recomputes the active tab's page. Callers hold m.mu.
func (m *WhitelistManager) refresh() {
	var ids []string
	switch m.tab {
	case router.IPs:
		ids = m.ips.apply(&m.state)
		m.label = m.ips.page.Label()
	case router.Templates:
		ids = m.templates.apply(&m.state)
		m.label = m.templates.page.Label()
	default:
		ids = m.domains.apply(&m.state)
		m.label = m.domains.page.Label()
	}
	m.selection.SetScope(ids)
	m.guard.Rescope(m.selection.Selected())
}

func (m *WhitelistManager) screenFor(tab router.Resource) (validateField, validateColumn func(string) error) {
	switch tab {
	case router.IPs:
		return ipScreen.ValidateField, ipScreen.ValidateColumn
	case router.Templates:
		return templateScreen.ValidateField, templateScreen.ValidateColumn
	default:
		return domainScreen.ValidateField, domainScreen.ValidateColumn
	}
}

// View returns the active tab's page and selection.
func (m *WhitelistManager) View() WhitelistView {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.ViewRendered(string(m.tab))
	}
	v := WhitelistView{
		Tab:       m.tab,
		Label:     m.label,
		State:     m.state,
		Selection: selectionView(m.selection, &m.guard),
	}
	switch m.tab {
	case router.IPs:
		p := m.ips.page
		v.IPs = &p
	case router.Templates:
		p := m.templates.page
		v.Templates = &p
	default:
		p := m.domains.page
		v.Domains = &p
	}
	return v
}

// Tab returns the active tab.
func (m *WhitelistManager) Tab() router.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab
}

// SwitchTab activates tab and remembers it. The query, page, selection and
// pending confirmation are reset.
func (m *WhitelistManager) SwitchTab(tab string) error {
	if !prefs.ValidTab(tab) {
		return fmt.Errorf("%w: tab %q", router.ErrUnknownRoute, tab)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tab = router.Resource(tab)
	m.state = listview.NewState(m.state.PageSize)
	m.selection.Clear()
	m.guard.Cancel()
	m.refresh()

	if err := m.prefs.SetActiveTab(tab); err != nil {
		slog.Warn("saving active tab failed", "tab", tab, "error", err)
	}
	return nil
}

// Search filters the active tab by query on field. An empty field searches
// every field of the tab.
func (m *WhitelistManager) Search(query, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	validate, _ := m.screenFor(m.tab)
	if err := validate(field); err != nil {
		return err
	}
	m.state.SetQuery(query, field)
	m.refresh()
	return nil
}

// ResetFilter clears the search.
func (m *WhitelistManager) ResetFilter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ClearQuery()
	m.refresh()
}

// SortBy sorts the active tab by column key.
func (m *WhitelistManager) SortBy(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, validate := m.screenFor(m.tab)
	if err := validate(key); err != nil {
		return err
	}
	m.state.SortBy(key)
	m.refresh()
	return nil
}

// SetPage jumps to page, clamped into range.
func (m *WhitelistManager) SetPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SetPage(page)
	m.refresh()
}

// SetPageSize changes the page size and returns to page 1.
func (m *WhitelistManager) SetPageSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SetPageSize(size)
	m.refresh()
}

// Next advances one page if possible.
func (m *WhitelistManager) Next() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := m.state.Next(m.totalPages())
	m.refresh()
	return moved
}

// Prev goes back one page if possible.
func (m *WhitelistManager) Prev() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := m.state.Prev()
	m.refresh()
	return moved
}

func (m *WhitelistManager) totalPages() int {
	switch m.tab {
	case router.IPs:
		return m.ips.page.TotalPages
	case router.Templates:
		return m.templates.page.TotalPages
	default:
		return m.domains.page.TotalPages
	}
}

// Toggle checks or unchecks one visible item.
func (m *WhitelistManager) Toggle(id string, checked bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.selection.Toggle(id, checked)
	m.guard.Rescope(m.selection.Selected())
	return ok
}

// SelectAll checks or unchecks every visible item.
func (m *WhitelistManager) SelectAll(checked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection.SelectAll(checked)
	m.guard.Rescope(m.selection.Selected())
}

// OpenBulkDelete arms the bulk delete confirmation for the current selection.
func (m *WhitelistManager) OpenBulkDelete() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guard.Open(m.selection.Selected()); err != nil {
		return 0, err
	}
	return len(m.guard.Pending()), nil
}

// CancelBulkDelete disarms the bulk delete confirmation.
func (m *WhitelistManager) CancelBulkDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guard.Cancel()
}

// ConfirmBulkDelete deletes the pending items of the active tab when text is
// exactly the confirmation phrase. Any other text does nothing.
func (m *WhitelistManager) ConfirmBulkDelete(ctx context.Context, text string) (backend.Envelope, bool, error) {
	m.mu.Lock()
	tab := m.tab
	m.guard.Rescope(m.selection.Selected())
	ids, ok := m.guard.Confirm(text)
	m.mu.Unlock()
	if !ok {
		return backend.Envelope{}, false, nil
	}

	values := url.Values{router.BulkField(tab): ids}
	sub, err := form.NewSubmission(m.table, tab, router.DeleteBulk, "", values)
	if err != nil {
		return backend.Envelope{}, false, err
	}
	env, err := m.send(ctx, tab, sub)
	return env, true, err
}

// Delete removes a single item of the active tab.
func (m *WhitelistManager) Delete(ctx context.Context, id string) (backend.Envelope, error) {
	tab := m.Tab()
	sub, err := form.NewSubmission(m.table, tab, router.Delete, id, nil)
	if err != nil {
		return backend.Envelope{}, err
	}
	return m.send(ctx, tab, sub)
}

func (m *WhitelistManager) send(ctx context.Context, tab router.Resource, sub form.Submission) (backend.Envelope, error) {
	env, ok, err := submit(ctx, m.backend, m.notifier, m.metrics, tab, sub)
	if err != nil || !ok {
		return env, err
	}
	// A failed reload is logged and keeps the previous lists.
	_ = m.Reload(ctx)
	return env, nil
}

// OpenForm opens the dialog for the active tab. Edit takes the id of a
// loaded item.
func (m *WhitelistManager) OpenForm(mode form.Mode, id string) (WhitelistFormView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	switch mode {
	case form.ModeAdd:
		err = m.form.OpenAdd(m.tab)
	case form.ModeEdit:
		err = m.openEdit(id)
	default:
		err = fmt.Errorf("%w: %q", form.ErrUnknownMode, mode)
	}
	if err != nil {
		return WhitelistFormView{}, err
	}
	return m.formView(), nil
}

func (m *WhitelistManager) openEdit(id string) error {
	switch m.tab {
	case router.IPs:
		ip, err := m.ips.find(id)
		if err != nil {
			return err
		}
		return m.form.OpenEditIP(ip)
	case router.Templates:
		t, err := m.templates.find(id)
		if err != nil {
			return err
		}
		return m.form.OpenEditTemplate(t)
	default:
		d, err := m.domains.find(id)
		if err != nil {
			return err
		}
		return m.form.OpenEditDomain(d)
	}
}

// CloseForm closes the dialog.
func (m *WhitelistManager) CloseForm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form.Close()
}

// Form returns the dialog state.
func (m *WhitelistManager) Form() WhitelistFormView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.formView()
}

func (m *WhitelistManager) formView() WhitelistFormView {
	v := WhitelistFormView{Open: m.form.IsOpen()}
	if v.Open {
		v.Mode = m.form.Mode()
		v.Resource = m.form.Resource()
		v.Title = m.form.Title()
		v.Draft = m.form.Draft()
	}
	return v
}

// UpdateDraft replaces the dialog fields.
func (m *WhitelistManager) UpdateDraft(d form.WhitelistDraft) (WhitelistFormView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.form.Update(d); err != nil {
		return WhitelistFormView{}, err
	}
	return m.formView(), nil
}

// SubmitForm posts the dialog. On success the dialog closes and the lists
// are reloaded.
func (m *WhitelistManager) SubmitForm(ctx context.Context) (backend.Envelope, error) {
	m.mu.Lock()
	sub, err := m.form.Submission(m.table)
	resource := m.form.Resource()
	m.mu.Unlock()
	if err != nil {
		return backend.Envelope{}, err
	}

	env, ok, err := submit(ctx, m.backend, m.notifier, m.metrics, resource, sub)
	if err != nil || !ok {
		return env, err
	}

	m.mu.Lock()
	m.form.Close()
	m.mu.Unlock()
	_ = m.Reload(ctx)
	return env, nil
}

// Import uploads a file to the active tab's import endpoint and reloads.
// overwrite replaces existing entries instead of skipping them.
func (m *WhitelistManager) Import(ctx context.Context, filename string, content io.Reader, overwrite bool) (backend.Envelope, error) {
	tab := m.Tab()
	env, err := m.backend.Import(ctx, tab, filename, content, overwrite)
	if err != nil {
		slog.Error("import failed", "tab", tab, "file", filename, "error", err)
		m.notifier.Notify(FailureMessage, TypeError)
		if m.metrics != nil {
			m.metrics.Submission(string(tab), TypeError)
		}
		return backend.Envelope{Message: FailureMessage, Type: TypeError}, err
	}
	m.notifier.Notify(env.Message, env.Type)
	if m.metrics != nil {
		m.metrics.Submission(string(tab), env.Type)
	}
	if env.Type != TypeError {
		_ = m.Reload(ctx)
	}
	return env, nil
}

// Export opens the active tab's export download. The caller closes the body.
func (m *WhitelistManager) Export(ctx context.Context) (io.ReadCloser, string, router.Resource, error) {
	tab := m.Tab()
	body, ctype, err := m.backend.Export(ctx, tab)
	if err != nil {
		slog.Error("export failed", "tab", tab, "error", err)
		return nil, "", tab, err
	}
	return body, ctype, tab, nil
}
