package form

import (
	"net/url"
	"time"

	"github.com/wlconsole/wlconsole/internal/entity"
	"github.com/wlconsole/wlconsole/internal/router"
)

// ClientDraft mirrors the fields of the client dialog.
type ClientDraft struct {
	IP         string `json:"ip"`
	DNS        string `json:"dns"`
	Domains    string `json:"domains"`
	Expiration string `json:"expiration"`
	Ticket     string `json:"ticket"`
	Notes      string `json:"notes"`
}

// ClientForm is the add/edit/clone dialog for proxy clients.
type ClientForm struct {
	now         Clock
	defaultDays int

	open         bool
	mode         Mode
	editID       string
	draft        ClientDraft
	unrestricted bool
	// generation changes on every open and close so late async results
	// (hostname lookups) can tell whether they still belong to this dialog.
	generation uint64
}

// ClientOption configures a ClientForm.
type ClientOption func(*ClientForm)

// WithClock overrides the clock used for default expirations.
func WithClock(now Clock) ClientOption {
	return func(f *ClientForm) { f.now = now }
}

// WithDefaultDays overrides the default expiration offset.
func WithDefaultDays(days int) ClientOption {
	return func(f *ClientForm) {
		if days > 0 {
			f.defaultDays = days
		}
	}
}

// NewClientForm returns a closed client dialog.
func NewClientForm(opts ...ClientOption) *ClientForm {
	f := &ClientForm{now: time.Now, defaultDays: DefaultExpirationDays}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultExpiration returns today plus the default expiration offset.
func (f *ClientForm) DefaultExpiration() string {
	return dateAfter(f.now, f.defaultDays)
}

// OpenAdd opens an empty dialog with the default expiration.
func (f *ClientForm) OpenAdd() {
	f.begin(ModeAdd, "")
	f.draft = ClientDraft{Expiration: f.DefaultExpiration()}
	f.unrestricted = false
}

// OpenEdit opens the dialog pre-filled from row.
func (f *ClientForm) OpenEdit(row entity.ClientRow) {
	f.begin(ModeEdit, row.ID)
	f.fillFrom(row)
}

// OpenClone opens the dialog pre-filled from row, without the identity
// fields and with a fresh default expiration.
func (f *ClientForm) OpenClone(row entity.ClientRow) {
	f.begin(ModeClone, "")
	f.fillFrom(row)
	f.draft.IP = ""
	f.draft.DNS = ""
	f.draft.Expiration = f.DefaultExpiration()
}

// Open dispatches on mode. row is ignored for ModeAdd.
func (f *ClientForm) Open(mode Mode, row entity.ClientRow) error {
	switch mode {
	case ModeAdd:
		f.OpenAdd()
	case ModeEdit:
		f.OpenEdit(row)
	case ModeClone:
		f.OpenClone(row)
	default:
		return ErrUnknownMode
	}
	return nil
}

func (f *ClientForm) begin(mode Mode, id string) {
	f.open = true
	f.mode = mode
	f.editID = id
	f.generation++
}

func (f *ClientForm) fillFrom(row entity.ClientRow) {
	f.draft = ClientDraft{
		IP:         row.IP,
		DNS:        row.DNS,
		Domains:    row.DomainText(),
		Expiration: row.Expiration,
		Ticket:     row.Ticket,
		Notes:      row.Notes,
	}
	f.unrestricted = f.draft.Domains == entity.AnyDomain
}

// Close closes the dialog and discards the draft.
func (f *ClientForm) Close() {
	f.open = false
	f.draft = ClientDraft{}
	f.unrestricted = false
	f.editID = ""
	f.generation++
}

// IsOpen reports whether the dialog is open.
func (f *ClientForm) IsOpen() bool { return f.open }

// Mode returns the mode the dialog was last opened with.
func (f *ClientForm) Mode() Mode { return f.mode }

// Generation identifies the current opening of the dialog.
func (f *ClientForm) Generation() uint64 { return f.generation }

// Draft returns a copy of the current draft.
func (f *ClientForm) Draft() ClientDraft { return f.draft }

// Unrestricted reports the state of the unrestricted flag.
func (f *ClientForm) Unrestricted() bool { return f.unrestricted }

// Title is the dialog heading.
func (f *ClientForm) Title() string {
	switch f.mode {
	case ModeEdit:
		return "Edit Client"
	case ModeClone:
		return "Clone Client Rules"
	default:
		return "Add New Client"
	}
}

// Update replaces the draft with user edits.
func (f *ClientForm) Update(d ClientDraft) error {
	if !f.open {
		return ErrNotOpen
	}
	f.draft = d
	return nil
}

// SetUnrestricted toggles the unrestricted flag. Setting it writes the ANY
// sentinel into the domain list; clearing it blanks the list only if it
// still holds the sentinel. The previous domain text is not restored.
func (f *ClientForm) SetUnrestricted(on bool) error {
	if !f.open {
		return ErrNotOpen
	}
	f.unrestricted = on
	if on {
		f.draft.Domains = entity.AnyDomain
	} else if f.draft.Domains == entity.AnyDomain {
		f.draft.Domains = ""
	}
	return nil
}

// AddDays sets the expiration to today plus days.
func (f *ClientForm) AddDays(days int) error {
	if !f.open {
		return ErrNotOpen
	}
	f.draft.Expiration = dateAfter(f.now, days)
	return nil
}

// ApplyTemplates merges the domains of the selected template groups into
// the draft's domain list.
func (f *ClientForm) ApplyTemplates(groups map[string][]string, selected []string) error {
	if !f.open {
		return ErrNotOpen
	}
	f.draft.Domains = MergeDomains(f.draft.Domains, MergedPreview(groups, selected))
	return nil
}

// SetHostname stores a looked-up hostname if the dialog is still the one
// identified by generation. It reports whether the value was applied.
func (f *ClientForm) SetHostname(generation uint64, hostname string) bool {
	if !f.open || generation != f.generation || hostname == "" {
		return false
	}
	f.draft.DNS = hostname
	return true
}

// Submission builds the form post for the current draft.
func (f *ClientForm) Submission(table *router.Table) (Submission, error) {
	if !f.open {
		return Submission{}, ErrNotOpen
	}

	action, id := router.Add, ""
	if f.mode == ModeEdit {
		action, id = router.Edit, f.editID
	}

	values := url.Values{}
	values.Set("ip_address", f.draft.IP)
	values.Set("dns_hostname", f.draft.DNS)
	values.Set("allowed_domains", f.draft.Domains)
	values.Set("expiration_date", f.draft.Expiration)
	values.Set("ticket_id", f.draft.Ticket)
	values.Set("notes", f.draft.Notes)
	return NewSubmission(table, router.Clients, action, id, values)
}
