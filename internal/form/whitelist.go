package form

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wlconsole/wlconsole/internal/entity"
	"github.com/wlconsole/wlconsole/internal/router"
)

// WhitelistDraft mirrors the fields of the whitelist dialog. Value holds the
// domain or IP; the template fields are used on the templates tab.
type WhitelistDraft struct {
	Value           string `json:"value"`
	Description     string `json:"description"`
	TemplateName    string `json:"template_name"`
	TemplateDomains string `json:"template_domains"`
}

// WhitelistForm is the add/edit dialog for domains, IPs and templates.
type WhitelistForm struct {
	open     bool
	mode     Mode
	resource router.Resource
	editID   string
	draft    WhitelistDraft
}

// NewWhitelistForm returns a closed whitelist dialog.
func NewWhitelistForm() *WhitelistForm {
	return &WhitelistForm{}
}

func (f *WhitelistForm) begin(r router.Resource, mode Mode, id string) error {
	switch r {
	case router.Domains, router.IPs, router.Templates:
	default:
		return fmt.Errorf("%w: whitelist resource %q", router.ErrUnknownRoute, r)
	}
	if mode != ModeAdd && mode != ModeEdit {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	f.open = true
	f.mode = mode
	f.resource = r
	f.editID = id
	f.draft = WhitelistDraft{}
	return nil
}

// OpenAdd opens an empty dialog for resource r.
func (f *WhitelistForm) OpenAdd(r router.Resource) error {
	return f.begin(r, ModeAdd, "")
}

// OpenEditDomain opens the dialog pre-filled from a domain entry.
func (f *WhitelistForm) OpenEditDomain(d entity.DomainEntry) error {
	if err := f.begin(router.Domains, ModeEdit, strconv.Itoa(d.ID)); err != nil {
		return err
	}
	f.draft = WhitelistDraft{Value: d.Domain, Description: d.Description}
	return nil
}

// OpenEditIP opens the dialog pre-filled from an IP entry.
func (f *WhitelistForm) OpenEditIP(ip entity.IPEntry) error {
	if err := f.begin(router.IPs, ModeEdit, strconv.Itoa(ip.ID)); err != nil {
		return err
	}
	f.draft = WhitelistDraft{Value: ip.IPAddress, Description: ip.Description}
	return nil
}

// OpenEditTemplate opens the dialog pre-filled from a template entry.
func (f *WhitelistForm) OpenEditTemplate(t entity.TemplateEntry) error {
	if err := f.begin(router.Templates, ModeEdit, strconv.Itoa(t.ID)); err != nil {
		return err
	}
	f.draft = WhitelistDraft{
		Description:     t.Description,
		TemplateName:    t.Name,
		TemplateDomains: strings.Join(t.Domains, "\n"),
	}
	return nil
}

// Close closes the dialog and discards the draft.
func (f *WhitelistForm) Close() {
	f.open = false
	f.editID = ""
	f.draft = WhitelistDraft{}
}

// IsOpen reports whether the dialog is open.
func (f *WhitelistForm) IsOpen() bool { return f.open }

// Mode returns the mode the dialog was last opened with.
func (f *WhitelistForm) Mode() Mode { return f.mode }

// Resource returns the resource the dialog edits.
func (f *WhitelistForm) Resource() router.Resource { return f.resource }

// Draft returns a copy of the current draft.
func (f *WhitelistForm) Draft() WhitelistDraft { return f.draft }

// Title is the dialog heading.
func (f *WhitelistForm) Title() string {
	noun := map[router.Resource]string{
		router.Domains:   "Domain",
		router.IPs:       "IP",
		router.Templates: "Template",
	}[f.resource]
	if f.mode == ModeEdit {
		return "Edit " + noun
	}
	return "Add New " + noun
}

// Update replaces the draft with user edits.
func (f *WhitelistForm) Update(d WhitelistDraft) error {
	if !f.open {
		return ErrNotOpen
	}
	f.draft = d
	return nil
}

// Submission builds the form post for the current draft.
func (f *WhitelistForm) Submission(table *router.Table) (Submission, error) {
	if !f.open {
		return Submission{}, ErrNotOpen
	}

	action, id := router.Add, ""
	if f.mode == ModeEdit {
		action, id = router.Edit, f.editID
	}

	values := url.Values{}
	switch f.resource {
	case router.Domains:
		values.Set("domain", f.draft.Value)
		values.Set("description", f.draft.Description)
	case router.IPs:
		values.Set("ip_address", f.draft.Value)
		values.Set("description", f.draft.Description)
	case router.Templates:
		values.Set("name", f.draft.TemplateName)
		values.Set("domains", f.draft.TemplateDomains)
		values.Set("description", f.draft.Description)
	}
	return NewSubmission(table, f.resource, action, id, values)
}
