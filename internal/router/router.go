// Package router maps (resource, action) pairs onto the admin backend's
// endpoint paths. The table is a gorilla/mux router of named routes, so a
// path is always built from a declared template rather than concatenated.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
)

// Resource is a kind of entity managed through the backend.
type Resource string

const (
	Clients   Resource = "clients"
	Domains   Resource = "domains"
	IPs       Resource = "ips"
	Templates Resource = "templates"
)

// Action is an operation on a resource.
type Action string

const (
	Add        Action = "add"
	Edit       Action = "edit"
	Delete     Action = "delete"
	DeleteBulk Action = "delete-bulk"
	Import     Action = "import"
	Export     Action = "export"
)

// API endpoints read by the console.
const (
	TemplatesAPI   = "/api/templates"
	NSLookupAPI    = "/api/nslookup"
	SystemStatsAPI = "/api/system_stats"
)

// ErrUnknownRoute is returned for a (resource, action) pair with no endpoint.
var ErrUnknownRoute = errors.New("unknown route")

// Endpoint is a resolved backend endpoint.
type Endpoint struct {
	Method string
	Path   string
}

type routeDef struct {
	resource Resource
	action   Action
	method   string
	template string
}

var routeDefs = []routeDef{
	{Clients, Add, http.MethodPost, "/clients/add"},
	{Clients, Edit, http.MethodPost, "/clients/edit/{id:[0-9]+}"},
	{Clients, Delete, http.MethodGet, "/clients/delete/{id:[0-9]+}"},
	{Clients, DeleteBulk, http.MethodPost, "/clients/delete_clients"},

	{Domains, Add, http.MethodPost, "/whitelist/domains/add"},
	{Domains, Edit, http.MethodPost, "/whitelist/domains/edit/{id:[0-9]+}"},
	{Domains, Delete, http.MethodGet, "/whitelist/domains/delete/{id:[0-9]+}"},
	{Domains, DeleteBulk, http.MethodPost, "/whitelist/domains/delete-bulk"},
	{Domains, Import, http.MethodPost, "/whitelist/domains/import"},
	{Domains, Export, http.MethodGet, "/whitelist/domains/export"},

	{IPs, Add, http.MethodPost, "/whitelist/ips/add"},
	{IPs, Edit, http.MethodPost, "/whitelist/ips/edit/{id:[0-9]+}"},
	{IPs, Delete, http.MethodGet, "/whitelist/ips/delete/{id:[0-9]+}"},
	{IPs, DeleteBulk, http.MethodPost, "/whitelist/ips/delete-bulk"},
	{IPs, Import, http.MethodPost, "/whitelist/ips/import"},
	{IPs, Export, http.MethodGet, "/whitelist/ips/export"},

	{Templates, Add, http.MethodPost, "/whitelist/templates/add"},
	{Templates, Edit, http.MethodPost, "/whitelist/templates/edit/{id:[0-9]+}"},
	{Templates, Delete, http.MethodGet, "/whitelist/templates/delete/{id:[0-9]+}"},
	{Templates, DeleteBulk, http.MethodPost, "/whitelist/templates/delete-bulk"},
	{Templates, Import, http.MethodPost, "/whitelist/templates/import"},
	{Templates, Export, http.MethodGet, "/whitelist/templates/export"},
}

// bulkFields names the form field carrying selected ids per resource.
var bulkFields = map[Resource]string{
	Clients:   "selected_clients",
	Domains:   "item_ids",
	IPs:       "item_ids",
	Templates: "item_ids",
}

// Table resolves backend endpoints.
type Table struct {
	mux     *mux.Router
	methods map[string]string
}

var defaultTable = mustBuild(routeDefs)

// Default returns the backend route table.
func Default() *Table {
	return defaultTable
}

func mustBuild(defs []routeDef) *Table {
	t, err := build(defs)
	if err != nil {
		panic(err)
	}
	return t
}

func build(defs []routeDef) (*Table, error) {
	t := &Table{mux: mux.NewRouter(), methods: make(map[string]string, len(defs))}
	for _, d := range defs {
		name := routeName(d.resource, d.action)
		if _, dup := t.methods[name]; dup {
			return nil, fmt.Errorf("duplicate route %s", name)
		}
		route := t.mux.Path(d.template).Methods(d.method).Name(name)
		if err := route.GetError(); err != nil {
			return nil, fmt.Errorf("route %s: %w", name, err)
		}
		t.methods[name] = d.method
	}
	return t, nil
}

func routeName(r Resource, a Action) string {
	return string(r) + "." + string(a)
}

// Resolve builds the endpoint for a resource action. id is required for
// edit and delete and ignored otherwise.
func (t *Table) Resolve(r Resource, a Action, id string) (Endpoint, error) {
	name := routeName(r, a)
	route := t.mux.Get(name)
	if route == nil {
		return Endpoint{}, fmt.Errorf("%w: %s %s", ErrUnknownRoute, r, a)
	}

	var pairs []string
	if tpl, _ := route.GetPathTemplate(); hasIDVar(route) {
		if id == "" {
			return Endpoint{}, fmt.Errorf("%s %s: id is required for %s", r, a, tpl)
		}
		pairs = []string{"id", id}
	}
	u, err := route.URLPath(pairs...)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%s %s: %w", r, a, err)
	}
	return Endpoint{Method: t.methods[name], Path: u.Path}, nil
}

// Path is Resolve without the method.
func (t *Table) Path(r Resource, a Action, id string) (string, error) {
	ep, err := t.Resolve(r, a, id)
	return ep.Path, err
}

// Has reports whether the table declares the pair.
func (t *Table) Has(r Resource, a Action) bool {
	return t.mux.Get(routeName(r, a)) != nil
}

// Actions lists the declared actions of a resource, sorted.
func (t *Table) Actions(r Resource) []Action {
	var out []Action
	for _, d := range routeDefs {
		if d.resource == r && t.Has(r, d.action) {
			out = append(out, d.action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BulkField returns the form field used for bulk selections of r.
func BulkField(r Resource) string {
	if f, ok := bulkFields[r]; ok {
		return f
	}
	return "item_ids"
}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	switch r := Resource(s); r {
	case Clients, Domains, IPs, Templates:
		return r, nil
	}
	return "", fmt.Errorf("%w: resource %q", ErrUnknownRoute, s)
}

func hasIDVar(route *mux.Route) bool {
	vars, err := route.GetVarNames()
	if err != nil {
		return false
	}
	for _, v := range vars {
		if v == "id" {
			return true
		}
	}
	return false
}
