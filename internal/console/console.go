// Package console holds the per-screen sessions of the whitelist console.
// Each manager owns an explicit list view state, a selection, a bulk delete
// guard and a dialog, and recomputes its visible page from that state after
// every mutation.
package console

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/wlconsole/wlconsole/internal/backend"
	"github.com/wlconsole/wlconsole/internal/form"
	"github.com/wlconsole/wlconsole/internal/listview"
	"github.com/wlconsole/wlconsole/internal/metrics"
	"github.com/wlconsole/wlconsole/internal/router"
)

// ErrNotFound is returned when an operation names an entity that is not loaded.
var ErrNotFound = errors.New("entity not found")

// Submitter posts form submissions to the backend.
type Submitter interface {
	Submit(ctx context.Context, sub form.Submission) (backend.Envelope, error)
}

// ClientBackend is the part of the backend the clients screen talks to.
type ClientBackend interface {
	Submitter
	FetchTemplates(ctx context.Context) (map[string][]string, error)
	Lookup(ctx context.Context, ip string) (string, error)
}

// WhitelistBackend is the part of the backend the whitelist screen talks to.
type WhitelistBackend interface {
	Submitter
	Import(ctx context.Context, r router.Resource, filename string, content io.Reader, overwrite bool) (backend.Envelope, error)
	Export(ctx context.Context, r router.Resource) (io.ReadCloser, string, error)
}

type options struct {
	pageSize    int
	metrics     *metrics.Collector
	table       *router.Table
	clock       form.Clock
	defaultDays int
}

// Option configures a manager.
type Option func(*options)

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithMetrics records submissions and view renders on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithRouteTable replaces the default route table.
func WithRouteTable(t *router.Table) Option {
	return func(o *options) { o.table = t }
}

// WithClock sets the clock used for expiration defaults.
func WithClock(now form.Clock) Option {
	return func(o *options) { o.clock = now }
}

// WithDefaultExpirationDays sets the default client expiration offset.
func WithDefaultExpirationDays(days int) Option {
	return func(o *options) { o.defaultDays = days }
}

func buildOptions(opts []Option) options {
	o := options{pageSize: listview.DefaultPageSize, table: router.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SelectionView is the selection summary shown next to a list.
type SelectionView struct {
	Selected    []string             `json:"selected"`
	Count       int                  `json:"count"`
	Total       int                  `json:"total"`
	Header      listview.HeaderState `json:"header"`
	BulkPending bool                 `json:"bulk_pending"`
}

func selectionView(sel *listview.Selection, guard *listview.BulkGuard) SelectionView {
	return SelectionView{
		Selected:    sel.Selected(),
		Count:       sel.Count(),
		Total:       sel.Total(),
		Header:      sel.Header(),
		BulkPending: guard.IsOpen(),
	}
}

// submit sends sub and reports the outcome through n. It returns the
// envelope and whether the backend accepted the submission.
func submit(ctx context.Context, s Submitter, n *Notifier, m *metrics.Collector, resource router.Resource, sub form.Submission) (backend.Envelope, bool, error) {
	env, err := s.Submit(ctx, sub)
	if err != nil {
		slog.Error("form submission failed", "resource", resource, "path", sub.Path, "error", err)
		n.Notify(FailureMessage, TypeError)
		if m != nil {
			m.Submission(string(resource), TypeError)
		}
		return backend.Envelope{Message: FailureMessage, Type: TypeError}, false, err
	}

	n.Notify(env.Message, env.Type)
	ok := env.Type != TypeError
	if m != nil {
		result := TypeSuccess
		if !ok {
			result = TypeError
		}
		m.Submission(string(resource), result)
	}
	return env, ok, nil
}
