// Package form implements the add/edit/clone dialogs of the console: the
// Closed → Open(mode) → Closed state machine, field pre-filling, and the
// submissions the dialogs produce.
package form

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/wlconsole/wlconsole/internal/router"
)

// Mode is the purpose an open dialog was opened for.
type Mode string

const (
	ModeAdd   Mode = "add"
	ModeEdit  Mode = "edit"
	ModeClone Mode = "clone"
)

// DefaultExpirationDays is how far in the future a new client expires.
const DefaultExpirationDays = 7

const dateLayout = "2006-01-02"

var (
	// ErrNotOpen is returned when operating on a closed dialog.
	ErrNotOpen = errors.New("form is not open")
	// ErrUnknownMode is returned for a mode the dialog does not support.
	ErrUnknownMode = errors.New("unknown form mode")
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAdd, ModeEdit, ModeClone:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Submission is a form post to the backend.
type Submission struct {
	Method string     `json:"method"`
	Path   string     `json:"path"`
	Values url.Values `json:"values"`
}

// NewSubmission resolves the endpoint of a resource action and attaches values.
func NewSubmission(table *router.Table, r router.Resource, a router.Action, id string, values url.Values) (Submission, error) {
	ep, err := table.Resolve(r, a, id)
	if err != nil {
		return Submission{}, err
	}
	if values == nil {
		values = url.Values{}
	}
	return Submission{Method: ep.Method, Path: ep.Path, Values: values}, nil
}

// Clock returns the current time.
type Clock func() time.Time

func dateAfter(now Clock, days int) string {
	return now().AddDate(0, 0, days).Format(dateLayout)
}
