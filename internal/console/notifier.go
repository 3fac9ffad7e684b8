package console

import (
	"slices"
	"sync"
	"time"
)

const (
	// DefaultNotificationTTL is how long a notification stays visible.
	DefaultNotificationTTL = 5 * time.Second

	TypeSuccess = "success"
	TypeError   = "error"

	// FailureMessage is shown when a submission cannot be completed.
	FailureMessage = "An error occurred. Please try again."
)

// Notification is one toast message.
type Notification struct {
	ID      uint64    `json:"id"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Created time.Time `json:"created"`
}

// Notifier keeps the currently visible notifications and dismisses each one
// after its TTL. Timers are independent of each other.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID uint64
	items  []Notification
	timers map[uint64]*time.Timer
	closed bool
}

// NewNotifier creates a notifier. A non-positive ttl uses DefaultNotificationTTL.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl, timers: make(map[uint64]*time.Timer)}
}

// Notify shows a message. An empty type is treated as success. After Close
// the notification is returned but not kept.
func (n *Notifier) Notify(message, typ string) Notification {
	if typ == "" {
		typ = TypeSuccess
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	item := Notification{ID: n.nextID, Message: message, Type: typ, Created: time.Now()}
	if n.closed {
		return item
	}
	n.items = append(n.items, item)
	id := item.ID
	n.timers[id] = time.AfterFunc(n.ttl, func() { n.Dismiss(id) })
	return item
}

// Dismiss removes a notification before its TTL. It reports whether the
// notification was still visible.
func (n *Notifier) Dismiss(id uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	i := slices.IndexFunc(n.items, func(it Notification) bool { return it.ID == id })
	if i < 0 {
		return false
	}
	n.items = slices.Delete(n.items, i, i+1)
	return true
}

// List returns the visible notifications, oldest first.
func (n *Notifier) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.items)
}

// Close stops all pending dismiss timers. Later notifications are dropped.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.closed = true
}
