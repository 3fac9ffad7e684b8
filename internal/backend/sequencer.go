package backend

import "sync"

// Sequencer issues monotonically increasing request tokens per operation
// kind. A response is applied only if its token is still the latest issued
// for its kind, so a slow response never overwrites a newer one.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewSequencer returns an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Next issues a new token for kind, superseding all earlier ones.
func (s *Sequencer) Next(kind string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[kind]++
	return s.latest[kind]
}

// IsLatest reports whether token is the most recent one issued for kind.
func (s *Sequencer) IsLatest(kind string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[kind] == token
}

// Invalidate supersedes every outstanding token of kind.
func (s *Sequencer) Invalidate(kind string) {
	s.Next(kind)
}
