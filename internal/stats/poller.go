// Package stats polls the backend's system metrics endpoint and keeps the
// latest reading for the console's stat displays.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wlconsole/wlconsole/internal/backend"
	"github.com/wlconsole/wlconsole/internal/metrics"
)

const (
	DefaultInterval = 5 * time.Second
	// failureThreshold consecutive failed polls mark the backend unreachable.
	failureThreshold = 3
)

// Status is the reachability of the backend as seen by the poller.
type Status int

const (
	StatusUnknown Status = iota
	StatusReachable
	StatusUnreachable
)

func (s Status) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source fetches one reading of the system metrics.
type Source interface {
	SystemStats(ctx context.Context) (backend.Stats, error)
}

// Reading is the last known system metrics plus poll bookkeeping. Stats
// keeps the last successful values when later polls fail.
type Reading struct {
	backend.Stats
	Status              Status    `json:"status"`
	LastSuccess         time.Time `json:"last_success,omitempty"`
	LastCheck           time.Time `json:"last_check"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// Poller fetches system stats on a fixed interval.
type Poller struct {
	mu      sync.RWMutex
	latest  Reading
	source  Source
	metrics *metrics.Collector

	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	stopCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg       sync.WaitGroup
}

// NewPoller creates a poller. A non-positive interval uses DefaultInterval.
// m may be nil.
func NewPoller(src Source, m *metrics.Collector, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:   src,
		metrics:  m,
		interval: interval,
		timeout:  interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins periodic polling. The first poll runs immediately. Safe to
// call multiple times.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run()
		}()
		slog.Info("stats poller started", "interval", p.interval)
	})
}

// Stop stops the poller. Safe to call multiple times.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
	slog.Info("stats poller stopped")
}

func (p *Poller) run() {
	p.poll()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-p.stopCh:
			return
		}
	}
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	// Abort an in-flight request on Stop.
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s, err := p.source.SystemStats(ctx)
	p.record(s, err)
}

func (p *Poller) record(s backend.Stats, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.latest.LastCheck = now

	if err != nil {
		p.latest.ConsecutiveFailures++
		p.latest.LastError = err.Error()
		slog.Warn("error fetching system stats", "error", err, "failures", p.latest.ConsecutiveFailures)
		if p.latest.ConsecutiveFailures >= failureThreshold && p.latest.Status != StatusUnreachable {
			slog.Warn("backend marked unreachable", "failures", p.latest.ConsecutiveFailures)
			p.latest.Status = StatusUnreachable
		}
		if p.metrics != nil {
			p.metrics.PollFailed()
		}
		return
	}

	if p.latest.Status == StatusUnreachable {
		slog.Info("backend reachable again", "failures", p.latest.ConsecutiveFailures)
	}
	p.latest.Stats = s
	p.latest.Status = StatusReachable
	p.latest.LastSuccess = now
	p.latest.ConsecutiveFailures = 0
	p.latest.LastError = ""
	if p.metrics != nil {
		p.metrics.UpdateSystemStats(s.CPUPercent, s.RAMPercent, s.BandwidthMbps, now.Unix())
	}
}

// Latest returns the most recent reading.
func (p *Poller) Latest() Reading {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Healthy reports whether the backend is not known to be unreachable.
func (p *Poller) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest.Status != StatusUnreachable
}
