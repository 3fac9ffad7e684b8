package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the console's Prometheus metrics. The system gauges are
// the console's stat displays: they mirror the last successful poll.
type Collector struct {
	Registry *prometheus.Registry

	cpuPercent    prometheus.Gauge
	ramPercent    prometheus.Gauge
	bandwidthMbps prometheus.Gauge
	pollFailures  prometheus.Counter
	lastPoll      prometheus.Gauge
	submissions   *prometheus.CounterVec
	viewRequests  *prometheus.CounterVec
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a Collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	c := &Collector{
		Registry: reg,
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wlconsole_cpu_percent",
			Help: "Backend CPU usage reported by the last stats poll",
		}),
		ramPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wlconsole_ram_percent",
			Help: "Backend RAM usage reported by the last stats poll",
		}),
		bandwidthMbps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wlconsole_bandwidth_mbps",
			Help: "Backend bandwidth in Mbps reported by the last stats poll",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wlconsole_stats_poll_failures_total",
			Help: "Total number of failed stats polls",
		}),
		lastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wlconsole_stats_last_success_timestamp_seconds",
			Help: "Unix time of the last successful stats poll",
		}),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wlconsole_submissions_total",
				Help: "Total number of form submissions sent to the backend",
			},
			[]string{"resource", "result"},
		),
		viewRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wlconsole_view_requests_total",
				Help: "Total number of list view renders per screen",
			},
			[]string{"screen"},
		),
	}

	reg.MustRegister(
		c.cpuPercent,
		c.ramPercent,
		c.bandwidthMbps,
		c.pollFailures,
		c.lastPoll,
		c.submissions,
		c.viewRequests,
	)

	return c
}

// UpdateSystemStats sets the system gauges from a successful poll.
func (c *Collector) UpdateSystemStats(cpu, ram, bandwidthMbps float64, unixTime int64) {
	c.cpuPercent.Set(cpu)
	c.ramPercent.Set(ram)
	c.bandwidthMbps.Set(bandwidthMbps)
	c.lastPoll.Set(float64(unixTime))
}

// PollFailed increments the poll failure counter.
func (c *Collector) PollFailed() {
	c.pollFailures.Inc()
}

// Submission records a form submission outcome ("success" or "error").
func (c *Collector) Submission(resource, result string) {
	c.submissions.WithLabelValues(resource, result).Inc()
}

// ViewRendered counts a list view render.
func (c *Collector) ViewRendered(screen string) {
	c.viewRequests.WithLabelValues(screen).Inc()
}
