package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	g.Write(m)
	return m.GetGauge().GetValue()
}

func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	c.Write(m)
	return m.GetCounter().GetValue()
}

func TestUpdateSystemStats(t *testing.T) {
	c := New()

	c.UpdateSystemStats(12.5, 40, 3.25, 1700000000)

	if v := getGaugeValue(c.cpuPercent); v != 12.5 {
		t.Errorf("expected cpu=12.5, got %v", v)
	}
	if v := getGaugeValue(c.ramPercent); v != 40 {
		t.Errorf("expected ram=40, got %v", v)
	}
	if v := getGaugeValue(c.bandwidthMbps); v != 3.25 {
		t.Errorf("expected bandwidth=3.25, got %v", v)
	}
	if v := getGaugeValue(c.lastPoll); v != 1700000000 {
		t.Errorf("expected last poll timestamp, got %v", v)
	}
}

func TestPollFailed(t *testing.T) {
	c := New()

	c.PollFailed()
	c.PollFailed()

	if v := getCounterValue(c.pollFailures); v != 2 {
		t.Errorf("expected failures=2, got %v", v)
	}
}

func TestSubmissionAndViews(t *testing.T) {
	c := New()

	c.Submission("clients", "success")
	c.Submission("clients", "success")
	c.Submission("domains", "error")
	c.ViewRendered("clients")

	if v := getCounterValue(c.submissions.WithLabelValues("clients", "success")); v != 2 {
		t.Errorf("expected 2 client successes, got %v", v)
	}
	if v := getCounterValue(c.submissions.WithLabelValues("domains", "error")); v != 1 {
		t.Errorf("expected 1 domain error, got %v", v)
	}
	if v := getCounterValue(c.viewRequests.WithLabelValues("clients")); v != 1 {
		t.Errorf("expected 1 clients view, got %v", v)
	}
}

func TestSeparateRegistries(t *testing.T) {
	// Each collector owns its registry, so two can coexist.
	a := New()
	b := New()
	a.PollFailed()

	families, err := b.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() == "wlconsole_stats_poll_failures_total" {
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 0 {
				t.Errorf("expected untouched registry, got %v", v)
			}
		}
	}
}
