package processfromroot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/snowfork/root-relayer/contracts"
)

// Metrics is safe to use as a nil pointer, which disables collection.
type Metrics struct {
	outcomes      *prometheus.CounterVec
	pending       prometheus.Gauge
	batchDuration prometheus.Histogram
	submitLatency *prometheus.HistogramVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "root_relay",
			Name:      "message_outcomes_total",
			Help:      "Processed root messages by outcome.",
		}, []string{"outcome"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "root_relay",
			Name:      "pending_messages",
			Help:      "Pending root messages seen by the last batch.",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "root_relay",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a process-pending batch.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		submitLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "root_relay",
			Name:      "submit_duration_seconds",
			Help:      "Latency of relay transport submissions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"connector"}),
	}
}

func (m *Metrics) observeBatch(result *BatchResult) {
	if m == nil {
		return
	}
	m.pending.Set(float64(len(result.Outcomes)))
	m.batchDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	for _, o := range result.Outcomes {
		if o.OK() {
			m.outcomes.WithLabelValues("acknowledged").Inc()
			continue
		}
		m.outcomes.WithLabelValues(KindOf(o.Err).Label()).Inc()
	}
}

func (m *Metrics) observeSubmit(family contracts.ConnectorFamily, d time.Duration) {
	if m == nil {
		return
	}
	m.submitLatency.WithLabelValues(string(family)).Observe(d.Seconds())
}
