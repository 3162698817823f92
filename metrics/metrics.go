package metrics

import (
	"github.com/jt05610/petri/checker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ checker.Observer = (*Collector)(nil)

const namespace = "petri"

// Collector records the statistics of finished checks. Every series is labelled with the algorithm.
type Collector struct {
	checks   *prometheus.CounterVec
	explored *prometheus.CounterVec
	expanded *prometheus.CounterVec
	reduced  *prometheus.CounterVec
	depth    *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		checks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "total",
			Help:      "Finished checks by verdict",
		}, []string{"algorithm", "verdict"}),
		explored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "explored_states_total",
			Help:      "Distinct product states discovered",
		}, []string{"algorithm"}),
		expanded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "expanded_states_total",
			Help:      "Successor enumerations",
		}, []string{"algorithm"}),
		reduced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "reduced_markings_total",
			Help:      "Markings expanded with a proper stubborn subset",
		}, []string{"algorithm"}),
		depth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "max_depth",
			Help:      "Deepest search stack of the last check",
		}, []string{"algorithm"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Time spent per check",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm"}),
	}
}

func (c *Collector) Observe(a checker.Algorithm, v checker.Verdict, s checker.Stats) {
	alg := a.String()
	c.checks.WithLabelValues(alg, v.String()).Inc()
	c.explored.WithLabelValues(alg).Add(float64(s.Explored))
	c.expanded.WithLabelValues(alg).Add(float64(s.Expanded))
	c.reduced.WithLabelValues(alg).Add(float64(s.Reduced))
	c.depth.WithLabelValues(alg).Set(float64(s.MaxDepth))
	c.duration.WithLabelValues(alg).Observe(s.Elapsed.Seconds())
}

// WriteToTextfile writes everything gathered by g in the text format of the node exporter's textfile
// collector.
func WriteToTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
