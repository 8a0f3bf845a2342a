// Package metrics provides internal metrics collection for the fit engine.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector aggregates fit engine metrics.
type Collector struct {
	rendersTotal    *prometheus.CounterVec
	reductionsTotal *prometheus.CounterVec
	fitIterations   prometheus.Histogram
	promptTokens    prometheus.Histogram
}

// NewCollector creates a collector registered on the given registerer.
// A nil registerer uses the default Prometheus registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptfit",
			Name:      "renders_total",
			Help:      "Render calls by terminal state.",
		}, []string{"status"}),
		reductionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptfit",
			Name:      "reductions_total",
			Help:      "Strategy invocations by strategy name.",
		}, []string{"strategy"}),
		fitIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "promptfit",
			Name:      "fit_iterations",
			Help:      "Measure/reduce iterations per render call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		promptTokens: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "promptfit",
			Name:      "prompt_tokens",
			Help:      "Final token totals of successful render calls.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 12),
		}),
	}
}

// ObserveRender records the outcome of one render call.
func (c *Collector) ObserveRender(status string, iterations, totalTokens int) {
	if c == nil {
		return
	}
	c.rendersTotal.WithLabelValues(status).Inc()
	c.fitIterations.Observe(float64(iterations))
	if status == "done" {
		c.promptTokens.Observe(float64(totalTokens))
	}
}

// ObserveReduction records one strategy invocation.
func (c *Collector) ObserveReduction(strategy string) {
	if c == nil {
		return
	}
	c.reductionsTotal.WithLabelValues(strategy).Inc()
}
