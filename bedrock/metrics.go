package bedrock

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by Client.Invoke.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Retries     *prometheus.CounterVec
	Tokens      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedrock_invocations_total",
				Help: "Total number of model invocations by final status",
			},
			[]string{"model", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bedrock_invocation_duration_seconds",
				Help:    "Time taken by a model invocation including retries",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120},
			},
			[]string{"model"},
		),
		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedrock_invocation_retries_total",
				Help: "Total number of retried invocation attempts",
			},
			[]string{"model"},
		),
		Tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedrock_tokens_total",
				Help: "Tokens reported by the service, by direction",
			},
			[]string{"model", "direction"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Invocations, m.Duration, m.Retries, m.Tokens)
	}
	return m
}

func (m *Metrics) observe(modelID string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.Invocations.WithLabelValues(modelID, label).Inc()
	m.Duration.WithLabelValues(modelID).Observe(elapsed.Seconds())
}

func (m *Metrics) retry(modelID string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(modelID).Inc()
}

func (m *Metrics) tokens(modelID string, input, output int) {
	if m == nil {
		return
	}
	if input > 0 {
		m.Tokens.WithLabelValues(modelID, "input").Add(float64(input))
	}
	if output > 0 {
		m.Tokens.WithLabelValues(modelID, "output").Add(float64(output))
	}
}
