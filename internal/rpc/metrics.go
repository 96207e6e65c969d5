package rpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/shareserver/internal/envelope"
)

// outcomeOK is the code label recorded for successful calls.
const outcomeOK = "OK"

// unresolvedLabel replaces caller-supplied names that did not resolve, so
// arbitrary input cannot grow label cardinality.
const unresolvedLabel = "unresolved"

// Metrics counts dispatch outcomes and latencies.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the dispatcher collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shareserver",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Procedure calls by service, procedure and result code.",
		}, []string{"service", "procedure", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shareserver",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Procedure call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "procedure"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

func (m *Metrics) observe(table *Table, service, procedure string, env envelope.Envelope, elapsed time.Duration) {
	if _, err := table.Resolve(service, procedure); err != nil {
		service, procedure = unresolvedLabel, unresolvedLabel
	}
	code := outcomeOK
	if !env.Success {
		code = string(env.ErrorCode)
	}
	m.calls.WithLabelValues(service, procedure, code).Inc()
	m.duration.WithLabelValues(service, procedure).Observe(elapsed.Seconds())
}
