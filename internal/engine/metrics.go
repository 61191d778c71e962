package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus counters for a resolution run. All methods are
// safe on a nil receiver so metrics stay optional.
type Metrics struct {
	CacheHits prometheus.Counter
	Lookups   prometheus.Counter
	Failures  prometheus.Counter
	Invalid   prometheus.Counter
}

// NewMetrics creates and registers the engine counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "spindle_cache_hits_total", Help: "Addresses answered from the cache"}),
		Lookups: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "spindle_lookups_total", Help: "Addresses that triggered a registry lookup"}),
		Failures: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "spindle_lookup_failures_total", Help: "Registry lookups that failed"}),
		Invalid: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "spindle_invalid_tokens_total", Help: "Input tokens rejected as invalid"}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheHits, m.Lookups, m.Failures, m.Invalid)
	}
	return m
}

func (m *Metrics) IncCacheHits() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncLookups() {
	if m == nil {
		return
	}
	m.Lookups.Inc()
}

func (m *Metrics) IncFailures() {
	if m == nil {
		return
	}
	m.Failures.Inc()
}

func (m *Metrics) IncInvalid() {
	if m == nil {
		return
	}
	m.Invalid.Inc()
}
