package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tradedesk/tradecheck/internal/crosscheck"
)

// Metrics holds the service's Prometheus counters.
type Metrics struct {
	CrossCheckRuns prometheus.Counter
	Findings       *prometheus.CounterVec
	FixesApplied   prometheus.Counter
}

// NewMetrics creates all counters and registers them on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CrossCheckRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradecheck_crosscheck_runs_total",
			Help: "Total number of cross-check passes executed",
		}),
		Findings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecheck_findings_total",
			Help: "Total findings detected, by severity",
		}, []string{"severity"}),
		FixesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradecheck_fixes_applied_total",
			Help: "Total fix applications that changed at least one document",
		}),
	}
}

// ObserveResult records one detection pass.
func (m *Metrics) ObserveResult(result crosscheck.Result) {
	m.CrossCheckRuns.Inc()
	m.Findings.WithLabelValues(string(crosscheck.SeverityBlocking)).Add(float64(result.Summary.BlockingCount))
	m.Findings.WithLabelValues(string(crosscheck.SeverityWarning)).Add(float64(result.Summary.WarningCount))
}
