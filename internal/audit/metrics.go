package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// Metrics holds the audit and mutation instruments. Collectors register on
// the supplied registerer so tests can use an isolated registry.
type Metrics struct {
	auditsTotal   *prometheus.CounterVec
	auditDuration *prometheus.HistogramVec
	discrepancies *prometheus.GaugeVec
	missingGroups prometheus.Gauge
	fixesTotal    *prometheus.CounterVec
	createsTotal  *prometheus.CounterVec
}

// NewMetrics registers the audit instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		auditsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_runs_total",
			Help: "Total audit runs by fetch strategy",
		}, []string{"strategy"}),

		auditDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audit_run_duration_seconds",
			Help:    "Audit duration including the remote fetch",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"strategy"}),

		discrepancies: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "audit_discrepancies",
			Help: "Discrepancies found by the last audit, by field",
		}, []string{"field"}),

		missingGroups: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audit_missing_groups",
			Help: "Missing product groups found by the last audit",
		}),

		fixesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_fixes_total",
			Help: "Discrepancy fixes attempted, by field and outcome",
		}, []string{"field", "outcome"}),

		createsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_creates_total",
			Help: "Product creations attempted, by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveCreate records one attempted product creation.
func (m *Metrics) ObserveCreate(err error) {
	m.createsTotal.WithLabelValues(outcome(err)).Inc()
}

// ObserveFix records one attempted discrepancy fix.
func (m *Metrics) ObserveFix(field types.FieldKind, err error) {
	m.fixesTotal.WithLabelValues(string(field), outcome(err)).Inc()
}

// ObserveAudit records one completed audit run.
func (m *Metrics) ObserveAudit(fullCatalog bool, took time.Duration, result *types.AuditResult) {
	strategy := "batched"
	if fullCatalog {
		strategy = "bulk"
	}
	m.auditsTotal.WithLabelValues(strategy).Inc()
	m.auditDuration.WithLabelValues(strategy).Observe(took.Seconds())

	byField := make(map[types.FieldKind]int)
	for _, d := range result.Discrepancies {
		byField[d.Field]++
	}
	for _, field := range types.AllFieldKinds {
		m.discrepancies.WithLabelValues(string(field)).Set(float64(byField[field]))
	}
	m.missingGroups.Set(float64(len(result.MissingProductGroups)))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
