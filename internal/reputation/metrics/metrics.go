package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the reputation engine.
// A nil *Metrics is valid and records nothing, so tests can skip
// registration entirely.
type Metrics struct {
	LookupsTotal            prometheus.Counter
	NumbersCreatedTotal     prometheus.Counter
	ReportsAcceptedTotal    *prometheus.CounterVec
	ReportsRateLimitedTotal prometheus.Counter
	CategoryChangesTotal    *prometheus.CounterVec
}

// New creates and registers all reputation metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeline_lookups_total",
			Help: "Total number of phone lookups served",
		}),
		NumbersCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeline_numbers_created_total",
			Help: "Total number of phone records created",
		}),
		ReportsAcceptedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeline_reports_accepted_total",
			Help: "Total number of reports accepted into the ledger",
		}, []string{"report_type"}),
		ReportsRateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeline_reports_rate_limited_total",
			Help: "Total number of report submissions rejected by the rate window",
		}),
		CategoryChangesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeline_category_changes_total",
			Help: "Total number of automatic category transitions",
		}, []string{"category"}),
	}
}

func (m *Metrics) IncLookups() {
	if m == nil {
		return
	}
	m.LookupsTotal.Inc()
}

func (m *Metrics) IncNumbersCreated() {
	if m == nil {
		return
	}
	m.NumbersCreatedTotal.Inc()
}

func (m *Metrics) IncReportsAccepted(reportType string) {
	if m == nil {
		return
	}
	m.ReportsAcceptedTotal.WithLabelValues(reportType).Inc()
}

func (m *Metrics) IncReportsRateLimited() {
	if m == nil {
		return
	}
	m.ReportsRateLimitedTotal.Inc()
}

func (m *Metrics) IncCategoryChanges(category string) {
	if m == nil {
		return
	}
	m.CategoryChangesTotal.WithLabelValues(category).Inc()
}
