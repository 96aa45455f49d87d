package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations.
	OutcomeError = "error"

	cacheHit  = "hit"
	cacheMiss = "miss"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attrition_engine",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "attrition_engine",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attrition_engine",
			Name:      "cache_lookups_total",
			Help:      "Analysis cache lookups, partitioned by hit or miss.",
		},
		[]string{"result"},
	)

	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attrition_engine",
			Name:      "exports_total",
			Help:      "Exports produced, partitioned by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	insightsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attrition_engine",
			Name:      "insights_total",
			Help:      "Insights emitted, partitioned by category.",
		},
		[]string{"category"},
	)

	datasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "attrition_engine",
			Name:      "dataset_rows",
			Help:      "Rows in the currently loaded dataset.",
		},
	)
)

// Register attaches attrition-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		cacheLookupsTotal,
		exportsTotal,
		insightsTotal,
		datasetRows,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func outcomeLabel(outcome string) string {
	if outcome != OutcomeError {
		return OutcomeSuccess
	}
	return OutcomeError
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	analysesTotal.WithLabelValues(outcomeLabel(outcome)).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveCacheLookup counts a cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues(cacheHit).Inc()
		return
	}
	cacheLookupsTotal.WithLabelValues(cacheMiss).Inc()
}

// ObserveExport counts an export attempt for kind.
func ObserveExport(kind, outcome string) {
	exportsTotal.WithLabelValues(kind, outcomeLabel(outcome)).Inc()
}

// ObserveInsights counts emitted insights by category.
func ObserveInsights(categories ...string) {
	for _, c := range categories {
		insightsTotal.WithLabelValues(c).Inc()
	}
}

// SetDatasetRows reports the size of the loaded dataset.
func SetDatasetRows(n int) {
	datasetRows.Set(float64(n))
}
