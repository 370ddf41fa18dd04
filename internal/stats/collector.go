// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Manager metrics.
	MetricGets      = "hoard_gets_total"
	MetricHits      = "hoard_hits_total"
	MetricMisses    = "hoard_misses_total"
	MetricPuts      = "hoard_puts_total"
	MetricDedupHits = "hoard_dedup_hits_total"
	MetricWrites    = "hoard_writes_total"
	MetricDeletes   = "hoard_deletes_total"

	// Store adapter metrics.
	MetricStoreErrors = "hoard_store_errors_total"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
