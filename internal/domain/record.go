package domain

import "strings"

// Metric is the name of a numeric value carried by a reading record.
type Metric string

const (
	MetricActivePower Metric = "active_power_w"
	MetricImport      Metric = "total_power_import_kwh"
	MetricExport      Metric = "total_power_export_kwh"
	MetricGas         Metric = "total_gas_m3"
)

// KnownMetrics lists every metric name a record may carry.
var KnownMetrics = []Metric{MetricActivePower, MetricImport, MetricExport, MetricGas}

// Known reports whether the metric name is part of the recognized set.
func (m Metric) Known() bool {
	for _, k := range KnownMetrics {
		if m == k {
			return true
		}
	}
	return false
}

// Cumulative reports whether the metric is a monotonic counter.
// Cumulative metrics aggregate as deltas, never as sums.
func (m Metric) Cumulative() bool {
	return strings.HasPrefix(string(m), "total_")
}

// Unit returns the display unit for the metric.
func (m Metric) Unit() string {
	switch m {
	case MetricActivePower:
		return "W"
	case MetricImport, MetricExport:
		return "kWh"
	case MetricGas:
		return "m3"
	}
	return ""
}

// Level is the granularity of a reading record.
type Level string

const (
	LevelRaw   Level = "raw"
	LevelDay   Level = "day"
	LevelWeek  Level = "week"
	LevelMonth Level = "month"
)

// Record is one ingested observation or derived bucket. Records are
// immutable facts: the ingestion pipeline creates them once and they are
// only replaced by a full rebuild.
//
// Raw records carry instantaneous active_power_w (negative means export to
// the grid) plus the cumulative counters at that moment. Bucket records
// (day/week/month) carry the cumulative metrics as deltas over the bucket
// and never carry active_power_w.
type Record struct {
	ID        string
	Timestamp int64 // epoch seconds, UTC
	Level     Level
	Year      int    // buckets only, used for ranking filters
	Date      string // local civil date YYYY-MM-DD, raw records only
	Metrics   map[Metric]float64
	Summary   string // optional natural-language sentence for retrieval
}

// Metric returns the named metric value and whether it is present.
func (r Record) Metric(m Metric) (float64, bool) {
	v, ok := r.Metrics[m]
	return v, ok
}

// ScoredRecord is a record returned from similarity search.
type ScoredRecord struct {
	Record
	Score float64
}
