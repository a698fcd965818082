// Package aggregate executes structured query plans against the record
// store: windowed aggregation over raw readings and ranking over
// pre-aggregated buckets.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

// Engine runs aggregations against a record store snapshot. Date ranges are
// interpreted as local civil time in loc; stored timestamps are UTC epochs.
type Engine struct {
	store domain.RecordStore
	loc   *time.Location
}

func NewEngine(store domain.RecordStore, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: store, loc: loc}
}

const dateLayout = "2006-01-02"

// Aggregate executes a windowed aggregation plan. Each filter stage is a
// hard gate: an empty set after any stage returns a FilterEmptyError naming
// the constraint instead of silently producing zero.
func (e *Engine) Aggregate(ctx context.Context, plan domain.QueryPlan) (*domain.AggregationResult, error) {
	if !plan.Metric.Known() {
		return nil, &domain.UnknownMetricError{Metric: plan.Metric}
	}
	switch plan.Aggregation {
	case domain.AggDelta:
		if !plan.Metric.Cumulative() {
			return nil, &domain.MismatchError{Aggregation: plan.Aggregation, Metric: plan.Metric}
		}
	case domain.AggSum:
		// Summing an already-cumulative counter is meaningless.
		if plan.Metric != domain.MetricActivePower {
			return nil, &domain.MismatchError{Aggregation: plan.Aggregation, Metric: plan.Metric}
		}
	case domain.AggAvg, domain.AggMax, domain.AggMin:
	default:
		return nil, fmt.Errorf("invalid aggregation kind %q", string(plan.Aggregation))
	}

	startEpoch, endEpoch, err := e.epochBounds(plan.StartDate, plan.EndDate)
	if err != nil {
		return nil, err
	}

	records, err := e.store.FetchByFilter(ctx, domain.Filter{
		Level:  domain.LevelRaw,
		TsFrom: startEpoch,
		TsTo:   endEpoch,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(records) == 0 {
		return nil, &domain.FilterEmptyError{Constraint: fmt.Sprintf("date range %s..%s", plan.StartDate, plan.EndDate)}
	}

	// Keep only records that actually carry the metric.
	kept := records[:0]
	for _, r := range records {
		if _, ok := r.Metric(plan.Metric); ok {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil, &domain.FilterEmptyError{Constraint: "metric " + string(plan.Metric)}
	}

	if plan.TimeOfDay != "" {
		if !plan.TimeOfDay.Known() {
			return nil, fmt.Errorf("invalid time of day %q", string(plan.TimeOfDay))
		}
		windowed := kept[:0]
		for _, r := range kept {
			if plan.TimeOfDay.Contains(time.Unix(r.Timestamp, 0).In(e.loc)) {
				windowed = append(windowed, r)
			}
		}
		kept = windowed
		if len(kept) == 0 {
			return nil, &domain.FilterEmptyError{Constraint: "time_of_day " + string(plan.TimeOfDay)}
		}
	}

	// Polarity only applies to the instantaneous power metric; cumulative
	// counters are already polarity-specific by name.
	if plan.Metric == domain.MetricActivePower && (plan.ValueType == domain.ValueConsumption || plan.ValueType == domain.ValueProduction) {
		filtered := kept[:0]
		for _, r := range kept {
			v, _ := r.Metric(plan.Metric)
			if (plan.ValueType == domain.ValueConsumption && v > 0) ||
				(plan.ValueType == domain.ValueProduction && v < 0) {
				filtered = append(filtered, r)
			}
		}
		kept = filtered
		if len(kept) == 0 {
			return nil, &domain.FilterEmptyError{Constraint: "value_type " + string(plan.ValueType)}
		}
	}

	valueType := plan.ValueType
	if valueType == "" {
		valueType = domain.ValueAll
	}
	result := &domain.AggregationResult{
		Aggregation: plan.Aggregation,
		Metric:      plan.Metric,
		ValueType:   valueType,
		Samples:     len(kept),
	}

	switch plan.Aggregation {
	case domain.AggDelta:
		minV, maxV := metricValue(kept[0], plan.Metric), metricValue(kept[0], plan.Metric)
		for _, r := range kept[1:] {
			v := metricValue(r, plan.Metric)
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		result.Value = maxV - minV
	case domain.AggSum:
		for _, r := range kept {
			result.Value += metricValue(r, plan.Metric)
		}
	case domain.AggAvg:
		sum := 0.0
		for _, r := range kept {
			sum += metricValue(r, plan.Metric)
		}
		result.Value = sum / float64(len(kept))
	case domain.AggMax, domain.AggMin:
		best := kept[0]
		for _, r := range kept[1:] {
			v := metricValue(r, plan.Metric)
			if (plan.Aggregation == domain.AggMax && v > metricValue(best, plan.Metric)) ||
				(plan.Aggregation == domain.AggMin && v < metricValue(best, plan.Metric)) {
				best = r
			}
		}
		result.Value = metricValue(best, plan.Metric)
		result.Timestamp = time.Unix(best.Timestamp, 0).In(e.loc).Format("2006-01-02T15:04:05")
	}
	return result, nil
}

// Rank fetches bucket records at the given level, optionally restricted to
// a year, and returns the first limit entries ordered by the metric value.
// Buckets that do not carry the sort metric are skipped, so a metric no
// bucket carries (the instantaneous power) yields an empty sequence rather
// than a ranking of zeros. Ties keep retrieval order (stable sort). No
// matching buckets is a valid outcome: an empty sequence, not an error.
func (e *Engine) Rank(ctx context.Context, level domain.Level, year int, sortBy domain.Metric, order domain.Order, limit int) ([]domain.RankEntry, error) {
	records, err := e.store.FetchByFilter(ctx, domain.Filter{Level: level, Year: year})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	entries := make([]domain.RankEntry, 0, len(records))
	for _, r := range records {
		v, ok := r.Metric(sortBy)
		if !ok {
			continue
		}
		entries = append(entries, domain.RankEntry{ID: r.ID, Value: v})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if order == domain.OrderDesc {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Value < entries[j].Value
	})
	if limit <= 0 {
		limit = 1
	}
	if limit > len(entries) {
		limit = len(entries)
	}
	return entries[:limit], nil
}

// epochBounds converts an inclusive local civil date range into UTC epoch
// bounds, end-of-day inclusive.
func (e *Engine) epochBounds(startDate, endDate string) (int64, int64, error) {
	if startDate == "" || endDate == "" {
		return 0, 0, &domain.InvalidRangeError{Start: startDate, End: endDate}
	}
	start, err := time.ParseInLocation(dateLayout, startDate, e.loc)
	if err != nil {
		return 0, 0, &domain.InvalidRangeError{Start: startDate, End: endDate}
	}
	end, err := time.ParseInLocation(dateLayout, endDate, e.loc)
	if err != nil {
		return 0, 0, &domain.InvalidRangeError{Start: startDate, End: endDate}
	}
	if end.Before(start) {
		return 0, 0, &domain.InvalidRangeError{Start: startDate, End: endDate}
	}
	endOfDay := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, e.loc)
	return start.Unix(), endOfDay.Unix(), nil
}

// metricValue reads the metric, treating absence as zero. Safe in the
// compute stage only: Aggregate and Rank both drop records without the
// metric before reading it.
func metricValue(r domain.Record, m domain.Metric) float64 {
	v, _ := r.Metric(m)
	return v
}
