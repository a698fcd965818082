package ingest

import (
	"fmt"
	"sort"
	"time"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

// cumulativeMetrics are the counters that bucket records carry as deltas.
var cumulativeMetrics = []domain.Metric{domain.MetricImport, domain.MetricExport, domain.MetricGas}

// BuildBuckets derives day, week and month bucket records from raw
// readings. Each day delta is max(counter) - min(counter) over the local
// civil day; week and month buckets sum their day deltas. Weeks follow ISO
// numbering.
func BuildBuckets(raw []domain.Record, loc *time.Location) []domain.Record {
	type span struct {
		min, max float64
		seen     bool
	}
	days := make(map[string]map[domain.Metric]*span)
	for _, r := range raw {
		if r.Level != domain.LevelRaw || r.Date == "" {
			continue
		}
		byMetric, ok := days[r.Date]
		if !ok {
			byMetric = make(map[domain.Metric]*span)
			days[r.Date] = byMetric
		}
		for _, m := range cumulativeMetrics {
			v, ok := r.Metric(m)
			if !ok {
				continue
			}
			sp := byMetric[m]
			if sp == nil {
				byMetric[m] = &span{min: v, max: v, seen: true}
				continue
			}
			if v < sp.min {
				sp.min = v
			}
			if v > sp.max {
				sp.max = v
			}
		}
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var buckets []domain.Record
	weekDeltas := make(map[string]map[domain.Metric]float64)
	weekStarts := make(map[string]int64)
	monthDeltas := make(map[string]map[domain.Metric]float64)
	monthStarts := make(map[string]int64)

	for _, date := range dates {
		t, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			continue
		}
		deltas := make(map[domain.Metric]float64)
		for m, sp := range days[date] {
			if sp.seen {
				deltas[m] = sp.max - sp.min
			}
		}
		if len(deltas) == 0 {
			continue
		}
		buckets = append(buckets, domain.Record{
			ID:        "day_" + date,
			Timestamp: t.Unix(),
			Level:     domain.LevelDay,
			Year:      t.Year(),
			Metrics:   deltas,
			Summary:   bucketSummary(domain.LevelDay, date, deltas),
		})

		isoYear, isoWeek := t.ISOWeek()
		weekKey := fmt.Sprintf("%04d-W%02d", isoYear, isoWeek)
		accumulate(weekDeltas, weekStarts, weekKey, t.Unix(), deltas)

		monthKey := t.Format("2006-01")
		accumulate(monthDeltas, monthStarts, monthKey, t.Unix(), deltas)
	}

	buckets = append(buckets, bucketsFrom(weekDeltas, weekStarts, domain.LevelWeek, "week_")...)
	buckets = append(buckets, bucketsFrom(monthDeltas, monthStarts, domain.LevelMonth, "month_")...)
	return buckets
}

func accumulate(deltas map[string]map[domain.Metric]float64, starts map[string]int64, key string, ts int64, dayDeltas map[domain.Metric]float64) {
	byMetric, ok := deltas[key]
	if !ok {
		byMetric = make(map[domain.Metric]float64)
		deltas[key] = byMetric
		starts[key] = ts
	}
	if ts < starts[key] {
		starts[key] = ts
	}
	for m, v := range dayDeltas {
		byMetric[m] += v
	}
}

func bucketsFrom(deltas map[string]map[domain.Metric]float64, starts map[string]int64, level domain.Level, prefix string) []domain.Record {
	keys := make([]string, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.Record, 0, len(keys))
	for _, k := range keys {
		year := 0
		fmt.Sscanf(k, "%4d", &year)
		out = append(out, domain.Record{
			ID:        prefix + k,
			Timestamp: starts[k],
			Level:     level,
			Year:      year,
			Metrics:   deltas[k],
			Summary:   bucketSummary(level, k, deltas[k]),
		})
	}
	return out
}
