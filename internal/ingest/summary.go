package ingest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

// rawSummary renders the Dutch sentence stored as a raw record's document.
// The sign of the instantaneous power picks consumption or delivery back.
func rawSummary(metrics map[domain.Metric]float64, local time.Time) string {
	power := metrics[domain.MetricActivePower]
	action := "Verbruik"
	watts := power
	if power < 0 {
		action = "Teruglevering"
		watts = -power
	}
	return fmt.Sprintf("%s van %s watt in de %s op %s om %s.",
		action, formatNumber(watts), domain.TimeOfDayFor(local),
		local.Format("2006-01-02"), local.Format("15:04"))
}

// bucketSummary renders the sentence for a day/week/month bucket, listing
// the cumulative deltas that have data.
func bucketSummary(level domain.Level, key string, metrics map[domain.Metric]float64) string {
	var span string
	switch level {
	case domain.LevelDay:
		span = "Op " + key
	case domain.LevelWeek:
		span = "In week " + key
	case domain.LevelMonth:
		span = "In maand " + key
	}
	s := span + " was"
	first := true
	appendPart := func(label, value, unit string) {
		if !first {
			s += " en"
		}
		s += fmt.Sprintf(" de %s %s %s", label, value, unit)
		first = false
	}
	if v, ok := metrics[domain.MetricImport]; ok {
		appendPart("import", formatNumber(v), "kWh")
	}
	if v, ok := metrics[domain.MetricExport]; ok {
		appendPart("export", formatNumber(v), "kWh")
	}
	if v, ok := metrics[domain.MetricGas]; ok {
		appendPart("gasafname", formatNumber(v), "m3")
	}
	return s + "."
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
