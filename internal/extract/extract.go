// Package extract scans question text for the fixed grammar of dates,
// level tokens, superlative qualifiers, metric keywords, aggregation
// keywords, time-of-day windows, years and counts. Extraction is
// best-effort: malformed tokens are skipped and the field stays empty.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

// PartialPlan holds whatever the extractor recognized. Every field is
// optional; the planner decides what the combination means.
type PartialPlan struct {
	StartDate    string // YYYY-MM-DD
	EndDate      string
	Level        domain.Level
	HasLevel     bool
	Order        domain.Order
	HasQualifier bool
	Metric       domain.Metric
	Aggregation  domain.Aggregation
	TimeOfDay    domain.TimeOfDay
	ValueType    domain.ValueType
	Year         int
	Limit        int
}

// Empty reports whether nothing at all was recognized.
func (p PartialPlan) Empty() bool {
	return p.StartDate == "" && !p.HasLevel && !p.HasQualifier &&
		p.Metric == "" && p.Aggregation == "" && p.TimeOfDay == "" && p.Year == 0
}

// monthLexicon maps Dutch month names to their number.
var monthLexicon = map[string]time.Month{
	"januari": time.January, "februari": time.February, "maart": time.March,
	"april": time.April, "mei": time.May, "juni": time.June,
	"juli": time.July, "augustus": time.August, "september": time.September,
	"oktober": time.October, "november": time.November, "december": time.December,
}

// qualifierLexicon maps superlative tokens to a sort direction.
var qualifierLexicon = map[string]domain.Order{
	"top": domain.OrderDesc, "hoogste": domain.OrderDesc, "meeste": domain.OrderDesc,
	"laagste": domain.OrderAsc, "minste": domain.OrderAsc,
}

// metricLexicon maps metric keywords to metric names. The power keywords
// select the instantaneous metric; verbruik/teruglevering then act as a
// polarity filter instead of a metric (see Extract).
var metricLexicon = map[string]domain.Metric{
	"teruglevering": domain.MetricExport,
	"export":        domain.MetricExport,
	"verbruik":      domain.MetricImport,
	"import":        domain.MetricImport,
	"gas":           domain.MetricGas,
	"vermogen":      domain.MetricActivePower,
	"watt":          domain.MetricActivePower,
}

// aggregationLexicon maps aggregation keywords to their kind.
var aggregationLexicon = map[string]domain.Aggregation{
	"som": domain.AggSum, "sum": domain.AggSum,
	"gemiddelde": domain.AggAvg, "gemiddeld": domain.AggAvg, "avg": domain.AggAvg,
	"maximum": domain.AggMax, "max": domain.AggMax, "piek": domain.AggMax,
	"minimum": domain.AggMin, "min": domain.AggMin,
	"delta": domain.AggDelta, "verschil": domain.AggDelta,
}

var timeOfDayLexicon = map[string]domain.TimeOfDay{
	"nacht": domain.TimeNight, "ochtend": domain.TimeMorning,
	"middag": domain.TimeAfternoon, "avond": domain.TimeEvening,
}

var (
	monthAlternatives = "januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december"

	textualDateRe = regexp.MustCompile(`\b(\d{1,2})\s+(` + monthAlternatives + `)\s+(\d{4})\b`)
	dmyDateRe     = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4})\b`)
	ymdDateRe     = regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`)

	// No word boundaries: "maandag" and "weekend" still hit a level token,
	// which is what the normalization fallback is for.
	levelRe = regexp.MustCompile(`(week|weken|maand|maanden|dag|dagen)`)

	qualifierRe = regexp.MustCompile(`\b(top|hoogste|meeste|laagste|minste)\b`)
	wordRe      = regexp.MustCompile(`\p{L}+`)
	yearRe      = regexp.MustCompile(`\b(20\d{2})\b`)
	limitRe     = regexp.MustCompile(`\b(?:top|hoogste|meeste|laagste|minste)\s*(\d+)\b`)
)

// Extract parses the question text into a partial plan. It never fails;
// unrecognized phrasings simply leave fields unset.
func Extract(text string) PartialPlan {
	q := strings.ToLower(text)
	var p PartialPlan

	p.StartDate, p.EndDate = extractDates(q)

	if m := levelRe.FindStringSubmatch(q); m != nil {
		p.Level = normalizeLevel(m[1])
		p.HasLevel = true
	}
	if m := qualifierRe.FindStringSubmatch(q); m != nil {
		p.Order = qualifierLexicon[m[1]]
		p.HasQualifier = true
	}

	p.ValueType = domain.ValueAll
	wantsPower := false
	for _, w := range wordRe.FindAllString(q, -1) {
		if metricLexicon[w] == domain.MetricActivePower {
			wantsPower = true
			break
		}
	}
	for _, w := range wordRe.FindAllString(q, -1) {
		if metric, ok := metricLexicon[w]; ok {
			if wantsPower {
				// Power questions: verbruik/teruglevering restrict the
				// polarity of the instantaneous samples instead of
				// selecting a cumulative counter.
				p.Metric = domain.MetricActivePower
				if p.ValueType == domain.ValueAll {
					switch metric {
					case domain.MetricImport:
						p.ValueType = domain.ValueConsumption
					case domain.MetricExport:
						p.ValueType = domain.ValueProduction
					}
				}
			} else if p.Metric == "" {
				p.Metric = metric
			}
		}
		if agg, ok := aggregationLexicon[w]; ok && p.Aggregation == "" {
			p.Aggregation = agg
		}
		if tod, ok := timeOfDayLexicon[w]; ok && p.TimeOfDay == "" {
			p.TimeOfDay = tod
		}
	}

	if m := yearRe.FindStringSubmatch(q); m != nil {
		p.Year, _ = strconv.Atoi(m[1])
	}
	p.Limit = 1
	if m := limitRe.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			p.Limit = n
		}
	}
	return p
}

// extractDates applies the date pattern classes in priority order and keeps
// only the first class that matches. All non-overlapping matches of that
// class are collected: the first is the start date, the last the end date.
// A single match yields a single-day range.
func extractDates(q string) (start, end string) {
	classes := []func(string) []string{textualDates, numericDMYDates, numericYMDDates}
	for _, class := range classes {
		dates := class(q)
		if len(dates) == 0 {
			continue
		}
		return dates[0], dates[len(dates)-1]
	}
	return "", ""
}

func textualDates(q string) []string {
	var out []string
	for _, m := range textualDateRe.FindAllStringSubmatch(q, -1) {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if d, ok := canonicalDate(year, int(monthLexicon[m[2]]), day); ok {
			out = append(out, d)
		}
	}
	return out
}

func numericDMYDates(q string) []string {
	var out []string
	for _, m := range dmyDateRe.FindAllStringSubmatch(q, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if d, ok := canonicalDate(year, month, day); ok {
			out = append(out, d)
		}
	}
	return out
}

func numericYMDDates(q string) []string {
	var out []string
	for _, m := range ymdDateRe.FindAllStringSubmatch(q, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := canonicalDate(year, month, day); ok {
			out = append(out, d)
		}
	}
	return out
}

// canonicalDate validates the triple against the calendar and renders it as
// YYYY-MM-DD. Invalid triples (day 31 in april, month 13) are dropped.
func canonicalDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// normalizeLevel reduces a matched level token to its canonical level.
// Tokens that hit the pattern without a clean prefix fall back to week.
func normalizeLevel(token string) domain.Level {
	switch {
	case strings.HasPrefix(token, "dag"):
		return domain.LevelDay
	case strings.HasPrefix(token, "maand"):
		return domain.LevelMonth
	case strings.HasPrefix(token, "week"):
		return domain.LevelWeek
	}
	return domain.LevelWeek
}
