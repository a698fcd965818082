// Package planner decides which execution path a question maps to and
// builds the typed parameter set for it.
package planner

import (
	"github.com/e60manuels/smartmeter-rag/internal/domain"
	"github.com/e60manuels/smartmeter-rag/internal/extract"
)

// Planner translates free-text questions into query plans. It is a pure
// function over its input and never errors: insufficient parameters yield
// an unrecognized plan, not a failure.
type Planner struct{}

func New() *Planner { return &Planner{} }

// Plan routes a question to one of two aggregation surfaces or to semantic
// retrieval. Ranking over pre-aggregated buckets and windowed aggregation
// over raw readings query different record granularities, so the route
// follows from which parameters the user actually supplied.
func (p *Planner) Plan(text string) domain.QueryPlan {
	pp := extract.Extract(text)

	// Ranking: "hoogste week qua teruglevering in 2025".
	if pp.HasQualifier && pp.Metric != "" && pp.HasLevel {
		return domain.QueryPlan{
			Intent:     domain.IntentAggregation,
			Metric:     pp.Metric,
			GroupLevel: pp.Level,
			Order:      pp.Order,
			Limit:      pp.Limit,
			Year:       pp.Year,
		}
	}

	// Windowed aggregation: explicit metric, aggregation keyword and date
	// range over the raw readings.
	if pp.Metric != "" && pp.Aggregation != "" && pp.StartDate != "" {
		return domain.QueryPlan{
			Intent:      domain.IntentAggregation,
			Metric:      pp.Metric,
			Aggregation: pp.Aggregation,
			StartDate:   pp.StartDate,
			EndDate:     pp.EndDate,
			TimeOfDay:   pp.TimeOfDay,
			ValueType:   pp.ValueType,
		}
	}

	// Anything with at least one recognized token is worth a similarity
	// lookup. An extracted date narrows it to that single day.
	if !pp.Empty() {
		return domain.QueryPlan{
			Intent:    domain.IntentSemantic,
			StartDate: pp.StartDate,
			EndDate:   pp.StartDate,
		}
	}

	return domain.QueryPlan{Intent: domain.IntentUnrecognized}
}
