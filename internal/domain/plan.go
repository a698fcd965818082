package domain

// Intent is the execution path a question maps to.
type Intent string

const (
	IntentAggregation  Intent = "aggregation"
	IntentSemantic     Intent = "semantic"
	IntentUnrecognized Intent = "unrecognized"
)

// Aggregation is the numeric operation applied over a metric.
type Aggregation string

const (
	AggSum   Aggregation = "SUM"
	AggAvg   Aggregation = "AVG"
	AggMax   Aggregation = "MAX"
	AggMin   Aggregation = "MIN"
	AggDelta Aggregation = "DELTA"
)

// ValueType restricts instantaneous power samples by polarity.
type ValueType string

const (
	ValueAll         ValueType = "ALL"
	ValueConsumption ValueType = "CONSUMPTION"
	ValueProduction  ValueType = "PRODUCTION"
)

// Order is a sort direction for ranking queries.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// QueryPlan is the typed parameter set built from one question.
// Which fields are meaningful depends on the intent: ranking plans set
// GroupLevel/Order/Limit (and optionally Year), windowed plans set
// Aggregation/StartDate/EndDate (and optionally TimeOfDay/ValueType),
// semantic plans may set StartDate as a single-day filter.
type QueryPlan struct {
	Intent      Intent
	Metric      Metric
	Aggregation Aggregation
	StartDate   string // YYYY-MM-DD, inclusive, local civil time
	EndDate     string
	TimeOfDay   TimeOfDay
	ValueType   ValueType
	GroupLevel  Level
	Order       Order
	Limit       int
	Year        int
}

// AggregationResult is the typed outcome of a windowed aggregation.
type AggregationResult struct {
	Aggregation Aggregation
	Metric      Metric
	ValueType   ValueType
	Value       float64
	Timestamp   string // local civil time of the extreme, MAX/MIN only
	Samples     int
}

// RankEntry is one bucket in a ranking result.
type RankEntry struct {
	ID    string
	Value float64
}
