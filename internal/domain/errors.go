package domain

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable marks record store connectivity failures. It is the
// only error class the CLI turns into a non-zero exit.
var ErrStoreUnavailable = errors.New("record store unavailable")

// FilterEmptyError reports a valid query whose filters eliminated every
// candidate record. The constraint names the gate that came up empty.
type FilterEmptyError struct {
	Constraint string
}

func (e *FilterEmptyError) Error() string {
	return "no data for constraint " + e.Constraint
}

// MismatchError reports an aggregation kind that is not defined for the
// requested metric (SUM over a cumulative counter, DELTA over an
// instantaneous value).
type MismatchError struct {
	Aggregation Aggregation
	Metric      Metric
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s aggregation is not defined for metric %s", e.Aggregation, e.Metric)
}

// UnknownMetricError reports a metric name outside the recognized set.
type UnknownMetricError struct {
	Metric Metric
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q", string(e.Metric))
}

// InvalidRangeError reports a missing or inverted date range.
type InvalidRangeError struct {
	Start, End string
}

func (e *InvalidRangeError) Error() string {
	if e.Start == "" || e.End == "" {
		return "empty date range"
	}
	return fmt.Sprintf("invalid date range %s..%s", e.Start, e.End)
}
