package domain

import "context"

// Filter is a conjunction of exact-match and range constraints over record
// metadata. Zero values mean "no constraint"; the timestamp range applies
// when TsTo is set.
type Filter struct {
	Level  Level
	Year   int
	Date   string // local civil date YYYY-MM-DD, exact match
	TsFrom int64  // epoch seconds, inclusive
	TsTo   int64  // epoch seconds, inclusive; 0 disables the range
}

// Matches reports whether the record satisfies every set constraint.
func (f Filter) Matches(r Record) bool {
	if f.Level != "" && r.Level != f.Level {
		return false
	}
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.TsTo != 0 && (r.Timestamp < f.TsFrom || r.Timestamp > f.TsTo) {
		return false
	}
	return true
}

// RecordStore is the persistent collection of reading records. It is
// read-only from the query core's perspective; only the ingestion pipeline
// writes to it.
type RecordStore interface {
	// Upsert inserts or replaces records with their embedding vectors.
	Upsert(ctx context.Context, records []Record, vectors [][]float64) error
	// FetchByFilter returns every record matching the filter.
	FetchByFilter(ctx context.Context, f Filter) ([]Record, error)
	// Search returns the topK records nearest to the query vector,
	// optionally restricted by a metadata filter.
	Search(ctx context.Context, vector []float64, topK int, f *Filter) ([]ScoredRecord, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Completer produces a free-text answer for a fully built prompt. The query
// core never depends on the answer's content, only on the context snippets
// it supplies.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
