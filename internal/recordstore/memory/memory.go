// Package memory provides a brute-force in-memory record store, used for
// tests and offline runs.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

// Store keeps records and their vectors in memory and scores similarity by
// cosine. The mutex only matters when the store is shared; the query core
// itself is read-only over it.
type Store struct {
	mu      sync.RWMutex
	records []domain.Record
	vectors [][]float64
	index   map[string]int
}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

func (s *Store) Upsert(_ context.Context, records []domain.Record, vectors [][]float64) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range records {
		if j, ok := s.index[r.ID]; ok {
			s.records[j] = r
			s.vectors[j] = vectors[i]
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

func (s *Store) FetchByFilter(_ context.Context, f domain.Filter) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Record
	for _, r := range s.records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Search(_ context.Context, vector []float64, topK int, f *domain.Filter) ([]domain.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	var scored []domain.ScoredRecord
	for i, r := range s.records {
		if f != nil && !f.Matches(r) {
			continue
		}
		scored = append(scored, domain.ScoredRecord{Record: r, Score: cosine(s.vectors[i], vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	dot, na, nb := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
