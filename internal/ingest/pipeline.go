// Package ingest reads line-delimited JSON meter logs, derives per-record
// summaries and day/week/month buckets, and upserts everything into the
// record store with embeddings.
package ingest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

// Pipeline wires the loader, the bucket resampler, the embedder and the
// record store together.
type Pipeline struct {
	store     domain.RecordStore
	embedder  domain.Embedder
	loc       *time.Location
	batchSize int
	log       *logrus.Logger
}

func NewPipeline(store domain.RecordStore, embedder domain.Embedder, loc *time.Location, batchSize int, log *logrus.Logger) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{store: store, embedder: embedder, loc: loc, batchSize: batchSize, log: log}
}

// Run ingests every .jsonl file in dir and returns the number of records
// written (raw readings plus derived buckets).
func (p *Pipeline) Run(ctx context.Context, dir string) (int, error) {
	raw, err := p.LoadDir(dir)
	if err != nil {
		return 0, err
	}
	buckets := BuildBuckets(raw, p.loc)
	p.log.Infof("loaded %d raw records, derived %d buckets", len(raw), len(buckets))

	all := append(raw, buckets...)
	for start := 0; start < len(all); start += p.batchSize {
		end := start + p.batchSize
		if end > len(all) {
			end = len(all)
		}
		batch := all[start:end]
		vectors := make([][]float64, len(batch))
		for i, r := range batch {
			vec, err := p.embedder.Embed(ctx, r.Summary)
			if err != nil {
				return start, err
			}
			vectors[i] = vec
		}
		if err := p.store.Upsert(ctx, batch, vectors); err != nil {
			return start, err
		}
		p.log.Infof("upserted batch %d-%d of %d", start+1, end, len(all))
	}
	return len(all), nil
}
