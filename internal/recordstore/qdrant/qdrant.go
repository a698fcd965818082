// Package qdrant is a minimal REST client to Qdrant implementing the
// record store contract. It assumes cosine distance and creates the
// collection if missing.
package qdrant

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Ensure creates the collection if it does not exist yet. Qdrant returns
// 200 for an existing collection with the same schema.
func (s *Storage) Ensure(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func (s *Storage) Upsert(ctx context.Context, records []domain.Record, vectors [][]float64) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":      pointID(r.ID),
			"vector":  vectors[i],
			"payload": payloadFor(r),
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// FetchByFilter pages through the collection with the scroll API until the
// cursor is exhausted.
func (s *Storage) FetchByFilter(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	var out []domain.Record
	var offset any
	for {
		req := map[string]any{
			"limit":        512,
			"with_payload": true,
		}
		if qf := qdrantFilter(&f); qf != nil {
			req["filter"] = qf
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			out = append(out, recordFrom(p.Payload))
		}
		if resp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int, f *domain.Filter) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if qf := qdrantFilter(f); qf != nil {
		req["filter"] = qf
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.ScoredRecord, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.ScoredRecord{Record: recordFrom(r.Payload), Score: r.Score})
	}
	return results, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	req := map[string]any{"exact": true}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection), req, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// qdrantFilter renders a domain filter as a Qdrant must-clause conjunction.
// Returns nil when no constraint is set.
func qdrantFilter(f *domain.Filter) map[string]any {
	if f == nil {
		return nil
	}
	var must []map[string]any
	if f.Level != "" {
		must = append(must, map[string]any{"key": "level", "match": map[string]any{"value": string(f.Level)}})
	}
	if f.Year != 0 {
		must = append(must, map[string]any{"key": "year", "match": map[string]any{"value": f.Year}})
	}
	if f.Date != "" {
		must = append(must, map[string]any{"key": "date", "match": map[string]any{"value": f.Date}})
	}
	if f.TsTo != 0 {
		must = append(must, map[string]any{"key": "timestamp", "range": map[string]any{"gte": f.TsFrom, "lte": f.TsTo}})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func payloadFor(r domain.Record) map[string]any {
	payload := map[string]any{
		"id":        r.ID,
		"level":     string(r.Level),
		"timestamp": r.Timestamp,
	}
	if r.Year != 0 {
		payload["year"] = r.Year
	}
	if r.Date != "" {
		payload["date"] = r.Date
	}
	if r.Summary != "" {
		payload["text"] = r.Summary
	}
	for m, v := range r.Metrics {
		payload[string(m)] = v
	}
	return payload
}

func recordFrom(payload map[string]any) domain.Record {
	r := domain.Record{Metrics: make(map[domain.Metric]float64)}
	if v, ok := payload["id"].(string); ok {
		r.ID = v
	}
	if v, ok := payload["level"].(string); ok {
		r.Level = domain.Level(v)
	}
	if v, ok := payload["timestamp"].(float64); ok {
		r.Timestamp = int64(v)
	}
	if v, ok := payload["year"].(float64); ok {
		r.Year = int(v)
	}
	if v, ok := payload["date"].(string); ok {
		r.Date = v
	}
	if v, ok := payload["text"].(string); ok {
		r.Summary = v
	}
	for _, m := range domain.KnownMetrics {
		if v, ok := payload[string(m)].(float64); ok {
			r.Metrics[m] = v
		}
	}
	return r
}

// pointID derives a stable UUID-shaped point id from the record id, since
// Qdrant only accepts integers or UUIDs. The real id stays in the payload.
func pointID(recordID string) string {
	sum := sha1.Sum([]byte(recordID))
	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}

func (s *Storage) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Storage) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
