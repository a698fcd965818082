package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e60manuels/smartmeter-rag/internal/aggregate"
	"github.com/e60manuels/smartmeter-rag/internal/domain"
	"github.com/e60manuels/smartmeter-rag/internal/planner"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/memory"
)

var tz = time.FixedZone("CEST", 2*3600)

type fakeEmbedder struct{}

func (fakeEmbedder) Name() string   { return "fake" }
func (fakeEmbedder) Dimension() int { return 2 }
func (fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0}, nil
}

type fakeCompleter struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.NewStore()
	ts := func(h int) int64 { return time.Date(2025, 8, 15, h, 0, 0, 0, tz).Unix() }
	records := []domain.Record{
		{
			ID: "r1", Level: domain.LevelRaw, Timestamp: ts(8), Date: "2025-08-15",
			Metrics: map[domain.Metric]float64{domain.MetricActivePower: 500},
			Summary: "Verbruik van 500 watt in de ochtend op 2025-08-15 om 08:00.",
		},
		{
			ID: "r2", Level: domain.LevelRaw, Timestamp: ts(20), Date: "2025-08-15",
			Metrics: map[domain.Metric]float64{domain.MetricActivePower: -300},
			Summary: "Teruglevering van 300 watt in de avond op 2025-08-15 om 20:00.",
		},
		{
			ID: "r3", Level: domain.LevelRaw, Timestamp: time.Date(2025, 8, 16, 8, 0, 0, 0, tz).Unix(), Date: "2025-08-16",
			Metrics: map[domain.Metric]float64{domain.MetricActivePower: 100},
			Summary: "Verbruik van 100 watt in de ochtend op 2025-08-16 om 08:00.",
		},
		{
			ID: "week_2025-W33", Level: domain.LevelWeek, Year: 2025,
			Metrics: map[domain.Metric]float64{domain.MetricExport: 12},
			Summary: "In week 2025-W33 was de export 12 kWh.",
		},
		{
			ID: "week_2025-W34", Level: domain.LevelWeek, Year: 2025,
			Metrics: map[domain.Metric]float64{domain.MetricExport: 30},
			Summary: "In week 2025-W34 was de export 30 kWh.",
		},
	}
	vectors := make([][]float64, len(records))
	for i := range vectors {
		vectors[i] = []float64{1, 0}
	}
	require.NoError(t, st.Upsert(context.Background(), records, vectors))
	return st
}

func newComposer(t *testing.T, st domain.RecordStore, completer domain.Completer) *Composer {
	t.Helper()
	return NewComposer(planner.New(), aggregate.NewEngine(st, tz), st, fakeEmbedder{}, completer)
}

func TestAskRanking(t *testing.T) {
	c := newComposer(t, seededStore(t), nil)
	a, err := c.Ask(context.Background(), "hoogste week qua teruglevering in 2025", 5)
	require.NoError(t, err)
	assert.Equal(t, "ranking", a.Kind)
	assert.Contains(t, a.Text, "week_2025-W34")
	assert.NotContains(t, a.Text, "week_2025-W33")
	require.NotEmpty(t, a.Evidence)
	assert.Contains(t, a.Evidence[0], "order=desc")
}

func TestAskRankingOnPowerMetricHasNoBuckets(t *testing.T) {
	// Week buckets carry cumulative deltas only, so a power ranking must
	// say there is no data rather than rank zero values.
	c := newComposer(t, seededStore(t), nil)
	a, err := c.Ask(context.Background(), "hoogste week qua vermogen in 2025", 5)
	require.NoError(t, err)
	assert.Equal(t, "ranking", a.Kind)
	assert.Equal(t, domain.MetricActivePower, a.Plan.Metric)
	assert.Contains(t, a.Text, "No buckets match")
	assert.NotContains(t, a.Text, "0.00")
}

func TestAskWindowed(t *testing.T) {
	c := newComposer(t, seededStore(t), nil)
	a, err := c.Ask(context.Background(), "gemiddeld vermogen verbruik op 15-8-2025", 5)
	require.NoError(t, err)
	assert.Equal(t, "aggregation", a.Kind)
	assert.Contains(t, a.Text, "AVG of active_power_w")
	assert.Contains(t, a.Text, "500.00 W")
	require.NotEmpty(t, a.Evidence)
	assert.Contains(t, a.Evidence[0], "samples=1")
}

func TestAskWindowedMismatchIsAnAnswer(t *testing.T) {
	c := newComposer(t, seededStore(t), nil)
	a, err := c.Ask(context.Background(), "som verbruik op 15-8-2025", 5)
	require.NoError(t, err)
	assert.Equal(t, "aggregation", a.Kind)
	assert.Contains(t, a.Text, "SUM")
}

func TestAskSemanticFiltersByDate(t *testing.T) {
	completer := &fakeCompleter{reply: "Op 15 augustus was er verbruik en teruglevering."}
	c := newComposer(t, seededStore(t), completer)
	a, err := c.Ask(context.Background(), "wat gebeurde er op 15 augustus 2025", 10)
	require.NoError(t, err)
	assert.Equal(t, "semantic", a.Kind)
	assert.Equal(t, completer.reply, a.Text)

	for _, ev := range a.Evidence {
		assert.NotContains(t, ev, "2025-08-16")
	}
	assert.Contains(t, completer.prompt, "--- CONTEXT ---")
	assert.Contains(t, completer.prompt, "wat gebeurde er op 15 augustus 2025")
}

func TestAskSemanticWithoutCompleter(t *testing.T) {
	c := newComposer(t, seededStore(t), nil)
	a, err := c.Ask(context.Background(), "iets met teruglevering", 2)
	require.NoError(t, err)
	assert.Equal(t, "semantic", a.Kind)
	require.NotEmpty(t, a.Evidence)
	assert.Equal(t, strings.Join(a.Evidence, "\n"), a.Text)
}

func TestAskSemanticCompleterFailureDegrades(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("429 too many requests")}
	c := newComposer(t, seededStore(t), completer)
	a, err := c.Ask(context.Background(), "iets met teruglevering", 2)
	require.NoError(t, err)
	assert.Contains(t, a.Text, "answer synthesis unavailable")
	assert.Contains(t, a.Text, "429")
}

func TestAskSemanticNoMatches(t *testing.T) {
	c := newComposer(t, seededStore(t), nil)
	a, err := c.Ask(context.Background(), "iets met teruglevering op 1 januari 2020", 5)
	require.NoError(t, err)
	assert.Equal(t, "semantic", a.Kind)
	assert.Contains(t, a.Text, "could not find any relevant information")
}

func TestAskSemanticAllRecordsWithoutText(t *testing.T) {
	st := memory.NewStore()
	records := []domain.Record{
		{ID: "r1", Level: domain.LevelRaw, Timestamp: 100,
			Metrics: map[domain.Metric]float64{domain.MetricActivePower: 500}},
		{ID: "r2", Level: domain.LevelRaw, Timestamp: 200,
			Metrics: map[domain.Metric]float64{domain.MetricActivePower: -300}},
	}
	require.NoError(t, st.Upsert(context.Background(), records, [][]float64{{1, 0}, {1, 0}}))

	completer := &fakeCompleter{reply: "unused"}
	c := newComposer(t, st, completer)
	a, err := c.Ask(context.Background(), "iets met teruglevering", 5)
	require.NoError(t, err)
	assert.Equal(t, "semantic", a.Kind)
	assert.Contains(t, a.Text, "could not find any relevant information")
	assert.Empty(t, a.Evidence)
	assert.Empty(t, completer.prompt)
}

func TestAskSemanticWithoutEmbedder(t *testing.T) {
	st := seededStore(t)
	c := NewComposer(planner.New(), aggregate.NewEngine(st, tz), st, nil, nil)
	a, err := c.Ask(context.Background(), "iets met teruglevering", 5)
	require.NoError(t, err)
	assert.Equal(t, "semantic", a.Kind)
	assert.Contains(t, a.Text, "no embedding API key")
}

func TestAskUnrecognized(t *testing.T) {
	c := newComposer(t, seededStore(t), nil)
	a, err := c.Ask(context.Background(), "hallo, hoe is het weer vandaag?", 5)
	require.NoError(t, err)
	assert.Equal(t, "unrecognized", a.Kind)
	assert.Contains(t, a.Text, "Ik begrijp deze vraag nog niet")
}

type downStore struct{}

func (downStore) Upsert(context.Context, []domain.Record, [][]float64) error { return nil }
func (downStore) FetchByFilter(context.Context, domain.Filter) ([]domain.Record, error) {
	return nil, fmt.Errorf("dial tcp: connection refused")
}
func (downStore) Search(context.Context, []float64, int, *domain.Filter) ([]domain.ScoredRecord, error) {
	return nil, fmt.Errorf("dial tcp: connection refused")
}
func (downStore) Count(context.Context) (int, error) {
	return 0, fmt.Errorf("dial tcp: connection refused")
}

func TestAskStoreDownIsAnError(t *testing.T) {
	c := newComposer(t, downStore{}, nil)

	_, err := c.Ask(context.Background(), "gemiddeld vermogen op 15-8-2025", 5)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	_, err = c.Ask(context.Background(), "iets met teruglevering", 5)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}
