package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/memory"
)

var tz = time.FixedZone("CEST", 2*3600)

type fakeEmbedder struct{ calls int }

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return 2 }
func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	f.calls++
	return []float64{1, 0}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestPipeline(store domain.RecordStore, emb domain.Embedder) *Pipeline {
	return NewPipeline(store, emb, tz, 2, quietLogger())
}

func writeLog(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDirSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "meter.jsonl", `{"timestamp":"2025-08-15T08:00:00+02:00","data":{"active_power_w":500,"total_power_import_kwh":100.0,"voltage_v":230}}
not json at all
{"data":{"active_power_w":1}}
{"timestamp":"2025-08-15T20:00:00+02:00","data":{"active_power_w":-300,"total_power_import_kwh":104.0}}
`)
	p := newTestPipeline(memory.NewStore(), &fakeEmbedder{})
	records, err := p.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, domain.LevelRaw, r.Level)
	assert.Equal(t, "2025-08-15", r.Date)
	assert.Equal(t, time.Date(2025, 8, 15, 8, 0, 0, 0, tz).Unix(), r.Timestamp)
	_, hasUnknown := r.Metrics["voltage_v"]
	assert.False(t, hasUnknown)
	assert.InDelta(t, 100.0, r.Metrics[domain.MetricImport], 1e-9)
}

func TestLoadDirRequiresLogFiles(t *testing.T) {
	p := newTestPipeline(memory.NewStore(), &fakeEmbedder{})
	_, err := p.LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestParseTimestampForms(t *testing.T) {
	p := newTestPipeline(memory.NewStore(), &fakeEmbedder{})
	want := time.Date(2025, 8, 15, 8, 0, 0, 0, tz).Unix()
	for _, s := range []string{
		"2025-08-15T08:00:00+02:00",
		"2025-08-15T08:00:00",
		"2025-08-15T08:00:00.123456",
		"2025-08-15 08:00:00",
	} {
		ts, err := p.parseTimestamp(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, ts.Unix(), s)
	}
	_, err := p.parseTimestamp("15 augustus")
	assert.Error(t, err)
}

func TestRawSummaryWording(t *testing.T) {
	local := time.Date(2025, 8, 15, 8, 30, 0, 0, tz)

	s := rawSummary(map[domain.Metric]float64{domain.MetricActivePower: 500}, local)
	assert.Equal(t, "Verbruik van 500 watt in de ochtend op 2025-08-15 om 08:30.", s)

	s = rawSummary(map[domain.Metric]float64{domain.MetricActivePower: -312.5}, local)
	assert.Equal(t, "Teruglevering van 312.500 watt in de ochtend op 2025-08-15 om 08:30.", s)
}

func TestBucketSummaryWording(t *testing.T) {
	s := bucketSummary(domain.LevelDay, "2025-08-15", map[domain.Metric]float64{
		domain.MetricImport: 4,
		domain.MetricGas:    1.25,
	})
	assert.Equal(t, "Op 2025-08-15 was de import 4 kWh en de gasafname 1.250 m3.", s)

	s = bucketSummary(domain.LevelWeek, "2025-W33", map[domain.Metric]float64{domain.MetricExport: 12})
	assert.Equal(t, "In week 2025-W33 was de export 12 kWh.", s)
}

func rawAt(ts time.Time, metrics map[domain.Metric]float64) domain.Record {
	return domain.Record{
		ID:        ts.Format(time.RFC3339),
		Timestamp: ts.Unix(),
		Level:     domain.LevelRaw,
		Date:      ts.In(tz).Format("2006-01-02"),
		Metrics:   metrics,
	}
}

func TestBuildBucketsDayDeltas(t *testing.T) {
	day1 := time.Date(2025, 8, 15, 0, 0, 0, 0, tz)
	day2 := day1.AddDate(0, 0, 1)
	raw := []domain.Record{
		rawAt(day1.Add(1*time.Hour), map[domain.Metric]float64{domain.MetricImport: 100.0, domain.MetricGas: 50.0}),
		rawAt(day1.Add(12*time.Hour), map[domain.Metric]float64{domain.MetricImport: 101.5, domain.MetricGas: 50.2}),
		rawAt(day1.Add(23*time.Hour), map[domain.Metric]float64{domain.MetricImport: 104.0, domain.MetricGas: 50.5}),
		rawAt(day2.Add(10*time.Hour), map[domain.Metric]float64{domain.MetricImport: 104.0}),
		rawAt(day2.Add(20*time.Hour), map[domain.Metric]float64{domain.MetricImport: 106.0}),
	}
	buckets := BuildBuckets(raw, tz)

	byID := make(map[string]domain.Record, len(buckets))
	for _, b := range buckets {
		byID[b.ID] = b
	}

	d1, ok := byID["day_2025-08-15"]
	require.True(t, ok)
	assert.Equal(t, domain.LevelDay, d1.Level)
	assert.Equal(t, 2025, d1.Year)
	assert.InDelta(t, 4.0, d1.Metrics[domain.MetricImport], 1e-9)
	assert.InDelta(t, 0.5, d1.Metrics[domain.MetricGas], 1e-9)

	d2 := byID["day_2025-08-16"]
	assert.InDelta(t, 2.0, d2.Metrics[domain.MetricImport], 1e-9)
	_, hasGas := d2.Metrics[domain.MetricGas]
	assert.False(t, hasGas)

	isoYear, isoWeek := day1.ISOWeek()
	weekID := fmt.Sprintf("week_%04d-W%02d", isoYear, isoWeek)
	wk, ok := byID[weekID]
	require.True(t, ok, "expected bucket %s", weekID)
	assert.Equal(t, domain.LevelWeek, wk.Level)
	assert.InDelta(t, 6.0, wk.Metrics[domain.MetricImport], 1e-9)
	assert.Equal(t, day1.Unix(), wk.Timestamp)

	mo, ok := byID["month_2025-08"]
	require.True(t, ok)
	assert.Equal(t, domain.LevelMonth, mo.Level)
	assert.Equal(t, 2025, mo.Year)
	assert.InDelta(t, 6.0, mo.Metrics[domain.MetricImport], 1e-9)
	assert.InDelta(t, 0.5, mo.Metrics[domain.MetricGas], 1e-9)
}

func TestBuildBucketsIgnoresNonRaw(t *testing.T) {
	buckets := BuildBuckets([]domain.Record{
		{ID: "day_2025-08-15", Level: domain.LevelDay, Metrics: map[domain.Metric]float64{domain.MetricImport: 9}},
	}, tz)
	assert.Empty(t, buckets)
}

func TestRunStoresRawAndBuckets(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "meter.jsonl", `{"timestamp":"2025-08-15T08:00:00+02:00","data":{"active_power_w":500,"total_power_import_kwh":100.0}}
{"timestamp":"2025-08-15T20:00:00+02:00","data":{"active_power_w":-300,"total_power_import_kwh":104.0}}
`)
	st := memory.NewStore()
	emb := &fakeEmbedder{}
	p := newTestPipeline(st, emb)

	n, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	// 2 raw readings plus the day, week and month buckets.
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, emb.calls)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	raws, err := st.FetchByFilter(context.Background(), domain.Filter{Level: domain.LevelRaw})
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.NotEmpty(t, raws[0].Summary)
}
