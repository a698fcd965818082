package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

func TestDateFormsAgree(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"textual", "wat was het verbruik op 15 augustus 2025"},
		{"dmy_dash", "wat was het verbruik op 15-8-2025"},
		{"dmy_slash", "wat was het verbruik op 15/08/2025"},
		{"ymd_dash", "wat was het verbruik op 2025-08-15"},
		{"ymd_slash", "wat was het verbruik op 2025/8/15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Extract(tc.text)
			assert.Equal(t, "2025-08-15", p.StartDate)
			assert.Equal(t, "2025-08-15", p.EndDate)
		})
	}
}

func TestAllMonthNames(t *testing.T) {
	months := []string{"januari", "februari", "maart", "april", "mei", "juni",
		"juli", "augustus", "september", "oktober", "november", "december"}
	for i, name := range months {
		p := Extract(fmt.Sprintf("verbruik op 3 %s 2024", name))
		require.Equal(t, fmt.Sprintf("2024-%02d-03", i+1), p.StartDate, name)
	}
}

func TestDateRange(t *testing.T) {
	p := Extract("som van het vermogen van 1-8-2025 tot 15-8-2025")
	assert.Equal(t, "2025-08-01", p.StartDate)
	assert.Equal(t, "2025-08-15", p.EndDate)
}

func TestFirstPatternClassWins(t *testing.T) {
	// A textual date outranks a numeric one later in the sentence.
	p := Extract("van 1 augustus 2025 maar niet 2025-09-30")
	assert.Equal(t, "2025-08-01", p.StartDate)
	assert.Equal(t, "2025-08-01", p.EndDate)
}

func TestInvalidDateOmitted(t *testing.T) {
	p := Extract("verbruik op 31 april 2025")
	assert.Empty(t, p.StartDate)

	p = Extract("verbruik op 31-13-2025")
	assert.Empty(t, p.StartDate)
}

func TestNoDateMeansNoConstraint(t *testing.T) {
	p := Extract("hoeveel teruglevering was er")
	assert.Empty(t, p.StartDate)
	assert.Empty(t, p.EndDate)
}

func TestLevelTokens(t *testing.T) {
	cases := []struct {
		text string
		want domain.Level
	}{
		{"hoogste dag qua verbruik", domain.LevelDay},
		{"top 3 dagen met meeste verbruik", domain.LevelDay},
		{"hoogste week qua teruglevering", domain.LevelWeek},
		{"hoogste weken qua teruglevering", domain.LevelWeek},
		{"laagste maand qua import", domain.LevelMonth},
		{"laagste maanden qua import", domain.LevelMonth},
	}
	for _, tc := range cases {
		p := Extract(tc.text)
		require.True(t, p.HasLevel, tc.text)
		assert.Equal(t, tc.want, p.Level, tc.text)
	}
}

func TestQualifiers(t *testing.T) {
	p := Extract("hoogste week qua export")
	require.True(t, p.HasQualifier)
	assert.Equal(t, domain.OrderDesc, p.Order)

	p = Extract("minste gas per maand")
	require.True(t, p.HasQualifier)
	assert.Equal(t, domain.OrderAsc, p.Order)
}

func TestLimitAfterQualifier(t *testing.T) {
	p := Extract("top 3 weken qua export")
	assert.Equal(t, 3, p.Limit)

	p = Extract("hoogste week qua export")
	assert.Equal(t, 1, p.Limit)
}

func TestMetricKeywords(t *testing.T) {
	cases := []struct {
		text string
		want domain.Metric
	}{
		{"hoogste week qua teruglevering", domain.MetricExport},
		{"hoogste week qua export", domain.MetricExport},
		{"hoogste week qua verbruik", domain.MetricImport},
		{"hoogste week qua import", domain.MetricImport},
		{"hoogste maand qua gas", domain.MetricGas},
		{"gemiddeld vermogen op 15-8-2025", domain.MetricActivePower},
	}
	for _, tc := range cases {
		p := Extract(tc.text)
		assert.Equal(t, tc.want, p.Metric, tc.text)
	}
}

func TestPowerQuestionsTurnPolarityWordsIntoValueType(t *testing.T) {
	p := Extract("gemiddeld vermogen verbruik op 15-8-2025")
	assert.Equal(t, domain.MetricActivePower, p.Metric)
	assert.Equal(t, domain.ValueConsumption, p.ValueType)

	p = Extract("maximum vermogen teruglevering op 15-8-2025")
	assert.Equal(t, domain.MetricActivePower, p.Metric)
	assert.Equal(t, domain.ValueProduction, p.ValueType)
	assert.Equal(t, domain.AggMax, p.Aggregation)
}

func TestAggregationKeywords(t *testing.T) {
	cases := []struct {
		text string
		want domain.Aggregation
	}{
		{"som van het vermogen op 15-8-2025", domain.AggSum},
		{"gemiddelde import op 15-8-2025", domain.AggAvg},
		{"piek vermogen op 15-8-2025", domain.AggMax},
		{"minimum vermogen op 15-8-2025", domain.AggMin},
		{"delta import op 15-8-2025", domain.AggDelta},
		{"verschil in import op 15-8-2025", domain.AggDelta},
	}
	for _, tc := range cases {
		p := Extract(tc.text)
		assert.Equal(t, tc.want, p.Aggregation, tc.text)
	}
}

func TestTimeOfDayTokens(t *testing.T) {
	p := Extract("gemiddeld vermogen in de ochtend op 15-8-2025")
	assert.Equal(t, domain.TimeMorning, p.TimeOfDay)

	p = Extract("gemiddeld vermogen in de nacht op 15-8-2025")
	assert.Equal(t, domain.TimeNight, p.TimeOfDay)
}

func TestYear(t *testing.T) {
	p := Extract("hoogste week qua export in 2025")
	assert.Equal(t, 2025, p.Year)

	p = Extract("hoogste week qua export")
	assert.Zero(t, p.Year)
}

func TestNothingRecognized(t *testing.T) {
	p := Extract("hoe gaat het met je?")
	assert.True(t, p.Empty())
}
