package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowByName(t *testing.T, rows []ComparisonRow, name string) ComparisonRow {
	t.Helper()
	for _, row := range rows {
		if row.Name == name {
			return row
		}
	}
	t.Fatalf("row %q not found", name)
	return ComparisonRow{}
}

func emptyStdDev() StdDevResult {
	return StdDevResult{ScrollDelta: Counters{}, Absolute: Counters{}}
}

func TestCompareFixedOrder(t *testing.T) {
	rows := Compare(AggregateResult{}, AggregateResult{}, emptyStdDev(), emptyStdDev())

	require.Len(t, rows, 25)
	names := MetricNames()
	for i, row := range rows {
		assert.Equal(t, names[i], row.Name)
	}
	assert.Equal(t, "Layout Count (scroll)", rows[0].Name)
	assert.Equal(t, "Long Tasks", rows[len(rows)-1].Name)
}

func TestCompareLowerIsBetterImproved(t *testing.T) {
	full := AggregateResult{ScrollDelta: Counters{"LayoutCount": 100}}
	lite := AggregateResult{ScrollDelta: Counters{"LayoutCount": 80}}

	row := rowByName(t, Compare(full, lite, emptyStdDev(), emptyStdDev()), "Layout Count (scroll)")

	require.NotNil(t, row.ChangePct)
	assert.InDelta(t, 20.0, *row.ChangePct, 1e-9)
	require.NotNil(t, row.Improved)
	assert.True(t, *row.Improved)
	assert.Equal(t, "-20% ✅", row.Improvement)
	assert.Equal(t, "100", row.Full)
	assert.Equal(t, "80", row.Lite)
}

func TestCompareHigherIsBetterInvertsJudgment(t *testing.T) {
	full := AggregateResult{FPS: FrameStats{FPS: 60}}
	lite := AggregateResult{FPS: FrameStats{FPS: 55}}

	row := rowByName(t, Compare(full, lite, emptyStdDev(), emptyStdDev()), "FPS (scroll)")

	assert.False(t, row.LowerIsBetter)
	require.NotNil(t, row.Improved)
	assert.False(t, *row.Improved, "an FPS drop is a regression")
	assert.Equal(t, "-8.3% ⚠️", row.Improvement)
}

func TestCompareHighVariance(t *testing.T) {
	full := AggregateResult{ScrollDelta: Counters{"LayoutCount": 100}}
	lite := AggregateResult{ScrollDelta: Counters{"LayoutCount": 50}}
	fullSD := StdDevResult{ScrollDelta: Counters{"LayoutCount": 25}}

	row := rowByName(t, Compare(full, lite, fullSD, emptyStdDev()), "Layout Count (scroll)")

	assert.True(t, row.HighVariance)
	assert.Equal(t, "100±25", row.Full)
	assert.Equal(t, "-50% ✅ [CV]", row.Improvement)
}

func TestCompareMissingVital(t *testing.T) {
	full := AggregateResult{Vitals: Vitals{LCP: Float(1200)}}
	lite := AggregateResult{}

	rows := Compare(full, lite, emptyStdDev(), emptyStdDev())

	lcp := rowByName(t, rows, "LCP")
	assert.Equal(t, "1200ms", lcp.Full)
	assert.Equal(t, "N/A", lcp.Lite)
	assert.Equal(t, "N/A", lcp.Improvement)
	assert.Nil(t, lcp.ChangePct)
	assert.Nil(t, lcp.Improved)

	inp := rowByName(t, rows, "INP")
	assert.Equal(t, "N/A", inp.Full)
	assert.Equal(t, "N/A", inp.Lite)
}

func TestCompareScalesUnits(t *testing.T) {
	full := AggregateResult{
		ScrollDelta: Counters{"LayoutDuration": 0.5},
		Absolute:    Counters{"JSHeapUsedSize": 8 * 1024 * 1024},
	}
	lite := AggregateResult{
		ScrollDelta: Counters{"LayoutDuration": 0.25},
		Absolute:    Counters{"JSHeapUsedSize": 6 * 1024 * 1024},
	}
	fullSD := StdDevResult{ScrollDelta: Counters{"LayoutDuration": 0.01}, Absolute: Counters{}}

	rows := Compare(full, lite, fullSD, emptyStdDev())

	assert.Equal(t, "500±10ms", rowByName(t, rows, "Layout Duration").Full)
	assert.Equal(t, "250ms", rowByName(t, rows, "Layout Duration").Lite)
	assert.Equal(t, "8MB", rowByName(t, rows, "JS Heap Used").Full)
	assert.Equal(t, "-25% ✅", rowByName(t, rows, "JS Heap Used").Improvement)
}

func TestCompareZeroBaseline(t *testing.T) {
	full := AggregateResult{Layers: 0}
	lite := AggregateResult{Layers: 3}

	row := rowByName(t, Compare(full, lite, emptyStdDev(), emptyStdDev()), "Compositor Layers")

	assert.Equal(t, "0", row.Full)
	assert.Equal(t, "3", row.Lite)
	assert.Equal(t, "N/A", row.Improvement)
	assert.Nil(t, row.ChangePct)
}

func TestCompareIncreaseShowsPlus(t *testing.T) {
	full := AggregateResult{Absolute: Counters{"Nodes": 200}}
	lite := AggregateResult{Absolute: Counters{"Nodes": 250}}

	row := rowByName(t, Compare(full, lite, emptyStdDev(), emptyStdDev()), "DOM Nodes")

	assert.Equal(t, "+25% ⚠️", row.Improvement)
	assert.False(t, *row.Improved)
}
