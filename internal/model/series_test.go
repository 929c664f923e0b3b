package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(day int, close float64) PricePoint {
	return PricePoint{
		Time:   time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: 1000,
	}
}

func nanBar(day int) PricePoint {
	nan := math.NaN()
	return PricePoint{
		Time:   time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Open:   nan,
		High:   nan,
		Low:    nan,
		Close:  nan,
		Volume: nan,
	}
}

func TestForwardFillDropsAllNaNBars(t *testing.T) {
	series := PriceSeries{Points: []PricePoint{bar(1, 100), nanBar(2), bar(3, 102)}}

	filled := series.ForwardFill()
	require.Equal(t, 2, filled.Len())
	assert.Equal(t, 100.0, filled.Points[0].Close)
	assert.Equal(t, 102.0, filled.Points[1].Close)
}

func TestForwardFillFillsInteriorGaps(t *testing.T) {
	gap := bar(2, 0)
	gap.Close = math.NaN()
	series := PriceSeries{Points: []PricePoint{bar(1, 100), gap, bar(3, 102)}}

	filled := series.ForwardFill()
	require.Equal(t, 3, filled.Len())
	assert.Equal(t, 100.0, filled.Points[1].Close)
}

func TestForwardFillDropsIncompletePrefix(t *testing.T) {
	lead := bar(1, 0)
	lead.Close = math.NaN()
	series := PriceSeries{Points: []PricePoint{lead, bar(2, 101), bar(3, 102)}}

	// The leading bar has no predecessor to fill from, so it is dropped.
	filled := series.ForwardFill()
	require.Equal(t, 2, filled.Len())
	assert.Equal(t, 101.0, filled.Points[0].Close)
	assert.Equal(t, 102.0, filled.Points[1].Close)
}

func TestForwardFillResultIsJSONEncodable(t *testing.T) {
	lead := bar(1, 0)
	lead.Open = math.NaN()
	gap := bar(3, 0)
	gap.Close = math.NaN()
	series := PriceSeries{Points: []PricePoint{lead, nanBar(2), bar(2, 101), gap, bar(4, 103)}}

	filled := series.ForwardFill()
	for _, p := range filled.Points {
		assert.False(t, p.anyNaN(), "bar at %v still has a missing field", p.Time)
	}

	_, err := json.Marshal(filled)
	require.NoError(t, err)
}

func TestForwardFillAllIncomplete(t *testing.T) {
	lead := bar(1, 0)
	lead.Close = math.NaN()
	next := bar(2, 0)
	next.Close = math.NaN()
	series := PriceSeries{Points: []PricePoint{lead, next}}

	// A missing field that never resolves propagates through the fill, so the
	// whole series is trimmed away rather than served with NaN.
	assert.Equal(t, 0, series.ForwardFill().Len())
}

func TestCloneIsIndependent(t *testing.T) {
	series := PriceSeries{Symbol: "A", Points: []PricePoint{bar(1, 100)}}
	clone := series.Clone()
	clone.Points[0].Close = -1

	assert.Equal(t, 100.0, series.Points[0].Close)
	assert.Equal(t, "A", clone.Symbol)
}

func TestWindowBounds(t *testing.T) {
	series := PriceSeries{Points: []PricePoint{bar(1, 100), bar(2, 101), bar(3, 102), bar(4, 103)}}

	window := series.Window(
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	)
	require.Equal(t, 2, window.Len())
	assert.Equal(t, 101.0, window.Points[0].Close)
	assert.Equal(t, 102.0, window.Points[1].Close)
}
