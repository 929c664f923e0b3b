package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

var sampleReturns = []float64{
	-0.06, -0.04, -0.03, -0.02, -0.01, 0.0, 0.01, 0.02, 0.03, 0.04,
	0.05, 0.06, -0.05, 0.015, -0.025, 0.035, 0.045, -0.015, 0.025, 0.055,
}

func TestValueAtRisk(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	v := engine.ValueAtRisk(sampleReturns, 0.95)
	assert.InDelta(t, 0.0505, v, 1e-9)
}

func TestValueAtRiskEmpty(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	assert.Equal(t, 0.0, engine.ValueAtRisk(nil, 0.95))
}

func TestExpectedShortfallDominatesVaR(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	v := engine.ValueAtRisk(sampleReturns, 0.95)
	es := engine.ExpectedShortfall(sampleReturns, 0.95)
	assert.InDelta(t, 0.06, es, 1e-9)
	assert.GreaterOrEqual(t, es, v)
}

func TestExpectedShortfallEmptyTail(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	// All returns positive: nothing falls below the VaR threshold.
	assert.Equal(t, 0.0, engine.ExpectedShortfall([]float64{0.01, 0.02, 0.03}, 0.95))
}

func TestMaxDrawdown(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	dd := engine.MaxDrawdown([]float64{1, 1.1, 1.2, 0.9, 1.0, 1.3})
	assert.InDelta(t, -25.0, dd, 1e-9)
}

func TestMaxDrawdownMonotonicCurve(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	assert.Equal(t, 0.0, engine.MaxDrawdown([]float64{1, 1.1, 1.2, 1.3}))
	assert.Equal(t, 0.0, engine.MaxDrawdown(nil))
}

func TestMetricsEmptySeries(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	metrics := engine.Metrics(model.PriceSeries{Symbol: "X"})
	assert.Equal(t, "invalid or missing price data", metrics.Err)
	assert.Nil(t, metrics.AnnualVolatilityPct)
}

func TestMetricsShortSeriesOmitsDrawdown(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	// 10 rows is below the 20-row holding period.
	series := model.PriceSeries{Points: makePoints(10)}
	metrics := engine.Metrics(series)
	assert.Empty(t, metrics.Err)
	assert.NotNil(t, metrics.AnnualVolatilityPct)
	assert.Nil(t, metrics.MaxDrawdownPct)
}

func TestMetricsLongSeries(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	series := model.PriceSeries{Points: makePoints(60)}
	metrics := engine.Metrics(series)
	assert.Empty(t, metrics.Err)
	require.NotNil(t, metrics.AnnualVolatilityPct)
	assert.Greater(t, *metrics.AnnualVolatilityPct, 0.0)
	require.NotNil(t, metrics.MaxDrawdownPct)
	// Prices rise monotonically, so the drawdown is exactly zero.
	assert.Equal(t, 0.0, *metrics.MaxDrawdownPct)
}

func TestDailyReturnsSkipsMissingCloses(t *testing.T) {
	closes := []float64{100, math.NaN(), 110, 121}
	returns := dailyReturns(closes)
	require.Len(t, returns, 1)
	assert.InDelta(t, 0.1, returns[0], 1e-9)
}

func TestPositionSize(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	// Risking 1% of 100000 with a 5% stop: 1000 / 0.05 = 20000 worth.
	assert.Equal(t, 20000, engine.PositionSize(100000, 1, 5))
	// Fractional results truncate toward zero.
	assert.Equal(t, 6666, engine.PositionSize(100000, 1, 15))
	assert.Equal(t, 0, engine.PositionSize(100000, 1, 0))
}

func TestStopLossPrice(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	assert.InDelta(t, 95.0, engine.StopLossPrice(100, 5, true), 1e-9)
	assert.InDelta(t, 105.0, engine.StopLossPrice(100, 5, false), 1e-9)
}

func TestRiskRewardRatio(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	assert.InDelta(t, 2.0, engine.RiskRewardRatio(100, 95, 110, true), 1e-9)
	assert.InDelta(t, 2.0, engine.RiskRewardRatio(100, 105, 90, false), 1e-9)

	// Zero risk with upside is unbounded; zero risk without upside is 0.
	assert.True(t, math.IsInf(engine.RiskRewardRatio(100, 100, 110, true), 1))
	assert.Equal(t, 0.0, engine.RiskRewardRatio(100, 100, 90, true))
}

func TestPortfolioMetrics(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	seriesBySymbol := map[string]model.PriceSeries{
		"A.NS": {Points: makePoints(30)},
		"B.NS": {Points: makePoints(30)},
	}
	metrics := engine.PortfolioMetrics(seriesBySymbol)
	require.NotNil(t, metrics.AnnualVolatilityPct)
	require.NotNil(t, metrics.ValueAtRisk95)
	require.NotNil(t, metrics.ExpectedShortfall95)
}

func TestPortfolioMetricsEmpty(t *testing.T) {
	engine := NewRiskEngine(zap.NewNop())

	metrics := engine.PortfolioMetrics(map[string]model.PriceSeries{})
	assert.Nil(t, metrics.AnnualVolatilityPct)
	assert.Nil(t, metrics.ValueAtRisk95)
}

func TestSampleStdDev(t *testing.T) {
	assert.InDelta(t, 0.02217355782608345, sampleStdDev([]float64{0.01, -0.02, 0.03, -0.01}), 1e-12)
	assert.True(t, math.IsNaN(sampleStdDev([]float64{0.01})))
}

func TestPercentileInterpolates(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, percentile(data, 50), 1e-9)
	assert.InDelta(t, 1.0, percentile(data, 0), 1e-9)
	assert.InDelta(t, 4.0, percentile(data, 100), 1e-9)
}

func TestWindowInclusive(t *testing.T) {
	series := model.PriceSeries{Points: makePoints(10)}
	start := series.Points[2].Time
	end := series.Points[5].Time
	window := series.Window(start, end)
	assert.Equal(t, 4, window.Len())
	assert.True(t, window.Points[0].Time.Equal(start))
	assert.True(t, window.Points[3].Time.Equal(end))
}
