package service

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// tradingDaysPerYear is the annualization factor for daily volatility.
const tradingDaysPerYear = 252

// defaultHoldingPeriod is the minimum number of rows beyond which a drawdown
// is computed.
const defaultHoldingPeriod = 20

// RiskEngine computes point-in-time risk metrics from price series. It is
// stateless: every call works on immutable inputs and nothing is cached.
// Malformed input never produces an error, only a metrics object carrying an
// error marker.
type RiskEngine struct {
	holdingPeriod int
	logger        *zap.Logger
}

// NewRiskEngine creates a new risk engine
func NewRiskEngine(logger *zap.Logger) *RiskEngine {
	return &RiskEngine{
		holdingPeriod: defaultHoldingPeriod,
		logger:        logger,
	}
}

// dailyReturns computes close-to-close simple returns. The first return is
// undefined and dropped, as are pairs involving a missing close.
func dailyReturns(closes []float64) []float64 {
	var returns []float64
	for i := 1; i < len(closes); i++ {
		if math.IsNaN(closes[i]) || math.IsNaN(closes[i-1]) || closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// percentile computes the p-th percentile (0-100) with linear interpolation
// between closest ranks.
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// sampleStdDev is the n-1 standard deviation.
func sampleStdDev(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	m := mean(data)
	sum := 0.0
	for _, v := range data {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(data)-1))
}

// ValueAtRisk estimates historical VaR at the given confidence level from the
// empirical return distribution. A positive result denotes a loss magnitude.
func (e *RiskEngine) ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return -percentile(returns, 100*(1-confidence))
}

// ExpectedShortfall is the average loss magnitude in the tail beyond the VaR
// threshold. When no return falls below the threshold the result is 0 by
// convention, not undefined.
func (e *RiskEngine) ExpectedShortfall(returns []float64, confidence float64) float64 {
	v := e.ValueAtRisk(returns, confidence)
	var tail []float64
	for _, r := range returns {
		if r < -v {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return 0
	}
	es := mean(tail)
	if es < 0 {
		return -es
	}
	return 0
}

// MaxDrawdown returns the worst peak-to-trough decline of an equity curve as
// a non-positive percentage. A curve that never falls below its running peak
// yields exactly 0.
func (e *RiskEngine) MaxDrawdown(equityCurve []float64) float64 {
	if len(equityCurve) == 0 {
		return 0
	}
	runningMax := equityCurve[0]
	worst := 0.0
	for _, v := range equityCurve {
		if v > runningMax {
			runningMax = v
		}
		dd := (v - runningMax) / runningMax
		if dd < worst {
			worst = dd
		}
	}
	return worst * 100
}

// Metrics computes the standard risk metrics for one price series. Volatility
// requires at least two returns; drawdown requires more rows than the holding
// period. Either is omitted rather than guessed.
func (e *RiskEngine) Metrics(series model.PriceSeries) model.RiskMetrics {
	if series.Len() == 0 {
		return model.RiskMetrics{Err: "invalid or missing price data"}
	}

	returns := dailyReturns(series.Closes())

	var metrics model.RiskMetrics
	if len(returns) >= 2 {
		vol := sampleStdDev(returns) * math.Sqrt(tradingDaysPerYear) * 100
		metrics.AnnualVolatilityPct = &vol
	}
	metrics.ValueAtRisk95 = e.ValueAtRisk(returns, 0.95)
	metrics.ExpectedShortfall95 = e.ExpectedShortfall(returns, 0.95)

	if series.Len() > e.holdingPeriod {
		equity := make([]float64, len(returns))
		acc := 1.0
		for i, r := range returns {
			acc *= 1 + r
			equity[i] = acc
		}
		dd := e.MaxDrawdown(equity)
		metrics.MaxDrawdownPct = &dd
	}

	return metrics
}

// PositionSize returns the number of shares to buy so that hitting the stop
// loss costs at most riskPct of capital. A zero stop loss yields 0 instead of
// dividing by zero.
func (e *RiskEngine) PositionSize(capital, riskPct, stopLossPct float64) int {
	if stopLossPct == 0 {
		return 0
	}
	maxRisk := capital * (riskPct / 100)
	return int(maxRisk / (stopLossPct / 100))
}

// StopLossPrice computes the stop price for an entry: below entry for a long
// position, above for a short.
func (e *RiskEngine) StopLossPrice(entryPrice, stopLossPct float64, isLong bool) float64 {
	if isLong {
		return entryPrice * (1 - stopLossPct/100)
	}
	return entryPrice * (1 + stopLossPct/100)
}

// RiskRewardRatio evaluates a trade setup. A zero-risk setup returns +Inf
// when there is upside and 0 otherwise; this is a convention, not an error.
func (e *RiskEngine) RiskRewardRatio(entryPrice, stopPrice, targetPrice float64, isLong bool) float64 {
	var risk, reward float64
	if isLong {
		risk = entryPrice - stopPrice
		reward = targetPrice - entryPrice
	} else {
		risk = stopPrice - entryPrice
		reward = entryPrice - targetPrice
	}
	if risk == 0 {
		if reward > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return reward / risk
}

// PortfolioMetrics aggregates risk across symbols by concatenating their
// return series. The series are not reconciled to a common date index; the
// misalignment is accepted as approximation noise.
func (e *RiskEngine) PortfolioMetrics(seriesBySymbol map[string]model.PriceSeries) model.PortfolioRiskMetrics {
	var combined []float64
	for _, series := range seriesBySymbol {
		if series.Len() == 0 {
			continue
		}
		combined = append(combined, dailyReturns(series.Closes())...)
	}

	var metrics model.PortfolioRiskMetrics
	if len(combined) == 0 {
		return metrics
	}

	if len(combined) >= 2 {
		vol := sampleStdDev(combined) * math.Sqrt(tradingDaysPerYear) * 100
		metrics.AnnualVolatilityPct = &vol
	}
	v := e.ValueAtRisk(combined, 0.95)
	es := e.ExpectedShortfall(combined, 0.95)
	metrics.ValueAtRisk95 = &v
	metrics.ExpectedShortfall95 = &es

	return metrics
}
