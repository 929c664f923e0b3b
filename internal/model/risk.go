package model

// RiskMetrics holds point-in-time risk measures computed from one price
// series. Volatility and drawdown are pointers because they are legitimately
// undefined for short series; Err is set instead of failing when the input
// data is missing or malformed.
type RiskMetrics struct {
	AnnualVolatilityPct *float64 `json:"annual_volatility_pct,omitempty"`
	ValueAtRisk95       float64  `json:"value_at_risk_95"`
	ExpectedShortfall95 float64  `json:"expected_shortfall_95"`
	MaxDrawdownPct      *float64 `json:"max_drawdown_pct,omitempty"`
	Err                 string   `json:"error,omitempty"`
}

// PortfolioRiskMetrics aggregates risk across several symbols. All fields are
// unset when none of the supplied series produced any returns.
type PortfolioRiskMetrics struct {
	AnnualVolatilityPct *float64 `json:"portfolio_annual_volatility_pct,omitempty"`
	ValueAtRisk95       *float64 `json:"portfolio_var_95,omitempty"`
	ExpectedShortfall95 *float64 `json:"portfolio_es_95,omitempty"`
}

// TradeSetup describes a planned entry used for risk:reward evaluation.
type TradeSetup struct {
	EntryPrice  float64 `json:"entry_price" binding:"required,gt=0"`
	StopPrice   float64 `json:"stop_price" binding:"required,gt=0"`
	TargetPrice float64 `json:"target_price" binding:"required,gt=0"`
	IsLong      *bool   `json:"is_long" binding:"required"`
}
