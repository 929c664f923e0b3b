package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio groups a user's holdings under a name.
type Portfolio struct {
	ID          int        `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Holding is one equity position inside a portfolio.
type Holding struct {
	ID            int             `json:"id" db:"id"`
	PortfolioID   int             `json:"portfolio_id" db:"portfolio_id"`
	Symbol        string          `json:"symbol" db:"symbol"`
	CompanyName   string          `json:"company_name" db:"company_name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	AvgPrice      decimal.Decimal `json:"avg_price" db:"avg_price"`
	CurrentPrice  decimal.Decimal `json:"current_price" db:"current_price"`
	InvestedValue decimal.Decimal `json:"invested_value" db:"invested_value"`
	CurrentValue  decimal.Decimal `json:"current_value" db:"current_value"`
	PurchaseDate  time.Time       `json:"purchase_date" db:"purchase_date"`
	Notes         string          `json:"notes" db:"notes"`
}

// PnL returns the unrealized profit or loss of the holding.
func (h Holding) PnL() decimal.Decimal {
	return h.CurrentValue.Sub(h.InvestedValue)
}

// PnLPercent returns the unrealized profit or loss as a percentage of the
// invested value, zero when nothing is invested.
func (h Holding) PnLPercent() decimal.Decimal {
	if h.InvestedValue.IsPositive() {
		return h.PnL().Div(h.InvestedValue).Mul(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// WatchlistEntry tracks a symbol without ownership.
type WatchlistEntry struct {
	ID          int                 `json:"id" db:"id"`
	Symbol      string              `json:"symbol" db:"symbol"`
	CompanyName string              `json:"company_name" db:"company_name"`
	TargetPrice decimal.NullDecimal `json:"target_price,omitempty" db:"target_price"`
	Notes       string              `json:"notes" db:"notes"`
	AddedAt     time.Time           `json:"added_at" db:"added_at"`
}

// SIPPlan is a saved projection setup the user can re-run later.
type SIPPlan struct {
	ID                int                 `json:"id" db:"id"`
	Name              string              `json:"name" db:"name"`
	MonthlyInvestment decimal.Decimal     `json:"monthly_investment" db:"monthly_investment"`
	Years             int                 `json:"years" db:"years"`
	AnnualReturn      decimal.Decimal     `json:"annual_return" db:"annual_return"`
	InflationRate     decimal.Decimal     `json:"inflation_rate" db:"inflation_rate"`
	StepUpRate        decimal.Decimal     `json:"step_up_rate" db:"step_up_rate"`
	TargetAmount      decimal.NullDecimal `json:"target_amount,omitempty" db:"target_amount"`
	Notes             string              `json:"notes" db:"notes"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
}

// Alert types supported by the alert sweep.
const (
	AlertTypeAbove     = "above"
	AlertTypeBelow     = "below"
	AlertTypeChangePct = "change_pct"
)

// StockAlert is a price alert evaluated against the latest fetched quote.
type StockAlert struct {
	ID          int             `json:"id" db:"id"`
	Symbol      string          `json:"symbol" db:"symbol"`
	AlertType   string          `json:"alert_type" db:"alert_type"`
	Threshold   decimal.Decimal `json:"threshold" db:"threshold"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	Triggered   bool            `json:"triggered" db:"triggered"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	TriggeredAt *time.Time      `json:"triggered_at,omitempty" db:"triggered_at"`
}

// HoldingPerformance is the per-symbol contribution to a portfolio's
// performance over a window.
type HoldingPerformance struct {
	Symbol    string  `json:"symbol"`
	Gain      float64 `json:"gain"`
	ReturnPct float64 `json:"return_pct"`
}

// PortfolioPerformance summarizes a portfolio over a date window.
type PortfolioPerformance struct {
	TotalGain    float64              `json:"total_gain"`
	AvgReturnPct float64              `json:"avg_return"`
	Details      []HoldingPerformance `json:"details"`
}

// SymbolOverview is a one-line market snapshot for a symbol.
type SymbolOverview struct {
	Symbol    string  `json:"symbol"`
	LastClose float64 `json:"last_close"`
	ChangePct float64 `json:"change_pct"`
	Volume    float64 `json:"volume"`
}

// TrendingStock ranks a symbol by recent volatility.
type TrendingStock struct {
	Symbol      string  `json:"symbol"`
	Volatility  float64 `json:"volatility"`
	PriceChgPct float64 `json:"price_chg_pct"`
	LatestPrice float64 `json:"latest_price"`
	Volume      float64 `json:"volume"`
}
