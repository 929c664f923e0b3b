package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// HoldingStore is the slice of the CRUD store the aggregator needs.
type HoldingStore interface {
	GetHoldings(ctx context.Context, portfolioID int) ([]model.Holding, error)
	UpdateHoldingPrice(ctx context.Context, holdingID int, currentPrice, currentValue decimal.Decimal) error
}

// PortfolioService combines stored holdings with fetched prices and risk
// metrics for the investor-facing views.
type PortfolioService struct {
	holdings HoldingStore
	cache    *FetchCache
	bulk     *BulkFetcher
	risk     *RiskEngine
	logger   *zap.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(
	holdings HoldingStore,
	cache *FetchCache,
	bulk *BulkFetcher,
	risk *RiskEngine,
	logger *zap.Logger,
) *PortfolioService {
	return &PortfolioService{
		holdings: holdings,
		cache:    cache,
		bulk:     bulk,
		risk:     risk,
		logger:   logger,
	}
}

// Performance computes per-holding gains over [start, end] and the portfolio
// totals. Holdings whose data is unavailable are skipped, not failed.
func (s *PortfolioService) Performance(ctx context.Context, portfolioID int, start, end time.Time) (*model.PortfolioPerformance, error) {
	holdings, err := s.holdings.GetHoldings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	details := make([]model.HoldingPerformance, 0, len(holdings))
	totalGain := 0.0
	sumReturns := 0.0

	for _, holding := range holdings {
		series, ok := s.cache.GetSeries(ctx, holding.Symbol, "2y")
		if !ok {
			s.logger.Warn("No data for holding, skipping",
				zap.String("symbol", holding.Symbol))
			continue
		}

		window := series.Window(start, end)
		if window.Len() == 0 {
			continue
		}

		initial := window.Points[0].Close
		final := window.Points[window.Len()-1].Close
		if initial == 0 {
			continue
		}

		gain := (final - initial) * float64(holding.Quantity)
		returnPct := 100 * (final - initial) / initial
		totalGain += gain
		sumReturns += returnPct
		details = append(details, model.HoldingPerformance{
			Symbol:    holding.Symbol,
			Gain:      gain,
			ReturnPct: returnPct,
		})
	}

	avgReturn := 0.0
	if len(details) > 0 {
		avgReturn = sumReturns / float64(len(details))
	}

	return &model.PortfolioPerformance{
		TotalGain:    totalGain,
		AvgReturnPct: avgReturn,
		Details:      details,
	}, nil
}

// MarketOverview returns a one-line snapshot per symbol: last close, change
// versus the previous close, and volume. Symbols without data are omitted.
// A full quarter is fetched so the series clears the minimum-rows bar; only
// the trailing bars are read.
func (s *PortfolioService) MarketOverview(ctx context.Context, symbols []string) []model.SymbolOverview {
	results := s.bulk.GetMany(ctx, symbols, "3mo")

	overview := make([]model.SymbolOverview, 0, len(symbols))
	for _, symbol := range symbols {
		outcome, ok := results[symbol]
		if !ok || outcome.Status != FetchOK || outcome.Series.Len() == 0 {
			continue
		}

		points := outcome.Series.Points
		last := points[len(points)-1]
		prev := last
		if len(points) > 1 {
			prev = points[len(points)-2]
		}

		changePct := 0.0
		if prev.Close != 0 {
			changePct = 100 * (last.Close - prev.Close) / prev.Close
		}

		overview = append(overview, model.SymbolOverview{
			Symbol:    symbol,
			LastClose: last.Close,
			ChangePct: changePct,
			Volume:    last.Volume,
		})
	}
	return overview
}

// TrendingStocks ranks symbols by recent return volatility, highest first.
func (s *PortfolioService) TrendingStocks(ctx context.Context, symbols []string, windowDays, topN int) []model.TrendingStock {
	results := s.bulk.GetMany(ctx, symbols, "3mo")

	var trending []model.TrendingStock
	for symbol, outcome := range results {
		if outcome.Status != FetchOK || outcome.Series.Len() < windowDays {
			continue
		}

		points := outcome.Series.Points
		recent := points[len(points)-windowDays:]
		returns := dailyReturns(model.PriceSeries{Points: recent}.Closes())
		if len(returns) < 2 {
			continue
		}

		last := points[len(points)-1]
		prev := last
		if len(points) > 1 {
			prev = points[len(points)-2]
		}
		changePct := 0.0
		if prev.Close != 0 {
			changePct = 100 * (last.Close - prev.Close) / prev.Close
		}

		trending = append(trending, model.TrendingStock{
			Symbol:      symbol,
			Volatility:  sampleStdDev(returns),
			PriceChgPct: changePct,
			LatestPrice: last.Close,
			Volume:      last.Volume,
		})
	}

	sort.Slice(trending, func(i, j int) bool {
		return trending[i].Volatility > trending[j].Volatility
	})
	if topN > 0 && len(trending) > topN {
		trending = trending[:topN]
	}
	return trending
}

// RefreshHoldingPrices updates each holding's current price and value from
// the latest quote. Symbols without a quote keep their previous price.
func (s *PortfolioService) RefreshHoldingPrices(ctx context.Context, portfolioID int) error {
	holdings, err := s.holdings.GetHoldings(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}

	for _, holding := range holdings {
		price, ok := s.cache.GetLatestPrice(ctx, holding.Symbol)
		if !ok {
			continue
		}

		currentPrice := decimal.NewFromFloat(price)
		currentValue := currentPrice.Mul(decimal.NewFromInt(int64(holding.Quantity)))
		if err := s.holdings.UpdateHoldingPrice(ctx, holding.ID, currentPrice, currentValue); err != nil {
			s.logger.Warn("Failed to update holding price",
				zap.Int("holding_id", holding.ID),
				zap.String("symbol", holding.Symbol),
				zap.Error(err))
		}
	}
	return nil
}
