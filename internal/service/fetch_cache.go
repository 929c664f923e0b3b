package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/config"
	"github.com/yourorg/portfolio-insights/internal/model"
)

// MarketDataProvider is the upstream price source consumed by the fetch
// cache. Implementations may time out, return empty data or fail outright.
type MarketDataProvider interface {
	FetchHistory(ctx context.Context, symbol, period string) ([]model.PricePoint, error)
	FetchQuote(ctx context.Context, symbol string) (float64, error)
}

type requestKind string

const (
	kindHistory requestKind = "historical"
	kindQuote   requestKind = "realtime"
)

// cacheEntry stores a fetched value, or its confirmed absence, with the time
// it was fetched. series and price are nil for an absent entry.
type cacheEntry struct {
	fetchedAt time.Time
	series    *model.PriceSeries
	price     *float64
}

// failureState records a failed symbol and when its cooldown started.
type failureState struct {
	failedAt time.Time
}

// FetchCache wraps the upstream provider with time-bounded memoization and a
// per-symbol failure cooldown so an unreliable source is never hammered.
// A provider failure never escapes as an error: it becomes an absent result.
type FetchCache struct {
	provider MarketDataProvider
	cfg      config.CacheConfig
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	entries  map[string]cacheEntry
	failures map[string]failureState
}

// NewFetchCache creates a fetch cache around the given provider.
func NewFetchCache(provider MarketDataProvider, cfg config.CacheConfig, logger *zap.Logger) *FetchCache {
	return &FetchCache{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
		failures: make(map[string]failureState),
	}
}

func cacheKey(symbol, period string, kind requestKind) string {
	return fmt.Sprintf("%s_%s_%s", symbol, period, kind)
}

// GetSeries returns the historical price series for a symbol, or false when
// the data is unavailable. Cached results are served within the history TTL;
// a recently failed symbol is not retried until its cooldown elapses.
func (f *FetchCache) GetSeries(ctx context.Context, symbol, period string) (model.PriceSeries, bool) {
	key := cacheKey(symbol, period, kindHistory)

	f.mu.Lock()
	if entry, ok := f.lookupLocked(key, f.cfg.HistoryTTL); ok {
		f.mu.Unlock()
		if entry.series == nil {
			return model.PriceSeries{}, false
		}
		return entry.series.Clone(), true
	}
	if !f.shouldRetryLocked(symbol) {
		f.mu.Unlock()
		f.logger.Debug("Skipping symbol in failure cooldown", zap.String("symbol", symbol))
		return model.PriceSeries{}, false
	}
	f.mu.Unlock()

	f.logger.Info("Fetching historical data",
		zap.String("symbol", symbol),
		zap.String("period", period))

	points, err := f.provider.FetchHistory(ctx, symbol, period)
	if err != nil {
		f.logger.Error("Historical fetch failed",
			zap.String("symbol", symbol),
			zap.Error(err))
		f.recordFailure(symbol, key)
		return model.PriceSeries{}, false
	}

	series := model.PriceSeries{Symbol: symbol, Points: points}.ForwardFill()
	if err := f.validateSeries(series); err != nil {
		f.logger.Warn("Discarding invalid series",
			zap.String("symbol", symbol),
			zap.Error(err))
		f.recordFailure(symbol, key)
		return model.PriceSeries{}, false
	}

	stored := series.Clone()
	f.mu.Lock()
	f.entries[key] = cacheEntry{fetchedAt: f.now(), series: &stored}
	delete(f.failures, symbol)
	f.mu.Unlock()

	return series, true
}

// GetLatestPrice returns the most recent market price for a symbol, or false
// when unavailable. Quotes expire faster than historical series.
func (f *FetchCache) GetLatestPrice(ctx context.Context, symbol string) (float64, bool) {
	key := cacheKey(symbol, "", kindQuote)

	f.mu.Lock()
	if entry, ok := f.lookupLocked(key, f.cfg.QuoteTTL); ok {
		f.mu.Unlock()
		if entry.price == nil {
			return 0, false
		}
		return *entry.price, true
	}
	if !f.shouldRetryLocked(symbol) {
		f.mu.Unlock()
		return 0, false
	}
	f.mu.Unlock()

	f.logger.Info("Fetching latest price", zap.String("symbol", symbol))

	price, err := f.provider.FetchQuote(ctx, symbol)
	if err != nil || math.IsNaN(price) {
		if err != nil {
			f.logger.Error("Quote fetch failed",
				zap.String("symbol", symbol),
				zap.Error(err))
		}
		f.recordFailure(symbol, key)
		return 0, false
	}

	f.mu.Lock()
	f.entries[key] = cacheEntry{fetchedAt: f.now(), price: &price}
	delete(f.failures, symbol)
	f.mu.Unlock()

	return price, true
}

// lookupLocked returns a live cache entry for the key, if any. Absent markers
// count as hits: a confirmed failure is served from cache until it expires.
func (f *FetchCache) lookupLocked(key string, ttl time.Duration) (cacheEntry, bool) {
	entry, ok := f.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if f.now().Sub(entry.fetchedAt) >= ttl {
		return cacheEntry{}, false
	}
	return entry, true
}

// shouldRetryLocked reports whether a symbol is clear to hit the provider.
func (f *FetchCache) shouldRetryLocked(symbol string) bool {
	state, failed := f.failures[symbol]
	if !failed {
		return true
	}
	return f.now().Sub(state.failedAt) > f.cfg.FailureCooldown
}

// recordFailure marks a symbol failed and caches the absence so repeated
// calls within the TTL short-circuit without re-hitting the provider.
func (f *FetchCache) recordFailure(symbol, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = cacheEntry{fetchedAt: f.now()}
	f.failures[symbol] = failureState{failedAt: f.now()}
}

// validateSeries applies the minimum quality bar before a fetched series is
// accepted: non-empty, enough rows for analysis, and a usable close column.
func (f *FetchCache) validateSeries(series model.PriceSeries) error {
	if series.Len() == 0 {
		return fmt.Errorf("empty series")
	}
	if series.Len() < f.cfg.MinSeriesRows {
		return fmt.Errorf("insufficient data: %d rows, need %d", series.Len(), f.cfg.MinSeriesRows)
	}
	allNull := true
	for _, p := range series.Points {
		if !math.IsNaN(p.Close) {
			allNull = false
			break
		}
	}
	if allNull {
		return fmt.Errorf("close column entirely null")
	}
	return nil
}
