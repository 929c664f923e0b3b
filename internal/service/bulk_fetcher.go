package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// FetchStatus classifies the outcome of one symbol's fetch.
type FetchStatus string

const (
	// FetchOK means a valid series was returned.
	FetchOK FetchStatus = "ok"
	// FetchAbsent means the data is unavailable (provider failure, invalid
	// data, or cooldown suppression).
	FetchAbsent FetchStatus = "absent"
	// FetchError means the worker itself crashed; the failure is recorded
	// instead of taking the whole bulk call down.
	FetchError FetchStatus = "error"
)

// FetchOutcome is the per-symbol result of a bulk fetch. Failures stay
// inspectable instead of being silently swallowed.
type FetchOutcome struct {
	Symbol string             `json:"symbol"`
	Status FetchStatus        `json:"status"`
	Series *model.PriceSeries `json:"series,omitempty"`
	Err    string             `json:"error,omitempty"`
}

// BulkFetcher fans a multi-symbol request out across a bounded worker pool.
// One symbol's failure never affects another's result, and the coordinator
// itself never fails as a whole.
type BulkFetcher struct {
	cache   *FetchCache
	workers int
	logger  *zap.Logger
}

// NewBulkFetcher creates a bulk fetcher over the given cache.
func NewBulkFetcher(cache *FetchCache, workers int, logger *zap.Logger) *BulkFetcher {
	if workers <= 0 {
		workers = 8
	}
	return &BulkFetcher{
		cache:   cache,
		workers: workers,
		logger:  logger,
	}
}

// GetMany fetches history for every distinct symbol in the input. The result
// map always contains exactly one entry per requested symbol, regardless of
// which workers finish first.
func (b *BulkFetcher) GetMany(ctx context.Context, symbols []string, period string) map[string]FetchOutcome {
	unique := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}

	b.logger.Info("Bulk fetching data",
		zap.Int("symbols", len(unique)),
		zap.String("period", period))

	jobs := make(chan string)
	outcomes := make(chan FetchOutcome)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				outcomes <- b.fetchOne(ctx, symbol, period)
			}
		}()
	}

	go func() {
		for _, symbol := range unique {
			jobs <- symbol
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	results := make(map[string]FetchOutcome, len(unique))
	for outcome := range outcomes {
		results[outcome.Symbol] = outcome
	}

	b.logger.Info("Completed bulk fetch", zap.Int("symbols", len(results)))
	return results
}

// fetchOne wraps a single cache call, converting a worker panic into an
// errored outcome for that symbol only.
func (b *BulkFetcher) fetchOne(ctx context.Context, symbol, period string) (outcome FetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Fetch worker panicked",
				zap.String("symbol", symbol),
				zap.Any("panic", r))
			outcome = FetchOutcome{
				Symbol: symbol,
				Status: FetchError,
				Err:    fmt.Sprintf("fetch panicked: %v", r),
			}
		}
	}()

	series, ok := b.cache.GetSeries(ctx, symbol, period)
	if !ok {
		return FetchOutcome{Symbol: symbol, Status: FetchAbsent}
	}
	return FetchOutcome{Symbol: symbol, Status: FetchOK, Series: &series}
}
