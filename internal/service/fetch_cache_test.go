package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/config"
	"github.com/yourorg/portfolio-insights/internal/model"
)

type fakeProvider struct {
	historyCalls int
	quoteCalls   int
	points       []model.PricePoint
	price        float64
	historyErr   error
	quoteErr     error
}

func (p *fakeProvider) FetchHistory(ctx context.Context, symbol, period string) ([]model.PricePoint, error) {
	p.historyCalls++
	if p.historyErr != nil {
		return nil, p.historyErr
	}
	return p.points, nil
}

func (p *fakeProvider) FetchQuote(ctx context.Context, symbol string) (float64, error) {
	p.quoteCalls++
	if p.quoteErr != nil {
		return 0, p.quoteErr
	}
	return p.price, nil
}

func makePoints(n int) []model.PricePoint {
	points := make([]model.PricePoint, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		price := 100 + float64(i)
		points[i] = model.PricePoint{
			Time:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	return points
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		HistoryTTL:      300 * time.Second,
		QuoteTTL:        60 * time.Second,
		FailureCooldown: time.Hour,
		MinSeriesRows:   50,
	}
}

// fakeClock lets tests move the cache's idea of time forward.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestCache(provider MarketDataProvider) (*FetchCache, *fakeClock) {
	cache := NewFetchCache(provider, testCacheConfig(), zap.NewNop())
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache.now = clock.Now
	return cache, clock
}

func TestGetSeriesCachesWithinTTL(t *testing.T) {
	provider := &fakeProvider{points: makePoints(60)}
	cache, _ := newTestCache(provider)
	ctx := context.Background()

	first, ok := cache.GetSeries(ctx, "RELIANCE.NS", "1y")
	require.True(t, ok)
	second, ok := cache.GetSeries(ctx, "RELIANCE.NS", "1y")
	require.True(t, ok)

	assert.Equal(t, 1, provider.historyCalls)
	assert.Equal(t, first.Closes(), second.Closes())
}

func TestGetSeriesDistinctPeriodsCachedSeparately(t *testing.T) {
	provider := &fakeProvider{points: makePoints(60)}
	cache, _ := newTestCache(provider)
	ctx := context.Background()

	_, ok := cache.GetSeries(ctx, "TCS.NS", "1y")
	require.True(t, ok)
	_, ok = cache.GetSeries(ctx, "TCS.NS", "2y")
	require.True(t, ok)

	assert.Equal(t, 2, provider.historyCalls)
}

func TestGetSeriesExpiresAfterTTL(t *testing.T) {
	provider := &fakeProvider{points: makePoints(60)}
	cache, clock := newTestCache(provider)
	ctx := context.Background()

	_, ok := cache.GetSeries(ctx, "INFY.NS", "1y")
	require.True(t, ok)

	clock.Advance(301 * time.Second)
	_, ok = cache.GetSeries(ctx, "INFY.NS", "1y")
	require.True(t, ok)

	assert.Equal(t, 2, provider.historyCalls)
}

func TestGetSeriesFailureCooldown(t *testing.T) {
	provider := &fakeProvider{historyErr: errors.New("upstream down")}
	cache, clock := newTestCache(provider)
	ctx := context.Background()

	_, ok := cache.GetSeries(ctx, "HDFC.NS", "1y")
	assert.False(t, ok)
	assert.Equal(t, 1, provider.historyCalls)

	// Within the TTL the absence is served from cache; after the TTL but
	// within the cooldown the provider is still not retried.
	_, ok = cache.GetSeries(ctx, "HDFC.NS", "1y")
	assert.False(t, ok)
	clock.Advance(301 * time.Second)
	_, ok = cache.GetSeries(ctx, "HDFC.NS", "1y")
	assert.False(t, ok)
	assert.Equal(t, 1, provider.historyCalls)

	// After the cooldown elapses, the next call retries the provider.
	clock.Advance(time.Hour)
	provider.historyErr = nil
	provider.points = makePoints(60)
	_, ok = cache.GetSeries(ctx, "HDFC.NS", "1y")
	assert.True(t, ok)
	assert.Equal(t, 2, provider.historyCalls)
}

func TestGetSeriesSuccessClearsFailure(t *testing.T) {
	provider := &fakeProvider{historyErr: errors.New("flaky")}
	cache, clock := newTestCache(provider)
	ctx := context.Background()

	_, ok := cache.GetSeries(ctx, "SBIN.NS", "1y")
	require.False(t, ok)

	clock.Advance(2 * time.Hour)
	provider.historyErr = nil
	provider.points = makePoints(60)
	_, ok = cache.GetSeries(ctx, "SBIN.NS", "1y")
	require.True(t, ok)

	// A quote for the recovered symbol must not be cooldown-suppressed.
	provider.price = 123.45
	price, ok := cache.GetLatestPrice(ctx, "SBIN.NS")
	require.True(t, ok)
	assert.Equal(t, 123.45, price)
}

func TestGetSeriesRejectsShortSeries(t *testing.T) {
	provider := &fakeProvider{points: makePoints(10)}
	cache, _ := newTestCache(provider)

	_, ok := cache.GetSeries(context.Background(), "ITC.NS", "5d")
	assert.False(t, ok)
	// The rejection is negative-cached.
	_, ok = cache.GetSeries(context.Background(), "ITC.NS", "5d")
	assert.False(t, ok)
	assert.Equal(t, 1, provider.historyCalls)
}

func TestGetSeriesRejectsAllNaNCloses(t *testing.T) {
	points := makePoints(60)
	for i := range points {
		points[i].Close = math.NaN()
	}
	provider := &fakeProvider{points: points}
	cache, _ := newTestCache(provider)

	_, ok := cache.GetSeries(context.Background(), "NOCLOSE.NS", "1y")
	assert.False(t, ok)
}

func TestGetSeriesForwardFillsGaps(t *testing.T) {
	points := makePoints(60)
	points[10].Close = math.NaN()
	provider := &fakeProvider{points: points}
	cache, _ := newTestCache(provider)

	series, ok := cache.GetSeries(context.Background(), "GAP.NS", "1y")
	require.True(t, ok)
	assert.Equal(t, series.Points[9].Close, series.Points[10].Close)
}

func TestGetSeriesWithLeadingGapIsJSONEncodable(t *testing.T) {
	points := makePoints(61)
	points[0].Open = math.NaN()
	provider := &fakeProvider{points: points}
	cache, _ := newTestCache(provider)

	series, ok := cache.GetSeries(context.Background(), "LEAD.NS", "1y")
	require.True(t, ok)

	// The unfillable leading bar is trimmed; what is served must survive
	// JSON encoding.
	assert.Equal(t, 60, series.Len())
	_, err := json.Marshal(series)
	require.NoError(t, err)
}

func TestGetSeriesReturnsClone(t *testing.T) {
	provider := &fakeProvider{points: makePoints(60)}
	cache, _ := newTestCache(provider)
	ctx := context.Background()

	first, ok := cache.GetSeries(ctx, "CLONE.NS", "1y")
	require.True(t, ok)
	first.Points[0].Close = -1

	second, ok := cache.GetSeries(ctx, "CLONE.NS", "1y")
	require.True(t, ok)
	assert.NotEqual(t, -1.0, second.Points[0].Close)
}

func TestGetLatestPriceCachesWithinTTL(t *testing.T) {
	provider := &fakeProvider{price: 2500.5}
	cache, clock := newTestCache(provider)
	ctx := context.Background()

	price, ok := cache.GetLatestPrice(ctx, "RELIANCE.NS")
	require.True(t, ok)
	assert.Equal(t, 2500.5, price)

	_, _ = cache.GetLatestPrice(ctx, "RELIANCE.NS")
	assert.Equal(t, 1, provider.quoteCalls)

	// Quotes expire faster than history.
	clock.Advance(61 * time.Second)
	_, _ = cache.GetLatestPrice(ctx, "RELIANCE.NS")
	assert.Equal(t, 2, provider.quoteCalls)
}

func TestGetLatestPriceRejectsNaN(t *testing.T) {
	provider := &fakeProvider{price: math.NaN()}
	cache, _ := newTestCache(provider)

	_, ok := cache.GetLatestPrice(context.Background(), "NAN.NS")
	assert.False(t, ok)
}
