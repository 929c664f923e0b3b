package client

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/config"
)

const chartPayload = `{
	"chart": {
		"result": [{
			"meta": {"regularMarketPrice": 159.5},
			"timestamp": [1735689600, 1735776000, 1735862400],
			"indicators": {
				"quote": [{
					"open":   [100.0, 101.0, 102.0],
					"high":   [101.0, 102.0, 103.0],
					"low":    [99.0, 100.0, 101.0],
					"close":  [100.5, null, 102.5],
					"volume": [1000.0, 1100.0, 1200.0]
				}]
			}
		}],
		"error": null
	}
}`

func newTestClient(baseURL string, maxRetries int) *MarketDataClient {
	return NewMarketDataClient(config.MarketDataConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     maxRetries,
	}, zap.NewNop())
}

func TestFetchHistoryParsesBars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/RELIANCE.NS", r.URL.Path)
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(chartPayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	points, err := client.FetchHistory(context.Background(), "RELIANCE.NS", "1y")
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, 100.5, points[0].Close)
	// Explicit nulls come through as NaN for the fetch layer to fill.
	assert.True(t, math.IsNaN(points[1].Close))
	assert.Equal(t, 102.5, points[2].Close)
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), points[0].Time)
}

func TestFetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartPayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	price, err := client.FetchQuote(context.Background(), "RELIANCE.NS")
	require.NoError(t, err)
	assert.Equal(t, 159.5, price)
}

func TestFetchQuoteMissingPrice(t *testing.T) {
	payload := `{"chart":{"result":[{"meta":{},"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	_, err := client.FetchQuote(context.Background(), "X.NS")
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestFetchHistoryRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(chartPayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5)
	points, err := client.FetchHistory(context.Background(), "RETRY.NS", "1y")
	require.NoError(t, err)
	assert.Len(t, points, 3)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchHistoryDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5)
	_, err := client.FetchHistory(context.Background(), "BOGUS.NS", "1y")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchHistoryProviderError(t *testing.T) {
	payload := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5)
	_, err := client.FetchHistory(context.Background(), "DELISTED.NS", "1y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}
