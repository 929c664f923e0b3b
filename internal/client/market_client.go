package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/config"
	"github.com/yourorg/portfolio-insights/internal/model"
)

// ErrNoQuote is returned when the provider answered but carried no usable price.
var ErrNoQuote = errors.New("provider returned no quote")

// MarketDataClient talks to the upstream chart API. The upstream is treated as
// unreliable: callers (the fetch cache) are responsible for tolerating errors.
type MarketDataClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	logger     *zap.Logger
}

// NewMarketDataClient creates a new market data client
func NewMarketDataClient(cfg config.MarketDataConfig, logger *zap.Logger) *MarketDataClient {
	return &MarketDataClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		maxRetries: uint64(cfg.MaxRetries),
		logger:     logger,
	}
}

// chartResponse mirrors the provider's chart payload. Numeric fields are
// pointers because the provider emits explicit nulls for missing bars.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory retrieves daily OHLCV history for a symbol over a period such
// as "1y", "2y" or "5d".
func (c *MarketDataClient) FetchHistory(ctx context.Context, symbol, period string) ([]model.PricePoint, error) {
	payload, err := c.getChart(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote columns for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		points = append(points, model.PricePoint{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   deref(quote.Open, i),
			High:   deref(quote.High, i),
			Low:    deref(quote.Low, i),
			Close:  deref(quote.Close, i),
			Volume: deref(quote.Volume, i),
		})
	}

	c.logger.Debug("Fetched history",
		zap.String("symbol", symbol),
		zap.String("period", period),
		zap.Int("rows", len(points)))

	return points, nil
}

// FetchQuote retrieves the latest market price for a symbol.
func (c *MarketDataClient) FetchQuote(ctx context.Context, symbol string) (float64, error) {
	payload, err := c.getChart(ctx, symbol, "1d")
	if err != nil {
		return 0, err
	}

	price := payload.Chart.Result[0].Meta.RegularMarketPrice
	if price == nil {
		return 0, ErrNoQuote
	}
	return *price, nil
}

// getChart performs the HTTP call with retries on transient failures. A 4xx
// response is permanent; everything else is retried with exponential backoff.
func (c *MarketDataClient) getChart(ctx context.Context, symbol, period string) (*chartResponse, error) {
	params := url.Values{}
	params.Add("range", period)
	params.Add("interval", "1d")
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var payload *chartResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Provider request failed",
				zap.String("symbol", symbol),
				zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			err := fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(bodyBytes))
			c.logger.Warn("Provider error response",
				zap.String("symbol", symbol),
				zap.Int("statusCode", resp.StatusCode))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		var decoded chartResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode chart response: %w", err))
		}
		if decoded.Chart.Error != nil {
			return backoff.Permanent(fmt.Errorf("provider error for %s: %s", symbol, decoded.Chart.Error.Description))
		}
		if len(decoded.Chart.Result) == 0 {
			return backoff.Permanent(fmt.Errorf("empty chart result for %s", symbol))
		}

		payload = &decoded
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return payload, nil
}

func deref(column []*float64, i int) float64 {
	if i >= len(column) || column[i] == nil {
		return math.NaN()
	}
	return *column[i]
}
