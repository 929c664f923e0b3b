package client

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// SymbolDirectoryClient downloads the exchange's equity listing CSV.
type SymbolDirectoryClient struct {
	listingURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSymbolDirectoryClient creates a new symbol directory client
func NewSymbolDirectoryClient(listingURL string, httpClient *http.Client, logger *zap.Logger) *SymbolDirectoryClient {
	return &SymbolDirectoryClient{
		listingURL: listingURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchListing downloads and parses the full symbol listing. Column order in
// the CSV is not fixed, so headers are matched by name.
func (c *SymbolDirectoryClient) FetchListing(ctx context.Context) ([]model.SymbolInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch symbol listing", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch symbol listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("symbol listing returned status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	symbolIdx, ok := col["SYMBOL"]
	if !ok {
		return nil, fmt.Errorf("listing missing SYMBOL column")
	}
	nameIdx := col["NAME OF COMPANY"]
	seriesIdx, hasSeries := col["SERIES"]
	isinIdx, hasISIN := col["ISIN NUMBER"]

	var symbols []model.SymbolInfo
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Warn("Skipping malformed listing row", zap.Error(err))
			continue
		}

		info := model.SymbolInfo{
			Symbol:      strings.TrimSpace(record[symbolIdx]),
			CompanyName: strings.TrimSpace(record[nameIdx]),
		}
		if hasSeries && seriesIdx < len(record) {
			info.Series = strings.TrimSpace(record[seriesIdx])
		}
		if hasISIN && isinIdx < len(record) {
			info.ISIN = strings.TrimSpace(record[isinIdx])
		}
		if info.Symbol == "" {
			continue
		}
		symbols = append(symbols, info)
	}

	c.logger.Info("Fetched symbol listing", zap.Int("count", len(symbols)))
	return symbols, nil
}
