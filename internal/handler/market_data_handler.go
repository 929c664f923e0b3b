package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/service"
	"github.com/yourorg/portfolio-insights/internal/utils"
)

// MarketDataHandler handles market data HTTP requests
type MarketDataHandler struct {
	cache  *service.FetchCache
	bulk   *service.BulkFetcher
	status *service.MarketStatusService
	logger *zap.Logger
}

// NewMarketDataHandler creates a new market data handler
func NewMarketDataHandler(
	cache *service.FetchCache,
	bulk *service.BulkFetcher,
	status *service.MarketStatusService,
	logger *zap.Logger,
) *MarketDataHandler {
	return &MarketDataHandler{
		cache:  cache,
		bulk:   bulk,
		status: status,
		logger: logger,
	}
}

// GetSeries handles retrieving a historical price series
// GET /api/v1/market-data/series?symbol=RELIANCE.NS&period=2y
func (h *MarketDataHandler) GetSeries(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}
	period := c.DefaultQuery("period", "2y")

	series, ok := h.cache.GetSeries(c.Request.Context(), symbol, period)
	if !ok {
		// Unavailable data is "unknown", not an internal failure.
		c.JSON(http.StatusOK, gin.H{"symbol": symbol, "available": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"available": true,
		"series":    series,
	})
}

// GetQuote handles retrieving the latest price for a symbol
// GET /api/v1/market-data/quote/:symbol
func (h *MarketDataHandler) GetQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	price, ok := h.cache.GetLatestPrice(c.Request.Context(), symbol)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"symbol": symbol, "available": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"available": true,
		"price":     price,
	})
}

// BulkRequest is the body for a multi-symbol fetch.
type BulkRequest struct {
	Symbols []string `json:"symbols" binding:"required,min=1"`
	Period  string   `json:"period"`
}

// GetBulk handles fetching history for many symbols at once
// POST /api/v1/market-data/bulk
func (h *MarketDataHandler) GetBulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.Period == "" {
		req.Period = "2y"
	}

	results := h.bulk.GetMany(c.Request.Context(), req.Symbols, req.Period)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetMarketStatus reports whether the exchange is currently trading
// GET /api/v1/market-data/status
func (h *MarketDataHandler) GetMarketStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status())
}
