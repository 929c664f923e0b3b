package handler

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
	"github.com/yourorg/portfolio-insights/internal/service"
	"github.com/yourorg/portfolio-insights/internal/utils"
)

// RiskHandler handles risk analytics HTTP requests
type RiskHandler struct {
	risk   *service.RiskEngine
	cache  *service.FetchCache
	bulk   *service.BulkFetcher
	logger *zap.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(
	risk *service.RiskEngine,
	cache *service.FetchCache,
	bulk *service.BulkFetcher,
	logger *zap.Logger,
) *RiskHandler {
	return &RiskHandler{
		risk:   risk,
		cache:  cache,
		bulk:   bulk,
		logger: logger,
	}
}

// GetMetrics computes risk metrics for one symbol's fetched series
// GET /api/v1/risk/metrics/:symbol?period=2y
func (h *RiskHandler) GetMetrics(c *gin.Context) {
	symbol := c.Param("symbol")
	period := c.DefaultQuery("period", "2y")

	series, ok := h.cache.GetSeries(c.Request.Context(), symbol, period)
	if !ok {
		series = model.PriceSeries{Symbol: symbol}
	}

	metrics := h.risk.Metrics(series)
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "metrics": metrics})
}

// PositionSizeRequest asks how many shares a risk budget allows.
type PositionSizeRequest struct {
	Capital      float64 `json:"capital" binding:"required,gt=0"`
	RiskPct      float64 `json:"risk_pct" binding:"required,gt=0"`
	StopLossPct  float64 `json:"stop_loss_pct"`
	EntryPrice   float64 `json:"entry_price"`
	IncludeStops bool    `json:"include_stops"`
}

// PositionSize computes a recommended position size
// POST /api/v1/risk/position-size
func (h *RiskHandler) PositionSize(c *gin.Context) {
	var req PositionSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	shares := h.risk.PositionSize(req.Capital, req.RiskPct, req.StopLossPct)
	resp := gin.H{"shares": shares}

	if req.IncludeStops && req.EntryPrice > 0 {
		resp["stop_loss_price_long"] = h.risk.StopLossPrice(req.EntryPrice, req.StopLossPct, true)
		resp["stop_loss_price_short"] = h.risk.StopLossPrice(req.EntryPrice, req.StopLossPct, false)
	}

	c.JSON(http.StatusOK, resp)
}

// RiskReward evaluates a trade setup
// POST /api/v1/risk/risk-reward
func (h *RiskHandler) RiskReward(c *gin.Context) {
	var setup model.TradeSetup
	if err := c.ShouldBindJSON(&setup); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	ratio := h.risk.RiskRewardRatio(setup.EntryPrice, setup.StopPrice, setup.TargetPrice, *setup.IsLong)

	// +Inf is a legal engine convention but not valid JSON.
	resp := gin.H{"unbounded": false}
	if math.IsInf(ratio, 1) {
		resp["unbounded"] = true
	} else {
		resp["ratio"] = ratio
	}
	c.JSON(http.StatusOK, resp)
}

// PortfolioRisk aggregates risk across a set of symbols
// POST /api/v1/risk/portfolio
func (h *RiskHandler) PortfolioRisk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.Period == "" {
		req.Period = "1y"
	}

	results := h.bulk.GetMany(c.Request.Context(), req.Symbols, req.Period)

	seriesBySymbol := make(map[string]model.PriceSeries)
	for symbol, outcome := range results {
		if outcome.Status == service.FetchOK {
			seriesBySymbol[symbol] = *outcome.Series
		}
	}

	metrics := h.risk.PortfolioMetrics(seriesBySymbol)
	c.JSON(http.StatusOK, gin.H{
		"symbols_used": len(seriesBySymbol),
		"metrics":      metrics,
	})
}
