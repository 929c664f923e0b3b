package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/service"
	"github.com/yourorg/portfolio-insights/internal/utils"
)

// DashboardHandler serves the aggregated market views.
type DashboardHandler struct {
	service *service.PortfolioService
	status  *service.MarketStatusService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.PortfolioService, status *service.MarketStatusService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		status:  status,
		logger:  logger,
	}
}

func splitSymbols(raw string) []string {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	return symbols
}

// Overview returns a one-line snapshot per requested symbol plus the market
// session state
// GET /api/v1/dashboard/overview?symbols=RELIANCE.NS,TCS.NS
func (h *DashboardHandler) Overview(c *gin.Context) {
	symbols := splitSymbols(c.Query("symbols"))
	if len(symbols) == 0 {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Query parameter 'symbols' is required")
		return
	}

	overview := h.service.MarketOverview(c.Request.Context(), symbols)
	c.JSON(http.StatusOK, gin.H{
		"market":   h.status.Status(),
		"overview": overview,
	})
}

// Trending ranks the requested symbols by recent volatility
// GET /api/v1/dashboard/trending?symbols=...&window=10&top=5
func (h *DashboardHandler) Trending(c *gin.Context) {
	symbols := splitSymbols(c.Query("symbols"))
	if len(symbols) == 0 {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Query parameter 'symbols' is required")
		return
	}

	window, err := strconv.Atoi(c.DefaultQuery("window", "10"))
	if err != nil || window < 2 {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid window")
		return
	}
	top, err := strconv.Atoi(c.DefaultQuery("top", "5"))
	if err != nil || top < 1 {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid top")
		return
	}

	trending := h.service.TrendingStocks(c.Request.Context(), symbols, window, top)
	c.JSON(http.StatusOK, gin.H{"trending": trending})
}
