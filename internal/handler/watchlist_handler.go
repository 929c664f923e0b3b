package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
	"github.com/yourorg/portfolio-insights/internal/repository"
	"github.com/yourorg/portfolio-insights/internal/service"
	"github.com/yourorg/portfolio-insights/internal/utils"
)

// WatchlistHandler handles watchlist HTTP requests
type WatchlistHandler struct {
	repo   *repository.WatchlistRepository
	cache  *service.FetchCache
	logger *zap.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(repo *repository.WatchlistRepository, cache *service.FetchCache, logger *zap.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// AddWatchlistRequest is the body for adding a symbol to the watchlist.
type AddWatchlistRequest struct {
	Symbol      string  `json:"symbol" binding:"required"`
	CompanyName string  `json:"company_name"`
	TargetPrice float64 `json:"target_price"`
	Notes       string  `json:"notes"`
}

// Add puts a symbol on the watchlist
// POST /api/v1/watchlist
func (h *WatchlistHandler) Add(c *gin.Context) {
	var req AddWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	entry := &model.WatchlistEntry{
		Symbol:      req.Symbol,
		CompanyName: req.CompanyName,
		Notes:       req.Notes,
	}
	if req.TargetPrice > 0 {
		entry.TargetPrice = decimal.NewNullDecimal(decimal.NewFromFloat(req.TargetPrice))
	}

	id, err := h.repo.Add(c.Request.Context(), entry)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to add to watchlist")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// watchedSymbol pairs a watchlist entry with its latest quote.
type watchedSymbol struct {
	model.WatchlistEntry
	LatestPrice *float64 `json:"latest_price,omitempty"`
}

// List returns the watchlist with the latest quote per symbol where one is
// available
// GET /api/v1/watchlist
func (h *WatchlistHandler) List(c *gin.Context) {
	entries, err := h.repo.List(c.Request.Context())
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list watchlist")
		return
	}

	watched := make([]watchedSymbol, 0, len(entries))
	for _, entry := range entries {
		item := watchedSymbol{WatchlistEntry: entry}
		if price, ok := h.cache.GetLatestPrice(c.Request.Context(), entry.Symbol); ok {
			item.LatestPrice = &price
		}
		watched = append(watched, item)
	}

	c.JSON(http.StatusOK, gin.H{"watchlist": watched})
}

// Remove deletes a symbol from the watchlist
// DELETE /api/v1/watchlist/:symbol
func (h *WatchlistHandler) Remove(c *gin.Context) {
	symbol := c.Param("symbol")

	if err := h.repo.Remove(c.Request.Context(), symbol); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not on watchlist")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to remove from watchlist")
		return
	}

	c.Status(http.StatusNoContent)
}
