package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/service"
	"github.com/yourorg/portfolio-insights/internal/utils"
)

// SymbolHandler handles symbol directory HTTP requests
type SymbolHandler struct {
	symbols *service.SymbolService
	logger  *zap.Logger
}

// NewSymbolHandler creates a new symbol handler
func NewSymbolHandler(symbols *service.SymbolService, logger *zap.Logger) *SymbolHandler {
	return &SymbolHandler{
		symbols: symbols,
		logger:  logger,
	}
}

// Search finds listed symbols by symbol or company name
// GET /api/v1/symbols/search?q=reliance
func (h *SymbolHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	matches, err := h.symbols.Search(c.Request.Context(), query)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusServiceUnavailable, "Symbol directory unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(matches), "results": matches})
}

// List returns the full exchange listing
// GET /api/v1/symbols
func (h *SymbolHandler) List(c *gin.Context) {
	listing, err := h.symbols.All(c.Request.Context())
	if err != nil {
		utils.SendErrorResponse(c, http.StatusServiceUnavailable, "Symbol directory unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(listing), "symbols": listing})
}
