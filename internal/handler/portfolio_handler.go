package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
	"github.com/yourorg/portfolio-insights/internal/repository"
	"github.com/yourorg/portfolio-insights/internal/service"
	"github.com/yourorg/portfolio-insights/internal/utils"
)

// PortfolioHandler handles portfolio and holding HTTP requests
type PortfolioHandler struct {
	repo    *repository.PortfolioRepository
	service *service.PortfolioService
	logger  *zap.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(
	repo *repository.PortfolioRepository,
	svc *service.PortfolioService,
	logger *zap.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		repo:    repo,
		service: svc,
		logger:  logger,
	}
}

// CreatePortfolioRequest is the body for creating a portfolio.
type CreatePortfolioRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreatePortfolio creates a new portfolio
// POST /api/v1/portfolios
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	id, err := h.repo.CreatePortfolio(c.Request.Context(), &model.Portfolio{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create portfolio")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListPortfolios returns all portfolios
// GET /api/v1/portfolios
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	portfolios, err := h.repo.ListPortfolios(c.Request.Context())
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list portfolios")
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios})
}

// GetPortfolio returns one portfolio with its holdings
// GET /api/v1/portfolios/:id
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	id, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}

	portfolio, err := h.repo.GetPortfolio(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Portfolio not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get portfolio")
		return
	}

	holdings, err := h.repo.GetHoldings(c.Request.Context(), id)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get holdings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio, "holdings": holdings})
}

// DeletePortfolio removes a portfolio and its holdings
// DELETE /api/v1/portfolios/:id
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	id, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}

	if err := h.repo.DeletePortfolio(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Portfolio not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete portfolio")
		return
	}

	c.Status(http.StatusNoContent)
}

// AddHoldingRequest is the body for adding a holding to a portfolio.
type AddHoldingRequest struct {
	Symbol       string    `json:"symbol" binding:"required"`
	CompanyName  string    `json:"company_name"`
	Quantity     int       `json:"quantity" binding:"required,gt=0"`
	AvgPrice     float64   `json:"avg_price" binding:"required,gt=0"`
	PurchaseDate time.Time `json:"purchase_date"`
	Notes        string    `json:"notes"`
}

// AddHolding adds or updates a holding in a portfolio
// POST /api/v1/portfolios/:id/holdings
func (h *PortfolioHandler) AddHolding(c *gin.Context) {
	portfolioID, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}

	var req AddHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	purchaseDate := req.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	id, err := h.repo.AddHolding(c.Request.Context(), &model.Holding{
		PortfolioID:  portfolioID,
		Symbol:       req.Symbol,
		CompanyName:  req.CompanyName,
		Quantity:     req.Quantity,
		AvgPrice:     decimal.NewFromFloat(req.AvgPrice),
		PurchaseDate: purchaseDate,
		Notes:        req.Notes,
	})
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to add holding")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RemoveHolding deletes a holding from a portfolio
// DELETE /api/v1/portfolios/:id/holdings/:holdingId
func (h *PortfolioHandler) RemoveHolding(c *gin.Context) {
	portfolioID, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}
	holdingID, ok := utils.ParseIntParam(c, "holdingId")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid holding ID")
		return
	}

	if err := h.repo.RemoveHolding(c.Request.Context(), portfolioID, holdingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Holding not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to remove holding")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPerformance computes per-holding and total gains over a date window
// GET /api/v1/portfolios/:id/performance?start=2025-01-01&end=2025-06-30
func (h *PortfolioHandler) GetPerformance(c *gin.Context) {
	id, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}

	end := time.Now()
	start := end.AddDate(-1, 0, 0)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid start date, expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid end date, expected YYYY-MM-DD")
			return
		}
		end = parsed
	}

	performance, err := h.service.Performance(c.Request.Context(), id, start, end)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to compute performance")
		return
	}

	c.JSON(http.StatusOK, performance)
}

// RefreshPrices refreshes each holding's current price from the latest quote
// POST /api/v1/portfolios/:id/refresh
func (h *PortfolioHandler) RefreshPrices(c *gin.Context) {
	id, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}

	if err := h.service.RefreshHoldingPrices(c.Request.Context(), id); err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to refresh prices")
		return
	}

	holdings, err := h.repo.GetHoldings(c.Request.Context(), id)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get holdings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}
