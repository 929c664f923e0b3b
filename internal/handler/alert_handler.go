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

// AlertHandler handles price-alert HTTP requests
type AlertHandler struct {
	repo   *repository.AlertRepository
	sweep  *service.AlertService
	logger *zap.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(repo *repository.AlertRepository, sweep *service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		repo:   repo,
		sweep:  sweep,
		logger: logger,
	}
}

// CreateAlertRequest is the body for creating a price alert.
type CreateAlertRequest struct {
	Symbol    string  `json:"symbol" binding:"required"`
	AlertType string  `json:"alert_type" binding:"required,oneof=above below change_pct"`
	Threshold float64 `json:"threshold" binding:"required"`
}

// Create registers a new price alert
// POST /api/v1/alerts
func (h *AlertHandler) Create(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	id, err := h.repo.Create(c.Request.Context(), &model.StockAlert{
		Symbol:    req.Symbol,
		AlertType: req.AlertType,
		Threshold: decimal.NewFromFloat(req.Threshold),
	})
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// List returns all alerts, newest first
// GET /api/v1/alerts
func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.repo.List(c.Request.Context())
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list alerts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// Delete removes an alert
// DELETE /api/v1/alerts/:id
func (h *AlertHandler) Delete(c *gin.Context) {
	id, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Alert not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete alert")
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckNow runs an alert sweep immediately instead of waiting for the
// schedule
// POST /api/v1/alerts/check
func (h *AlertHandler) CheckNow(c *gin.Context) {
	h.sweep.CheckAlerts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "sweep completed"})
}
