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

// SIPHandler handles SIP projection and saved-plan HTTP requests
type SIPHandler struct {
	calc   *service.SIPCalculator
	plans  *repository.SIPPlanRepository
	logger *zap.Logger
}

// NewSIPHandler creates a new SIP handler
func NewSIPHandler(calc *service.SIPCalculator, plans *repository.SIPPlanRepository, logger *zap.Logger) *SIPHandler {
	return &SIPHandler{
		calc:   calc,
		plans:  plans,
		logger: logger,
	}
}

// Calculate runs a SIP projection
// POST /api/v1/sip/calculate
func (h *SIPHandler) Calculate(c *gin.Context) {
	var req model.SIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	projection, err := h.calc.Calculate(req)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, projection)
}

// RetirementCorpus solves for the corpus needed at retirement
// POST /api/v1/sip/retirement
func (h *SIPHandler) RetirementCorpus(c *gin.Context) {
	var req model.RetirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	plan, err := h.calc.RetirementCorpus(req)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, plan)
}

// SavePlanRequest is the body for persisting a plan setup.
type SavePlanRequest struct {
	Name              string   `json:"name" binding:"required"`
	MonthlyInvestment float64  `json:"monthly_investment" binding:"required,gt=0"`
	Years             int      `json:"years" binding:"required,gt=0"`
	AnnualReturn      *float64 `json:"annual_return" binding:"required"`
	InflationRate     float64  `json:"inflation_rate"`
	StepUpRate        float64  `json:"step_up_rate"`
	TargetAmount      float64  `json:"target_amount"`
	Notes             string   `json:"notes"`
}

// SavePlan persists a plan setup for later re-runs
// POST /api/v1/sip/plans
func (h *SIPHandler) SavePlan(c *gin.Context) {
	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	plan := &model.SIPPlan{
		Name:              req.Name,
		MonthlyInvestment: decimal.NewFromFloat(req.MonthlyInvestment),
		Years:             req.Years,
		AnnualReturn:      decimal.NewFromFloat(*req.AnnualReturn),
		InflationRate:     decimal.NewFromFloat(req.InflationRate),
		StepUpRate:        decimal.NewFromFloat(req.StepUpRate),
		Notes:             req.Notes,
	}
	if req.TargetAmount > 0 {
		plan.TargetAmount = decimal.NewNullDecimal(decimal.NewFromFloat(req.TargetAmount))
	}

	id, err := h.plans.Create(c.Request.Context(), plan)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to save plan")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListPlans returns all saved plans
// GET /api/v1/sip/plans
func (h *SIPHandler) ListPlans(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context())
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// RunPlan re-runs the projection for a saved plan
// GET /api/v1/sip/plans/:id/run
func (h *SIPHandler) RunPlan(c *gin.Context) {
	id, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	plan, err := h.plans.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Plan not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get plan")
		return
	}

	annualReturn, _ := plan.AnnualReturn.Float64()
	monthly, _ := plan.MonthlyInvestment.Float64()
	inflation, _ := plan.InflationRate.Float64()
	stepUp, _ := plan.StepUpRate.Float64()

	req := model.SIPRequest{
		MonthlyInvestment: monthly,
		Years:             plan.Years,
		AnnualReturn:      &annualReturn,
		InflationRate:     inflation,
		StepUpRate:        stepUp,
	}
	if plan.TargetAmount.Valid {
		req.TargetAmount, _ = plan.TargetAmount.Decimal.Float64()
	}

	projection, err := h.calc.Calculate(req)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan, "projection": projection})
}

// DeletePlan removes a saved plan
// DELETE /api/v1/sip/plans/:id
func (h *SIPHandler) DeletePlan(c *gin.Context) {
	id, ok := utils.ParseIntParam(c, "id")
	if !ok {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	if err := h.plans.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Plan not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete plan")
		return
	}

	c.Status(http.StatusNoContent)
}
