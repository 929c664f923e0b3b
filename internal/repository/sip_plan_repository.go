package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// SIPPlanRepository handles database operations for saved SIP plans.
type SIPPlanRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSIPPlanRepository creates a new SIP plan repository
func NewSIPPlanRepository(db *sqlx.DB, logger *zap.Logger) *SIPPlanRepository {
	return &SIPPlanRepository{
		db:     db,
		logger: logger,
	}
}

// Create saves a plan and returns its ID.
func (r *SIPPlanRepository) Create(ctx context.Context, plan *model.SIPPlan) (int, error) {
	query := `
		INSERT INTO sip_plans
			(name, monthly_investment, years, annual_return, inflation_rate,
			 step_up_rate, target_amount, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id
	`

	var id int
	err := r.db.QueryRowxContext(ctx, query,
		plan.Name,
		plan.MonthlyInvestment,
		plan.Years,
		plan.AnnualReturn,
		plan.InflationRate,
		plan.StepUpRate,
		plan.TargetAmount,
		plan.Notes,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create SIP plan",
			zap.Error(err),
			zap.String("name", plan.Name))
		return 0, err
	}
	return id, nil
}

// List retrieves all saved plans, newest first.
func (r *SIPPlanRepository) List(ctx context.Context) ([]model.SIPPlan, error) {
	query := `
		SELECT id, name, monthly_investment, years, annual_return, inflation_rate,
		       step_up_rate, target_amount, notes, created_at
		FROM sip_plans
		ORDER BY created_at DESC
	`

	var plans []model.SIPPlan
	err := r.db.SelectContext(ctx, &plans, query)
	if err != nil {
		r.logger.Error("Failed to list SIP plans", zap.Error(err))
		return nil, err
	}
	return plans, nil
}

// Get retrieves one saved plan by ID.
func (r *SIPPlanRepository) Get(ctx context.Context, id int) (*model.SIPPlan, error) {
	query := `
		SELECT id, name, monthly_investment, years, annual_return, inflation_rate,
		       step_up_rate, target_amount, notes, created_at
		FROM sip_plans
		WHERE id = $1
	`

	var plan model.SIPPlan
	err := r.db.GetContext(ctx, &plan, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get SIP plan", zap.Error(err), zap.Int("id", id))
		return nil, err
	}
	return &plan, nil
}

// Delete removes a saved plan.
func (r *SIPPlanRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sip_plans WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete SIP plan", zap.Error(err), zap.Int("id", id))
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
