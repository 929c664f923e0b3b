package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// AlertRepository handles database operations for price alerts.
type AlertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an alert and returns its ID.
func (r *AlertRepository) Create(ctx context.Context, alert *model.StockAlert) (int, error) {
	query := `
		INSERT INTO stock_alerts (symbol, alert_type, threshold, is_active, triggered, created_at)
		VALUES ($1, $2, $3, TRUE, FALSE, NOW())
		RETURNING id
	`

	var id int
	err := r.db.QueryRowxContext(ctx, query, alert.Symbol, alert.AlertType, alert.Threshold).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create alert",
			zap.Error(err),
			zap.String("symbol", alert.Symbol))
		return 0, err
	}
	return id, nil
}

// List retrieves all alerts, newest first.
func (r *AlertRepository) List(ctx context.Context) ([]model.StockAlert, error) {
	query := `
		SELECT id, symbol, alert_type, threshold, is_active, triggered, created_at, triggered_at
		FROM stock_alerts
		ORDER BY created_at DESC
	`

	var alerts []model.StockAlert
	err := r.db.SelectContext(ctx, &alerts, query)
	if err != nil {
		r.logger.Error("Failed to list alerts", zap.Error(err))
		return nil, err
	}
	return alerts, nil
}

// GetActiveAlerts retrieves alerts that are enabled and not yet triggered.
func (r *AlertRepository) GetActiveAlerts(ctx context.Context) ([]model.StockAlert, error) {
	query := `
		SELECT id, symbol, alert_type, threshold, is_active, triggered, created_at, triggered_at
		FROM stock_alerts
		WHERE is_active = TRUE AND triggered = FALSE
		ORDER BY id
	`

	var alerts []model.StockAlert
	err := r.db.SelectContext(ctx, &alerts, query)
	if err != nil {
		r.logger.Error("Failed to get active alerts", zap.Error(err))
		return nil, err
	}
	return alerts, nil
}

// MarkTriggered records that an alert fired.
func (r *AlertRepository) MarkTriggered(ctx context.Context, alertID int, triggeredAt time.Time) error {
	query := `
		UPDATE stock_alerts
		SET triggered = TRUE, is_active = FALSE, triggered_at = $1
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, triggeredAt, alertID)
	if err != nil {
		r.logger.Error("Failed to mark alert triggered",
			zap.Error(err),
			zap.Int("alert_id", alertID))
		return err
	}
	return nil
}

// Delete removes an alert.
func (r *AlertRepository) Delete(ctx context.Context, alertID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_alerts WHERE id = $1`, alertID)
	if err != nil {
		r.logger.Error("Failed to delete alert",
			zap.Error(err),
			zap.Int("alert_id", alertID))
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
