package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// PortfolioRepository handles database operations for portfolios and their
// holdings.
type PortfolioRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sqlx.DB, logger *zap.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:     db,
		logger: logger,
	}
}

// CreatePortfolio inserts a portfolio and returns its ID.
func (r *PortfolioRepository) CreatePortfolio(ctx context.Context, portfolio *model.Portfolio) (int, error) {
	query := `
		INSERT INTO portfolios (name, description, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`

	var id int
	err := r.db.QueryRowxContext(ctx, query, portfolio.Name, portfolio.Description).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create portfolio",
			zap.Error(err),
			zap.String("name", portfolio.Name))
		return 0, err
	}
	return id, nil
}

// GetPortfolio retrieves a portfolio by ID.
func (r *PortfolioRepository) GetPortfolio(ctx context.Context, id int) (*model.Portfolio, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM portfolios
		WHERE id = $1
	`

	var portfolio model.Portfolio
	err := r.db.GetContext(ctx, &portfolio, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get portfolio", zap.Error(err), zap.Int("id", id))
		return nil, err
	}
	return &portfolio, nil
}

// ListPortfolios retrieves all portfolios, newest first.
func (r *PortfolioRepository) ListPortfolios(ctx context.Context) ([]model.Portfolio, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM portfolios
		ORDER BY created_at DESC
	`

	var portfolios []model.Portfolio
	err := r.db.SelectContext(ctx, &portfolios, query)
	if err != nil {
		r.logger.Error("Failed to list portfolios", zap.Error(err))
		return nil, err
	}
	return portfolios, nil
}

// DeletePortfolio removes a portfolio and, via cascade, its holdings.
func (r *PortfolioRepository) DeletePortfolio(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete portfolio", zap.Error(err), zap.Int("id", id))
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

// AddHolding inserts a holding. The invested value is derived from quantity
// and average price at write time.
func (r *PortfolioRepository) AddHolding(ctx context.Context, holding *model.Holding) (int, error) {
	invested := holding.AvgPrice.Mul(decimal.NewFromInt(int64(holding.Quantity)))

	query := `
		INSERT INTO portfolio_holdings
			(portfolio_id, symbol, company_name, quantity, avg_price, current_price,
			 invested_value, current_value, purchase_date, notes)
		VALUES ($1, $2, $3, $4, $5, 0, $6, 0, $7, $8)
		ON CONFLICT (portfolio_id, symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_price = EXCLUDED.avg_price,
			invested_value = EXCLUDED.invested_value,
			notes = EXCLUDED.notes
		RETURNING id
	`

	var id int
	err := r.db.QueryRowxContext(ctx, query,
		holding.PortfolioID,
		holding.Symbol,
		holding.CompanyName,
		holding.Quantity,
		holding.AvgPrice,
		invested,
		holding.PurchaseDate,
		holding.Notes,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to add holding",
			zap.Error(err),
			zap.Int("portfolio_id", holding.PortfolioID),
			zap.String("symbol", holding.Symbol))
		return 0, err
	}
	return id, nil
}

// GetHoldings retrieves all holdings of a portfolio ordered by symbol.
func (r *PortfolioRepository) GetHoldings(ctx context.Context, portfolioID int) ([]model.Holding, error) {
	query := `
		SELECT id, portfolio_id, symbol, company_name, quantity, avg_price,
		       current_price, invested_value, current_value, purchase_date, notes
		FROM portfolio_holdings
		WHERE portfolio_id = $1
		ORDER BY symbol
	`

	var holdings []model.Holding
	err := r.db.SelectContext(ctx, &holdings, query, portfolioID)
	if err != nil {
		r.logger.Error("Failed to get holdings",
			zap.Error(err),
			zap.Int("portfolio_id", portfolioID))
		return nil, err
	}
	return holdings, nil
}

// UpdateHoldingPrice writes a fresh quote-derived price and value.
func (r *PortfolioRepository) UpdateHoldingPrice(ctx context.Context, holdingID int, currentPrice, currentValue decimal.Decimal) error {
	query := `
		UPDATE portfolio_holdings
		SET current_price = $1, current_value = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, currentPrice, currentValue, holdingID)
	if err != nil {
		r.logger.Error("Failed to update holding price",
			zap.Error(err),
			zap.Int("holding_id", holdingID))
		return err
	}
	return nil
}

// RemoveHolding deletes a holding from a portfolio.
func (r *PortfolioRepository) RemoveHolding(ctx context.Context, portfolioID, holdingID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM portfolio_holdings WHERE id = $1 AND portfolio_id = $2`,
		holdingID, portfolioID)
	if err != nil {
		r.logger.Error("Failed to remove holding",
			zap.Error(err),
			zap.Int("holding_id", holdingID))
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
