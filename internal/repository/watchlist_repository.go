package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// WatchlistRepository handles database operations for the watchlist.
type WatchlistRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *sqlx.DB, logger *zap.Logger) *WatchlistRepository {
	return &WatchlistRepository{
		db:     db,
		logger: logger,
	}
}

// Add inserts a watchlist entry. Symbols are unique; re-adding updates the
// target price and notes.
func (r *WatchlistRepository) Add(ctx context.Context, entry *model.WatchlistEntry) (int, error) {
	query := `
		INSERT INTO watchlist (symbol, company_name, target_price, notes, added_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			target_price = EXCLUDED.target_price,
			notes = EXCLUDED.notes
		RETURNING id
	`

	var id int
	err := r.db.QueryRowxContext(ctx, query,
		entry.Symbol,
		entry.CompanyName,
		entry.TargetPrice,
		entry.Notes,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to add watchlist entry",
			zap.Error(err),
			zap.String("symbol", entry.Symbol))
		return 0, err
	}
	return id, nil
}

// List retrieves the full watchlist ordered by symbol.
func (r *WatchlistRepository) List(ctx context.Context) ([]model.WatchlistEntry, error) {
	query := `
		SELECT id, symbol, company_name, target_price, notes, added_at
		FROM watchlist
		ORDER BY symbol
	`

	var entries []model.WatchlistEntry
	err := r.db.SelectContext(ctx, &entries, query)
	if err != nil {
		r.logger.Error("Failed to list watchlist", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

// Get retrieves a watchlist entry by symbol.
func (r *WatchlistRepository) Get(ctx context.Context, symbol string) (*model.WatchlistEntry, error) {
	query := `
		SELECT id, symbol, company_name, target_price, notes, added_at
		FROM watchlist
		WHERE symbol = $1
	`

	var entry model.WatchlistEntry
	err := r.db.GetContext(ctx, &entry, query, symbol)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get watchlist entry",
			zap.Error(err),
			zap.String("symbol", symbol))
		return nil, err
	}
	return &entry, nil
}

// Remove deletes a watchlist entry by symbol.
func (r *WatchlistRepository) Remove(ctx context.Context, symbol string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = $1`, symbol)
	if err != nil {
		r.logger.Error("Failed to remove watchlist entry",
			zap.Error(err),
			zap.String("symbol", symbol))
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
