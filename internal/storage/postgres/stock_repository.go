package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type StockRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{q: querier{pool: pool}, pool: pool}
}

func (r *StockRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const stockColumns = `model_id, location_id, quantity_total, quantity_available, updated_at`

func (r *StockRepository) GetStock(ctx context.Context, modelID, locationID string) (domain.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE model_id = $1 AND location_id = $2`
	return r.scanStock(r.q.queryRow(ctx, query, modelID, locationID))
}

// GetStockForUpdate locks the ledger row so the read-modify-write cannot lose
// updates under concurrent reservations.
func (r *StockRepository) GetStockForUpdate(ctx context.Context, modelID, locationID string) (domain.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE model_id = $1 AND location_id = $2 FOR UPDATE`
	return r.scanStock(r.q.queryRow(ctx, query, modelID, locationID))
}

func (r *StockRepository) CreateStock(ctx context.Context, lvl domain.StockLevel) error {
	const stmt = `
INSERT INTO stock_levels (model_id, location_id, quantity_total, quantity_available, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.exec(ctx, stmt, lvl.ModelID, lvl.LocationID, lvl.QuantityTotal, lvl.QuantityAvailable, lvl.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with another ensure; the row exists now.
			return nil
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create stock: %w", err)
	}
	return nil
}

func (r *StockRepository) SaveStock(ctx context.Context, lvl domain.StockLevel) error {
	const stmt = `
UPDATE stock_levels
SET quantity_total = $3, quantity_available = $4, updated_at = $5
WHERE model_id = $1 AND location_id = $2`
	tag, err := r.q.exec(ctx, stmt, lvl.ModelID, lvl.LocationID, lvl.QuantityTotal, lvl.QuantityAvailable, lvl.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("save stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

func (r *StockRepository) scanStock(row pgx.Row) (domain.StockLevel, error) {
	var lvl domain.StockLevel
	err := row.Scan(&lvl.ModelID, &lvl.LocationID, &lvl.QuantityTotal, &lvl.QuantityAvailable, &lvl.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.StockLevel{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.StockLevel{}, domain.ErrStockNotFound
		}
		return domain.StockLevel{}, fmt.Errorf("get stock: %w", err)
	}
	return lvl, nil
}
