package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

// blockingLoanFilter is the half-open overlap formula shared by every
// conflict query: handed-over and overdue loans block unconditionally, a
// reserved loan blocks while its window overlaps [$from, $until).
const blockingLoanFilter = `
li.status IN ('reserved', 'handed_over')
AND (
    l.status IN ('handed_over', 'overdue')
    OR (l.status = 'reserved' AND l.reserved_from < %s AND l.reserved_until > %s)
)`

// AssetRepository answers the availability queries: loanable-unit counts,
// window conflicts, and free-asset picking.
type AssetRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{q: querier{pool: pool}, pool: pool}
}

func (r *AssetRepository) GetAsset(ctx context.Context, id string, includeDeleted bool) (domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	return scanAsset(r.q.queryRow(ctx, query, id))
}

func (r *AssetRepository) SaveAssetCondition(ctx context.Context, assetID string, cond domain.AssetCondition) error {
	const stmt = `UPDATE assets SET condition = $2 WHERE id = $1`
	tag, err := r.q.exec(ctx, stmt, assetID, cond)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("save asset condition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (r *AssetRepository) CountLoanableAssets(ctx context.Context, modelID, locationID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM assets
WHERE model_id = $1 AND location_id = $2
  AND active AND deleted_at IS NULL AND condition <> 'lost'`
	var count int
	if err := r.q.queryRow(ctx, query, modelID, locationID).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count loanable assets: %w", err)
	}
	return count, nil
}

func (r *AssetRepository) CountBlockingItems(ctx context.Context, modelID string, from, until time.Time) (int, error) {
	query := `
SELECT COUNT(*)
FROM loan_items li
JOIN loans l ON l.id = li.loan_id
WHERE li.model_id = $1 AND li.asset_id IS NOT NULL AND ` + fmt.Sprintf(blockingLoanFilter, "$3", "$2")
	var count int
	if err := r.q.queryRow(ctx, query, modelID, from, until).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count blocking items: %w", err)
	}
	return count, nil
}

func (r *AssetRepository) CountBlockingItemsForAsset(ctx context.Context, assetID string, from, until time.Time) (int, error) {
	query := `
SELECT COUNT(*)
FROM loan_items li
JOIN loans l ON l.id = li.loan_id
WHERE li.asset_id = $1 AND ` + fmt.Sprintf(blockingLoanFilter, "$3", "$2")
	var count int
	if err := r.q.queryRow(ctx, query, assetID, from, until).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count blocking items for asset: %w", err)
	}
	return count, nil
}

func (r *AssetRepository) CountHeldElsewhere(ctx context.Context, assetID, excludeLoanID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM loan_items li
JOIN loans l ON l.id = li.loan_id
WHERE li.asset_id = $1 AND li.loan_id <> $2
  AND li.status IN ('reserved', 'handed_over')
  AND l.status IN ('handed_over', 'overdue')`
	var count int
	if err := r.q.queryRow(ctx, query, assetID, excludeLoanID).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count held elsewhere: %w", err)
	}
	return count, nil
}

// PickFreeAssets returns up to qty loanable assets of the model with no
// blocking loan item in the window, in stable code order so allocation is
// deterministic.
func (r *AssetRepository) PickFreeAssets(ctx context.Context, modelID, locationID string, from, until time.Time, qty int) ([]domain.Asset, error) {
	query := `
SELECT ` + assetColumns + `
FROM assets a
WHERE a.model_id = $1 AND a.location_id = $2
  AND a.active AND a.deleted_at IS NULL AND a.condition <> 'lost'
  AND NOT EXISTS (
    SELECT 1
    FROM loan_items li
    JOIN loans l ON l.id = li.loan_id
    WHERE li.asset_id = a.id AND ` + fmt.Sprintf(blockingLoanFilter, "$4", "$3") + `
  )
ORDER BY a.code
LIMIT $5`
	rows, err := r.q.query(ctx, query, modelID, locationID, from, until, qty)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("pick free assets: %w", err)
	}
	defer rows.Close()

	var out []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
