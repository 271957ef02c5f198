package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type BundleRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewBundleRepository(pool *pgxpool.Pool) *BundleRepository {
	return &BundleRepository{q: querier{pool: pool}, pool: pool}
}

func (r *BundleRepository) GetDefinition(ctx context.Context, id string) (domain.BundleDefinition, error) {
	const query = `SELECT id, model_id FROM bundle_definitions WHERE id = $1`
	return r.loadDefinition(ctx, query, id)
}

func (r *BundleRepository) GetDefinitionByModel(ctx context.Context, modelID string) (domain.BundleDefinition, error) {
	const query = `SELECT id, model_id FROM bundle_definitions WHERE model_id = $1`
	return r.loadDefinition(ctx, query, modelID)
}

func (r *BundleRepository) CreateBundleDefinition(ctx context.Context, def domain.BundleDefinition) error {
	const defStmt = `INSERT INTO bundle_definitions (id, model_id) VALUES ($1, $2)`
	if _, err := r.q.exec(ctx, defStmt, def.ID, def.ModelID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create bundle definition: %w", err)
	}
	const itemStmt = `
INSERT INTO bundle_items (id, bundle_id, component_model_id, quantity, optional, position)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, bi := range def.Items {
		if _, err := r.q.exec(ctx, itemStmt, bi.ID, bi.BundleID, bi.ComponentModelID, bi.Quantity, bi.Optional, bi.Position); err != nil {
			return fmt.Errorf("create bundle item: %w", err)
		}
	}
	return nil
}

func (r *BundleRepository) loadDefinition(ctx context.Context, query, arg string) (domain.BundleDefinition, error) {
	var def domain.BundleDefinition
	err := r.q.queryRow(ctx, query, arg).Scan(&def.ID, &def.ModelID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.BundleDefinition{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.BundleDefinition{}, domain.ErrBundleNotFound
		}
		return domain.BundleDefinition{}, fmt.Errorf("get bundle definition: %w", err)
	}

	const itemsQuery = `
SELECT id, bundle_id, component_model_id, quantity, optional, position
FROM bundle_items
WHERE bundle_id = $1
ORDER BY position`
	rows, err := r.q.query(ctx, itemsQuery, def.ID)
	if err != nil {
		return domain.BundleDefinition{}, fmt.Errorf("list bundle items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bi domain.BundleItem
		if err := rows.Scan(&bi.ID, &bi.BundleID, &bi.ComponentModelID, &bi.Quantity, &bi.Optional, &bi.Position); err != nil {
			return domain.BundleDefinition{}, fmt.Errorf("scan bundle item: %w", err)
		}
		def.Items = append(def.Items, bi)
	}
	return def, rows.Err()
}
