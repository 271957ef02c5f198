package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type MaintenanceRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewMaintenanceRepository(pool *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{q: querier{pool: pool}, pool: pool}
}

func (r *MaintenanceRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const maintenanceColumns = `id, asset_id, status, reported_by, created_at, updated_at`

func (r *MaintenanceRepository) CreateMaintenance(ctx context.Context, m domain.Maintenance) error {
	const stmt = `
INSERT INTO maintenance_records (id, asset_id, status, reported_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.exec(ctx, stmt, m.ID, m.AssetID, m.Status, m.ReportedBy, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create maintenance: %w", err)
	}
	return nil
}

func (r *MaintenanceRepository) GetMaintenance(ctx context.Context, id string) (domain.Maintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = $1`
	return r.scanMaintenance(r.q.queryRow(ctx, query, id))
}

func (r *MaintenanceRepository) GetMaintenanceForUpdate(ctx context.Context, id string) (domain.Maintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = $1 FOR UPDATE`
	return r.scanMaintenance(r.q.queryRow(ctx, query, id))
}

func (r *MaintenanceRepository) SaveMaintenance(ctx context.Context, m domain.Maintenance) error {
	const stmt = `UPDATE maintenance_records SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.exec(ctx, stmt, m.ID, m.Status, m.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("save maintenance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMaintenanceNotFound
	}
	return nil
}

// AppendNote inserts into the append-only note log. There is deliberately no
// update or delete path for notes.
func (r *MaintenanceRepository) AppendNote(ctx context.Context, note domain.MaintenanceNote) error {
	const stmt = `
INSERT INTO maintenance_notes (id, maintenance_id, author, body, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.exec(ctx, stmt, note.ID, note.MaintenanceID, note.Author, note.Body, note.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("append maintenance note: %w", err)
	}
	return nil
}

func (r *MaintenanceRepository) ListNotes(ctx context.Context, maintenanceID string) ([]domain.MaintenanceNote, error) {
	const query = `
SELECT id, maintenance_id, author, body, created_at
FROM maintenance_notes
WHERE maintenance_id = $1
ORDER BY created_at, id`
	rows, err := r.q.query(ctx, query, maintenanceID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list maintenance notes: %w", err)
	}
	defer rows.Close()

	var out []domain.MaintenanceNote
	for rows.Next() {
		var n domain.MaintenanceNote
		if err := rows.Scan(&n.ID, &n.MaintenanceID, &n.Author, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan maintenance note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *MaintenanceRepository) ListMaintenanceByAsset(ctx context.Context, assetID string) ([]domain.Maintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE asset_id = $1 ORDER BY created_at DESC`
	rows, err := r.q.query(ctx, query, assetID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list maintenance by asset: %w", err)
	}
	defer rows.Close()

	var out []domain.Maintenance
	for rows.Next() {
		m, err := r.scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MaintenanceRepository) scanMaintenance(row pgx.Row) (domain.Maintenance, error) {
	var m domain.Maintenance
	err := row.Scan(&m.ID, &m.AssetID, &m.Status, &m.ReportedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Maintenance{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Maintenance{}, domain.ErrMaintenanceNotFound
		}
		return domain.Maintenance{}, fmt.Errorf("get maintenance: %w", err)
	}
	return m, nil
}
