package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

// CatalogRepository persists asset models, assets, locations, bundle
// definitions and custom fields.
type CatalogRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{q: querier{pool: pool}, pool: pool}
}

func (r *CatalogRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const modelColumns = `id, name, manufacturer, category, location_id, tracking, created_at`

func (r *CatalogRepository) GetModel(ctx context.Context, id string) (domain.AssetModel, error) {
	query := `SELECT ` + modelColumns + ` FROM asset_models WHERE id = $1`
	return r.scanModel(r.q.queryRow(ctx, query, id))
}

// GetModelForUpdate locks the catalog row. Reservation paths take this lock
// before counting conflicts so two concurrent attempts for the same model
// serialize.
func (r *CatalogRepository) GetModelForUpdate(ctx context.Context, id string) (domain.AssetModel, error) {
	query := `SELECT ` + modelColumns + ` FROM asset_models WHERE id = $1 FOR UPDATE`
	return r.scanModel(r.q.queryRow(ctx, query, id))
}

func (r *CatalogRepository) CreateModel(ctx context.Context, m domain.AssetModel) error {
	const stmt = `
INSERT INTO asset_models (id, name, manufacturer, category, location_id, tracking, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.exec(ctx, stmt, m.ID, m.Name, m.Manufacturer, m.Category, m.LocationID, m.Tracking, m.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create model: %w", err)
	}
	return nil
}

const assetColumns = `id, model_id, location_id, code, condition, active, storage_place, replacement_value, created_at, deleted_at`

func (r *CatalogRepository) GetAsset(ctx context.Context, id string, includeDeleted bool) (domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	return scanAsset(r.q.queryRow(ctx, query, id))
}

func (r *CatalogRepository) CreateAsset(ctx context.Context, a domain.Asset) error {
	const stmt = `
INSERT INTO assets (id, model_id, location_id, code, condition, active, storage_place, replacement_value, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.exec(ctx, stmt, a.ID, a.ModelID, a.LocationID, a.Code, a.Condition, a.Active, a.StoragePlace, a.ReplacementValue, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAssetCode
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (r *CatalogRepository) SoftDeleteAsset(ctx context.Context, assetID string) error {
	const stmt = `UPDATE assets SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.q.exec(ctx, stmt, assetID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (r *CatalogRepository) SearchAssets(ctx context.Context, q app.AssetSearch) ([]domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE 1=1`
	args := []any{}
	n := 0
	next := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if !q.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if q.Query != "" {
		p := next("%" + q.Query + "%")
		query += ` AND (code ILIKE ` + p + ` OR storage_place ILIKE ` + p + ` OR model_id IN (SELECT id FROM asset_models WHERE name ILIKE ` + p + `))`
	}
	if q.ModelID != "" {
		query += ` AND model_id = ` + next(q.ModelID)
	}
	if q.LocationID != "" {
		query += ` AND location_id = ` + next(q.LocationID)
	}
	query += ` ORDER BY code LIMIT ` + next(q.Limit)

	rows, err := r.q.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("search assets: %w", err)
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

func (r *CatalogRepository) ListAssetCodes(ctx context.Context, locationID string) ([]string, error) {
	const query = `SELECT code FROM assets WHERE location_id = $1 AND deleted_at IS NULL ORDER BY code`
	rows, err := r.q.query(ctx, query, locationID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list asset codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan asset code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *CatalogRepository) CreateLocation(ctx context.Context, l domain.Location) error {
	const stmt = `INSERT INTO locations (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := r.q.exec(ctx, stmt, l.ID, l.Name, l.CreatedAt); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	const hourStmt = `
INSERT INTO location_hours (location_id, weekday, open_mins, close_mins)
VALUES ($1, $2, $3, $4)`
	for _, h := range l.Hours {
		if _, err := r.q.exec(ctx, hourStmt, l.ID, int(h.Weekday), h.OpenMins, h.CloseMins); err != nil {
			return fmt.Errorf("create location hours: %w", err)
		}
	}
	return nil
}

func (r *CatalogRepository) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	const query = `SELECT id, name, created_at FROM locations WHERE id = $1`
	var l domain.Location
	err := r.q.queryRow(ctx, query, id).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Location{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Location{}, domain.ErrLocationNotFound
		}
		return domain.Location{}, fmt.Errorf("get location: %w", err)
	}

	const hoursQuery = `SELECT weekday, open_mins, close_mins FROM location_hours WHERE location_id = $1 ORDER BY weekday, open_mins`
	rows, err := r.q.query(ctx, hoursQuery, id)
	if err != nil {
		return domain.Location{}, fmt.Errorf("get location hours: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var weekday int
		var h domain.OpeningHours
		if err := rows.Scan(&weekday, &h.OpenMins, &h.CloseMins); err != nil {
			return domain.Location{}, fmt.Errorf("scan location hours: %w", err)
		}
		h.Weekday = time.Weekday(weekday)
		l.Hours = append(l.Hours, h)
	}
	return l, rows.Err()
}

func (r *CatalogRepository) CreateFieldDefinition(ctx context.Context, def domain.FieldDefinition) error {
	const stmt = `
INSERT INTO field_definitions (id, name, field_type, options, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.exec(ctx, stmt, def.ID, def.Name, def.Type, def.Options, def.CreatedAt); err != nil {
		return fmt.Errorf("create field definition: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetFieldDefinition(ctx context.Context, id string) (domain.FieldDefinition, error) {
	const query = `SELECT id, name, field_type, options, created_at FROM field_definitions WHERE id = $1`
	var def domain.FieldDefinition
	err := r.q.queryRow(ctx, query, id).Scan(&def.ID, &def.Name, &def.Type, &def.Options, &def.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.FieldDefinition{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.FieldDefinition{}, domain.ErrFieldNotFound
		}
		return domain.FieldDefinition{}, fmt.Errorf("get field definition: %w", err)
	}
	return def, nil
}

// SaveFieldValue upserts the tagged union row; the service validated it
// against the definition already.
func (r *CatalogRepository) SaveFieldValue(ctx context.Context, assetID string, v domain.FieldValue) error {
	const stmt = `
INSERT INTO field_values (asset_id, field_id, field_type, string_value, number_value, boolean_value, date_value, enum_value)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (asset_id, field_id) DO UPDATE
SET field_type = EXCLUDED.field_type,
    string_value = EXCLUDED.string_value,
    number_value = EXCLUDED.number_value,
    boolean_value = EXCLUDED.boolean_value,
    date_value = EXCLUDED.date_value,
    enum_value = EXCLUDED.enum_value`
	_, err := r.q.exec(ctx, stmt, assetID, v.FieldID, v.Type, v.String, v.Number, v.Boolean, v.Date, v.Enum)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("save field value: %w", err)
	}
	return nil
}

func (r *CatalogRepository) scanModel(row pgx.Row) (domain.AssetModel, error) {
	var m domain.AssetModel
	err := row.Scan(&m.ID, &m.Name, &m.Manufacturer, &m.Category, &m.LocationID, &m.Tracking, &m.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.AssetModel{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.AssetModel{}, domain.ErrAssetModelNotFound
		}
		return domain.AssetModel{}, fmt.Errorf("get model: %w", err)
	}
	return m, nil
}

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var a domain.Asset
	err := row.Scan(&a.ID, &a.ModelID, &a.LocationID, &a.Code, &a.Condition, &a.Active, &a.StoragePlace, &a.ReplacementValue, &a.CreatedAt, &a.DeletedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Asset{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Asset{}, domain.ErrAssetNotFound
		}
		return domain.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}
