package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

// LoanRepository persists loans and their allocation lines.
type LoanRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{q: querier{pool: pool}, pool: pool}
}

func (r *LoanRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const loanColumns = `id, borrower_id, location_id, reserved_from, reserved_until, status, note, handed_over_at, returned_at, created_at`

func (r *LoanRepository) CreateLoan(ctx context.Context, loan domain.Loan) error {
	const stmt = `
INSERT INTO loans (id, borrower_id, location_id, reserved_from, reserved_until, status, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.exec(ctx, stmt,
		loan.ID, loan.BorrowerID, loan.LocationID,
		loan.ReservedFrom, loan.ReservedUntil, loan.Status, loan.Note, loan.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

func (r *LoanRepository) GetLoan(ctx context.Context, id string) (domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.scanLoan(r.q.queryRow(ctx, query, id))
}

func (r *LoanRepository) GetLoanForUpdate(ctx context.Context, id string) (domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return r.scanLoan(r.q.queryRow(ctx, query, id))
}

func (r *LoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	const stmt = `
UPDATE loans
SET status = $2, note = $3, handed_over_at = $4, returned_at = $5
WHERE id = $1`
	tag, err := r.q.exec(ctx, stmt, loan.ID, loan.Status, loan.Note, loan.HandedOverAt, loan.ReturnedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("save loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

const itemColumns = `id, loan_id, item_type, model_id, asset_id, quantity, parent_id, status, condition_on_handover, created_at`

func (r *LoanRepository) CreateItem(ctx context.Context, item domain.LoanItem) error {
	const stmt = `
INSERT INTO loan_items (id, loan_id, item_type, model_id, asset_id, quantity, parent_id, status, condition_on_handover, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.exec(ctx, stmt,
		item.ID, item.LoanID, item.Type, item.ModelID, item.AssetID,
		item.Quantity, item.ParentID, item.Status, item.ConditionOnHandover, item.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create loan item: %w", err)
	}
	return nil
}

func (r *LoanRepository) GetItem(ctx context.Context, itemID string) (domain.LoanItem, error) {
	query := `SELECT ` + itemColumns + ` FROM loan_items WHERE id = $1`
	return r.scanItem(r.q.queryRow(ctx, query, itemID))
}

func (r *LoanRepository) SaveItem(ctx context.Context, item domain.LoanItem) error {
	const stmt = `
UPDATE loan_items
SET model_id = $2, status = $3, condition_on_handover = $4
WHERE id = $1`
	tag, err := r.q.exec(ctx, stmt, item.ID, item.ModelID, item.Status, item.ConditionOnHandover)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("save loan item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanItemNotFound
	}
	return nil
}

func (r *LoanRepository) DeleteItem(ctx context.Context, itemID string) error {
	const stmt = `DELETE FROM loan_items WHERE id = $1`
	tag, err := r.q.exec(ctx, stmt, itemID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete loan item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanItemNotFound
	}
	return nil
}

func (r *LoanRepository) ListItemsByLoan(ctx context.Context, loanID string) ([]domain.LoanItem, error) {
	query := `SELECT ` + itemColumns + ` FROM loan_items WHERE loan_id = $1 ORDER BY created_at, id`
	return r.listItems(ctx, query, loanID)
}

func (r *LoanRepository) ListItemsByParent(ctx context.Context, parentID string) ([]domain.LoanItem, error) {
	query := `SELECT ` + itemColumns + ` FROM loan_items WHERE parent_id = $1 ORDER BY created_at, id`
	return r.listItems(ctx, query, parentID)
}

func (r *LoanRepository) listItems(ctx context.Context, query, arg string) ([]domain.LoanItem, error) {
	rows, err := r.q.query(ctx, query, arg)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list loan items: %w", err)
	}
	defer rows.Close()

	var out []domain.LoanItem
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *LoanRepository) scanLoan(row pgx.Row) (domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(
		&l.ID, &l.BorrowerID, &l.LocationID,
		&l.ReservedFrom, &l.ReservedUntil, &l.Status, &l.Note,
		&l.HandedOverAt, &l.ReturnedAt, &l.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Loan{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Loan{}, domain.ErrLoanNotFound
		}
		return domain.Loan{}, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) scanItem(row pgx.Row) (domain.LoanItem, error) {
	var item domain.LoanItem
	err := row.Scan(
		&item.ID, &item.LoanID, &item.Type, &item.ModelID, &item.AssetID,
		&item.Quantity, &item.ParentID, &item.Status, &item.ConditionOnHandover, &item.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.LoanItem{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.LoanItem{}, domain.ErrLoanItemNotFound
		}
		return domain.LoanItem{}, fmt.Errorf("get loan item: %w", err)
	}
	return item, nil
}
