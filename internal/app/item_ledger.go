package app

import (
	"context"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/audit"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/clock"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type ItemStore interface {
	CreateItem(ctx context.Context, item domain.LoanItem) error
	GetItem(ctx context.Context, itemID string) (domain.LoanItem, error)
	SaveItem(ctx context.Context, item domain.LoanItem) error
	DeleteItem(ctx context.Context, itemID string) error
	ListItemsByLoan(ctx context.Context, loanID string) ([]domain.LoanItem, error)
	ListItemsByParent(ctx context.Context, parentID string) ([]domain.LoanItem, error)
}

// ItemLedger materializes allocation rows and drives the per-item status
// machine. It is always driven by the loan orchestrator inside its
// transaction, never by external callers, so stock and loan status stay
// consistent with item transitions.
type ItemLedger struct {
	items ItemStore
	audit audit.Recorder
	clock clock.Clock
}

func NewItemLedger(items ItemStore, rec audit.Recorder, clk clock.Clock) *ItemLedger {
	return &ItemLedger{items: items, audit: rec, clock: clk}
}

// AddSerialized binds one asset to the loan. Only legal while the loan is
// reserved; the asset must belong to the loan's lending location. A location
// mismatch is reported as not-found so callers cannot probe other sites'
// inventories.
func (l *ItemLedger) AddSerialized(ctx context.Context, loan domain.Loan, asset domain.Asset, parentID *string) (domain.LoanItem, error) {
	if loan.Status != domain.LoanStatusReserved {
		return domain.LoanItem{}, domain.ErrInvalidState
	}
	if asset.LocationID != loan.LocationID {
		return domain.LoanItem{}, domain.ErrAssetNotFound
	}
	if !asset.Loanable() {
		return domain.LoanItem{}, domain.ErrInsufficientAvailability
	}
	assetID := asset.ID
	itemType := domain.ItemTypeSerialized
	if parentID != nil {
		itemType = domain.ItemTypeBundleComponent
	}
	item := domain.LoanItem{
		ID:        newID(),
		LoanID:    loan.ID,
		Type:      itemType,
		ModelID:   asset.ModelID,
		AssetID:   &assetID,
		Quantity:  1,
		ParentID:  parentID,
		Status:    domain.ItemStatusReserved,
		CreatedAt: l.clock.Now(),
	}
	if err := l.items.CreateItem(ctx, item); err != nil {
		return domain.LoanItem{}, err
	}
	l.audit.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditItemAdded,
		LoanID:     loan.ID,
		ItemID:     item.ID,
		AssetID:    assetID,
		OccurredAt: l.clock.Now(),
	})
	return item, nil
}

// AddBulk adds a fungible quantity line. The caller is responsible for having
// debited the stock ledger in the same transaction.
func (l *ItemLedger) AddBulk(ctx context.Context, loan domain.Loan, modelID string, qty int, parentID *string) (domain.LoanItem, error) {
	if loan.Status != domain.LoanStatusReserved {
		return domain.LoanItem{}, domain.ErrInvalidState
	}
	if qty <= 0 {
		return domain.LoanItem{}, domain.ErrInvalidQuantity
	}
	itemType := domain.ItemTypeBulk
	if parentID != nil {
		itemType = domain.ItemTypeBundleComponent
	}
	item := domain.LoanItem{
		ID:        newID(),
		LoanID:    loan.ID,
		Type:      itemType,
		ModelID:   modelID,
		Quantity:  qty,
		ParentID:  parentID,
		Status:    domain.ItemStatusReserved,
		CreatedAt: l.clock.Now(),
	}
	if err := l.items.CreateItem(ctx, item); err != nil {
		return domain.LoanItem{}, err
	}
	l.audit.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditItemAdded,
		LoanID:     loan.ID,
		ItemID:     item.ID,
		OccurredAt: l.clock.Now(),
	})
	return item, nil
}

// AddBundleRoot creates the grouping anchor for a bundle reservation. It has
// no physical binding of its own.
func (l *ItemLedger) AddBundleRoot(ctx context.Context, loan domain.Loan, modelID string) (domain.LoanItem, error) {
	if loan.Status != domain.LoanStatusReserved {
		return domain.LoanItem{}, domain.ErrInvalidState
	}
	item := domain.LoanItem{
		ID:        newID(),
		LoanID:    loan.ID,
		Type:      domain.ItemTypeBundleRoot,
		ModelID:   modelID,
		Quantity:  1,
		Status:    domain.ItemStatusReserved,
		CreatedAt: l.clock.Now(),
	}
	if err := l.items.CreateItem(ctx, item); err != nil {
		return domain.LoanItem{}, err
	}
	l.audit.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditItemAdded,
		LoanID:     loan.ID,
		ItemID:     item.ID,
		OccurredAt: l.clock.Now(),
	})
	return item, nil
}

// Remove deletes an allocation line from a still-reserved loan.
func (l *ItemLedger) Remove(ctx context.Context, loan domain.Loan, item domain.LoanItem) error {
	if loan.Status != domain.LoanStatusReserved {
		return domain.ErrInvalidState
	}
	if err := l.items.DeleteItem(ctx, item.ID); err != nil {
		return err
	}
	l.audit.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditItemRemoved,
		LoanID:     loan.ID,
		ItemID:     item.ID,
		OccurredAt: l.clock.Now(),
	})
	return nil
}

// Transition moves one item through its status machine. cond, when set,
// snapshots the asset condition at hand-over.
func (l *ItemLedger) Transition(ctx context.Context, item domain.LoanItem, next domain.LoanItemStatus, cond *domain.AssetCondition) (domain.LoanItem, error) {
	if !item.CanTransition(next) {
		return domain.LoanItem{}, domain.ErrInvalidState
	}
	item.Status = next
	if cond != nil {
		item.ConditionOnHandover = cond
	}
	if err := l.items.SaveItem(ctx, item); err != nil {
		return domain.LoanItem{}, err
	}
	l.audit.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditItemTransition,
		LoanID:     item.LoanID,
		ItemID:     item.ID,
		Detail:     string(next),
		OccurredAt: l.clock.Now(),
	})
	return item, nil
}
