package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/audit"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/clock"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type LoanStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateLoan(ctx context.Context, loan domain.Loan) error
	GetLoan(ctx context.Context, id string) (domain.Loan, error)
	GetLoanForUpdate(ctx context.Context, id string) (domain.Loan, error)
	SaveLoan(ctx context.Context, loan domain.Loan) error
}

type AssetStore interface {
	GetAsset(ctx context.Context, id string, includeDeleted bool) (domain.Asset, error)
	SaveAssetCondition(ctx context.Context, assetID string, cond domain.AssetCondition) error
	// CountBlockingItemsForAsset counts loan items holding this specific
	// asset whose parent loan blocks the window.
	CountBlockingItemsForAsset(ctx context.Context, assetID string, from, until time.Time) (int, error)
	// CountHeldElsewhere counts loan items holding the asset on other loans
	// that are currently handed over or overdue.
	CountHeldElsewhere(ctx context.Context, assetID, excludeLoanID string) (int, error)
}

type LocationStore interface {
	GetLocation(ctx context.Context, id string) (domain.Location, error)
}

// ReservationLine is one requested allocation: either a specific asset (scan
// flow) or a model plus quantity.
type ReservationLine struct {
	AssetID  string
	ModelID  string
	Quantity int
}

type CreateReservationInput struct {
	BorrowerID string
	LocationID string
	From       time.Time
	Until      time.Time
	Note       string
	Lines      []ReservationLine
}

type CreateReservationResult struct {
	Loan       domain.Loan
	Components []domain.ComponentResult
}

type HandOverInput struct {
	Actor string
	Note  string
}

type ReturnInput struct {
	Actor   string
	Note    string
	Lost    []string
	Damaged []string
}

type ReturnResult struct {
	Loan       domain.Loan
	LossCharge decimal.Decimal
}

// LoanServiceDeps collects the orchestrator's collaborators.
type LoanServiceDeps struct {
	Loans     LoanStore
	Items     ItemStore
	Assets    AssetStore
	Locations LocationStore
	Catalog   CatalogStore
	Picker    AssetPicker
	Stock     *StockService
	Avail     *AvailabilityService
	Bundles   *BundleService
	Ledger    *ItemLedger
	Audit     audit.Recorder
	Clock     clock.Clock
}

// LoanService is the reservation orchestrator. Every state-changing operation
// runs inside one transaction so a failure at any step rolls back every side
// effect.
type LoanService struct {
	loans     LoanStore
	items     ItemStore
	assets    AssetStore
	locations LocationStore
	catalog   CatalogStore
	picker    AssetPicker
	stock     *StockService
	avail     *AvailabilityService
	bundles   *BundleService
	ledger    *ItemLedger
	audit     audit.Recorder
	clock     clock.Clock
}

func NewLoanService(d LoanServiceDeps) *LoanService {
	return &LoanService{
		loans:     d.Loans,
		items:     d.Items,
		assets:    d.Assets,
		locations: d.Locations,
		catalog:   d.Catalog,
		picker:    d.Picker,
		stock:     d.Stock,
		avail:     d.Avail,
		bundles:   d.Bundles,
		ledger:    d.Ledger,
		audit:     d.Audit,
		clock:     d.Clock,
	}
}

// CreateReservation validates the window, allocates every requested line, and
// commits the loan with status reserved. Any shortfall aborts the whole
// transaction; no partial reservation ever becomes visible.
func (s *LoanService) CreateReservation(ctx context.Context, in CreateReservationInput) (CreateReservationResult, error) {
	if in.BorrowerID == "" || in.LocationID == "" {
		return CreateReservationResult{}, domain.ErrInvalidID
	}
	if !in.From.Before(in.Until) {
		return CreateReservationResult{}, domain.ErrInvalidWindow
	}
	if len(in.Lines) == 0 {
		return CreateReservationResult{}, domain.ErrInvalidQuantity
	}

	location, err := s.locations.GetLocation(ctx, in.LocationID)
	if err != nil {
		return CreateReservationResult{}, err
	}
	if !location.OpenAt(in.From) || !location.OpenAt(in.Until) {
		return CreateReservationResult{}, domain.ErrOutsideOpeningHours
	}

	loan := domain.Loan{
		ID:            newID(),
		BorrowerID:    in.BorrowerID,
		LocationID:    in.LocationID,
		ReservedFrom:  in.From,
		ReservedUntil: in.Until,
		Status:        domain.LoanStatusReserved,
		Note:          in.Note,
		CreatedAt:     s.clock.Now(),
	}

	var components []domain.ComponentResult
	err = s.loans.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.loans.CreateLoan(txCtx, loan); err != nil {
			return err
		}
		for _, line := range in.Lines {
			results, err := s.reserveLine(txCtx, loan, line)
			if err != nil {
				return err
			}
			components = append(components, results...)
		}
		items, err := s.items.ListItemsByLoan(txCtx, loan.ID)
		if err != nil {
			return err
		}
		loan.Items = items
		return nil
	})
	if err != nil {
		return CreateReservationResult{}, err
	}

	s.audit.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditLoanCreated,
		LoanID:     loan.ID,
		Actor:      in.BorrowerID,
		OccurredAt: s.clock.Now(),
	})
	return CreateReservationResult{Loan: loan, Components: components}, nil
}

// reserveLine dispatches one line by tracking type inside the caller's
// transaction.
func (s *LoanService) reserveLine(ctx context.Context, loan domain.Loan, line ReservationLine) ([]domain.ComponentResult, error) {
	if line.AssetID != "" {
		return nil, s.reserveNamedAsset(ctx, loan, line.AssetID)
	}

	model, err := s.catalog.GetModel(ctx, line.ModelID)
	if err != nil {
		return nil, err
	}
	if model.LocationID != loan.LocationID {
		return nil, domain.ErrAssetModelNotFound
	}

	switch model.Tracking {
	case domain.TrackingSerialized:
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		// Lock the catalog row so two concurrent reservations for the same
		// model cannot both pass the count below.
		if _, err := s.catalog.GetModelForUpdate(ctx, model.ID); err != nil {
			return nil, err
		}
		if err := s.avail.AssertAvailable(ctx, model.ID, loan.LocationID, loan.ReservedFrom, loan.ReservedUntil, line.Quantity); err != nil {
			return nil, err
		}
		assets, err := s.picker.PickFreeAssets(ctx, model.ID, loan.LocationID, loan.ReservedFrom, loan.ReservedUntil, line.Quantity)
		if err != nil {
			return nil, err
		}
		if len(assets) < line.Quantity {
			return nil, domain.ErrInsufficientAvailability
		}
		for _, asset := range assets {
			if _, err := s.ledger.AddSerialized(ctx, loan, asset, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case domain.TrackingBulk:
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, err := s.stock.Decrease(ctx, model.ID, loan.LocationID, line.Quantity); err != nil {
			return nil, err
		}
		_, err := s.ledger.AddBulk(ctx, loan, model.ID, line.Quantity, nil)
		return nil, err

	case domain.TrackingBundle:
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		def, err := s.bundles.DefinitionByModel(ctx, model.ID)
		if err != nil {
			return nil, err
		}
		// One kit per iteration; each pass re-checks availability against
		// what the previous one already took.
		var results []domain.ComponentResult
		for i := 0; i < line.Quantity; i++ {
			_, r, err := s.bundles.Reserve(ctx, loan, def, loan.ReservedFrom, loan.ReservedUntil)
			if err != nil {
				return nil, err
			}
			results = append(results, r...)
		}
		return results, nil

	default:
		return nil, domain.ErrTrackingTypeMismatch
	}
}

func (s *LoanService) reserveNamedAsset(ctx context.Context, loan domain.Loan, assetID string) error {
	asset, err := s.assets.GetAsset(ctx, assetID, false)
	if err != nil {
		return err
	}
	if _, err := s.catalog.GetModelForUpdate(ctx, asset.ModelID); err != nil {
		return err
	}
	conflicts, err := s.assets.CountBlockingItemsForAsset(ctx, assetID, loan.ReservedFrom, loan.ReservedUntil)
	if err != nil {
		return err
	}
	if conflicts > 0 {
		return domain.ErrInsufficientAvailability
	}
	_, err = s.ledger.AddSerialized(ctx, loan, asset, nil)
	return err
}

// HandOver flips a reserved loan and its items to handed_over. For serialized
// items it asserts the asset is not physically out on another loan and
// snapshots the asset condition.
func (s *LoanService) HandOver(ctx context.Context, loanID string, in HandOverInput) (domain.Loan, error) {
	var result domain.Loan
	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusReserved {
			return domain.ErrInvalidState
		}
		items, err := s.items.ListItemsByLoan(txCtx, loan.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			var cond *domain.AssetCondition
			if item.AssetID != nil {
				held, err := s.assets.CountHeldElsewhere(txCtx, *item.AssetID, loan.ID)
				if err != nil {
					return err
				}
				if held > 0 {
					return domain.ErrAssetAlreadyLoaned
				}
				asset, err := s.assets.GetAsset(txCtx, *item.AssetID, false)
				if err != nil {
					return err
				}
				c := asset.Condition
				cond = &c
			}
			if _, err := s.ledger.Transition(txCtx, item, domain.ItemStatusHandedOver, cond); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		loan.Status = domain.LoanStatusHandedOver
		loan.HandedOverAt = &now
		if in.Note != "" {
			loan.Note = in.Note
		}
		if err := s.loans.SaveLoan(txCtx, loan); err != nil {
			return err
		}
		result = loan
		return nil
	})
	if err != nil {
		return domain.Loan{}, err
	}
	s.recordLoanStatus(ctx, result, in.Actor)
	return result, nil
}

// Return closes out a handed-over or overdue loan. Bulk lines are credited
// back to the stock ledger; lost serialized items flip the asset condition to
// lost and accumulate a replacement charge.
func (s *LoanService) Return(ctx context.Context, loanID string, in ReturnInput) (ReturnResult, error) {
	lost := toSet(in.Lost)
	damaged := toSet(in.Damaged)

	var result ReturnResult
	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusHandedOver && loan.Status != domain.LoanStatusOverdue {
			return domain.ErrInvalidState
		}
		items, err := s.items.ListItemsByLoan(txCtx, loan.ID)
		if err != nil {
			return err
		}

		charge := decimal.Zero
		for _, item := range items {
			next := domain.ItemStatusReturned
			if lost[item.ID] {
				next = domain.ItemStatusLost
			} else if damaged[item.ID] {
				next = domain.ItemStatusDamaged
			}
			if item.Type == domain.ItemTypeBundleRoot {
				next = domain.ItemStatusReturned
			}

			if _, err := s.ledger.Transition(txCtx, item, next, nil); err != nil {
				return err
			}

			if item.AssetID == nil {
				// Bulk line: lost quantities are gone and stay debited;
				// everything else is credited back.
				if item.Type != domain.ItemTypeBundleRoot && next != domain.ItemStatusLost {
					if _, err := s.stock.Increase(txCtx, item.ModelID, loan.LocationID, item.Quantity); err != nil {
						return err
					}
				}
				continue
			}

			switch next {
			case domain.ItemStatusLost:
				asset, err := s.assets.GetAsset(txCtx, *item.AssetID, false)
				if err != nil {
					return err
				}
				if err := s.assets.SaveAssetCondition(txCtx, asset.ID, domain.ConditionLost); err != nil {
					return err
				}
				charge = charge.Add(asset.ReplacementValue)
			case domain.ItemStatusDamaged:
				if err := s.assets.SaveAssetCondition(txCtx, *item.AssetID, domain.ConditionDamaged); err != nil {
					return err
				}
			}
		}

		now := s.clock.Now()
		loan.Status = domain.LoanStatusReturned
		loan.ReturnedAt = &now
		if in.Note != "" {
			loan.Note = in.Note
		}
		if err := s.loans.SaveLoan(txCtx, loan); err != nil {
			return err
		}
		result = ReturnResult{Loan: loan, LossCharge: charge}
		return nil
	})
	if err != nil {
		return ReturnResult{}, err
	}
	s.recordLoanStatus(ctx, result.Loan, in.Actor)
	return result, nil
}

// Cancel frees all capacity held by a reserved loan. It is a return-like
// transactional operation with no special preemption semantics.
func (s *LoanService) Cancel(ctx context.Context, loanID, actor, note string) (domain.Loan, error) {
	var result domain.Loan
	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusReserved {
			return domain.ErrInvalidState
		}
		items, err := s.items.ListItemsByLoan(txCtx, loan.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.AssetID == nil && item.Type != domain.ItemTypeBundleRoot {
				if _, err := s.stock.Increase(txCtx, item.ModelID, loan.LocationID, item.Quantity); err != nil {
					return err
				}
			}
		}
		loan.Status = domain.LoanStatusCancelled
		if note != "" {
			loan.Note = note
		}
		if err := s.loans.SaveLoan(txCtx, loan); err != nil {
			return err
		}
		result = loan
		return nil
	})
	if err != nil {
		return domain.Loan{}, err
	}
	s.recordLoanStatus(ctx, result, actor)
	return result, nil
}

// MarkOverdue flips a handed-over loan to overdue. The engine never times out
// stale reservations on its own; an external batch job is expected to call
// this, and to expire reservations whose window elapsed without hand-over.
func (s *LoanService) MarkOverdue(ctx context.Context, loanID string) (domain.Loan, error) {
	var result domain.Loan
	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusHandedOver {
			return domain.ErrInvalidState
		}
		loan.Status = domain.LoanStatusOverdue
		if err := s.loans.SaveLoan(txCtx, loan); err != nil {
			return err
		}
		result = loan
		return nil
	})
	if err != nil {
		return domain.Loan{}, err
	}
	s.recordLoanStatus(ctx, result, "")
	return result, nil
}

// AddItem allocates one more line on a still-reserved loan.
func (s *LoanService) AddItem(ctx context.Context, loanID string, line ReservationLine) (CreateReservationResult, error) {
	var result CreateReservationResult
	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusReserved {
			return domain.ErrInvalidState
		}
		components, err := s.reserveLine(txCtx, loan, line)
		if err != nil {
			return err
		}
		items, err := s.items.ListItemsByLoan(txCtx, loan.ID)
		if err != nil {
			return err
		}
		loan.Items = items
		result = CreateReservationResult{Loan: loan, Components: components}
		return nil
	})
	if err != nil {
		return CreateReservationResult{}, err
	}
	return result, nil
}

// RemoveItem drops a line from a still-reserved loan, crediting bulk stock
// back. Removing a bundle root removes its components as a unit.
func (s *LoanService) RemoveItem(ctx context.Context, loanID, itemID string) error {
	return s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusReserved {
			return domain.ErrInvalidState
		}
		item, err := s.items.GetItem(txCtx, itemID)
		if err != nil {
			return err
		}
		if item.LoanID != loan.ID {
			return domain.ErrLoanItemNotFound
		}

		toRemove := []domain.LoanItem{item}
		if item.Type == domain.ItemTypeBundleRoot {
			children, err := s.items.ListItemsByParent(txCtx, item.ID)
			if err != nil {
				return err
			}
			toRemove = append(children, item)
		}
		for _, it := range toRemove {
			if it.AssetID == nil && it.Type != domain.ItemTypeBundleRoot {
				if _, err := s.stock.Increase(txCtx, it.ModelID, loan.LocationID, it.Quantity); err != nil {
					return err
				}
			}
			if err := s.ledger.Remove(txCtx, loan, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateItemModel swaps the model of a bulk line on a reserved loan, moving
// the held quantity from the old model's stock to the new one. Serialized
// lines are asset-bound; callers remove and re-add those instead.
func (s *LoanService) UpdateItemModel(ctx context.Context, loanID, itemID, newModelID string) (domain.LoanItem, error) {
	var result domain.LoanItem
	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusReserved {
			return domain.ErrInvalidState
		}
		item, err := s.items.GetItem(txCtx, itemID)
		if err != nil {
			return err
		}
		if item.LoanID != loan.ID {
			return domain.ErrLoanItemNotFound
		}
		if item.Type != domain.ItemTypeBulk {
			return domain.ErrTrackingTypeMismatch
		}
		model, err := s.catalog.GetModel(txCtx, newModelID)
		if err != nil {
			return err
		}
		if model.Tracking != domain.TrackingBulk || model.LocationID != loan.LocationID {
			return domain.ErrTrackingTypeMismatch
		}

		if _, err := s.stock.Decrease(txCtx, newModelID, loan.LocationID, item.Quantity); err != nil {
			return err
		}
		if _, err := s.stock.Increase(txCtx, item.ModelID, loan.LocationID, item.Quantity); err != nil {
			return err
		}
		item.ModelID = newModelID
		if err := s.items.SaveItem(txCtx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return domain.LoanItem{}, err
	}
	return result, nil
}

// Get loads a loan with its items.
func (s *LoanService) Get(ctx context.Context, loanID string) (domain.Loan, error) {
	loan, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return domain.Loan{}, err
	}
	items, err := s.items.ListItemsByLoan(ctx, loanID)
	if err != nil {
		return domain.Loan{}, err
	}
	loan.Items = items
	return loan, nil
}

func (s *LoanService) recordLoanStatus(ctx context.Context, loan domain.Loan, actor string) {
	s.audit.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditLoanStatus,
		LoanID:     loan.ID,
		Actor:      actor,
		Detail:     string(loan.Status),
		OccurredAt: s.clock.Now(),
	})
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
