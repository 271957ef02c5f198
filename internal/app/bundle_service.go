package app

import (
	"context"
	"time"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type BundleStore interface {
	GetDefinition(ctx context.Context, id string) (domain.BundleDefinition, error)
	GetDefinitionByModel(ctx context.Context, modelID string) (domain.BundleDefinition, error)
}

type CatalogStore interface {
	GetModel(ctx context.Context, id string) (domain.AssetModel, error)
	// GetModelForUpdate locks the catalog row so a concurrent reservation for
	// the same model serializes behind this transaction.
	GetModelForUpdate(ctx context.Context, id string) (domain.AssetModel, error)
}

type AssetPicker interface {
	// PickFreeAssets returns up to qty loanable assets of the model at the
	// location with no blocking loan item in the window.
	PickFreeAssets(ctx context.Context, modelID, locationID string, from, until time.Time, qty int) ([]domain.Asset, error)
}

// BundleService expands composite models into their components and performs
// all-or-nothing reservation across the mandatory ones.
type BundleService struct {
	bundles BundleStore
	catalog CatalogStore
	stock   *StockService
	avail   *AvailabilityService
	picker  AssetPicker
	ledger  *ItemLedger
}

func NewBundleService(bundles BundleStore, catalog CatalogStore, stock *StockService, avail *AvailabilityService, picker AssetPicker, ledger *ItemLedger) *BundleService {
	return &BundleService{
		bundles: bundles,
		catalog: catalog,
		stock:   stock,
		avail:   avail,
		picker:  picker,
		ledger:  ledger,
	}
}

// DefinitionByModel resolves the bundle definition owned by a bundle-tracked
// model.
func (s *BundleService) DefinitionByModel(ctx context.Context, modelID string) (domain.BundleDefinition, error) {
	return s.bundles.GetDefinitionByModel(ctx, modelID)
}

// ComputeAvailability walks every bundle item and checks the stock ledger for
// bulk components and the conflict formula for serialized ones. The aggregate
// is unavailable iff a mandatory component is short; optional components
// never block.
func (s *BundleService) ComputeAvailability(ctx context.Context, definitionID, locationID string, from, until time.Time) (domain.BundleAvailability, error) {
	def, err := s.bundles.GetDefinition(ctx, definitionID)
	if err != nil {
		return domain.BundleAvailability{}, err
	}
	return s.computeAvailability(ctx, def, locationID, from, until)
}

func (s *BundleService) computeAvailability(ctx context.Context, def domain.BundleDefinition, locationID string, from, until time.Time) (domain.BundleAvailability, error) {
	result := domain.BundleAvailability{Available: true}
	for _, bi := range def.Items {
		model, err := s.catalog.GetModel(ctx, bi.ComponentModelID)
		if err != nil {
			return domain.BundleAvailability{}, err
		}

		var available int
		switch model.Tracking {
		case domain.TrackingBulk:
			lvl, err := s.stock.Get(ctx, bi.ComponentModelID, locationID)
			if err != nil && err != domain.ErrStockNotFound {
				return domain.BundleAvailability{}, err
			}
			available = lvl.QuantityAvailable
		case domain.TrackingSerialized:
			available, err = s.avail.FreeUnits(ctx, bi.ComponentModelID, locationID, from, until)
			if err != nil {
				return domain.BundleAvailability{}, err
			}
		default:
			// Nested bundles are not supported; treat as unavailable.
			available = 0
		}

		comp := domain.ComponentAvailability{
			ComponentModelID: bi.ComponentModelID,
			Tracking:         model.Tracking,
			Required:         bi.Quantity,
			Available:        available,
			Optional:         bi.Optional,
			OK:               available >= bi.Quantity,
		}
		result.Components = append(result.Components, comp)
		if !comp.OK && !comp.Optional {
			result.Available = false
		}
	}
	return result, nil
}

// Reserve allocates every component of the bundle for the loan. It must run
// inside the orchestrator's transaction: a mandatory shortfall aborts the
// whole transaction, rolling back the root and every component created so
// far. Unavailable optional components are skipped and reported as such.
func (s *BundleService) Reserve(ctx context.Context, loan domain.Loan, def domain.BundleDefinition, from, until time.Time) (domain.LoanItem, []domain.ComponentResult, error) {
	availability, err := s.computeAvailability(ctx, def, loan.LocationID, from, until)
	if err != nil {
		return domain.LoanItem{}, nil, err
	}
	if !availability.Available {
		return domain.LoanItem{}, nil, domain.ErrBundleUnavailable
	}

	root, err := s.ledger.AddBundleRoot(ctx, loan, def.ModelID)
	if err != nil {
		return domain.LoanItem{}, nil, err
	}

	results := make([]domain.ComponentResult, 0, len(def.Items))
	for i, bi := range def.Items {
		comp := availability.Components[i]

		if !comp.OK {
			if bi.Optional {
				results = append(results, domain.ComponentResult{
					ComponentModelID: bi.ComponentModelID,
					Decision:         domain.ComponentSkippedOptional,
				})
				continue
			}
			// Re-verified per component as a safety net; fatal, the
			// transaction rolls everything back.
			return domain.LoanItem{}, nil, domain.ErrBundleUnavailable
		}

		itemID, err := s.reserveComponent(ctx, loan, root.ID, bi, comp, from, until)
		if err != nil {
			if bi.Optional && isCapacityError(err) {
				results = append(results, domain.ComponentResult{
					ComponentModelID: bi.ComponentModelID,
					Decision:         domain.ComponentSkippedOptional,
				})
				continue
			}
			if isCapacityError(err) {
				return domain.LoanItem{}, nil, domain.ErrBundleUnavailable
			}
			return domain.LoanItem{}, nil, err
		}
		results = append(results, domain.ComponentResult{
			ComponentModelID: bi.ComponentModelID,
			Decision:         domain.ComponentReserved,
			ItemID:           itemID,
		})
	}
	return root, results, nil
}

func (s *BundleService) reserveComponent(ctx context.Context, loan domain.Loan, rootID string, bi domain.BundleItem, comp domain.ComponentAvailability, from, until time.Time) (string, error) {
	parent := rootID
	switch comp.Tracking {
	case domain.TrackingBulk:
		if _, err := s.stock.Decrease(ctx, bi.ComponentModelID, loan.LocationID, bi.Quantity); err != nil {
			return "", err
		}
		item, err := s.ledger.AddBulk(ctx, loan, bi.ComponentModelID, bi.Quantity, &parent)
		if err != nil {
			return "", err
		}
		return item.ID, nil
	case domain.TrackingSerialized:
		// Lock the component's catalog row before picking, same as the
		// direct serialized path: two concurrent reservations for the last
		// free unit must serialize here, not both see it free.
		if _, err := s.catalog.GetModelForUpdate(ctx, bi.ComponentModelID); err != nil {
			return "", err
		}
		// Availability for serialized models is derived from the conflict
		// formula; creating the component rows is the reservation.
		assets, err := s.picker.PickFreeAssets(ctx, bi.ComponentModelID, loan.LocationID, from, until, bi.Quantity)
		if err != nil {
			return "", err
		}
		if len(assets) < bi.Quantity {
			return "", domain.ErrInsufficientAvailability
		}
		var lastID string
		for _, asset := range assets {
			item, err := s.ledger.AddSerialized(ctx, loan, asset, &parent)
			if err != nil {
				return "", err
			}
			lastID = item.ID
		}
		return lastID, nil
	default:
		return "", domain.ErrTrackingTypeMismatch
	}
}

func isCapacityError(err error) bool {
	return err == domain.ErrInsufficientStock ||
		err == domain.ErrInsufficientAvailability ||
		err == domain.ErrStockNotFound
}
