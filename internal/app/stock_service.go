package app

import (
	"context"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/clock"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type StockRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetStock(ctx context.Context, modelID, locationID string) (domain.StockLevel, error)
	GetStockForUpdate(ctx context.Context, modelID, locationID string) (domain.StockLevel, error)
	CreateStock(ctx context.Context, lvl domain.StockLevel) error
	SaveStock(ctx context.Context, lvl domain.StockLevel) error
}

// StockService is the bulk-stock ledger. Every mutation locks the row before
// the read-modify-write so concurrent reservations cannot double-spend.
type StockService struct {
	repo  StockRepository
	clock clock.Clock
}

func NewStockService(repo StockRepository, clk clock.Clock) *StockService {
	return &StockService{repo: repo, clock: clk}
}

// Ensure returns the ledger row for (model, location), creating a
// zero-initialized one when missing.
func (s *StockService) Ensure(ctx context.Context, modelID, locationID string) (domain.StockLevel, error) {
	var result domain.StockLevel
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		lvl, err := s.repo.GetStockForUpdate(txCtx, modelID, locationID)
		if err == domain.ErrStockNotFound {
			lvl = domain.StockLevel{
				ModelID:    modelID,
				LocationID: locationID,
				UpdatedAt:  s.clock.Now(),
			}
			if err := s.repo.CreateStock(txCtx, lvl); err != nil {
				return err
			}
			// The insert may have lost a concurrent ensure (the conflict is
			// swallowed); read back whichever row survived instead of
			// reporting our zero-valued candidate.
			lvl, err = s.repo.GetStockForUpdate(txCtx, modelID, locationID)
			if err != nil {
				return err
			}
			result = lvl
			return nil
		}
		if err != nil {
			return err
		}
		result = lvl
		return nil
	})
	if err != nil {
		return domain.StockLevel{}, err
	}
	return result, nil
}

// Increase credits qty back to the available counter, clamped to the total so
// a double return can never push availability past what is physically owned.
func (s *StockService) Increase(ctx context.Context, modelID, locationID string, qty int) (domain.StockLevel, error) {
	if qty <= 0 {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, modelID, locationID, func(lvl *domain.StockLevel) error {
		lvl.QuantityAvailable += qty
		if lvl.QuantityAvailable > lvl.QuantityTotal {
			lvl.QuantityAvailable = lvl.QuantityTotal
		}
		return nil
	})
}

// Decrease debits qty from the available counter and fails with
// ErrInsufficientStock when the result would go negative, leaving the row
// unchanged.
func (s *StockService) Decrease(ctx context.Context, modelID, locationID string, qty int) (domain.StockLevel, error) {
	if qty <= 0 {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, modelID, locationID, func(lvl *domain.StockLevel) error {
		if lvl.QuantityAvailable < qty {
			return domain.ErrInsufficientStock
		}
		lvl.QuantityAvailable -= qty
		return nil
	})
}

// SetTotals is the administrative override. Available is re-clamped into
// [0, total].
func (s *StockService) SetTotals(ctx context.Context, modelID, locationID string, total, available int) (domain.StockLevel, error) {
	if total < 0 || available < 0 {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}
	if available > total {
		available = total
	}
	var result domain.StockLevel
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		lvl, err := s.repo.GetStockForUpdate(txCtx, modelID, locationID)
		if err == domain.ErrStockNotFound {
			lvl = domain.StockLevel{
				ModelID:    modelID,
				LocationID: locationID,
				UpdatedAt:  s.clock.Now(),
			}
			if err := s.repo.CreateStock(txCtx, lvl); err != nil {
				return err
			}
			// Re-read in case a concurrent writer won the insert, then fall
			// through to the save so the requested totals always apply.
			lvl, err = s.repo.GetStockForUpdate(txCtx, modelID, locationID)
		}
		if err != nil {
			return err
		}
		lvl.QuantityTotal = total
		lvl.QuantityAvailable = available
		lvl.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveStock(txCtx, lvl); err != nil {
			return err
		}
		result = lvl
		return nil
	})
	if err != nil {
		return domain.StockLevel{}, err
	}
	return result, nil
}

// Get reads the row without locking, for display purposes.
func (s *StockService) Get(ctx context.Context, modelID, locationID string) (domain.StockLevel, error) {
	return s.repo.GetStock(ctx, modelID, locationID)
}

func (s *StockService) mutate(ctx context.Context, modelID, locationID string, fn func(*domain.StockLevel) error) (domain.StockLevel, error) {
	var result domain.StockLevel
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		lvl, err := s.repo.GetStockForUpdate(txCtx, modelID, locationID)
		if err != nil {
			return err
		}
		if err := fn(&lvl); err != nil {
			return err
		}
		lvl.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveStock(txCtx, lvl); err != nil {
			return err
		}
		result = lvl
		return nil
	})
	if err != nil {
		return domain.StockLevel{}, err
	}
	return result, nil
}
