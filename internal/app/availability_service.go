package app

import (
	"context"
	"time"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type AvailabilityRepository interface {
	CountLoanableAssets(ctx context.Context, modelID, locationID string) (int, error)
	CountBlockingItems(ctx context.Context, modelID string, from, until time.Time) (int, error)
}

// AvailabilityService computes free capacity for serialized models. It never
// reserves anything itself: reservation is materializing a LoanItem inside
// the caller's transaction, and that row is what the next conflict count
// sees.
type AvailabilityService struct {
	repo AvailabilityRepository
}

func NewAvailabilityService(repo AvailabilityRepository) *AvailabilityService {
	return &AvailabilityService{repo: repo}
}

// CountAvailableUnits counts loanable serialized assets of the model at the
// location, ignoring any reservation windows.
func (s *AvailabilityService) CountAvailableUnits(ctx context.Context, modelID, locationID string) (int, error) {
	return s.repo.CountLoanableAssets(ctx, modelID, locationID)
}

// CountConflicts counts loan items bound to assets of the model whose parent
// loan blocks the half-open window [from, until).
func (s *AvailabilityService) CountConflicts(ctx context.Context, modelID string, from, until time.Time) (int, error) {
	return s.repo.CountBlockingItems(ctx, modelID, from, until)
}

// FreeUnits is units minus conflicts for the window.
func (s *AvailabilityService) FreeUnits(ctx context.Context, modelID, locationID string, from, until time.Time) (int, error) {
	units, err := s.repo.CountLoanableAssets(ctx, modelID, locationID)
	if err != nil {
		return 0, err
	}
	conflicts, err := s.repo.CountBlockingItems(ctx, modelID, from, until)
	if err != nil {
		return 0, err
	}
	return units - conflicts, nil
}

// AssertAvailable fails with ErrInsufficientAvailability when fewer than qty
// units are free in the window. Callers deciding whether to commit a
// reservation must invoke this inside the same transaction that creates the
// loan items, with the model row locked, to close the check-then-act race.
func (s *AvailabilityService) AssertAvailable(ctx context.Context, modelID, locationID string, from, until time.Time, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	free, err := s.FreeUnits(ctx, modelID, locationID, from, until)
	if err != nil {
		return err
	}
	if free < qty {
		return domain.ErrInsufficientAvailability
	}
	return nil
}
