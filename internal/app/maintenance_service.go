package app

import (
	"context"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/clock"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type MaintenanceStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateMaintenance(ctx context.Context, m domain.Maintenance) error
	GetMaintenance(ctx context.Context, id string) (domain.Maintenance, error)
	GetMaintenanceForUpdate(ctx context.Context, id string) (domain.Maintenance, error)
	SaveMaintenance(ctx context.Context, m domain.Maintenance) error
	AppendNote(ctx context.Context, note domain.MaintenanceNote) error
	ListNotes(ctx context.Context, maintenanceID string) ([]domain.MaintenanceNote, error)
	ListMaintenanceByAsset(ctx context.Context, assetID string) ([]domain.Maintenance, error)
}

// MaintenanceService tracks out-of-service episodes. It shares the asset
// identity space with the reservation flow but is otherwise decoupled from
// it.
type MaintenanceService struct {
	repo   MaintenanceStore
	assets AssetStore
	clock  clock.Clock
}

func NewMaintenanceService(repo MaintenanceStore, assets AssetStore, clk clock.Clock) *MaintenanceService {
	return &MaintenanceService{repo: repo, assets: assets, clock: clk}
}

// Report opens a maintenance episode on an asset with an initial note.
func (s *MaintenanceService) Report(ctx context.Context, assetID, reporter, note string) (domain.Maintenance, error) {
	if _, err := s.assets.GetAsset(ctx, assetID, false); err != nil {
		return domain.Maintenance{}, err
	}
	now := s.clock.Now()
	m := domain.Maintenance{
		ID:         newID(),
		AssetID:    assetID,
		Status:     domain.MaintenanceReported,
		ReportedBy: reporter,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateMaintenance(txCtx, m); err != nil {
			return err
		}
		return s.repo.AppendNote(txCtx, domain.MaintenanceNote{
			ID:            newID(),
			MaintenanceID: m.ID,
			Author:        reporter,
			Body:          note,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return domain.Maintenance{}, err
	}
	return m, nil
}

// Transition moves the record through the status machine and appends a
// timestamped, attributed note. The note log only ever grows; prior notes
// are never touched.
func (s *MaintenanceService) Transition(ctx context.Context, id string, next domain.MaintenanceStatus, actor, note string) (domain.Maintenance, error) {
	var result domain.Maintenance
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		m, err := s.repo.GetMaintenanceForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !m.CanTransition(next) {
			return domain.ErrInvalidTransition
		}
		m.Status = next
		m.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveMaintenance(txCtx, m); err != nil {
			return err
		}
		if err := s.repo.AppendNote(txCtx, domain.MaintenanceNote{
			ID:            newID(),
			MaintenanceID: m.ID,
			Author:        actor,
			Body:          note,
			CreatedAt:     s.clock.Now(),
		}); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return domain.Maintenance{}, err
	}
	return result, nil
}

// Get loads one maintenance record.
func (s *MaintenanceService) Get(ctx context.Context, id string) (domain.Maintenance, error) {
	return s.repo.GetMaintenance(ctx, id)
}

// Notes returns the append-only note log in insertion order.
func (s *MaintenanceService) Notes(ctx context.Context, id string) ([]domain.MaintenanceNote, error) {
	return s.repo.ListNotes(ctx, id)
}

// ByAsset lists the maintenance history of one asset.
func (s *MaintenanceService) ByAsset(ctx context.Context, assetID string) ([]domain.Maintenance, error) {
	return s.repo.ListMaintenanceByAsset(ctx, assetID)
}
