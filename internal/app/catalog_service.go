package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/clock"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type CatalogAdminStore interface {
	CatalogStore
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateModel(ctx context.Context, m domain.AssetModel) error
	CreateAsset(ctx context.Context, a domain.Asset) error
	SoftDeleteAsset(ctx context.Context, assetID string) error
	SearchAssets(ctx context.Context, q AssetSearch) ([]domain.Asset, error)
	ListAssetCodes(ctx context.Context, locationID string) ([]string, error)
	CreateLocation(ctx context.Context, l domain.Location) error
	GetFieldDefinition(ctx context.Context, id string) (domain.FieldDefinition, error)
	CreateFieldDefinition(ctx context.Context, def domain.FieldDefinition) error
	SaveFieldValue(ctx context.Context, assetID string, v domain.FieldValue) error
}

// AssetSearch filters free-text asset search. IncludeDeleted threads the
// soft-delete filter explicitly through the read path.
type AssetSearch struct {
	Query          string
	ModelID        string
	LocationID     string
	IncludeDeleted bool
	Limit          int
}

type BundleWriter interface {
	CreateBundleDefinition(ctx context.Context, def domain.BundleDefinition) error
}

// CatalogService covers catalog administration and the read-only scan/search
// support the portal builds on.
type CatalogService struct {
	repo    CatalogAdminStore
	bundles BundleWriter
	stock   *StockService
	clock   clock.Clock
}

func NewCatalogService(repo CatalogAdminStore, bundles BundleWriter, stock *StockService, clk clock.Clock) *CatalogService {
	return &CatalogService{repo: repo, bundles: bundles, stock: stock, clock: clk}
}

type CreateModelInput struct {
	Name         string
	Manufacturer string
	Category     string
	LocationID   string
	Tracking     domain.TrackingType
}

// CreateModel registers a catalog entry. Bulk models get a zero-initialized
// stock ledger row at their location right away.
func (s *CatalogService) CreateModel(ctx context.Context, in CreateModelInput) (domain.AssetModel, error) {
	if in.Name == "" || in.LocationID == "" {
		return domain.AssetModel{}, domain.ErrInvalidID
	}
	switch in.Tracking {
	case domain.TrackingSerialized, domain.TrackingBulk, domain.TrackingBundle:
	default:
		return domain.AssetModel{}, domain.ErrTrackingTypeMismatch
	}

	model := domain.AssetModel{
		ID:           newID(),
		Name:         in.Name,
		Manufacturer: in.Manufacturer,
		Category:     in.Category,
		LocationID:   in.LocationID,
		Tracking:     in.Tracking,
		CreatedAt:    s.clock.Now(),
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateModel(txCtx, model); err != nil {
			return err
		}
		if model.Tracking == domain.TrackingBulk {
			_, err := s.stock.Ensure(txCtx, model.ID, model.LocationID)
			return err
		}
		return nil
	})
	if err != nil {
		return domain.AssetModel{}, err
	}
	return model, nil
}

type CreateAssetInput struct {
	ModelID          string
	Code             string
	Condition        domain.AssetCondition
	StoragePlace     string
	ReplacementValue decimal.Decimal
}

// CreateAsset registers one serialized unit under a serialized model,
// inheriting the model's location.
func (s *CatalogService) CreateAsset(ctx context.Context, in CreateAssetInput) (domain.Asset, error) {
	model, err := s.repo.GetModel(ctx, in.ModelID)
	if err != nil {
		return domain.Asset{}, err
	}
	if model.Tracking != domain.TrackingSerialized {
		return domain.Asset{}, domain.ErrTrackingTypeMismatch
	}
	if in.Code == "" {
		return domain.Asset{}, domain.ErrInvalidID
	}
	cond := in.Condition
	if cond == "" {
		cond = domain.ConditionGood
	}
	asset := domain.Asset{
		ID:               newID(),
		ModelID:          model.ID,
		LocationID:       model.LocationID,
		Code:             in.Code,
		Condition:        cond,
		Active:           true,
		StoragePlace:     in.StoragePlace,
		ReplacementValue: in.ReplacementValue,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

// DeleteAsset tombstones an asset; it disappears from default reads but
// stays referenceable from historical loan items.
func (s *CatalogService) DeleteAsset(ctx context.Context, assetID string) error {
	return s.repo.SoftDeleteAsset(ctx, assetID)
}

type BundleItemInput struct {
	ComponentModelID string
	Quantity         int
	Optional         bool
}

// DefineBundle attaches a component list to a bundle-tracked model.
// Components must exist and may not be bundles themselves.
func (s *CatalogService) DefineBundle(ctx context.Context, modelID string, items []BundleItemInput) (domain.BundleDefinition, error) {
	model, err := s.repo.GetModel(ctx, modelID)
	if err != nil {
		return domain.BundleDefinition{}, err
	}
	if model.Tracking != domain.TrackingBundle {
		return domain.BundleDefinition{}, domain.ErrTrackingTypeMismatch
	}
	if len(items) == 0 {
		return domain.BundleDefinition{}, domain.ErrInvalidQuantity
	}

	def := domain.BundleDefinition{ID: newID(), ModelID: model.ID}
	for i, in := range items {
		if in.Quantity <= 0 {
			return domain.BundleDefinition{}, domain.ErrInvalidQuantity
		}
		component, err := s.repo.GetModel(ctx, in.ComponentModelID)
		if err != nil {
			return domain.BundleDefinition{}, err
		}
		if component.Tracking == domain.TrackingBundle {
			return domain.BundleDefinition{}, domain.ErrTrackingTypeMismatch
		}
		def.Items = append(def.Items, domain.BundleItem{
			ID:               newID(),
			BundleID:         def.ID,
			ComponentModelID: component.ID,
			Quantity:         in.Quantity,
			Optional:         in.Optional,
			Position:         i,
		})
	}
	// The definition and its item rows land in one transaction; a partial
	// component list must never become visible.
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.bundles.CreateBundleDefinition(txCtx, def)
	})
	if err != nil {
		return domain.BundleDefinition{}, err
	}
	return def, nil
}

// SearchAssets is the free-text search behind the portal's scan/search UI.
func (s *CatalogService) SearchAssets(ctx context.Context, q AssetSearch) ([]domain.Asset, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	return s.repo.SearchAssets(ctx, q)
}

// ListAssetCodes returns every asset code at a location, for label scanning.
func (s *CatalogService) ListAssetCodes(ctx context.Context, locationID string) ([]string, error) {
	return s.repo.ListAssetCodes(ctx, locationID)
}

type CreateLocationInput struct {
	Name  string
	Hours []domain.OpeningHours
}

func (s *CatalogService) CreateLocation(ctx context.Context, in CreateLocationInput) (domain.Location, error) {
	if in.Name == "" {
		return domain.Location{}, domain.ErrInvalidID
	}
	for _, h := range in.Hours {
		if h.OpenMins < 0 || h.CloseMins > 24*60 || h.OpenMins >= h.CloseMins {
			return domain.Location{}, domain.ErrInvalidWindow
		}
	}
	loc := domain.Location{
		ID:        newID(),
		Name:      in.Name,
		Hours:     in.Hours,
		CreatedAt: s.clock.Now(),
	}
	// Location and hour rows commit together; a location missing half its
	// hours would silently reject valid reservation windows.
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateLocation(txCtx, loc)
	})
	if err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}

type CreateFieldInput struct {
	Name    string
	Type    domain.FieldType
	Options []string
}

func (s *CatalogService) CreateFieldDefinition(ctx context.Context, in CreateFieldInput) (domain.FieldDefinition, error) {
	if in.Name == "" {
		return domain.FieldDefinition{}, domain.ErrInvalidID
	}
	switch in.Type {
	case domain.FieldString, domain.FieldNumber, domain.FieldBoolean, domain.FieldDate:
	case domain.FieldEnum:
		if len(in.Options) == 0 {
			return domain.FieldDefinition{}, domain.ErrInvalidFieldValue
		}
	default:
		return domain.FieldDefinition{}, domain.ErrInvalidFieldValue
	}
	def := domain.FieldDefinition{
		ID:        newID(),
		Name:      in.Name,
		Type:      in.Type,
		Options:   in.Options,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateFieldDefinition(ctx, def); err != nil {
		return domain.FieldDefinition{}, err
	}
	return def, nil
}

// SetFieldValue validates the tagged value against its definition before it
// is persisted; nothing is duck-typed at read time.
func (s *CatalogService) SetFieldValue(ctx context.Context, assetID string, v domain.FieldValue) error {
	def, err := s.repo.GetFieldDefinition(ctx, v.FieldID)
	if err != nil {
		return err
	}
	if err := v.Validate(def); err != nil {
		return err
	}
	return s.repo.SaveFieldValue(ctx, assetID, v)
}
