package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TrackingType string

const (
	TrackingSerialized TrackingType = "serialized"
	TrackingBulk       TrackingType = "bulk"
	TrackingBundle     TrackingType = "bundle"
)

// AssetModel is a catalog entry. Its location binding is immutable after
// creation; the tracking type decides which allocation strategy applies.
type AssetModel struct {
	ID           string
	Name         string
	Manufacturer string
	Category     string
	LocationID   string
	Tracking     TrackingType
	CreatedAt    time.Time
}

type AssetCondition string

const (
	ConditionNew     AssetCondition = "new"
	ConditionGood    AssetCondition = "good"
	ConditionFair    AssetCondition = "fair"
	ConditionDamaged AssetCondition = "damaged"
	ConditionLost    AssetCondition = "lost"
)

// Asset is one serialized physical unit of an AssetModel.
type Asset struct {
	ID               string
	ModelID          string
	LocationID       string
	Code             string
	Condition        AssetCondition
	Active           bool
	StoragePlace     string
	ReplacementValue decimal.Decimal
	CreatedAt        time.Time
	// DeletedAt is the soft-delete tombstone; reads filter on it unless
	// explicitly asked to include deleted rows.
	DeletedAt *time.Time
}

// Loanable reports whether the asset may back a new reservation at all.
// Window conflicts are a separate check.
func (a Asset) Loanable() bool {
	return a.Active && a.DeletedAt == nil && a.Condition != ConditionLost
}
