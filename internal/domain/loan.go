package domain

import "time"

type LoanStatus string

const (
	LoanStatusReserved   LoanStatus = "reserved"
	LoanStatusHandedOver LoanStatus = "handed_over"
	LoanStatusReturned   LoanStatus = "returned"
	LoanStatusOverdue    LoanStatus = "overdue"
	LoanStatusCancelled  LoanStatus = "cancelled"
)

// Loan is one reservation of equipment for a borrower over a half-open
// window [ReservedFrom, ReservedUntil).
type Loan struct {
	ID            string
	BorrowerID    string
	LocationID    string
	ReservedFrom  time.Time
	ReservedUntil time.Time
	Status        LoanStatus
	Note          string
	HandedOverAt  *time.Time
	ReturnedAt    *time.Time
	CreatedAt     time.Time
	Items         []LoanItem
}

// Blocks reports whether a loan in this status occupies capacity for the
// given window. Handed-over and overdue loans block unconditionally because
// the equipment is physically out; a reservation blocks only while its window
// overlaps.
func (l Loan) Blocks(from, until time.Time) bool {
	switch l.Status {
	case LoanStatusHandedOver, LoanStatusOverdue:
		return true
	case LoanStatusReserved:
		return WindowsOverlap(l.ReservedFrom, l.ReservedUntil, from, until)
	default:
		return false
	}
}

// WindowsOverlap implements half-open interval overlap: a loan ending exactly
// when another starts does not conflict.
func WindowsOverlap(from1, until1, from2, until2 time.Time) bool {
	return from1.Before(until2) && until1.After(from2)
}

type LoanItemType string

const (
	ItemTypeSerialized      LoanItemType = "serialized"
	ItemTypeBulk            LoanItemType = "bulk"
	ItemTypeBundleRoot      LoanItemType = "bundle_root"
	ItemTypeBundleComponent LoanItemType = "bundle_component"
)

type LoanItemStatus string

const (
	ItemStatusReserved   LoanItemStatus = "reserved"
	ItemStatusHandedOver LoanItemStatus = "handed_over"
	ItemStatusReturned   LoanItemStatus = "returned"
	ItemStatusLost       LoanItemStatus = "lost"
	ItemStatusDamaged    LoanItemStatus = "damaged"
)

// LoanItem is one allocation line. Serialized lines bind an asset, bulk lines
// carry a model and quantity, bundle roots are grouping anchors without a
// physical binding, and bundle components point at their root.
type LoanItem struct {
	ID       string
	LoanID   string
	Type     LoanItemType
	ModelID  string
	AssetID  *string
	Quantity int
	ParentID *string
	Status   LoanItemStatus
	// ConditionOnHandover snapshots the asset condition when the unit left
	// the shelf, for dispute handling at return.
	ConditionOnHandover *AssetCondition
	CreatedAt           time.Time
}

// itemTransitions lists the legal item status moves. Lost and damaged are
// recorded at return time from handed_over.
var itemTransitions = map[LoanItemStatus][]LoanItemStatus{
	ItemStatusReserved:   {ItemStatusHandedOver},
	ItemStatusHandedOver: {ItemStatusReturned, ItemStatusLost, ItemStatusDamaged},
}

// CanTransition reports whether an item may move from its current status to
// next.
func (i LoanItem) CanTransition(next LoanItemStatus) bool {
	for _, s := range itemTransitions[i.Status] {
		if s == next {
			return true
		}
	}
	return false
}
