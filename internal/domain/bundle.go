package domain

// BundleDefinition maps a bundle-tracked AssetModel to its component list.
type BundleDefinition struct {
	ID      string
	ModelID string
	Items   []BundleItem
}

// BundleItem names one component model, how many units a reservation needs,
// and whether the bundle can be granted without it.
type BundleItem struct {
	ID               string
	BundleID         string
	ComponentModelID string
	Quantity         int
	Optional         bool
	Position         int
}

// ComponentAvailability is the per-component result of a bundle availability
// walk.
type ComponentAvailability struct {
	ComponentModelID string
	Tracking         TrackingType
	Required         int
	Available        int
	Optional         bool
	OK               bool
}

// BundleAvailability aggregates component results. Available is false iff any
// mandatory component is not OK; optional components never block.
type BundleAvailability struct {
	Components []ComponentAvailability
	Available  bool
}

// ComponentDecision records what the resolver did for one component during a
// reserve, so callers can render which parts were actually granted.
type ComponentDecision string

const (
	ComponentReserved        ComponentDecision = "reserved"
	ComponentSkippedOptional ComponentDecision = "skipped_optional"
	ComponentFailedMandatory ComponentDecision = "failed_mandatory"
)

// ComponentResult pairs a component with its reserve decision and, when
// granted, the created loan item.
type ComponentResult struct {
	ComponentModelID string
	Decision         ComponentDecision
	ItemID           string
}
