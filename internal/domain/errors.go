package domain

import "errors"

var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanItemNotFound    = errors.New("loan item not found")
	ErrAssetNotFound       = errors.New("asset not found")
	ErrAssetModelNotFound  = errors.New("asset model not found")
	ErrBundleNotFound      = errors.New("bundle definition not found")
	ErrStockNotFound       = errors.New("stock row not found")
	ErrLocationNotFound    = errors.New("location not found")
	ErrMaintenanceNotFound = errors.New("maintenance record not found")
	ErrFieldNotFound       = errors.New("custom field definition not found")

	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrInsufficientAvailability = errors.New("insufficient availability")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrBundleUnavailable        = errors.New("bundle unavailable")

	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidWindow        = errors.New("invalid reservation window")
	ErrOutsideOpeningHours  = errors.New("window outside opening hours")
	ErrAssetAlreadyLoaned   = errors.New("asset already on an active loan")
	ErrInvalidFieldValue    = errors.New("value does not match field definition")
	ErrDuplicateAssetCode   = errors.New("asset code already exists")
	ErrInvalidID            = errors.New("invalid id")
	ErrTrackingTypeMismatch = errors.New("operation not valid for tracking type")
)
