package domain

import "time"

// StockLevel is the bulk-stock ledger row for one (model, location) pair.
// Invariant: 0 <= QuantityAvailable <= QuantityTotal.
type StockLevel struct {
	ModelID           string
	LocationID        string
	QuantityTotal     int
	QuantityAvailable int
	UpdatedAt         time.Time
}
