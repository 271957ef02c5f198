package domain

import "time"

// AuditEvent is one fire-and-forget lifecycle notification emitted by the
// orchestrator on item add/remove/transition and loan status changes.
type AuditEvent struct {
	Kind       string
	LoanID     string
	ItemID     string
	AssetID    string
	Actor      string
	Detail     string
	OccurredAt time.Time
}

const (
	AuditItemAdded      = "item_added"
	AuditItemRemoved    = "item_removed"
	AuditItemTransition = "item_transition"
	AuditLoanCreated    = "loan_created"
	AuditLoanStatus     = "loan_status"
)
