package domain

import "time"

type MaintenanceStatus string

const (
	MaintenanceReported   MaintenanceStatus = "reported"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// Maintenance is one out-of-service episode on an asset.
type Maintenance struct {
	ID         string
	AssetID    string
	Status     MaintenanceStatus
	ReportedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MaintenanceNote is one entry of the append-only, attributed note log.
type MaintenanceNote struct {
	ID            string
	MaintenanceID string
	Author        string
	Body          string
	CreatedAt     time.Time
}

// maintenanceTransitions: completed and cancelled are terminal.
var maintenanceTransitions = map[MaintenanceStatus][]MaintenanceStatus{
	MaintenanceReported:   {MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled},
	MaintenanceInProgress: {MaintenanceCompleted, MaintenanceCancelled},
}

// CanTransition reports whether the maintenance record may move to next.
func (m Maintenance) CanTransition(next MaintenanceStatus) bool {
	for _, s := range maintenanceTransitions[m.Status] {
		if s == next {
			return true
		}
	}
	return false
}
