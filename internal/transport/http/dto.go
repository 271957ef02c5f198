package http

import (
	"time"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

// Wire representations. Domain structs stay tag-free; the transport layer owns
// the JSON shape.

type loanResponse struct {
	ID            string             `json:"id"`
	BorrowerID    string             `json:"borrower_id"`
	LocationID    string             `json:"location_id"`
	ReservedFrom  time.Time          `json:"reserved_from"`
	ReservedUntil time.Time          `json:"reserved_until"`
	Status        string             `json:"status"`
	Note          string             `json:"note,omitempty"`
	HandedOverAt  *time.Time         `json:"handed_over_at,omitempty"`
	ReturnedAt    *time.Time         `json:"returned_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []loanItemResponse `json:"items"`
}

type loanItemResponse struct {
	ID                  string  `json:"id"`
	Type                string  `json:"type"`
	ModelID             string  `json:"model_id"`
	AssetID             *string `json:"asset_id,omitempty"`
	Quantity            int     `json:"quantity"`
	ParentID            *string `json:"parent_id,omitempty"`
	Status              string  `json:"status"`
	ConditionOnHandover *string `json:"condition_on_handover,omitempty"`
}

func toLoanResponse(l domain.Loan) loanResponse {
	out := loanResponse{
		ID:            l.ID,
		BorrowerID:    l.BorrowerID,
		LocationID:    l.LocationID,
		ReservedFrom:  l.ReservedFrom,
		ReservedUntil: l.ReservedUntil,
		Status:        string(l.Status),
		Note:          l.Note,
		HandedOverAt:  l.HandedOverAt,
		ReturnedAt:    l.ReturnedAt,
		CreatedAt:     l.CreatedAt,
		Items:         make([]loanItemResponse, 0, len(l.Items)),
	}
	for _, item := range l.Items {
		out.Items = append(out.Items, toLoanItemResponse(item))
	}
	return out
}

func toLoanItemResponse(item domain.LoanItem) loanItemResponse {
	out := loanItemResponse{
		ID:       item.ID,
		Type:     string(item.Type),
		ModelID:  item.ModelID,
		AssetID:  item.AssetID,
		Quantity: item.Quantity,
		ParentID: item.ParentID,
		Status:   string(item.Status),
	}
	if item.ConditionOnHandover != nil {
		cond := string(*item.ConditionOnHandover)
		out.ConditionOnHandover = &cond
	}
	return out
}

type componentResultResponse struct {
	ComponentModelID string `json:"component_model_id"`
	Decision         string `json:"decision"`
	ItemID           string `json:"item_id,omitempty"`
}

func toComponentResults(results []domain.ComponentResult) []componentResultResponse {
	out := make([]componentResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, componentResultResponse{
			ComponentModelID: r.ComponentModelID,
			Decision:         string(r.Decision),
			ItemID:           r.ItemID,
		})
	}
	return out
}

type stockResponse struct {
	ModelID           string    `json:"model_id"`
	LocationID        string    `json:"location_id"`
	QuantityTotal     int       `json:"quantity_total"`
	QuantityAvailable int       `json:"quantity_available"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toStockResponse(lvl domain.StockLevel) stockResponse {
	return stockResponse{
		ModelID:           lvl.ModelID,
		LocationID:        lvl.LocationID,
		QuantityTotal:     lvl.QuantityTotal,
		QuantityAvailable: lvl.QuantityAvailable,
		UpdatedAt:         lvl.UpdatedAt,
	}
}

type assetResponse struct {
	ID               string     `json:"id"`
	ModelID          string     `json:"model_id"`
	LocationID       string     `json:"location_id"`
	Code             string     `json:"code"`
	Condition        string     `json:"condition"`
	Active           bool       `json:"active"`
	StoragePlace     string     `json:"storage_place,omitempty"`
	ReplacementValue string     `json:"replacement_value"`
	CreatedAt        time.Time  `json:"created_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

func toAssetResponse(a domain.Asset) assetResponse {
	return assetResponse{
		ID:               a.ID,
		ModelID:          a.ModelID,
		LocationID:       a.LocationID,
		Code:             a.Code,
		Condition:        string(a.Condition),
		Active:           a.Active,
		StoragePlace:     a.StoragePlace,
		ReplacementValue: a.ReplacementValue.StringFixed(2),
		CreatedAt:        a.CreatedAt,
		DeletedAt:        a.DeletedAt,
	}
}

type modelResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Category     string    `json:"category,omitempty"`
	LocationID   string    `json:"location_id"`
	Tracking     string    `json:"tracking"`
	CreatedAt    time.Time `json:"created_at"`
}

func toModelResponse(m domain.AssetModel) modelResponse {
	return modelResponse{
		ID:           m.ID,
		Name:         m.Name,
		Manufacturer: m.Manufacturer,
		Category:     m.Category,
		LocationID:   m.LocationID,
		Tracking:     string(m.Tracking),
		CreatedAt:    m.CreatedAt,
	}
}

type maintenanceResponse struct {
	ID         string    `json:"id"`
	AssetID    string    `json:"asset_id"`
	Status     string    `json:"status"`
	ReportedBy string    `json:"reported_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toMaintenanceResponse(m domain.Maintenance) maintenanceResponse {
	return maintenanceResponse{
		ID:         m.ID,
		AssetID:    m.AssetID,
		Status:     string(m.Status),
		ReportedBy: m.ReportedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type maintenanceNoteResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toMaintenanceNotes(notes []domain.MaintenanceNote) []maintenanceNoteResponse {
	out := make([]maintenanceNoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, maintenanceNoteResponse{
			ID:        n.ID,
			Author:    n.Author,
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
