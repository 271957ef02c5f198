package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type MaintenanceHandler struct {
	Maintenance *app.MaintenanceService
}

type reportMaintenanceRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
	Note    string `json:"note" binding:"required"`
}

func (h *MaintenanceHandler) Report(c *gin.Context) {
	var req reportMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	m, err := h.Maintenance.Report(c.Request.Context(), req.AssetID, actorFrom(c), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMaintenanceResponse(m))
}

type maintenanceTransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"required"`
}

func (h *MaintenanceHandler) Transition(c *gin.Context) {
	var req maintenanceTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	m, err := h.Maintenance.Transition(c.Request.Context(), c.Param("id"), domain.MaintenanceStatus(req.Status), actorFrom(c), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMaintenanceResponse(m))
}

func (h *MaintenanceHandler) Get(c *gin.Context) {
	m, err := h.Maintenance.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMaintenanceResponse(m))
}

func (h *MaintenanceHandler) Notes(c *gin.Context) {
	notes, err := h.Maintenance.Notes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": toMaintenanceNotes(notes)})
}

func (h *MaintenanceHandler) ByAsset(c *gin.Context) {
	records, err := h.Maintenance.ByAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]maintenanceResponse, 0, len(records))
	for _, m := range records {
		out = append(out, toMaintenanceResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}
