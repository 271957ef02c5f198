package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type BundleHandler struct {
	Bundles *app.BundleService
}

type componentAvailabilityResponse struct {
	ComponentModelID string `json:"component_model_id"`
	Tracking         string `json:"tracking"`
	Required         int    `json:"required"`
	Available        int    `json:"available"`
	Optional         bool   `json:"optional"`
	OK               bool   `json:"ok"`
}

type bundleAvailabilityResponse struct {
	Available  bool                            `json:"available"`
	Components []componentAvailabilityResponse `json:"components"`
}

// Availability resolves a bundle definition and reports per-component
// availability for a window. Optional components never make the aggregate
// unavailable.
func (h *BundleHandler) Availability(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	availability, err := h.Bundles.ComputeAvailability(c.Request.Context(), c.Param("id"), c.Query("location_id"), window.from, window.until)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBundleAvailability(availability))
}

// AvailabilityByModel is the same check addressed by the bundle-tracked model.
func (h *BundleHandler) AvailabilityByModel(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	def, err := h.Bundles.DefinitionByModel(c.Request.Context(), c.Param("modelID"))
	if err != nil {
		respondError(c, err)
		return
	}
	availability, err := h.Bundles.ComputeAvailability(c.Request.Context(), def.ID, c.Query("location_id"), window.from, window.until)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBundleAvailability(availability))
}

func toBundleAvailability(a domain.BundleAvailability) bundleAvailabilityResponse {
	out := bundleAvailabilityResponse{
		Available:  a.Available,
		Components: make([]componentAvailabilityResponse, 0, len(a.Components)),
	}
	for _, comp := range a.Components {
		out.Components = append(out.Components, componentAvailabilityResponse{
			ComponentModelID: comp.ComponentModelID,
			Tracking:         string(comp.Tracking),
			Required:         comp.Required,
			Available:        comp.Available,
			Optional:         comp.Optional,
			OK:               comp.OK,
		})
	}
	return out
}
