package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
)

type StockHandler struct {
	Stock *app.StockService
	Avail *app.AvailabilityService
}

func (h *StockHandler) Get(c *gin.Context) {
	lvl, err := h.Stock.Get(c.Request.Context(), c.Param("modelID"), c.Param("locationID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStockResponse(lvl))
}

type setTotalsRequest struct {
	QuantityTotal     int `json:"quantity_total"`
	QuantityAvailable int `json:"quantity_available"`
}

// SetTotals is the administrative stock override, for intake and stocktake
// corrections.
func (h *StockHandler) SetTotals(c *gin.Context) {
	var req setTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	lvl, err := h.Stock.SetTotals(c.Request.Context(), c.Param("modelID"), c.Param("locationID"), req.QuantityTotal, req.QuantityAvailable)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStockResponse(lvl))
}

// Availability reports free serialized units of a model for a window.
func (h *StockHandler) Availability(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	free, err := h.Avail.FreeUnits(c.Request.Context(), c.Param("modelID"), c.Query("location_id"), window.from, window.until)
	if err != nil {
		respondError(c, err)
		return
	}
	if free < 0 {
		free = 0
	}
	c.JSON(http.StatusOK, gin.H{
		"model_id": c.Param("modelID"),
		"from":     window.from,
		"until":    window.until,
		"free":     free,
	})
}
