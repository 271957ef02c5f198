package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
)

type LoanHandler struct {
	Loans *app.LoanService
}

type reservationLineRequest struct {
	AssetID  string `json:"asset_id"`
	ModelID  string `json:"model_id"`
	Quantity int    `json:"quantity"`
}

type createReservationRequest struct {
	BorrowerID string                   `json:"borrower_id" binding:"required"`
	LocationID string                   `json:"location_id" binding:"required"`
	From       time.Time                `json:"from" binding:"required"`
	Until      time.Time                `json:"until" binding:"required"`
	Note       string                   `json:"note"`
	Lines      []reservationLineRequest `json:"lines" binding:"required"`
}

func (h *LoanHandler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}

	in := app.CreateReservationInput{
		BorrowerID: req.BorrowerID,
		LocationID: req.LocationID,
		From:       req.From,
		Until:      req.Until,
		Note:       req.Note,
	}
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, app.ReservationLine{
			AssetID:  line.AssetID,
			ModelID:  line.ModelID,
			Quantity: line.Quantity,
		})
	}

	result, err := h.Loans.CreateReservation(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"loan":       toLoanResponse(result.Loan),
		"components": toComponentResults(result.Components),
	})
}

func (h *LoanHandler) Get(c *gin.Context) {
	loan, err := h.Loans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(loan))
}

type handOverRequest struct {
	Note string `json:"note"`
}

func (h *LoanHandler) HandOver(c *gin.Context) {
	var req handOverRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	loan, err := h.Loans.HandOver(c.Request.Context(), c.Param("id"), app.HandOverInput{
		Actor: actorFrom(c),
		Note:  req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(loan))
}

type returnRequest struct {
	Note    string   `json:"note"`
	Lost    []string `json:"lost_item_ids"`
	Damaged []string `json:"damaged_item_ids"`
}

func (h *LoanHandler) Return(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	result, err := h.Loans.Return(c.Request.Context(), c.Param("id"), app.ReturnInput{
		Actor:   actorFrom(c),
		Note:    req.Note,
		Lost:    req.Lost,
		Damaged: req.Damaged,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"loan":        toLoanResponse(result.Loan),
		"loss_charge": result.LossCharge.StringFixed(2),
	})
}

type cancelRequest struct {
	Note string `json:"note"`
}

func (h *LoanHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	loan, err := h.Loans.Cancel(c.Request.Context(), c.Param("id"), actorFrom(c), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(loan))
}

func (h *LoanHandler) MarkOverdue(c *gin.Context) {
	loan, err := h.Loans.MarkOverdue(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(loan))
}

func (h *LoanHandler) AddItem(c *gin.Context) {
	var req reservationLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	result, err := h.Loans.AddItem(c.Request.Context(), c.Param("id"), app.ReservationLine{
		AssetID:  req.AssetID,
		ModelID:  req.ModelID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"loan":       toLoanResponse(result.Loan),
		"components": toComponentResults(result.Components),
	})
}

func (h *LoanHandler) RemoveItem(c *gin.Context) {
	if err := h.Loans.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateItemModelRequest struct {
	ModelID string `json:"model_id" binding:"required"`
}

func (h *LoanHandler) UpdateItemModel(c *gin.Context) {
	var req updateItemModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	item, err := h.Loans.UpdateItemModel(c.Request.Context(), c.Param("id"), c.Param("itemID"), req.ModelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanItemResponse(item))
}
