package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

const (
	codeNotFound                 = "not_found"
	codeInvalidRequestBody       = "invalid_request_body"
	codeInvalidID                = "invalid_id"
	codeInvalidQuantity          = "invalid_quantity"
	codeInvalidWindow            = "invalid_window"
	codeInvalidFieldValue        = "invalid_field_value"
	codeTrackingMismatch         = "tracking_type_mismatch"
	codeInvalidState             = "invalid_state"
	codeInvalidTransition        = "invalid_transition"
	codeInsufficientAvailability = "insufficient_availability"
	codeInsufficientStock        = "insufficient_stock"
	codeBundleUnavailable        = "bundle_unavailable"
	codeOutsideOpeningHours      = "outside_opening_hours"
	codeAssetAlreadyLoaned       = "asset_already_loaned"
	codeDuplicateAssetCode       = "duplicate_asset_code"
	codeUnauthorized             = "unauthorized"
	codeForbidden                = "forbidden"
	codeInternalError            = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps domain sentinels to stable machine-readable codes.
// Capacity and state errors are 4xx outcomes; anything unexpected is a
// generic server error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrLoanItemNotFound),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrAssetModelNotFound),
		errors.Is(err, domain.ErrBundleNotFound),
		errors.Is(err, domain.ErrStockNotFound),
		errors.Is(err, domain.ErrLocationNotFound),
		errors.Is(err, domain.ErrMaintenanceNotFound),
		errors.Is(err, domain.ErrFieldNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, domain.ErrInvalidState):
		writeError(c, http.StatusConflict, codeInvalidState, err)
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(c, http.StatusUnprocessableEntity, codeInvalidTransition, err)
	case errors.Is(err, domain.ErrInsufficientAvailability):
		writeError(c, http.StatusConflict, codeInsufficientAvailability, err)
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(c, http.StatusConflict, codeInsufficientStock, err)
	case errors.Is(err, domain.ErrBundleUnavailable):
		writeError(c, http.StatusConflict, codeBundleUnavailable, err)
	case errors.Is(err, domain.ErrAssetAlreadyLoaned):
		writeError(c, http.StatusConflict, codeAssetAlreadyLoaned, err)
	case errors.Is(err, domain.ErrDuplicateAssetCode):
		writeError(c, http.StatusConflict, codeDuplicateAssetCode, err)
	case errors.Is(err, domain.ErrOutsideOpeningHours):
		writeError(c, http.StatusUnprocessableEntity, codeOutsideOpeningHours, err)
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(c, http.StatusBadRequest, codeInvalidQuantity, err)
	case errors.Is(err, domain.ErrInvalidWindow):
		writeError(c, http.StatusBadRequest, codeInvalidWindow, err)
	case errors.Is(err, domain.ErrInvalidFieldValue):
		writeError(c, http.StatusBadRequest, codeInvalidFieldValue, err)
	case errors.Is(err, domain.ErrTrackingTypeMismatch):
		writeError(c, http.StatusBadRequest, codeTrackingMismatch, err)
	case errors.Is(err, domain.ErrInvalidID):
		writeError(c, http.StatusBadRequest, codeInvalidID, err)
	default:
		log.Printf("ERROR: unhandled: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: codeInternalError})
	}
}

func writeError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, errorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, code, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: code})
}
