package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

type CatalogHandler struct {
	Catalog *app.CatalogService
}

type createModelRequest struct {
	Name         string `json:"name" binding:"required"`
	Manufacturer string `json:"manufacturer"`
	Category     string `json:"category"`
	LocationID   string `json:"location_id" binding:"required"`
	Tracking     string `json:"tracking" binding:"required"`
}

func (h *CatalogHandler) CreateModel(c *gin.Context) {
	var req createModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	model, err := h.Catalog.CreateModel(c.Request.Context(), app.CreateModelInput{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		LocationID:   req.LocationID,
		Tracking:     domain.TrackingType(req.Tracking),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toModelResponse(model))
}

type createAssetRequest struct {
	ModelID          string `json:"model_id" binding:"required"`
	Code             string `json:"code" binding:"required"`
	Condition        string `json:"condition"`
	StoragePlace     string `json:"storage_place"`
	ReplacementValue string `json:"replacement_value"`
}

func (h *CatalogHandler) CreateAsset(c *gin.Context) {
	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	value := decimal.Zero
	if req.ReplacementValue != "" {
		var err error
		value, err = decimal.NewFromString(req.ReplacementValue)
		if err != nil || value.IsNegative() {
			badRequest(c, codeInvalidRequestBody, "replacement_value must be a non-negative decimal")
			return
		}
	}
	asset, err := h.Catalog.CreateAsset(c.Request.Context(), app.CreateAssetInput{
		ModelID:          req.ModelID,
		Code:             req.Code,
		Condition:        domain.AssetCondition(req.Condition),
		StoragePlace:     req.StoragePlace,
		ReplacementValue: value,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAssetResponse(asset))
}

func (h *CatalogHandler) DeleteAsset(c *gin.Context) {
	if err := h.Catalog.DeleteAsset(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) SearchAssets(c *gin.Context) {
	q := app.AssetSearch{
		Query:          c.Query("q"),
		ModelID:        c.Query("model_id"),
		LocationID:     c.Query("location_id"),
		IncludeDeleted: c.Query("include_deleted") == "true",
	}
	assets, err := h.Catalog.SearchAssets(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

func (h *CatalogHandler) ListAssetCodes(c *gin.Context) {
	codes, err := h.Catalog.ListAssetCodes(c.Request.Context(), c.Query("location_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

type openingHoursRequest struct {
	Weekday   int `json:"weekday"`
	OpenMins  int `json:"open_mins"`
	CloseMins int `json:"close_mins"`
}

type createLocationRequest struct {
	Name  string                `json:"name" binding:"required"`
	Hours []openingHoursRequest `json:"hours"`
}

func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	in := app.CreateLocationInput{Name: req.Name}
	for _, hrs := range req.Hours {
		in.Hours = append(in.Hours, domain.OpeningHours{
			Weekday:   time.Weekday(hrs.Weekday),
			OpenMins:  hrs.OpenMins,
			CloseMins: hrs.CloseMins,
		})
	}
	loc, err := h.Catalog.CreateLocation(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": loc.ID, "name": loc.Name})
}

type bundleItemRequest struct {
	ComponentModelID string `json:"component_model_id" binding:"required"`
	Quantity         int    `json:"quantity" binding:"required"`
	Optional         bool   `json:"optional"`
}

type defineBundleRequest struct {
	Items []bundleItemRequest `json:"items" binding:"required"`
}

func (h *CatalogHandler) DefineBundle(c *gin.Context) {
	var req defineBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	items := make([]app.BundleItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, app.BundleItemInput{
			ComponentModelID: item.ComponentModelID,
			Quantity:         item.Quantity,
			Optional:         item.Optional,
		})
	}
	def, err := h.Catalog.DefineBundle(c.Request.Context(), c.Param("modelID"), items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": def.ID, "model_id": def.ModelID})
}

type createFieldRequest struct {
	Name    string   `json:"name" binding:"required"`
	Type    string   `json:"type" binding:"required"`
	Options []string `json:"options"`
}

func (h *CatalogHandler) CreateFieldDefinition(c *gin.Context) {
	var req createFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	def, err := h.Catalog.CreateFieldDefinition(c.Request.Context(), app.CreateFieldInput{
		Name:    req.Name,
		Type:    domain.FieldType(req.Type),
		Options: req.Options,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": def.ID, "name": def.Name, "type": string(def.Type)})
}

type setFieldValueRequest struct {
	FieldID string     `json:"field_id" binding:"required"`
	Type    string     `json:"type" binding:"required"`
	String  string     `json:"string_value"`
	Number  string     `json:"number_value"`
	Boolean bool       `json:"boolean_value"`
	Date    *time.Time `json:"date_value"`
	Enum    string     `json:"enum_value"`
}

func (h *CatalogHandler) SetFieldValue(c *gin.Context) {
	var req setFieldValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, codeInvalidRequestBody, err.Error())
		return
	}
	value := domain.FieldValue{
		FieldID: req.FieldID,
		Type:    domain.FieldType(req.Type),
		String:  req.String,
		Boolean: req.Boolean,
		Enum:    req.Enum,
	}
	if req.Number != "" {
		number, err := decimal.NewFromString(req.Number)
		if err != nil {
			badRequest(c, codeInvalidRequestBody, "number_value must be a decimal")
			return
		}
		value.Number = number
	}
	if req.Date != nil {
		value.Date = *req.Date
	}
	if err := h.Catalog.SetFieldValue(c.Request.Context(), c.Param("id"), value); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
