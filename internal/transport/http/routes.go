package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
)

// Deps carries everything the router needs.
type Deps struct {
	Loans        *app.LoanService
	Stock        *app.StockService
	Avail        *app.AvailabilityService
	Bundles      *app.BundleService
	Catalog      *app.CatalogService
	Maintenance  *app.MaintenanceService
	DB           Pinger
	JWTSecret    []byte
	CORSOrigins  []string
}

// SetupRouter wires every handler behind role-scoped route groups. Borrowers
// may reserve and read; counter staff run the hand-over and return desk;
// catalog and stock administration is admin-only.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.Default()
	if len(d.CORSOrigins) > 0 {
		useCORS(router, d.CORSOrigins)
	}

	loanHandler := &LoanHandler{Loans: d.Loans}
	stockHandler := &StockHandler{Stock: d.Stock, Avail: d.Avail}
	bundleHandler := &BundleHandler{Bundles: d.Bundles}
	catalogHandler := &CatalogHandler{Catalog: d.Catalog}
	maintenanceHandler := &MaintenanceHandler{Maintenance: d.Maintenance}
	healthHandler := &HealthHandler{DB: d.DB}

	router.GET("/healthz", healthHandler.Health)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(Authenticate(d.JWTSecret))
	{
		// Read paths open to every authenticated role.
		reads := apiV1.Group("/")
		reads.Use(Authorize(RoleAdmin, RoleStaff, RoleBorrower))
		{
			reads.GET("/models/:modelID/availability", stockHandler.Availability)
			reads.GET("/models/:modelID/bundle-availability", bundleHandler.AvailabilityByModel)
			reads.GET("/bundles/:id/availability", bundleHandler.Availability)
			reads.GET("/stock/:modelID/:locationID", stockHandler.Get)
			reads.GET("/assets", catalogHandler.SearchAssets)
			reads.GET("/assets/codes", catalogHandler.ListAssetCodes)
			reads.GET("/loans/:id", loanHandler.Get)
		}

		// Borrowers create and cancel their own reservations; staff act on any.
		loans := apiV1.Group("/loans")
		loans.Use(Authorize(RoleAdmin, RoleStaff, RoleBorrower))
		{
			loans.POST("/", loanHandler.CreateReservation)
			loans.POST("/:id/cancel", loanHandler.Cancel)
		}

		// The counter desk: hand-over, return, and line edits.
		desk := apiV1.Group("/loans")
		desk.Use(Authorize(RoleAdmin, RoleStaff))
		{
			desk.POST("/:id/handover", loanHandler.HandOver)
			desk.POST("/:id/return", loanHandler.Return)
			desk.POST("/:id/overdue", loanHandler.MarkOverdue)
			desk.POST("/:id/items", loanHandler.AddItem)
			desk.DELETE("/:id/items/:itemID", loanHandler.RemoveItem)
			desk.PATCH("/:id/items/:itemID", loanHandler.UpdateItemModel)
		}

		maintenance := apiV1.Group("/maintenance")
		maintenance.Use(Authorize(RoleAdmin, RoleStaff))
		{
			maintenance.POST("/", maintenanceHandler.Report)
			maintenance.GET("/:id", maintenanceHandler.Get)
			maintenance.GET("/:id/notes", maintenanceHandler.Notes)
			maintenance.POST("/:id/transition", maintenanceHandler.Transition)
		}

		admin := apiV1.Group("/admin")
		admin.Use(Authorize(RoleAdmin))
		{
			admin.POST("/locations", catalogHandler.CreateLocation)
			admin.POST("/models", catalogHandler.CreateModel)
			admin.POST("/models/:modelID/bundle", catalogHandler.DefineBundle)
			admin.POST("/assets", catalogHandler.CreateAsset)
			admin.DELETE("/assets/:id", catalogHandler.DeleteAsset)
			admin.PUT("/assets/:id/fields", catalogHandler.SetFieldValue)
			admin.POST("/fields", catalogHandler.CreateFieldDefinition)
			admin.PUT("/stock/:modelID/:locationID", stockHandler.SetTotals)
			admin.GET("/maintenance/by-asset/:id", maintenanceHandler.ByAsset)
		}
	}

	return router
}
