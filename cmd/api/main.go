package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/app"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/audit"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/clock"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/config"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/storage/postgres"
	transporthttp "github.com/ManuelRichardt/ausleihe-sub001/internal/transport/http"
	"github.com/ManuelRichardt/ausleihe-sub001/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(startupCtx).Err(); err != nil {
			logger.Printf("WARN: redis unreachable, audit events will be dropped: %v", err)
		}
		recorder = audit.NewRedisRecorder(redisClient, logger)
	} else {
		logger.Printf("WARN: REDIS_ADDR not set, audit stream disabled")
	}

	clk := clock.NewSystem()
	stockRepo := postgres.NewStockRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	assetRepo := postgres.NewAssetRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	bundleRepo := postgres.NewBundleRepository(pool)
	maintenanceRepo := postgres.NewMaintenanceRepository(pool)

	stockSvc := app.NewStockService(stockRepo, clk)
	availSvc := app.NewAvailabilityService(assetRepo)
	ledger := app.NewItemLedger(loanRepo, recorder, clk)
	bundleSvc := app.NewBundleService(bundleRepo, catalogRepo, stockSvc, availSvc, assetRepo, ledger)
	loanSvc := app.NewLoanService(app.LoanServiceDeps{
		Loans:     loanRepo,
		Items:     loanRepo,
		Assets:    assetRepo,
		Locations: catalogRepo,
		Catalog:   catalogRepo,
		Picker:    assetRepo,
		Stock:     stockSvc,
		Avail:     availSvc,
		Bundles:   bundleSvc,
		Ledger:    ledger,
		Audit:     recorder,
		Clock:     clk,
	})
	catalogSvc := app.NewCatalogService(catalogRepo, bundleRepo, stockSvc, clk)
	maintenanceSvc := app.NewMaintenanceService(maintenanceRepo, assetRepo, clk)

	router := transporthttp.SetupRouter(transporthttp.Deps{
		Loans:       loanSvc,
		Stock:       stockSvc,
		Avail:       availSvc,
		Bundles:     bundleSvc,
		Catalog:     catalogSvc,
		Maintenance: maintenanceSvc,
		DB:          pool,
		JWTSecret:   []byte(cfg.JWT.Secret),
		CORSOrigins: cfg.Server.Origins(),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("api listening on :%s", cfg.Server.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
