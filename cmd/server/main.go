package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/posledger/internal/application/catalog"
	eventapp "github.com/erp/posledger/internal/application/event"
	inventoryapp "github.com/erp/posledger/internal/application/inventory"
	reportapp "github.com/erp/posledger/internal/application/report"
	salesapp "github.com/erp/posledger/internal/application/sales"
	tillapp "github.com/erp/posledger/internal/application/till"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/auth"
	"github.com/erp/posledger/internal/infrastructure/cache"
	"github.com/erp/posledger/internal/infrastructure/config"
	"github.com/erp/posledger/internal/infrastructure/event"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/infrastructure/migration"
	"github.com/erp/posledger/internal/infrastructure/persistence"
	"github.com/erp/posledger/internal/infrastructure/scheduler"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
	"github.com/erp/posledger/internal/interfaces/http/handler"
	"github.com/erp/posledger/internal/interfaces/http/middleware"
	"github.com/erp/posledger/internal/interfaces/http/router"
	"github.com/erp/posledger/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting POS ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:       log,
		TraceQueries: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		TraceFullSQL: cfg.Telemetry.DBLogFullSQL,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		if err := migrateUp(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Repositories and the transaction scope share one connection pool
	scope := persistence.NewGormTransactionScope(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	returnRepo := persistence.NewGormSalesReturnRepository(db.DB)
	tillRepo := persistence.NewGormTillRepository(db.DB)
	policy := till.VariancePolicy{
		WarningAbsolute: cfg.Ledger.VarianceWarningAbsolute,
		WarningPercent:  cfg.Ledger.VarianceWarningPercent,
	}

	productService := catalogapp.NewProductService(productRepo)
	ledgerService := inventoryapp.NewLedgerService(scope, productRepo,
		persistence.NewGormInventoryRecordRepository(db.DB),
		persistence.NewGormInventoryEventRepository(db.DB))
	saleService := salesapp.NewSaleService(scope, saleRepo)
	returnService := salesapp.NewReturnService(scope, returnRepo)
	sessionService := tillapp.NewSessionService(scope, tillRepo,
		persistence.NewGormTillSessionRepository(db.DB),
		persistence.NewGormCashTransactionRepository(db.DB),
		saleRepo, policy)
	auditService := tillapp.NewAuditService(scope, tillRepo,
		persistence.NewGormRefundCashGapRepository(db.DB), policy)
	statsService := reportapp.NewStatsService(saleRepo, returnRepo)

	// Events are published after commit; handlers only observe
	eventBus := event.NewInMemoryEventBus(log)
	ledgerMetrics, err := telemetry.NewLedgerMetrics(tel.Meter("posledger"))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	eventBus.Subscribe(eventapp.NewMetricsHandler(ledgerMetrics))
	eventBus.Subscribe(eventapp.NewAuditLogHandler())
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() { _ = eventBus.Stop(context.Background()) }()

	ledgerService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)
	returnService.SetEventPublisher(eventBus)
	sessionService.SetEventPublisher(eventBus)
	auditService.SetEventPublisher(eventBus)

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Redis,
		cache.WithLogger(log), cache.WithInMemoryFallback(true))
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	if cfg.Scheduler.Enabled {
		stop := startTillAudit(ctx, cfg.Scheduler, auditService, log)
		defer stop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tel.Enabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetricsWithMeter(tel.Meter("posledger/http"), tel.Enabled()))

	handlers := router.Handlers{
		Catalog:   handler.NewCatalogHandler(productService),
		Inventory: handler.NewInventoryHandler(ledgerService),
		Sales:     handler.NewSaleHandler(saleService, returnService),
		Tills:     handler.NewTillHandler(sessionService),
		Audit:     handler.NewAuditHandler(auditService),
		Reports:   handler.NewReportHandler(statsService),
		System:    handler.NewSystemHandler(db, cfg.App.Version),
	}
	router.RegisterHealth(engine, handlers.System)

	jwtConfig := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtConfig.Logger = log
	r := router.NewRouter(engine, router.WithMiddleware(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.TracingAttributeInjector(),
	))
	r.Register(router.LedgerRoutes(handlers, idempotencyStore, cfg.Ledger.IdempotencyTTL)...)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateUp applies the embedded migrations
func migrateUp(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared pool
	return m.Up()
}

// startTillAudit runs the nightly refund gap scan and returns its stop func
func startTillAudit(ctx context.Context, cfg config.SchedulerConfig, scanner scheduler.RefundGapScanner, log *zap.Logger) func() {
	schedulerConfig := scheduler.DefaultConfig()
	if cfg.JobTimeout > 0 {
		schedulerConfig.JobTimeout = cfg.JobTimeout
	}
	sched := scheduler.NewScheduler(schedulerConfig, scheduler.NewTillAuditExecutor(scanner, log), log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
		Hour:     cfg.TillAuditHour,
		Minute:   cfg.TillAuditMinute,
		Lookback: cfg.TillAuditLookback,
	}, sched, log)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start till audit trigger", zap.Error(err))
	}

	log.Info("Till audit scheduled",
		zap.Int("hour", cfg.TillAuditHour),
		zap.Int("minute", cfg.TillAuditMinute),
		zap.Duration("lookback", cfg.TillAuditLookback),
	)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping till audit trigger", zap.Error(err))
		}
		if err := sched.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
}
