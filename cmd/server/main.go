package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/backoffice/internal/bootstrap"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/crypto"
	"github.com/erp/backoffice/internal/infrastructure/event"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/migration"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/erp/backoffice/internal/interfaces/http/router"
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
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting back office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		return err
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		return err
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	numberingMetrics, err := telemetry.NewNumberingMetrics(meterProvider.Meter("backoffice/numbering"))
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg, log); err != nil {
			return err
		}
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log.Named("gorm"),
		LogLevel:      logger.GormLevel(cfg.Log.Level),
		SlowThreshold: cfg.Log.SlowThreshold,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:  cfg.Database.DBName,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		return err
	}

	key, err := cfg.Crypto.KeyBytes()
	if err != nil {
		return err
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return err
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return err
	}
	cacheOpts := []cache.TenantCacheOption{cache.WithLogger(log.Named("tenant-cache"))}
	var revocations auth.RevocationList = auth.NewMemoryRevocationList()
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cacheOpts = append(cacheOpts, cache.WithRedis(redisClient))
		revocations = auth.NewRedisRevocationList(redisClient)
	}
	tenantCache := cache.NewTenantCache(cfg.Tenant.LocalCacheTTL, cfg.Tenant.CacheTTL, cacheOpts...)

	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewAuditLogHandler(log), auditedEvents...)
	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer shutdown(log, "event bus", bus.Stop)

	services := bootstrap.NewServices(db.DB, bootstrap.Options{
		Logger:        log,
		Clock:         shared.SystemClock{},
		Sealer:        cipher,
		Authorizer:    auth.ClaimsAuthorizer{},
		TenantCache:   tenantCache,
		Publisher:     bus,
		MaxAttempts:   cfg.Numbering.MaxAttempts,
		RetryInterval: cfg.Numbering.RetryInterval,
		Observer:      numberingMetrics,
	})

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	handlers := router.Handlers{
		Party:         handler.NewPartyHandler(services.Directory),
		Proposal:      handler.NewProposalHandler(services.Proposals, services.Conversions),
		SalesOrder:    handler.NewSalesOrderHandler(services.SalesOrders, services.PurchaseOrders, services.Conversions),
		PurchaseOrder: handler.NewPurchaseOrderHandler(services.PurchaseOrders),
		System:        handler.NewSystemHandler(sqlDB, telemetry.ServiceVersion),
		Auth:          handler.NewAuthHandler(revocations),
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateWindow)
	}

	engine, err := router.New(router.Config{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		JWT: middleware.JWTMiddlewareConfig{
			Validator:   auth.NewJWTService(cfg.JWT),
			Revocations: revocations,
			SkipPaths:   []string{"/health"},
		},
		Tenant: middleware.TenantMiddlewareConfig{
			Resolver:  services.Tenants,
			Header:    cfg.Tenant.Header,
			Required:  cfg.Tenant.Required,
			SkipPaths: []string{"/health"},
		},
		RateLimiter: limiter,
	}, handlers)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("Server exited gracefully")
	return nil
}

var auditedEvents = []string{
	partner.EventTypePartyCreated,
	partner.EventTypePartyUpdated,
	partner.EventTypePartyDeleted,
	trade.EventTypeProposalClosed,
	trade.EventTypeSalesOrderCreated,
	trade.EventTypeSalesOrderClosed,
	trade.EventTypePurchaseOrderCreated,
	trade.EventTypePurchaseOrderStatusChanged,
}

func migrateUp(cfg *config.Config, log *zap.Logger) error {
	src := migration.Embedded()
	if cfg.Database.MigrationsPath != "" {
		src = migration.Source{Path: cfg.Database.MigrationsPath}
	}
	m, err := migration.NewFromURL(cfg.Database.DSN(), src, log.Named("migrate"))
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
