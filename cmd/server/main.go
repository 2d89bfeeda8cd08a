package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appreconcile "github.com/logistics/backend/internal/application/reconcile"
	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/infrastructure/config"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/infrastructure/scheduler"
	"github.com/logistics/backend/internal/infrastructure/shipstore"
	"github.com/logistics/backend/internal/infrastructure/sources"
	"github.com/logistics/backend/internal/interfaces/http/handler"
	"github.com/logistics/backend/internal/interfaces/http/middleware"
	"github.com/logistics/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting logistics backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Register an adapter for every source with a configured feed; sources
	// without a base URL are simply absent from the registry
	registry := sources.NewRegistry()
	registerAdapters(registry, cfg, log)
	adapters := registry.List()
	if len(adapters) == 0 {
		log.Warn("No order sources configured, load cycles will produce empty batches")
	}

	// Shipment store client
	store, err := shipstore.NewClient(&shipstore.Config{
		BaseURL:        cfg.ShipmentStore.BaseURL,
		APIToken:       cfg.ShipmentStore.APIToken,
		TimeoutSeconds: cfg.ShipmentStore.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to create shipment store client", zap.Error(err))
	}

	// Reconciliation pipeline over a fresh operator session
	session := reconcile.NewSession()
	pipeline := appreconcile.NewPipeline(adapters, store, session, log)
	log.Info("Reconciliation session started", zap.String("session_id", session.ID.String()))

	// Drain cycle deltas into the log so completed background tasks are
	// visible even when no operator is polling
	go func() {
		for delta := range pipeline.Deltas() {
			log.Info("Load cycle completed",
				zap.Int("cycle", delta.Cycle),
				zap.Int("orders", delta.Orders),
				zap.Int("existing", delta.Existing),
				zap.Int("converted", delta.Converted),
				zap.Int("failed", delta.Failed),
			)
		}
	}()

	// Periodic reload scheduler
	reloadScheduler, err := scheduler.NewReloadScheduler(scheduler.ReloadSchedulerConfig{
		Enabled:  cfg.Reload.Enabled,
		Interval: cfg.Reload.Interval,
	}, pipeline, log)
	if err != nil {
		log.Fatal("Failed to create reload scheduler", zap.Error(err))
	}
	if cfg.Reload.Enabled {
		if err := reloadScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reload scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := reloadScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping reload scheduler", zap.Error(err))
			}
		}()
		log.Info("Reload scheduler started", zap.Duration("interval", cfg.Reload.Interval))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewReconcileHandler(pipeline)).
		Register(handler.NewShipmentHandler(store)).
		Register(handler.NewSystemHandler())
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// registerAdapters builds and registers an adapter for every configured feed
func registerAdapters(registry *sources.Registry, cfg *config.Config, log *zap.Logger) {
	if cfg.Sources.Shopify.BaseURL != "" {
		adapter, err := sources.NewShopifyAdapter(&sources.Config{
			BaseURL:        cfg.Sources.Shopify.BaseURL,
			AccessToken:    cfg.Sources.Shopify.AccessToken,
			TimeoutSeconds: cfg.Sources.Shopify.TimeoutSeconds,
		})
		if err != nil {
			log.Fatal("Failed to create Shopify adapter", zap.Error(err))
		}
		registry.Register(adapter)
		log.Info("Registered order source", zap.String("source", "shopify"))
	}

	if cfg.Sources.VTEX.BaseURL != "" {
		adapter, err := sources.NewVTEXAdapter(&sources.Config{
			BaseURL:        cfg.Sources.VTEX.BaseURL,
			AccessToken:    cfg.Sources.VTEX.AccessToken,
			TimeoutSeconds: cfg.Sources.VTEX.TimeoutSeconds,
		})
		if err != nil {
			log.Fatal("Failed to create VTEX adapter", zap.Error(err))
		}
		registry.Register(adapter)
		log.Info("Registered order source", zap.String("source", "vtex"))
	}

	if cfg.Sources.Tiendanube.BaseURL != "" {
		adapter, err := sources.NewTiendanubeAdapter(&sources.Config{
			BaseURL:        cfg.Sources.Tiendanube.BaseURL,
			AccessToken:    cfg.Sources.Tiendanube.AccessToken,
			TimeoutSeconds: cfg.Sources.Tiendanube.TimeoutSeconds,
		})
		if err != nil {
			log.Fatal("Failed to create Tiendanube adapter", zap.Error(err))
		}
		registry.Register(adapter)
		log.Info("Registered order source", zap.String("source", "tiendanube"))
	}
}
