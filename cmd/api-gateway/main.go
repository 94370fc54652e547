package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/driveguard/driveguard-api/api/swagger"
	"github.com/driveguard/driveguard-api/internal/handler"
	"github.com/driveguard/driveguard-api/internal/middleware"
	"github.com/driveguard/driveguard-api/internal/models"
	"github.com/driveguard/driveguard-api/internal/repository"
	"github.com/driveguard/driveguard-api/internal/service"
	"github.com/driveguard/driveguard-api/pkg/cache"
	"github.com/driveguard/driveguard-api/pkg/config"
	"github.com/driveguard/driveguard-api/pkg/database"
	"github.com/driveguard/driveguard-api/pkg/jobs"
	"github.com/driveguard/driveguard-api/pkg/logger"
	corsmiddleware "github.com/driveguard/driveguard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/driveguard/driveguard-api/pkg/middleware/requestid"
	"github.com/driveguard/driveguard-api/pkg/storage"
)

// @title DriveGuard API
// @version 1.0.0
// @description Driver drowsiness monitoring dashboard backend
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Repositories.
	profileRepo := repository.NewProfileRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var snapshotRepo interface {
		Insert(ctx context.Context, snapshots []models.Snapshot) error
		List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error)
		LatestDailyStats(ctx context.Context, deviceID string) (*models.DailyStats, error)
	}
	if cfg.DevStore.Enabled {
		store, storeErr := repository.NewFileSnapshotStore(cfg.DevStore.Path)
		if storeErr != nil {
			logr.Fatal("failed to open dev snapshot store", zap.Error(storeErr))
		}
		snapshotRepo = repository.NewStoreSnapshotRepository(store)
		logr.Info("using file-backed snapshot store", zap.String("path", cfg.DevStore.Path))
	} else {
		snapshotRepo = repository.NewSnapshotRepository(db)
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	authEvents := service.NewAuthEvents()
	validate := validator.New()

	authSvc := service.NewAuthService(profileRepo, authEvents, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	profileSvc := service.NewProfileService(profileRepo, authEvents, logr)
	snapshotSvc := service.NewSnapshotService(snapshotRepo, cacheSvc, metricsSvc, logr, service.SnapshotServiceConfig{
		MaxBatchSize: cfg.Ingest.MaxBatchSize,
	})
	dashboardSvc := service.NewDashboardService(snapshotRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(snapshotRepo, exportStorage, signer, service.ExportConfig{
		APIPrefix:   cfg.APIPrefix,
		ResultTTL:   cfg.Exports.SignedURLTTL,
		PreviewRows: cfg.Exports.PreviewRows,
	}, logr)

	exportWorker := service.NewExportWorker(exportJobRepo, exportSvc, metricsSvc, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	exportJobSvc := service.NewExportJobService(exportJobRepo, exportQueue, exportSvc, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})
	exportJobSvc.RecoverPendingJobs(ctx)
	exportJobSvc.StartCleanup(ctx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	snapshotHandler := handler.NewSnapshotHandler(snapshotSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := auth.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.POST("/logout", authHandler.Logout)
	authed.POST("/change-password", authHandler.ChangePassword)
	authed.GET("/me", authHandler.Me)

	// Download is authorized by its signed token alone.
	api.GET("/exports/download/:token", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/snapshots", snapshotHandler.Ingest)
	protected.GET("/snapshots", snapshotHandler.List)

	protected.GET("/dashboard", dashboardHandler.Dashboard)
	protected.GET("/dashboard/safety", dashboardHandler.Safety)

	protected.POST("/exports", exportHandler.Create)
	protected.GET("/exports/:id", exportHandler.Status)

	protected.GET("/profiles/:id", profileHandler.Get)

	admin := protected.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.GET("/profiles", profileHandler.List)
	admin.DELETE("/profiles/:id", profileHandler.Delete)
	admin.GET("/system/metrics", metricsHandler.System)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
