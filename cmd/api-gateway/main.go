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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/glowtrack/glowtrack-api/api/swagger"
	"github.com/glowtrack/glowtrack-api/internal/handler"
	"github.com/glowtrack/glowtrack-api/internal/photofs"
	"github.com/glowtrack/glowtrack-api/internal/repository"
	"github.com/glowtrack/glowtrack-api/internal/service"
	"github.com/glowtrack/glowtrack-api/pkg/cache"
	"github.com/glowtrack/glowtrack-api/pkg/config"
	"github.com/glowtrack/glowtrack-api/pkg/database"
	"github.com/glowtrack/glowtrack-api/pkg/logger"
	corsmiddleware "github.com/glowtrack/glowtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/glowtrack/glowtrack-api/pkg/middleware/requestid"
	"github.com/glowtrack/glowtrack-api/pkg/storage"
)

// @title GlowTrack API
// @version 1.0.0
// @description Skincare photo tracking and skin analysis service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	stateRepo := repository.NewStateRepository(db)
	userRepo := repository.NewUserRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	files := photofs.NewManager(cfg.Photos.StorageDir, cfg.Photos.MaxStorageMB, nil, nil, logr)
	if err := files.Init(); err != nil {
		logr.Sugar().Fatalw("failed to init photo storage", "error", err, "dir", cfg.Photos.StorageDir)
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	photoSvc := service.NewPhotoService(stateRepo, files, cacheSvc, logr, cfg.Photos.MaxStorageMB)
	achievementSvc := service.NewAchievementService(stateRepo, logr)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelLoad()
	if err := photoSvc.Load(loadCtx); err != nil {
		logr.Sugar().Fatalw("failed to load photo state", "error", err)
	}
	if err := achievementSvc.Load(loadCtx); err != nil {
		logr.Sugar().Fatalw("failed to load achievement state", "error", err)
	}

	captureSvc := service.NewCaptureService(files, photoSvc, achievementSvc, metricsSvc, logr, cfg.Photos.CaptureTimeout)
	cleanupSvc := service.NewCleanupService(photoSvc, files, metricsSvc, logr,
		cfg.Photos.CleanupAge, cfg.Photos.CleanupInterval, cfg.Photos.CleanupWorkers, cfg.Photos.CleanupRetries)
	recordSvc := service.NewRecordService(recordRepo, logr)
	reportSvc := service.NewReportService(photoSvc, achievementSvc, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	signer := storage.NewSignedURLSigner(cfg.Photos.SignedURLSecret, cfg.Photos.SignedURLTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	h := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Photos:       handler.NewPhotoHandler(photoSvc, captureSvc, cleanupSvc, files, signer),
		Achievements: handler.NewAchievementHandler(achievementSvc),
		Records:      handler.NewRecordHandler(recordSvc),
		Reports:      handler.NewReportHandler(reportSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc, photoSvc),
	}
	if cfg.Analysis.Enabled {
		analysisSvc := service.NewAnalysisService(analysisRepo, photoSvc, achievementSvc, logr)
		h.Analyses = handler.NewAnalysisHandler(analysisSvc)
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, h, authSvc, metricsSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
