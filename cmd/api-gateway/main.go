package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/darulhuda/institute-api/api/swagger"
	"github.com/darulhuda/institute-api/internal/handler"
	"github.com/darulhuda/institute-api/internal/middleware"
	"github.com/darulhuda/institute-api/internal/models"
	"github.com/darulhuda/institute-api/internal/repository"
	"github.com/darulhuda/institute-api/internal/service"
	"github.com/darulhuda/institute-api/pkg/cache"
	"github.com/darulhuda/institute-api/pkg/config"
	"github.com/darulhuda/institute-api/pkg/database"
	"github.com/darulhuda/institute-api/pkg/export"
	"github.com/darulhuda/institute-api/pkg/logger"
	corsmiddleware "github.com/darulhuda/institute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/darulhuda/institute-api/pkg/middleware/requestid"
)

// @title Institute Analytics API
// @version 1.0.0
// @description Attendance, grade and memorization analytics for the institute
// @BasePath /api
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without report cache", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, redisClient != nil)
	if redisClient != nil {
		defer cacheRepo.Close() //nolint:errcheck
	}

	analyticsRepo := repository.NewAnalyticsRepository(db)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheSvc, metricsSvc, logr, service.AnalyticsServiceConfig{
		CacheTTL:         cfg.Analytics.CacheTTL,
		FetchTimeout:     cfg.Analytics.FetchTimeout,
		TopStudentLimit:  cfg.Analytics.TopStudentLimit,
		DefaultTimeRange: cfg.Analytics.DefaultTimeRange,
	})
	exportSvc := service.NewExportService(export.NewCSVExporter(), export.NewPDFExporter(), logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, exportSvc, validator.New())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	analytics := api.Group("/analytics", middleware.JWT(authSvc))
	{
		analytics.GET("/dashboard",
			middleware.RequireRoles(models.RoleDirector, models.RoleTeacher),
			analyticsHandler.Dashboard,
		)
		analytics.GET("/export",
			middleware.RequireRoles(models.RoleDirector),
			analyticsHandler.Export,
		)
		analytics.GET("/attendance-trends", analyticsHandler.AttendanceTrends)
		analytics.GET("/student-performance", analyticsHandler.StudentPerformance)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
