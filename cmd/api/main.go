package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/medpal-dev/medpal-api/api/swagger"
	"github.com/medpal-dev/medpal-api/internal/handler"
	"github.com/medpal-dev/medpal-api/internal/middleware"
	"github.com/medpal-dev/medpal-api/internal/ocr"
	"github.com/medpal-dev/medpal-api/internal/repository"
	"github.com/medpal-dev/medpal-api/internal/service"
	"github.com/medpal-dev/medpal-api/pkg/cache"
	"github.com/medpal-dev/medpal-api/pkg/config"
	"github.com/medpal-dev/medpal-api/pkg/database"
	"github.com/medpal-dev/medpal-api/pkg/logger"
	corsmiddleware "github.com/medpal-dev/medpal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/medpal-dev/medpal-api/pkg/middleware/requestid"
	"github.com/medpal-dev/medpal-api/pkg/response"
	"github.com/medpal-dev/medpal-api/pkg/storage"
)

// @title MedPal Report API
// @version 1.0.0
// @description Personal medical report vault: OCR ingest and owner-scoped report management
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	var archive *storage.LocalStorage
	var signer *storage.SignedURLSigner
	if cfg.Uploads.Enabled {
		archive, err = storage.NewLocalStorage(cfg.Uploads.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init upload storage", "error", err)
		}
		signer = storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	cacheCfg := service.ReportCacheConfig{Enabled: cfg.Cache.Enabled, ListTTL: cfg.Cache.ListTTL}
	reportSvc := service.NewReportService(reportRepo, cacheRepo, cacheCfg, metricsSvc, validate, logr)

	ocrClient := ocr.NewClient(cfg.OCR, logr)
	ocrSvc := service.NewOcrService(ocrClient, archive, signer, cfg.Uploads.Enabled, metricsSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	ocrHandler := handler.NewOcrHandler(ocrSvc)
	uploadHandler := handler.NewUploadHandler(archive, signer)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(response.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

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

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.Auth(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.Auth(authSvc), authHandler.Me)

	reports := api.Group("/reports", middleware.Auth(authSvc))
	reports.GET("", reportHandler.List)
	reports.POST("", reportHandler.Create)
	reports.GET("/export", reportHandler.ExportCSV)
	reports.GET("/:id", reportHandler.Get)
	reports.GET("/:id/pdf", reportHandler.ExportPDF)
	reports.PATCH("/:id", reportHandler.Update)
	reports.DELETE("/:id", reportHandler.Delete)

	api.POST("/ocr/extract", middleware.OptionalAuth(authSvc), ocrHandler.Extract)
	api.GET("/uploads/:token", uploadHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
