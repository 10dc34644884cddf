package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/JsterDevers/Presentryx/internal/handler"
	"github.com/JsterDevers/Presentryx/internal/middleware"
	"github.com/JsterDevers/Presentryx/internal/models"
	"github.com/JsterDevers/Presentryx/internal/recognizer"
	"github.com/JsterDevers/Presentryx/internal/repository"
	"github.com/JsterDevers/Presentryx/internal/service"
	"github.com/JsterDevers/Presentryx/pkg/cache"
	"github.com/JsterDevers/Presentryx/pkg/config"
	"github.com/JsterDevers/Presentryx/pkg/database"
	"github.com/JsterDevers/Presentryx/pkg/jobs"
	"github.com/JsterDevers/Presentryx/pkg/logger"
	corsmiddleware "github.com/JsterDevers/Presentryx/pkg/middleware/cors"
	reqidmiddleware "github.com/JsterDevers/Presentryx/pkg/middleware/requestid"
	"github.com/JsterDevers/Presentryx/pkg/storage"
)

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

	db, err := database.NewMySQL(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Dashboard.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, cacheSvc, validate, logr)
	scanSvc := service.NewScanService(attendanceRepo, classRepo, recognizer.NewMock(time.Now().UnixNano()), cacheSvc, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, logr)
	dashboardSvc := service.NewDashboardService(attendanceRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	classHandler := handler.NewClassHandler(classSvc)
	scanHandler := handler.NewScanHandler(scanSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reportHandler *handler.ReportHandler
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Reports.ResultTTL)
		reportRepo := repository.NewReportRepository(db)
		exportSvc := service.NewExportService(attendanceRepo, classRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.ResultTTL,
		}, logr, nil, nil)
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, classRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.ResultTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		reportHandler = handler.NewReportHandler(reportSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		users.GET("/faculty", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), userHandler.FacultyOptions)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.PATCH("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Update)
		users.GET("/:id/activity", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Activity)
	}

	classes := api.Group("/classes", middleware.JWT(authSvc))
	{
		classes.GET("", classHandler.List)
		classes.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), classHandler.Create)
		classes.GET("/:id", classHandler.Get)
		classes.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), classHandler.Update)
		classes.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), classHandler.Delete)
		classes.GET("/:id/bounds", classHandler.Bounds)
	}

	scans := api.Group("/scans", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
	{
		scans.POST("/in", scanHandler.ScanIn)
		scans.POST("/out", scanHandler.ScanOut)
		scans.POST("/out/auto", scanHandler.AutoScanOut)
		scans.GET("/active/:classId", scanHandler.Active)
		scans.POST("/reset", scanHandler.Reset)
	}

	attendance := api.Group("/attendance", middleware.JWT(authSvc))
	{
		attendance.GET("", attendanceHandler.List)
		attendance.GET("/today/:classId", attendanceHandler.Today)
	}

	dashboard := api.Group("/dashboard", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
	{
		dashboard.GET("/:classId", dashboardHandler.Summary)
	}

	api.GET("/system/metrics", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	if reportHandler != nil {
		reports := api.Group("/reports", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
		{
			reports.POST("/generate", reportHandler.Generate)
			reports.GET("/status/:id", reportHandler.Status)
		}
		api.GET("/export/:token", reportHandler.Download)
	}

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
