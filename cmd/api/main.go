package main

import (
	"context"
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

	_ "github.com/classmeet/classmeet-api/api/swagger"
	"github.com/classmeet/classmeet-api/internal/handler"
	"github.com/classmeet/classmeet-api/internal/middleware"
	"github.com/classmeet/classmeet-api/internal/models"
	"github.com/classmeet/classmeet-api/internal/repository"
	"github.com/classmeet/classmeet-api/internal/service"
	"github.com/classmeet/classmeet-api/pkg/cache"
	"github.com/classmeet/classmeet-api/pkg/config"
	"github.com/classmeet/classmeet-api/pkg/database"
	"github.com/classmeet/classmeet-api/pkg/jobs"
	"github.com/classmeet/classmeet-api/pkg/logger"
	corsmiddleware "github.com/classmeet/classmeet-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classmeet/classmeet-api/pkg/middleware/requestid"
	"github.com/classmeet/classmeet-api/pkg/storage"
)

// @title ClassMeet API
// @version 1.0.0
// @description Classroom management: classes, subjects, live sessions, materials and attendance
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog caching disabled", "error", err)
		redisClient = nil
	}

	mediaStore, err := storage.NewMediaStore(cfg.Storage.MediaDir, cfg.Storage.MaxFileSizeBytes)
	if err != nil {
		logr.Sugar().Fatalw("failed to init media store", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)
	} else {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Catalog.CacheTTL, logr, false)
	}

	queryTimeout := cfg.Database.QueryTimeout

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:  cfg.JWT.Secret,
		Expiry:  cfg.JWT.Expiration,
		Issuer:  cfg.JWT.Issuer,
		Timeout: queryTimeout,
	})
	enrollmentSvc := service.NewEnrollmentService(classRepo, cacheSvc, logr, queryTimeout)
	scopeSvc := service.NewScopeService(enrollmentSvc, logr)
	classSvc := service.NewClassService(classRepo, subjectRepo, userRepo, enrollmentSvc, validate, logr, queryTimeout)
	subjectSvc := service.NewSubjectService(subjectRepo, classRepo, validate, logr, queryTimeout)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, classRepo, metrics, validate, logr, queryTimeout)
	reportSvc := service.NewReportService(attendanceSvc, logr)
	materialSvc := service.NewMaterialService(materialRepo, subjectRepo, mediaStore, signer, cfg.Storage.MaxFileSizeBytes, validate, logr, queryTimeout)

	sweepPool := jobs.NewPool("attendance-sweep", func(ctx context.Context, task jobs.Task) error {
		sessionID, ok := task.Payload.(string)
		if !ok {
			logr.Sugar().Errorw("sweep task with unexpected payload", "task_id", task.ID)
			return nil
		}
		return attendanceSvc.SweepAbsentees(ctx, sessionID)
	}, jobs.Options{
		Workers:    cfg.Workers.Concurrency,
		MaxRetries: cfg.Workers.MaxRetries,
		RetryDelay: cfg.Workers.RetryDelay,
		Logger:     logr,
	})

	sessionSvc := service.NewSessionService(sessionRepo, classRepo, subjectRepo, attendanceRepo, sweepPool, metrics, validate, logr, queryTimeout)

	cookieSettings := handler.CookieSettings{
		Name:   cfg.JWT.CookieName,
		MaxAge: int(cfg.JWT.Expiration.Seconds()),
		Secure: cfg.Env == config.EnvProduction,
	}
	authHandler := handler.NewAuthHandler(authSvc, cookieSettings)
	classHandler := handler.NewClassHandler(classSvc, scopeSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc, scopeSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc, scopeSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc, scopeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, reportSvc, scopeSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.MaxMultipartMemory = cfg.Storage.MaxFileSizeBytes

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/media/download", materialHandler.Serve)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", middleware.Auth(authSvc, cfg.JWT.CookieName), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.Auth(authSvc, cfg.JWT.CookieName))

	protected.GET("/classes", classHandler.List)
	protected.GET("/classes/:id", classHandler.Get)
	protected.POST("/classes", middleware.Require(models.CapOwnClass), classHandler.Create)
	protected.POST("/classes/:id/students", middleware.Require(models.CapOwnClass), classHandler.AddStudent)

	protected.GET("/subjects", subjectHandler.List)
	protected.GET("/subjects/:id", subjectHandler.Get)
	protected.POST("/subjects", middleware.Require(models.CapOwnClass), subjectHandler.Create)

	protected.GET("/sessions", sessionHandler.List)
	protected.GET("/sessions/:id", sessionHandler.Get)
	protected.POST("/sessions", middleware.Require(models.CapOwnSession), sessionHandler.Create)
	protected.PATCH("/sessions/:id/status", middleware.Require(models.CapOwnSession), sessionHandler.UpdateStatus)
	protected.POST("/sessions/:id/join", middleware.Require(models.CapEnrolledIn), sessionHandler.Join)

	protected.GET("/materials", materialHandler.List)
	protected.POST("/materials", middleware.Require(models.CapOwnClass), materialHandler.Create)
	protected.POST("/materials/upload", middleware.Require(models.CapOwnClass), materialHandler.Upload)
	protected.GET("/materials/:id/download", materialHandler.Download)

	protected.GET("/attendance", attendanceHandler.List)
	protected.POST("/attendance", middleware.Require(models.CapOwnSession), attendanceHandler.Mark)
	protected.GET("/attendance/report", attendanceHandler.Report)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweepPool.Start(rootCtx)
	defer sweepPool.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
