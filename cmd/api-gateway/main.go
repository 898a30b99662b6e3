package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/course-ledger-api/api/swagger"
	"github.com/noah-isme/course-ledger-api/internal/custody"
	"github.com/noah-isme/course-ledger-api/internal/events"
	"github.com/noah-isme/course-ledger-api/internal/handler"
	"github.com/noah-isme/course-ledger-api/internal/middleware"
	"github.com/noah-isme/course-ledger-api/internal/models"
	"github.com/noah-isme/course-ledger-api/internal/repository"
	"github.com/noah-isme/course-ledger-api/internal/service"
	"github.com/noah-isme/course-ledger-api/pkg/cache"
	"github.com/noah-isme/course-ledger-api/pkg/config"
	"github.com/noah-isme/course-ledger-api/pkg/database"
	"github.com/noah-isme/course-ledger-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-ledger-api/pkg/middleware/requestid"
)

// @title Course Ledger API
// @version 0.1.0
// @description Course seat ledger and finalization engine
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and events disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	locker := service.NewCourseLocker()
	metrics := service.NewMetricsService()
	publisher := events.NewPublisher(redisClient, logr)

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	evaluatorRepo := repository.NewEvaluatorRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	vault := custody.NewPostgresVault(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courseRepo, vault, locker, cacheSvc, validate, logr)
	evaluatorSvc := service.NewEvaluatorService(evaluatorRepo, courseRepo, settingsRepo, userRepo, locker, validate, logr, cfg.Ledger.MaxEvaluators)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, paymentRepo, vault, locker, cacheSvc, metrics, validate, logr, cfg.Ledger.CompatDoubleReclaim)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, enrollmentRepo, evaluatorSvc, locker, publisher, cacheSvc, validate, logr)
	finalizationSvc := service.NewFinalizationService(courseRepo, enrollmentRepo, evaluationRepo, vault, locker, publisher, cacheSvc, metrics, logr, cfg.Ledger.CompatDoubleReclaim)
	paymentSvc := service.NewPaymentService(paymentRepo, logr)
	exportSvc := service.NewExportService(courseRepo, enrollmentRepo, evaluationRepo, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	evaluatorHandler := handler.NewEvaluatorHandler(evaluatorSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	finalizationHandler := handler.NewFinalizationHandler(finalizationSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	admin := middleware.RequireRoles(models.RoleAdmin)

	authed.POST("/courses", admin, courseHandler.Create)
	authed.PUT("/courses/:id/metadata", admin, courseHandler.SetMetadata)
	authed.GET("/courses/:id", courseHandler.Get)
	authed.GET("/courses/:id/seats", courseHandler.GetSeats)
	authed.GET("/courses/:id/fee", courseHandler.GetFee)
	authed.GET("/courses/:id/creator", courseHandler.GetCreator)

	authed.POST("/courses/:id/evaluators", admin, evaluatorHandler.Assign)
	authed.DELETE("/courses/:id/evaluators/:evaluatorId", admin, evaluatorHandler.Unassign)
	authed.GET("/courses/:id/evaluators", evaluatorHandler.List)
	authed.PUT("/settings/max-evaluators", admin, evaluatorHandler.SetMaxEvaluators)

	authed.POST("/courses/:id/purchase", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.Purchase)
	authed.POST("/courses/:id/transfer", admin, enrollmentHandler.Transfer)
	authed.POST("/courses/reclaim", admin, enrollmentHandler.Reclaim)
	authed.GET("/courses/:id/students", enrollmentHandler.Students)
	authed.GET("/students/:id/courses", middleware.RBAC(string(models.RoleAdmin), string(models.RoleEvaluator), "SELF"), enrollmentHandler.CoursesForStudent)

	authed.POST("/courses/:id/evaluations", middleware.RequireRoles(models.RoleEvaluator), evaluationHandler.Create)
	authed.GET("/courses/:id/evaluations", evaluationHandler.List)
	authed.GET("/courses/:id/passed-count", evaluationHandler.PassedCount)

	authed.POST("/courses/:id/finalize", admin, finalizationHandler.Finalize)
	authed.POST("/payments/withdraw", admin, paymentHandler.Withdraw)

	authed.GET("/courses/:id/roster.csv", middleware.RequireRoles(models.RoleAdmin, models.RoleEvaluator), exportHandler.Roster)
	authed.GET("/courses/:id/certificate.pdf", exportHandler.Certificate)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
