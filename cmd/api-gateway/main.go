package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academic-records-api/api/swagger"
	"github.com/noah-isme/academic-records-api/internal/gradebook"
	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
)

// @title Academic Records API
// @version 1.0.0
// @description Role-based academic records service: courses, enrollments, grades and reviews
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

	scale, err := gradebook.FromConfig(cfg.Grading)
	if err != nil {
		logr.Sugar().Fatalw("invalid grade scale", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			cfg.Cache.Enabled = false
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academic-records-api",
	})
	principalSvc := service.NewPrincipalService(studentRepo, cacheRepo, cfg.Cache, logr, metricsSvc)
	profileSvc := service.NewProfileService(userRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, gradeRepo, cacheRepo, cfg.Cache, validate, logr, metricsSvc)
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, userRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, studentRepo, userRepo, cacheRepo, cfg.Cache, logr)
	gradeSvc := service.NewGradeService(gradeRepo, studentRepo, courseRepo, userRepo, scale, cacheRepo, cfg.Cache, validate, logr)
	reviewSvc := service.NewReviewService(reviewRepo, courseRepo, validate, logr)
	transcriptSvc := service.NewTranscriptService(studentRepo, gradeRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, transcriptSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, enrollmentSvc, reviewSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
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

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc), middleware.Principal(principalSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/profiles", profileHandler.List)
	authed.GET("/profiles/me", profileHandler.Me)

	authed.GET("/students", studentHandler.List)
	authed.POST("/students", studentHandler.Create)
	authed.GET("/students/me", studentHandler.Me)
	authed.GET("/students/:id", studentHandler.Get)
	authed.PUT("/students/:id", studentHandler.Update)
	authed.DELETE("/students/:id", studentHandler.Delete)
	authed.GET("/students/:id/gpa", studentHandler.GPA)
	authed.GET("/students/:id/transcript", studentHandler.Transcript)

	authed.GET("/courses", courseHandler.List)
	authed.POST("/courses", courseHandler.Create)
	authed.GET("/courses/:id", courseHandler.Get)
	authed.PUT("/courses/:id", courseHandler.Update)
	authed.DELETE("/courses/:id", courseHandler.Delete)
	authed.GET("/courses/:id/students", courseHandler.Students)
	authed.POST("/courses/:id/enroll", courseHandler.Enroll)
	authed.POST("/courses/:id/unenroll", courseHandler.Unenroll)
	authed.GET("/courses/:id/reviews", courseHandler.Reviews)
	authed.POST("/courses/:id/reviews", courseHandler.CreateReview)

	authed.GET("/grades", gradeHandler.List)
	authed.POST("/grades", gradeHandler.Create)
	authed.GET("/grades/:id", gradeHandler.Get)
	authed.PUT("/grades/:id", gradeHandler.Update)
	authed.DELETE("/grades/:id", gradeHandler.Delete)

	authed.GET("/reviews", reviewHandler.List)
	authed.PUT("/reviews/:id", reviewHandler.Update)
	authed.DELETE("/reviews/:id", reviewHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
