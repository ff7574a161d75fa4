package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/skolard/skolard-api/api/swagger"
	"github.com/skolard/skolard-api/internal/handler"
	"github.com/skolard/skolard-api/internal/middleware"
	"github.com/skolard/skolard-api/internal/models"
	"github.com/skolard/skolard-api/internal/repository"
	"github.com/skolard/skolard-api/internal/service"
	"github.com/skolard/skolard-api/pkg/cache"
	"github.com/skolard/skolard-api/pkg/config"
	"github.com/skolard/skolard-api/pkg/database"
	"github.com/skolard/skolard-api/pkg/logger"
	corsmiddleware "github.com/skolard/skolard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/skolard/skolard-api/pkg/middleware/requestid"
	"github.com/skolard/skolard-api/pkg/storage"
)

// @title SkolarD API
// @version 1.0.0
// @description Tutoring marketplace API
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

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	cardRepo := repository.NewCardRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Bookings.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})

	var bookingSvc *service.BookingService
	if cacheRepo != nil {
		bookingSvc = service.NewBookingService(sessionRepo, userRepo, cacheRepo, logr, cfg.Bookings.CacheTTL)
	} else {
		bookingSvc = service.NewBookingService(sessionRepo, userRepo, nil, logr, cfg.Bookings.CacheTTL)
	}
	sessionSvc := service.NewSessionService(sessionRepo, bookingSvc, nil, logr, cfg.Sessions.MaxDuration)
	tutorSvc := service.NewTutorService(userRepo, ratingRepo, nil, logr)
	messageSvc := service.NewMessageService(messageRepo, userRepo, nil, logr)
	paymentSvc := service.NewPaymentService(cardRepo, sessionRepo, userRepo, nil, logr, cfg.Payments.MaxStoredCards)
	ratingSvc := service.NewRatingService(ratingRepo, sessionRepo, logr)
	ticketSvc := service.NewTicketService(ticketRepo, nil, logr)
	metricsSvc := service.NewMetricsService()
	bookingSvc.SetMetrics(metricsSvc)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signingSecret := cfg.Exports.SignedURLSecret
		if signingSecret == "" {
			signingSecret = cfg.JWT.Secret
		}
		signer := storage.NewSignedURLSigner(signingSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(sessionRepo, store, signer, logr, cfg.Exports.WorkerConcurrency, cfg.Exports.WorkerRetries)
		exportSvc.Start(context.Background())
		defer exportSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, metricsSvc)
	tutorHandler := handler.NewTutorHandler(tutorSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	ratingHandler := handler.NewRatingHandler(ratingSvc)
	ticketHandler := handler.NewTicketHandler(ticketSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
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

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	sessions := authed.Group("/sessions", middleware.RequireRoles(models.RoleTutor))
	sessions.POST("", sessionHandler.Create)
	sessions.GET("", sessionHandler.Schedule)
	sessions.DELETE("/:id", sessionHandler.Delete)

	bookings := authed.Group("/bookings", middleware.RequireRoles(models.RoleStudent))
	bookings.GET("/available", bookingHandler.Available)
	bookings.GET("/upcoming", bookingHandler.Upcoming)
	bookings.POST("/:id", bookingHandler.Book)
	bookings.DELETE("/:id", bookingHandler.Unbook)

	tutors := authed.Group("/tutors")
	tutors.GET("/:email", tutorHandler.Profile)
	tutors.GET("/:email/rating", tutorHandler.CourseRating)
	tutors.PUT("/courses", middleware.RequireRoles(models.RoleTutor), tutorHandler.RecordCourseGrade)

	messages := authed.Group("/messages")
	messages.POST("", messageHandler.Send)
	messages.GET("/conversation", messageHandler.Conversation)
	messages.GET("/inbox", messageHandler.Inbox)

	payments := authed.Group("/payments", middleware.RequireRoles(models.RoleStudent))
	payments.GET("", paymentHandler.Payments)
	payments.POST("/cards", paymentHandler.AddCard)
	payments.GET("/cards", paymentHandler.ListCards)
	payments.DELETE("/cards/:id", paymentHandler.RemoveCard)
	payments.POST("/sessions/:id", paymentHandler.Charge)

	ratings := authed.Group("/ratings")
	ratings.GET("/pending", middleware.RequireRoles(models.RoleStudent), ratingHandler.Pending)
	ratings.POST("/generate", middleware.RequireRoles(models.RoleSupport), ratingHandler.Generate)
	ratings.POST("/:id", middleware.RequireRoles(models.RoleStudent), ratingHandler.Submit)
	ratings.POST("/:id/skip", middleware.RequireRoles(models.RoleStudent), ratingHandler.Skip)

	tickets := authed.Group("/tickets")
	tickets.POST("", ticketHandler.Create)
	tickets.GET("", ticketHandler.Mine)
	tickets.GET("/open", middleware.RequireRoles(models.RoleSupport), ticketHandler.Open)
	tickets.POST("/:id/close", middleware.RequireRoles(models.RoleSupport), ticketHandler.Close)

	if exportSvc != nil {
		exports := api.Group("/exports")
		exports.GET("/download", exportHandler.Download)
		exports.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleTutor))
		exports.POST("", exportHandler.Request)
		exports.GET("/:id", exportHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
