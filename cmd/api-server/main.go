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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/orgcal-api/api/swagger"
	"github.com/noah-isme/orgcal-api/internal/handler"
	"github.com/noah-isme/orgcal-api/internal/middleware"
	"github.com/noah-isme/orgcal-api/internal/repository"
	"github.com/noah-isme/orgcal-api/internal/service"
	"github.com/noah-isme/orgcal-api/pkg/cache"
	"github.com/noah-isme/orgcal-api/pkg/config"
	"github.com/noah-isme/orgcal-api/pkg/database"
	"github.com/noah-isme/orgcal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/orgcal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/orgcal-api/pkg/middleware/requestid"
)

// @title Organization Calendar API
// @version 1.0.0
// @description Calendar events, free/busy and free slot queries for organizations
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Availability.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	app := wire(cfg, db, redisClient, metrics, logr)
	app.invalidator.Start(ctx)
	defer app.invalidator.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logr.Info("server stopped")
}

type application struct {
	router      *gin.Engine
	invalidator *service.CacheInvalidator
}

func wire(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService, logr *zap.Logger) *application {
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr.Named("cache"), cfg.Availability.CacheEnabled && redisClient != nil)
	invalidator := service.NewCacheInvalidator(cacheSvc, cfg.Availability.InvalidationWorkers, logr.Named("invalidation"))

	authSvc := service.NewAuthService(userRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "orgcal-api",
	})
	calendarSvc := service.NewCalendarService(calendarRepo, orgRepo, invalidator, validate, logr.Named("calendar"))
	availabilitySvc := service.NewAvailabilityService(service.AvailabilityServiceParams{
		Repository: calendarRepo,
		Cache:      cacheSvc,
		Metrics:    metrics,
		Logger:     logr.Named("availability"),
		Config: service.AvailabilityServiceConfig{
			DefaultTimeZone:    cfg.Calendar.DefaultTimeZone,
			DefaultSlotMinutes: cfg.Calendar.DefaultSlotMinutes,
			MaxWindow:          cfg.Calendar.MaxWindow,
			CacheTTL:           cfg.Availability.CacheTTL,
		},
	})

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	authHandler := handler.NewAuthHandler(authSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metrics != nil {
		r.Use(middleware.Metrics(metrics))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)

	events := secured.Group("/calendar-events")
	events.POST("", calendarHandler.Create)
	events.GET("/my", calendarHandler.ListMine)
	events.GET("/my/availability", availabilityHandler.MyAvailability)
	events.GET("/my/free-slots", availabilityHandler.MyFreeSlots)
	events.GET("/:id", calendarHandler.Get)
	events.PUT("/:id", calendarHandler.Update)
	events.DELETE("/:id", calendarHandler.Delete)
	events.PUT("/:id/attendance", calendarHandler.RespondAttendance)

	org := events.Group("/organization/:organizationId")
	org.GET("", calendarHandler.ListByOrganization)
	org.GET("/date-range", calendarHandler.ListByRange)
	org.GET("/busy", availabilityHandler.OrganizationBusy)
	org.GET("/calendar-view", availabilityHandler.CalendarView)
	org.GET("/calendar-view/export", availabilityHandler.Export)
	org.GET("/all-members", availabilityHandler.MembersEvents)
	org.GET("/free-slots", availabilityHandler.FreeSlots)
	org.POST("/import", calendarHandler.ImportICS)

	return &application{router: r, invalidator: invalidator}
}
