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

	"go.uber.org/zap"

	_ "github.com/campushub/campus-api/api/swagger"
	"github.com/campushub/campus-api/internal/bus"
	"github.com/campushub/campus-api/internal/handler"
	"github.com/campushub/campus-api/internal/notification"
	"github.com/campushub/campus-api/internal/repository"
	"github.com/campushub/campus-api/internal/router"
	"github.com/campushub/campus-api/internal/service"
	"github.com/campushub/campus-api/pkg/cache"
	"github.com/campushub/campus-api/pkg/config"
	"github.com/campushub/campus-api/pkg/database"
	"github.com/campushub/campus-api/pkg/logger"
)

// @title Campus Hub API
// @version 1.0.0
// @description Campus portal backend: classroom occupancy, lost and found, project marketplace, and feedback
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eventBus bus.Bus
	if cfg.Events.Backend == "redis" && redisClient != nil {
		eventBus = bus.NewRedis(redisClient, cfg.Events.BufferSize, logr)
	} else {
		eventBus = bus.NewMemory(cfg.Events.BufferSize, logr)
	}
	defer eventBus.Close()

	metrics := service.NewMetricsService()
	eventBus = bus.NewInstrumented(eventBus, metrics)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	lostFoundRepo := repository.NewLostFoundRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	dispatcher := notification.NewDispatcher(subscriptionRepo, notification.Config{
		Enabled:    cfg.Push.Enabled,
		PublicKey:  cfg.Push.PublicKey,
		PrivateKey: cfg.Push.PrivateKey,
		Subject:    cfg.Push.Subject,
		TTL:        cfg.Push.TTL,
		Workers:    cfg.Push.Workers,
	}, metrics, logr)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Services.
	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	classroomService := service.NewClassroomService(classroomRepo, userRepo, eventBus, dispatcher, metrics, logr)
	lostFoundService := service.NewLostFoundService(lostFoundRepo, userRepo, eventBus, nil, logr)
	projectService := service.NewProjectService(projectRepo, eventBus, nil, logr)
	feedbackService := service.NewFeedbackService(feedbackRepo, userRepo, eventBus, nil, logr)
	dashboardService := service.NewDashboardService(classroomRepo, lostFoundRepo, projectRepo, feedbackRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	exportService := service.NewExportService(classroomService, logr)

	// Any change event invalidates the cached dashboard counts.
	for _, topic := range []string{bus.TopicClassrooms, bus.TopicLostItems, bus.TopicProjects, bus.TopicFeedback} {
		events, cancel := eventBus.Subscribe(topic)
		defer cancel()
		go func() {
			for range events {
				dashboardService.Invalidate(ctx)
			}
		}()
	}

	deps := router.Dependencies{
		Config:        cfg,
		Logger:        logr,
		Auth:          authService,
		Metrics:       metrics,
		AuthHandler:   handler.NewAuthHandler(authService),
		Classrooms:    handler.NewClassroomHandler(classroomService, exportService),
		LostFound:     handler.NewLostFoundHandler(lostFoundService),
		Projects:      handler.NewProjectHandler(projectService),
		Feedback:      handler.NewFeedbackHandler(feedbackService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Events:        handler.NewEventsHandler(eventBus, cfg.Events.Heartbeat, metrics, logr),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionRepo, cfg.Push.PublicKey),
		MetricsH:      handler.NewMetricsHandler(metrics),
		ReadyCheck:    db.Ping,
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router.New(deps),
	}

	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logr.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
