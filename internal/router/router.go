package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/campushub/campus-api/internal/handler"
	"github.com/campushub/campus-api/internal/middleware"
	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/internal/service"
	"github.com/campushub/campus-api/pkg/config"
	"github.com/campushub/campus-api/pkg/logger"
	corsmiddleware "github.com/campushub/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/campus-api/pkg/middleware/requestid"
)

// Dependencies carries the wired handlers and cross-cutting services.
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	Auth          *service.AuthService
	Metrics       *service.MetricsService
	AuthHandler   *handler.AuthHandler
	Classrooms    *handler.ClassroomHandler
	LostFound     *handler.LostFoundHandler
	Projects      *handler.ProjectHandler
	Feedback      *handler.FeedbackHandler
	Dashboard     *handler.DashboardHandler
	Events        *handler.EventsHandler
	Subscriptions *handler.SubscriptionHandler
	MetricsH      *handler.MetricsHandler
	ReadyCheck    func() error
}

// New assembles the gin engine with middleware and all routes.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	if cfg.RateLimit.PerSecond > 0 {
		r.Use(middleware.RateLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst))
	}

	r.GET("/health", deps.MetricsH.Health)
	r.GET("/ready", func(c *gin.Context) {
		if deps.ReadyCheck != nil {
			if err := deps.ReadyCheck(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.MetricsH.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var caching gin.HandlerFunc
	if cfg.HTTPCache.TTL > 0 {
		cleanup := cfg.HTTPCache.CleanupInterval
		if cleanup <= 0 {
			cleanup = 2 * cfg.HTTPCache.TTL
		}
		store := cache.New(cfg.HTTPCache.TTL, cleanup)
		caching = middleware.Cache(store, cfg.HTTPCache.TTL)
	} else {
		caching = func(c *gin.Context) { c.Next() }
	}

	requireAuth := middleware.JWT(deps.Auth)
	requireStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	requireAdmin := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/signup", deps.AuthHandler.Signup)
			auth.GET("/me", requireAuth, deps.AuthHandler.Me)
		}

		classrooms := api.Group("/classrooms")
		{
			classrooms.GET("", deps.Classrooms.List)
			classrooms.GET("/summary", caching, deps.Classrooms.Summary)
			classrooms.GET("/:id", deps.Classrooms.Get)
			classrooms.GET("/:id/history", deps.Classrooms.History)
			classrooms.GET("/:id/history/export", requireAuth, requireAdmin, deps.Classrooms.ExportHistory)
			classrooms.POST("/:id/occupy", requireAuth, requireStaff, deps.Classrooms.Occupy)
			classrooms.POST("/:id/vacate", requireAuth, requireStaff, deps.Classrooms.Vacate)
		}

		lostItems := api.Group("/lost-items")
		{
			lostItems.GET("", caching, deps.LostFound.List)
			lostItems.GET("/:id", deps.LostFound.Get)
			lostItems.POST("", requireAuth, deps.LostFound.Create)
			lostItems.POST("/:id/resolve", requireAuth, deps.LostFound.Resolve)
		}

		projects := api.Group("/projects")
		{
			projects.GET("", caching, deps.Projects.List)
			projects.GET("/:id", deps.Projects.Get)
			projects.POST("", requireAuth, deps.Projects.Create)
			projects.PATCH("/:id", requireAuth, deps.Projects.Update)
			projects.DELETE("/:id", requireAuth, deps.Projects.Delete)
			projects.POST("/:id/archive", requireAuth, deps.Projects.Archive)
		}

		feedback := api.Group("/feedback")
		{
			feedback.POST("", requireAuth, deps.Feedback.Submit)
			feedback.GET("", requireAuth, requireAdmin, deps.Feedback.List)
			feedback.POST("/:id/review", requireAuth, requireAdmin, deps.Feedback.Review)
		}

		if cfg.Dashboard.Enabled {
			api.GET("/dashboard", caching, deps.Dashboard.Overview)
		}

		api.GET("/events", deps.Events.Stream)

		notifications := api.Group("/notifications")
		{
			notifications.GET("/vapid-key", deps.Subscriptions.VAPIDPublicKey)
			notifications.PUT("/subscriptions", requireAuth, deps.Subscriptions.Subscribe)
			notifications.DELETE("/subscriptions", requireAuth, deps.Subscriptions.Unsubscribe)
		}
	}

	return r
}
