package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/internal/interfaces/http/handlers"
	"github.com/turtacn/patentdesk/internal/interfaces/http/middleware"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// RouterConfig carries everything the router mounts. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	// Handlers
	AuthHandler         *handlers.AuthHandler
	PatentHandler       *handlers.PatentHandler
	DocumentHandler     *handlers.DocumentHandler
	ReportHandler       *handlers.ReportHandler
	SubscriptionHandler *handlers.SubscriptionHandler
	HealthHandler       *handlers.HealthHandler
	GraphQLHandler      http.Handler
	MetricsHandler      http.Handler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
	AuthLimiter    middleware.RateLimiter
	CORS           middleware.CORSConfig
	Logging        middleware.LoggingConfig
	MaxBodySize    int64

	// StaticDir is served under StaticPrefix when both are set. Only the
	// local storage driver writes files the process can serve itself.
	StaticDir    string
	StaticPrefix string

	// Infrastructure
	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
}

// NewRouter builds the gin engine. The caller sets the gin mode.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware (applied to every request) ---
	r.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.RequestLogging(cfg.Logger, cfg.Logging),
		middleware.Metrics(cfg.Metrics),
		middleware.CORS(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	r.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, errors.NotFound("route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, middleware.ErrorResponse{
			Code:    errors.ErrCodeBadRequest.String(),
			Message: "method not allowed",
		})
	})

	// --- Public operational endpoints ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	if cfg.StaticDir != "" && cfg.StaticPrefix != "" {
		r.Static(cfg.StaticPrefix, cfg.StaticDir)
	}

	// --- GraphQL: resolvers decide which operations need a caller ---
	if cfg.GraphQLHandler != nil {
		r.POST("/graphql", cfg.AuthMiddleware.OptionalAuth(), gin.WrapH(cfg.GraphQLHandler))
	}

	api := r.Group("/api")
	registerAuthRoutes(api, cfg)

	protected := api.Group("", cfg.AuthMiddleware.Authenticate())
	registerPatentRoutes(protected, cfg.PatentHandler)
	registerDocumentRoutes(protected, cfg.DocumentHandler)
	registerReportRoutes(protected, cfg.ReportHandler)
	registerSubscriptionRoutes(protected, cfg.SubscriptionHandler)

	return r
}

func registerAuthRoutes(api *gin.RouterGroup, cfg RouterConfig) {
	h := cfg.AuthHandler
	if h == nil {
		return
	}
	g := api.Group("/auth")
	if cfg.AuthLimiter != nil {
		g.Use(middleware.RateLimit(cfg.AuthLimiter))
	}
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/me", cfg.AuthMiddleware.Authenticate(), h.Me)
}

func registerPatentRoutes(api *gin.RouterGroup, h *handlers.PatentHandler) {
	if h == nil {
		return
	}
	api.GET("/patents", h.List)
	api.POST("/patents", h.Create)
	api.POST("/patents/search", h.Search)
	api.GET("/patents/:id", h.Get)
	api.PUT("/patents/:id", h.Update)
	api.DELETE("/patents/:id", h.Delete)
	api.PATCH("/patents/:id/status", h.UpdateStatus)
}

func registerDocumentRoutes(api *gin.RouterGroup, h *handlers.DocumentHandler) {
	if h == nil {
		return
	}
	api.POST("/patents/:id/documents", h.Upload)
	api.DELETE("/patents/:id/documents/:documentId", h.Delete)
}

func registerReportRoutes(api *gin.RouterGroup, h *handlers.ReportHandler) {
	if h == nil {
		return
	}
	api.GET("/patents/:id/similar", h.Similar)
	api.GET("/patents/:id/analysis", h.Analysis)
	api.GET("/patents/:id/search-strategy", h.Strategy)
	api.GET("/patents/:id/similarity/:otherId", h.Compare)
	api.POST("/patents/:id/search-report", h.Generate)
}

func registerSubscriptionRoutes(api *gin.RouterGroup, h *handlers.SubscriptionHandler) {
	if h == nil {
		return
	}
	api.POST("/subscriptions", h.Create)
	api.GET("/subscriptions/active", h.Active)
	api.POST("/subscriptions/cancel", h.Cancel)
	api.PUT("/subscriptions/plan", h.ChangePlan)
}
