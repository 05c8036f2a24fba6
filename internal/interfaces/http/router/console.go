package router

import (
	"html/template"

	"github.com/erp/catalog-console/internal/application/guard"
	"github.com/erp/catalog-console/internal/application/navigation"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"github.com/erp/catalog-console/internal/interfaces/http/handler"
	"github.com/erp/catalog-console/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig configures the console engine
type EngineConfig struct {
	ServiceName string
	Tracing     bool
	Logger      *zap.Logger
	Templates   *template.Template
	Meter       metric.Meter // nil disables page metrics
	Security    *middleware.SecurityConfig
}

// NewEngine creates a gin engine with the console's middleware chain
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	security := middleware.DefaultSecurityConfig()
	if cfg.Security != nil {
		security = *cfg.Security
	}

	engine := gin.New()
	if cfg.Tracing {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}
	engine.Use(middleware.RequestID())
	if cfg.Tracing {
		engine.Use(middleware.SpanStatus())
	}
	if cfg.Meter != nil {
		pageMetrics, err := middleware.PageMetrics(cfg.Meter)
		if err != nil {
			return nil, err
		}
		engine.Use(pageMetrics)
	}
	engine.Use(
		middleware.SecureHeaders(security),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.BodyLimit(middleware.DefaultFormLimit),
	)
	if cfg.Templates != nil {
		engine.SetHTMLTemplate(cfg.Templates)
	}
	return engine, nil
}

type consoleOptions struct {
	limiter *middleware.AttemptLimiter
}

// ConsoleOption configures Console
type ConsoleOption func(*consoleOptions)

// WithAttemptLimiter throttles login and registration submissions
func WithAttemptLimiter(l *middleware.AttemptLimiter) ConsoleOption {
	return func(o *consoleOptions) { o.limiter = l }
}

// Console registers the console routes. Catalog routes require a session.
func Console(engine *gin.Engine, h *handler.ConsoleHandler, g *guard.Guard, nav *navigation.Recorder, opts ...ConsoleOption) {
	var o consoleOptions
	for _, opt := range opts {
		opt(&o)
	}
	login := []gin.HandlerFunc{h.Login}
	register := []gin.HandlerFunc{h.Register}
	if o.limiter != nil {
		login = append([]gin.HandlerFunc{middleware.LimitAttempts(o.limiter)}, login...)
		register = append([]gin.HandlerFunc{middleware.LimitAttempts(o.limiter)}, register...)
	}

	public := NewDomainGroup("public", "/").
		GET("/login", h.ShowLogin).
		POST("/login", login...).
		GET("/register", h.ShowRegister).
		POST("/register", register...).
		POST("/logout", h.Logout).
		GET("/healthz", h.Health)

	protected := NewDomainGroup("catalog", "/").
		Use(middleware.RequireSession(g, nav)).
		GET("/", h.ShowCatalog).
		GET("/images", h.BrowseImages)

	protected.Group("products", "/products").
		POST("", h.CreateProduct).
		POST("/refresh", h.RefreshProducts).
		POST("/cancel", h.CancelEdit).
		POST("/:id", h.UpdateProduct).
		GET("/:id/edit", h.EditProduct).
		GET("/:id/delete", h.ConfirmDelete).
		POST("/:id/delete", h.DeleteProduct)

	NewRouter(engine).Register(public).Register(protected).Setup()
	engine.NoRoute(h.NotFound)
}
