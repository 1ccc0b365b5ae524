// routes.go - Route registration helpers
package stubapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/logger"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store            storage.Store
	Answers          *AnswerBook
	APIKeyConfigured bool
	Logger           *logger.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Manuals ManualHandler
	Ask     AskHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	book := deps.Answers
	if book == nil {
		book, _ = ParseAnswerBook(defaultAnswers)
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.APIKeyConfigured),
		Manuals: NewManualHandler(deps.Store, deps.Logger),
		Ask:     NewAskHandler(deps.Store, book, deps.APIKeyConfigured, deps.Logger),
	}
}

// RegisterRoutes registers the service routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/health", handlers.Health.HandleHealth)

	e.GET("/manuals", handlers.Manuals.HandleListManuals)
	e.DELETE("/manuals/:name", handlers.Manuals.HandleDeleteManual)
	e.POST("/upload", handlers.Manuals.HandleUploadManual)

	e.POST("/ask", handlers.Ask.HandleAsk)
}

// MiddlewareOptions selects the optional middleware
type MiddlewareOptions struct {
	BodyLimit      string
	EnableCORS     bool
	RequestLogging bool
	Logger         *logger.Logger
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())

	if opts.RequestLogging {
		log := logger.OrNop(opts.Logger).With("component", "http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogError:   true,
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/health"
			},
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				kv := []interface{}{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
				if v.Error != nil {
					log.Warn("request", append(kv, "error", v.Error)...)
					return nil
				}
				log.Info("request", kv...)
				return nil
			},
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// NewServer builds a fully wired Echo instance
func NewServer(deps *Dependencies, opts MiddlewareOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	SetupMiddleware(e, opts)
	RegisterRoutes(e, NewHandlers(deps))
	return e
}
