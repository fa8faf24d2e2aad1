// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yard-planner/backend/internal/settings"
	"github.com/yard-planner/backend/internal/storage"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions     SessionManager
	Seeds        storage.SeedStore
	Catalog      *SeedCatalog
	Settings     *settings.Service
	Version      string
	MaxMessageKB int
	MaxSeedKB    int
	Logger       *zap.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Yard      YardHandler
	Settings  SettingsHandler
	Seed      SeedHandler
	WebSocket *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Sessions),
		Yard:      NewYardHandler(deps.Sessions, deps.Catalog, log.Named("api")),
		Settings:  NewSettingsHandler(deps.Settings),
		Seed:      NewSeedHandler(deps.Seeds, deps.Catalog, int64(deps.MaxSeedKB)*1024),
		WebSocket: NewWebSocketHandler(deps.Sessions, deps.MaxMessageKB, log.Named("ws")),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Yard sessions
	yardGroup := apiGroup.Group("/yard")
	yardGroup.POST("/sessions", handlers.Yard.HandleCreateSession)
	yardGroup.GET("/sessions/:id", handlers.Yard.HandleGetSession)
	yardGroup.DELETE("/sessions/:id", handlers.Yard.HandleDeleteSession)

	// Placement
	yardGroup.GET("/:id/snapshot", handlers.Yard.HandleSnapshot)
	yardGroup.GET("/:id/snapshot/msgpack", handlers.Yard.HandleSnapshotMsgpack)
	yardGroup.GET("/:id/slots/:location", handlers.Yard.HandleSlotOccupancy)
	yardGroup.POST("/:id/preview", handlers.Yard.HandlePreview)
	yardGroup.POST("/:id/moves", handlers.Yard.HandleMove)
	yardGroup.GET("/:id/moves", handlers.Yard.HandleMoveJournal)
	yardGroup.GET("/:id/search", handlers.Yard.HandleSearch)
	yardGroup.PUT("/:id/truck", handlers.Yard.HandleSetTruck)

	// WebSocket drag protocol
	yardGroup.GET("/:id/ws", handlers.WebSocket.HandleWebSocket)

	// Settings
	apiGroup.GET("/settings", handlers.Settings.HandleGetSettings)
	apiGroup.PUT("/settings", handlers.Settings.HandleUpdateSettings)
	apiGroup.GET("/settings/font-scale/:size", handlers.Settings.HandleGetFontScale)

	// Seed fixtures
	apiGroup.POST("/seeds", handlers.Seed.HandleUploadSeed)
	apiGroup.GET("/seeds", handlers.Seed.HandleListSeeds)
	apiGroup.POST("/seeds/active", handlers.Seed.HandleSetActiveSeed)
	apiGroup.DELETE("/seeds/:id", handlers.Seed.HandleDeleteSeed)
}

// MiddlewareConfig carries the server settings middleware depends on
type MiddlewareConfig struct {
	RequestLogging bool
	RequestTimeout time.Duration
	BodyLimit      string
	EnableCORS     bool
	AllowOrigins   string
	Embedded       bool
	Logger         *zap.Logger
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Request logging through zap
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !cfg.RequestLogging || c.Request().URL.Path == "/api/health"
		},
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.RequestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.RequestTimeout,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/ws")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	// Body limit middleware
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	// CORS configuration
	if cfg.EnableCORS {
		if cfg.Embedded {
			// In embedded mode, use config settings
			origins := strings.Split(cfg.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
			if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
				origins = []string{"*"}
			}
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: origins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		} else {
			// Development mode - only allow localhost
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: []string{
					"http://localhost:5173", "http://127.0.0.1:5173",
					"http://localhost:3000", "http://127.0.0.1:3000",
				},
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		}
	}
}
