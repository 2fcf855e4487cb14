// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"serial-monitor/internal/config"
	"serial-monitor/internal/database"
	"serial-monitor/internal/discovery"
	"serial-monitor/internal/handler"
	"serial-monitor/internal/middleware"
	"serial-monitor/internal/repository"
	"serial-monitor/internal/service"
	"serial-monitor/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config      *config.Config
	logger      *zap.Logger
	db          *database.DB
	manager     *service.SessionManager
	scanners    *discovery.ScannerManager
	journal     repository.JournalRepository
	connections *handler.ConnectionManager
	websocket   *handler.WebSocketHandler
}

// NewRouter creates a new router instance. db may be nil.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db *database.DB,
	manager *service.SessionManager,
	scanners *discovery.ScannerManager,
	journal repository.JournalRepository,
	connections *handler.ConnectionManager,
	websocket *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:      config,
		logger:      logger,
		db:          db,
		manager:     manager,
		scanners:    scanners,
		journal:     journal,
		connections: connections,
		websocket:   websocket,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.manager, r.connections, r.config, r.logger)
	sessionHandler := handler.NewSessionHandler(r.manager, r.config.Prompt.Timeout, r.logger)
	portHandler := handler.NewPortHandler(r.scanners, r.logger)
	historyHandler := handler.NewHistoryHandler(r.journal, r.logger)

	// Health check routes
	healthHandler.RegisterRoutes(router.Group(""))

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	portHandler.RegisterRoutes(apiV1)
	sessionHandler.RegisterRoutes(apiV1)
	historyHandler.RegisterRoutes(apiV1)

	// WebSocket routes
	r.websocket.RegisterRoutes(router.Group("/ws"))

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
