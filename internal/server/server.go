// Package server is the development backend: the lectio HTTP API over SQLite.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alkime/lectio/internal/config"
	"github.com/alkime/lectio/internal/store"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	config    *config.Config
	logger    *slog.Logger
	router    *gin.Engine
	store     *store.Store
	scripture *store.Scripture
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, st *store.Store, scripture *store.Scripture) (*Server, error) {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	logger.Debug("Configured trusted proxies", "proxies", cfg.TrustedProxies)

	server := &Server{
		config:    cfg,
		logger:    logger,
		router:    router,
		store:     st,
		scripture: scripture,
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server, nil
}

// Router exposes the handler for tests and custom listeners.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api", requireToken(s.config.APIToken))
	{
		api.GET("/bibles", s.handleListBibles)
		api.GET("/versions", s.handleListVersions)
		api.GET("/bibles/:id/books", s.handleListBooks)
		api.GET("/books/:id/chapters", s.handleListChapters)
		api.GET("/verses", s.handleVerses)
		api.GET("/bibles/:id/analytics", s.handleAnalytics)
		api.GET("/bibles/:id/recordings", s.handleListRecordings)
		api.GET("/bibles/:id/download", s.handleDownload)

		api.POST("/recordings", s.handleCreateRecording)
		api.GET("/recordings/:id/audio", s.handleAudio)
		api.PUT("/recordings/:id", s.handleUpdateRecording)
		api.DELETE("/recordings/:id", s.handleDeleteRecording)
	}

	// Static files only answer paths no route claimed.
	s.router.NoRoute(static.Serve("/", static.LocalFile(s.config.StaticDir, true)), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "lectio",
	})
}
