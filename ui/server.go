// Package ui is the HTTP host: multipart uploads in, analysis JSON and
// notification streams out.
package ui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"datalens/app"
	"datalens/internal"
	"datalens/internal/api"

	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes bounds one multipart request
const DefaultMaxUploadBytes = 32 << 20

// Options configure the HTTP host
type Options struct {
	GinMode        string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server represents the web server for dataset uploads and analysis
type Server struct {
	router   *gin.Engine
	datasets *app.DatasetService
	hub      *api.SSEHub
	options  Options
	logger   *internal.Logger
}

// NewServer creates a server with its routes registered
func NewServer(datasets *app.DatasetService, hub *api.SSEHub, options Options, logger *internal.Logger) *Server {
	if options.GinMode != "" {
		gin.SetMode(options.GinMode)
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:   gin.New(),
		datasets: datasets,
		hub:      hub,
		options:  options,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	apiGroup := s.router.Group("/api")
	apiGroup.GET("/palettes", s.handlePalettes)
	apiGroup.POST("/sessions", s.handleCreateSession)
	apiGroup.GET("/sessions", s.handleListSessions)

	sessions := apiGroup.Group("/sessions/:id")
	sessions.DELETE("", s.handleDeleteSession)
	sessions.POST("/datasets", s.handleUpload)
	sessions.GET("/datasets", s.handleListDatasets)
	sessions.DELETE("/datasets", s.handleClearSession)
	sessions.GET("/datasets/:datasetId/analysis", s.handleAnalyze)
	sessions.DELETE("/datasets/:datasetId", s.handleRemoveDataset)
	sessions.GET("/relationships", s.handleRelationships)
	sessions.GET("/report", s.handleReport)
	if s.hub != nil {
		sessions.GET("/events", s.hub.HandleSSE)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is canceled, then drains in-flight requests
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
