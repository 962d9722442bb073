// Package server serves rendered models over HTTP for preview.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/core/model"
	"github.com/example/modelgen/internal/logging"
	"github.com/example/modelgen/internal/ports/primary"
	"github.com/example/modelgen/internal/ports/secondary"
)

// Server renders models on request and caches them by table name.
type Server struct {
	service primary.GenerateService
	cfg     config.ServerConfig
	cache   *ristretto.Cache[string, *primary.ModelPreview]
	logger  logrus.FieldLogger
	router  *gin.Engine
}

// New builds the router. The cache holds up to cfg.CacheEntries previews.
func New(service primary.GenerateService, cfg config.ServerConfig, logger logrus.FieldLogger) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	entries := cfg.CacheEntries
	if entries <= 0 {
		entries = 1000
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *primary.ModelPreview]{
		NumCounters:        entries * 10,
		MaxCost:            entries,
		BufferItems:        64,
		IgnoreInternalCost: true, // cost counts entries, not bytes
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model cache: %w", err)
	}

	s := &Server{
		service: service,
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 0 || slices.Contains(s.cfg.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", s.health)

	api := router.Group("/api/v1")
	{
		api.GET("/tables", s.listTables)
		api.GET("/models/:table", s.showModel)
	}
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.Addr until ctx is done, then shuts down within
// cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close releases the cache.
func (s *Server) Close() {
	s.cache.Close()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) health(c *gin.Context) {
	success(c, http.StatusOK, gin.H{"status": "ok"}, "")
}

func (s *Server) listTables(c *gin.Context) {
	tables, err := s.service.ListTables(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "Failed to list tables")
		return
	}
	if tables == nil {
		tables = []string{}
	}
	success(c, http.StatusOK, gin.H{"tables": tables, "count": len(tables)}, "")
}

func (s *Server) showModel(c *gin.Context) {
	table := c.Param("table")
	preview, err := s.preview(c.Request.Context(), table)
	if err != nil {
		status := statusFor(err)
		if c.Query("format") == "json" {
			fail(c, status, err, fmt.Sprintf("Failed to render model for %s", table))
		} else {
			c.String(status, "%s\n", err.Error())
		}
		return
	}

	if c.Query("format") == "json" {
		success(c, http.StatusOK, preview, "Model rendered successfully")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", preview.FileName))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(preview.Content))
}

func (s *Server) preview(ctx context.Context, table string) (*primary.ModelPreview, error) {
	if p, ok := s.cache.Get(table); ok {
		return p, nil
	}
	p, err := s.service.RenderModel(ctx, table)
	if err != nil {
		return nil, err
	}
	if s.cache.Set(table, p, 1) {
		s.cache.Wait()
	}
	return p, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, secondary.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNoColumns), errors.Is(err, model.ErrNoTableName):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
