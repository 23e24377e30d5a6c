// Package httpapi implements spec.md §6's HTTP surface: job browsing,
// status transitions, the Telegram callback webhook, and source/weekly
// analytics. Grounded on the teacher's pkg/api/server.go — same
// middleware order, same promhttp-backed /metrics endpoint, same
// gin.New()-not-Default() + explicit Recovery() construction — with the
// job/execution/cluster routes replaced by this domain's job-browsing
// surface and the teacher's JWT/API-key auth swapped for a single
// shared-secret bearer check (see pkg/httpapi/middleware/auth.go).
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"jobradar/pkg/httpapi/middleware"
	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

// Config holds the server's collaborators.
type Config struct {
	Port      string
	AuthToken string
	Store     storage.Store
	Tracer    trace.Tracer
	Log       *zap.Logger
}

// Server is the C-external HTTP API described by spec.md §6.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	store      storage.Store
	log        *zap.Logger
}

// NewServer wires the middleware stack and route table.
func NewServer(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(requestLogger(cfg.Log))
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.BodySizeLimitMiddleware(1 << 20))
	if cfg.Tracer != nil {
		router.Use(middleware.TracingMiddleware(cfg.Tracer))
	}

	s := &Server{
		router: router,
		store:  cfg.Store,
		log:    cfg.Log,
	}

	s.registerRoutes(cfg.AuthToken)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(authToken string) {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/status", s.status)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The Telegram webhook authenticates by knowledge of the callback URL,
	// not the operator bearer token — Telegram's servers cannot carry it.
	s.router.POST("/api/telegram/callback", s.telegramCallback)

	api := s.router.Group("/api")
	api.Use(middleware.AuthMiddleware(authToken))
	{
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJob)
		api.POST("/jobs/:id/applied", s.setJobStatus(models.StatusApplied))
		api.POST("/jobs/:id/dismissed", s.setJobStatus(models.StatusDismissed))
		api.GET("/analytics/sources", s.analyticsSources)
		api.GET("/analytics/weekly", s.analyticsWeekly)
	}
}

// Router exposes the underlying gin engine for in-process testing via
// httptest, without requiring a bound listener.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.log.Info("httpapi: starting server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("httpapi: shutting down")
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs each completed request at info level via zap,
// replacing the teacher's log.Printf request logger (this domain's ambient
// logging is zap/json throughout, per pkg/logger).
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.Info("httpapi: request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
