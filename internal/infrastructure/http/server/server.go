// Package server provides the HTTP server for the widget delivery API
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/embedora/embedora/internal/infrastructure/cdn"
	"github.com/embedora/embedora/internal/infrastructure/config"
	"github.com/embedora/embedora/internal/infrastructure/http/handlers"
	"github.com/embedora/embedora/internal/infrastructure/http/middleware"
	"github.com/embedora/embedora/internal/infrastructure/monitoring"
	"github.com/embedora/embedora/pkg/healthcheck"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the delivery API HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates the HTTP server with all routes wired
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	widgetHandlers *handlers.WidgetHandlers,
	monitorHandlers *handlers.MonitorHandlers,
	policy *cdn.Policy,
	collector *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
) *Server {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger.Named("http")),
		middleware.Recovery(logger),
		collector.HTTPMiddleware(),
		middleware.EmbedHeaders(policy.SecurityHeaders()),
	)

	router.GET(cfg.Monitoring.HealthCheckPath, health.Handler())
	router.GET("/health/live", health.LivenessHandler())
	if cfg.Monitoring.EnableMetrics {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(collector.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/widgets/:id/render", widgetHandlers.Render)
		v1.POST("/widgets/:id/invalidate", widgetHandlers.InvalidateWidget)
		v1.POST("/sites/:id/invalidate-brand", widgetHandlers.InvalidateBrand)

		v1.POST("/metrics", monitorHandlers.IngestMetric)
		v1.GET("/widgets/:id/realtime", monitorHandlers.RealTime)
		v1.GET("/widgets/:id/analytics", monitorHandlers.Analytics)
		v1.GET("/system/performance", monitorHandlers.SystemOverview)
		v1.PUT("/widgets/:id/alerts", monitorHandlers.SetupAlerts)
	}

	return &Server{
		config: cfg,
		logger: logger,
		server: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxHeaderBytes: 1 << 20,
		},
	}
}

// Start begins serving; it blocks until the listener closes
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
