// Package api exposes the assessment pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/health"
	"github.com/preeclampsia-risk-mcp/internal/history"
	"github.com/preeclampsia-risk-mcp/internal/middleware"
	"github.com/preeclampsia-risk-mcp/internal/service"
)

// Server represents the HTTP server
type Server struct {
	config      domain.ServerConfig
	logger      *logrus.Logger
	assessments *service.AssessmentService
	history     history.Store
	checker     *health.Checker
	router      *gin.Engine
	server      *http.Server
}

// NewServer creates a new HTTP server instance. A nil store serves an empty
// history.
func NewServer(
	cfg domain.ServerConfig,
	logger *logrus.Logger,
	assessments *service.AssessmentService,
	store history.Store,
	checker *health.Checker,
) *Server {
	if logger.GetLevel() >= logrus.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if store == nil {
		store = history.NoopStore{}
	}
	if checker == nil {
		checker = health.NewChecker("", 0, logger)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	if cfg.RateLimit > 0 {
		router.Use(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst).Middleware())
	}
	router.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	s := &Server{
		config:      cfg,
		logger:      logger,
		assessments: assessments,
		history:     store,
		checker:     checker,
		router:      router,
	}
	s.setupRoutes()

	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{"addr": addr, "tls": s.config.TLSEnabled}).Info("HTTP server listening")

		var err error
		if s.config.TLSEnabled {
			err = s.server.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/model", s.handleModelInfo)
		v1.GET("/observations/defaults", s.handleDefaults)

		v1.POST("/assessments", s.handleAssess)
		v1.GET("/assessments", s.handleListAssessments)
		v1.GET("/assessments/stats", s.handleStats)
		v1.GET("/assessments/export", s.handleExport)
		v1.GET("/assessments/:id", s.handleGetAssessment)

		v1.GET("/recommendations/:category", s.handleRecommendation)
	}
}
