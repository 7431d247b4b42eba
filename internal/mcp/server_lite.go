// Package mcp exposes the assessment pipeline as Model Context Protocol tools.
// The lite server needs no external services: it loads the model artifact from
// disk, memoises predictions in memory and records history in SQLite.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	litecfg "github.com/preeclampsia-risk-mcp/internal/config"
	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/health"
	"github.com/preeclampsia-risk-mcp/internal/history"
	"github.com/preeclampsia-risk-mcp/internal/model"
	"github.com/preeclampsia-risk-mcp/internal/service"
)

// Version is reported to MCP clients and by the status tool.
const Version = "v1.0.0"

// LiteServer is a lightweight MCP server that requires no external services.
type LiteServer struct {
	config      *litecfg.LiteConfig
	mcpServer   *mcp.Server
	predictor   domain.Predictor
	history     history.Store
	assessments *service.AssessmentService
	checker     *health.Checker
	logger      *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithHistoryStore sets a custom history store.
func WithHistoryStore(store history.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.history = store
		return nil
	}
}

// WithPredictor skips loading the artifact named by the configuration.
func WithPredictor(p domain.Predictor) LiteServerOption {
	return func(s *LiteServer) error {
		if p == nil {
			return errors.New("predictor must not be nil")
		}
		s.predictor = p
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// NewLiteServer loads the model once and registers the assessment tools.
func NewLiteServer(ctx context.Context, cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{
		config: cfg,
		logger: litecfg.NewLogger(cfg.LoggingConfig()),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if server.predictor == nil {
		predictor, err := model.NewPredictor(ctx, cfg.ModelConfig(), nil, server.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		server.predictor = predictor
	}

	if server.history == nil {
		store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		server.history = store
	}

	server.assessments = service.NewAssessmentService(
		server.logger,
		server.predictor,
		service.NewRecommendationEngine(cfg.Language),
		server.history,
		nil,
	)

	server.checker = health.NewChecker(Version, 5*time.Second, server.logger)
	server.checker.Register(health.NewModelCheck(server.predictor))
	server.checker.Register(health.NewPingCheck("history", server.history.Ping))

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "preeclampsia-risk-lite",
		Version: Version,
	}, nil)
	server.registerTools()

	info := server.predictor.Info()
	server.logger.WithFields(logrus.Fields{
		"model":      info.Name,
		"version":    info.Version,
		"vocabulary": server.assessments.VocabularyVersion(),
		"data_dir":   cfg.DataDir,
	}).Info("Lite server initialized successfully")
	return server, nil
}

// Start serves MCP over the configured transport until ctx is cancelled.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.WithField("transport", s.config.Transport).Info("Starting preeclampsia risk MCP server (lite)")

	switch s.config.Transport {
	case "", "stdio":
		if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		return nil
	case "http":
		return s.serveHTTP(ctx)
	default:
		return fmt.Errorf("unsupported transport: %s", s.config.Transport)
	}
}

func (s *LiteServer) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcpServer }, nil)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("MCP HTTP server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close history store")
			return err
		}
	}
	return nil
}

// Assessments returns the pipeline behind the tools.
func (s *LiteServer) Assessments() *service.AssessmentService {
	return s.assessments
}
