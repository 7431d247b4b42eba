// Package main runs the full preeclampsia risk HTTP server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/api"
	"github.com/preeclampsia-risk-mcp/internal/cache"
	"github.com/preeclampsia-risk-mcp/internal/config"
	"github.com/preeclampsia-risk-mcp/internal/database"
	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/events"
	"github.com/preeclampsia-risk-mcp/internal/health"
	"github.com/preeclampsia-risk-mcp/internal/history"
	"github.com/preeclampsia-risk-mcp/internal/model"
	"github.com/preeclampsia-risk-mcp/internal/service"
)

const version = "1.0.0"

func main() {
	configFile := flag.String("config", "", "path to a config file (default: search ., ./config, /etc/preeclampsia-risk)")
	flag.Parse()

	configManager, err := config.NewManagerFromFile(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"config_file": configManager.ConfigFileUsed(),
	}).Info("Starting preeclampsia risk server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := health.NewChecker(version, 5*time.Second, logger)

	var shared cache.Cache
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, predictions cached in memory only")
		} else {
			defer redisCache.Close()
			shared = redisCache
			checker.Register(health.NewPingCheck("redis", redisCache.Ping))
		}
	}

	predictor, err := model.NewPredictor(ctx, cfg.Model, shared, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load model")
	}
	checker.Register(health.NewModelCheck(predictor))

	store, closeStore := openHistory(ctx, configManager, logger)
	defer closeStore()
	checker.Register(health.NewPingCheck("history", store.Ping))

	publisher, err := events.New(cfg.Events, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create event publisher")
	}
	defer publisher.Close()

	engine := service.NewRecommendationEngine(domain.ParseLanguage(cfg.Recommendation.Language))
	assessments := service.NewAssessmentService(logger, predictor, engine, store, publisher)

	server := api.NewServer(cfg.Server, logger, assessments, store, checker)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// openHistory selects the history driver. Postgres schemas are migrated on
// startup.
func openHistory(ctx context.Context, cm *config.Manager, logger *logrus.Logger) (history.Store, func()) {
	cfg := cm.GetConfig()

	switch strings.ToLower(cfg.History.Driver) {
	case "none":
		logger.Info("Assessment history disabled")
		return history.NoopStore{}, func() {}

	case "postgres":
		dbConfig := database.ConfigFrom(cfg.Database)
		if err := database.Migrate(ctx, dbConfig, cfg.Database.MigrationsPath, logger); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
		db, err := database.NewConnection(ctx, dbConfig, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		store, err := history.NewPostgresStore(db, logger)
		if err != nil {
			db.Close()
			logger.WithError(err).Fatal("Failed to create history store")
		}
		return store, db.Close

	default:
		store, err := history.NewSQLiteStore(cfg.History.SQLitePath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open history database")
		}
		logger.WithField("path", store.Path()).Info("Recording assessments in SQLite")
		return store, func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close history database")
			}
		}
	}
}
