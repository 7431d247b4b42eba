// Package main provides the lightweight MCP entry point for the preeclampsia
// risk assessment. It needs no external services: the model is read from
// disk and history is kept in SQLite under PE_DATA_DIR.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/config"
	"github.com/preeclampsia-risk-mcp/internal/mcp"
)

func main() {
	cfg := config.LoadLiteConfig()
	logger := config.NewLogger(cfg.LoggingConfig())

	logger.WithFields(logrus.Fields{
		"transport": cfg.Transport,
		"data_dir":  cfg.DataDir,
		"model":     cfg.ModelPath,
	}).Info("Starting preeclampsia risk MCP server (lite)")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := mcp.NewLiteServer(ctx, cfg, mcp.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}
	defer server.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		server.Close()
		os.Exit(1)
	}

	logger.Info("Preeclampsia risk MCP server (lite) stopped")
}
