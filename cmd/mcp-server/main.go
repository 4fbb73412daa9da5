package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/genegpt-qa-server/internal/app"
	"github.com/genegpt-qa-server/internal/config"
	"github.com/genegpt-qa-server/internal/mcp"
)

const version = "v1.0.0"

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	// stdout carries the MCP protocol, so logs must go to stderr.
	logging := cfg.Logging
	logging.Output = "stderr"
	logger := app.NewLogger(logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := app.Build(ctx, configManager, logger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer components.Close()

	server := mcp.NewServer(components.Pipeline, components.Sessions, version, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	logger.Info("mcp server stopped")
}
