package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/genegpt-qa-server/internal/api"
	"github.com/genegpt-qa-server/internal/app"
	"github.com/genegpt-qa-server/internal/config"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := app.NewLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := app.Build(ctx, configManager, logger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer components.Close()

	server := api.NewServer(*cfg, components.Pipeline, components.Sessions, components.History, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.WithField("addr", cfg.Server.Host).WithField("port", cfg.Server.Port).Info("starting gene QA server")
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	logger.Info("server stopped")
}
