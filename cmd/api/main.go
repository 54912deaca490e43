package main

import (
	"context"
	"flag"
	"log"

	"github.com/voicegate/fraud-manager-backend/internal/api/rest"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/config"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/telemetry"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)
	logger.Info("starting fraud manager backend",
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	server, err := rest.NewServer(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
