package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"authcode-listener/internal/app"
	"authcode-listener/internal/logger"
)

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	flag.Parse()

	// Load configuration
	cfg, err := flags.LoadConfig()
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build listener", "error", err)
	}

	// Stop on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Fatal("listener failed", "error", err)
	}
}
