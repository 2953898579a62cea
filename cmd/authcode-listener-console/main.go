package main

import (
	"context"
	"flag"
	"fmt"
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

	cfg, err := flags.LoadConfig()
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	logger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build listener", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A detached stdin would end the session immediately, so only an
	// interactive operator can stop us with Enter.
	if app.StdinIsTerminal() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		fmt.Println("Press Enter to exit.")
		go func() {
			select {
			case <-app.LineEntered(os.Stdin):
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal("listener failed", "error", err)
	}
}
