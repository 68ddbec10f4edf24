package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"appforge/internal/config"
	"appforge/internal/daemon"
	"appforge/internal/logging"
	"appforge/internal/queue"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	flag.Parse()

	// Optional .env next to the binary for platform-style env configuration
	// (PORT and APPFORGE_* overrides). Absence is not an error.
	_ = godotenv.Load()

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("APPFORGE_CONFIG")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open registry store", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	d.Stop()
	logger.Info("appforged shutting down")
}
