package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/soultie/soultie-be/internal/access"
	"github.com/soultie/soultie-be/internal/config"
	"github.com/soultie/soultie-be/internal/logging"
	"github.com/soultie/soultie-be/internal/notify"
	"github.com/soultie/soultie-be/internal/payments"
	"github.com/soultie/soultie-be/internal/server"
	"github.com/soultie/soultie-be/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer store.Close()

	gateway := payments.NewStripeGateway(cfg.StripeSecret)

	var notifier access.Notifier
	if cfg.NATSURL != "" {
		publisher, err := notify.Connect(cfg.NATSURL, logger)
		if err != nil {
			log.Fatalf("connect nats: %v", err)
		}
		defer publisher.Close()
		notifier = publisher
	}

	srv := server.New(cfg, store, gateway, notifier, logger)

	go func() {
		logger.Info("soultie backend listening", "address", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown", "error", err)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
