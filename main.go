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

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/auth"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/backend"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/config"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/cosmetics"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/email"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/events"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/handlers"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/profile"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	profileIdle      = 30 * time.Minute
	profileRetention = 90 * 24 * time.Hour
)

func main() {
	cfg := config.Load()
	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if cfg.SecretKey == config.DefaultSecretKey {
		logger.Warn("Using the default SECRET_KEY, sealed auth state is not protected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg, auth.StorageKey)
	if err != nil {
		log.Fatal("Failed to open storage:", err)
	}
	defer store.Close()
	logger.Info("Storage ready", "driver", cfg.StorageDriver)

	registry := profile.NewRegistry(store)
	go registry.RunEviction(ctx, 5*time.Minute, profileIdle)
	if p, ok := store.(storage.Pruner); ok {
		go prune(ctx, p)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 1024)
		producer.Start(ctx)
		publisher = producer
		logger.Info("Publishing storefront events", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("Event publishing disabled - KAFKA_BROKERS not set")
	}

	emailService := email.NewService(cfg)
	if emailService.IsEnabled() {
		logger.Info("Email service enabled with Mailgun")
	} else {
		logger.Info("Email service disabled - Mailgun not configured")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	handlers.SetupRoutes(r, &handlers.Services{
		Config:   cfg,
		Backend:  backend.NewClient(cfg.BackendURL, cfg.BackendCookie, cfg.BackendTimeout),
		Catalog:  backend.NewCosmeticsCatalog(cfg.CosmeticsURL, cfg.CosmeticsTTL, cfg.BackendTimeout),
		Names:    cosmetics.Default(),
		Registry: registry,
		Email:    emailService,
		Events:   publisher,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "backend", cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	cancel()
	if producer != nil {
		producer.WaitClosed()
	}
	logger.Info("Server shutdown complete")
}

// prune removes profiles that have not been seen for profileRetention.
func prune(ctx context.Context, p storage.Pruner) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		n, err := p.Prune(ctx, profileRetention)
		if err != nil {
			logger.Warn("Failed to prune stale profiles", "error", err)
		} else if n > 0 {
			logger.Info("Pruned stale profiles", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
