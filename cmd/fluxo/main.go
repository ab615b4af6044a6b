package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fluxo/internal/amqp"
	"fluxo/internal/auth"
	"fluxo/internal/backend"
	"fluxo/internal/cache"
	"fluxo/internal/cli"
	"fluxo/internal/config"
	"fluxo/internal/core"
	apphttp "fluxo/internal/http"
	"fluxo/internal/log"
	"fluxo/internal/profile"
	"fluxo/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.Open(backendCfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", backendCfg.Type.String())
		os.Exit(1)
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	txCache := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.Logger)
	cacheManager.Register(txCache)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	// AMQP is optional: without it mutations are not mirrored.
	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publisher enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	deps := apphttp.Deps{
		Transactions:       services.NewTransactionService(store.Store, txCache, publisher),
		Profiles:           profile.NewService(store.Store, profile.NewBroker()),
		Verifier:           auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTAudience),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	if store.Ready != nil {
		deps.Ready = store.Ready
	}
	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.MaxHeaderBytes = 1 << 16

	done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})

	logger.Info("Starting fluxo server", "port", cfg.Port, "backend", backendCfg.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
