package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"walletscore/internal/analyzer"
	"walletscore/internal/assistant"
	"walletscore/internal/cache"
	"walletscore/internal/config"
	"walletscore/internal/ml"
	"walletscore/internal/providers/explorer"
	"walletscore/internal/providers/rpc"
	"walletscore/internal/providers/subgraph"
	"walletscore/internal/providers/transferindex"
	"walletscore/internal/ratelimit"
	"walletscore/internal/server"
	"walletscore/internal/storage"
)

func main() {
	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting walletscore service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.WithFields(logrus.Fields{
		"environment":      cfg.Environment,
		"port":             cfg.ServerPort,
		"rate_per_minute":  cfg.RateLimitPerMinute,
		"rate_per_hour":    cfg.RateLimitPerHour,
		"request_deadline": cfg.RequestDeadline.String(),
	}).Info("Configuration loaded")

	// Select the backing store: shared MySQL when configured, otherwise
	// an in-process store that does not survive restarts.
	var store cache.Store
	var prober server.HealthProber
	if cfg.DatabaseDSN != "" {
		db, err := storage.New(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.AutoMigrate(); err != nil {
			log.WithError(err).Fatal("Failed to run database migrations")
		}
		store = db
		prober = db
		log.Info("Database store initialized")
	} else {
		store = cache.NewMemoryStore()
		log.Warn("No DATABASE_DSN set, using in-memory store; cached analyses and rate limits reset on restart")
	}

	// Initialize provider clients
	explorerClient := explorer.NewClient(cfg)
	transferClient := transferindex.NewClient(cfg)
	subgraphClient := subgraph.NewClient(cfg)
	balanceClient := rpc.NewClient(cfg)

	log.Info("Provider clients initialized")

	// Load the ML scoring model when configured. Absence of a configured
	// model file is fatal; the rules engine still produces served scores.
	if cfg.ModelPath != "" {
		model, err := ml.Load(cfg.ModelPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to load scoring model")
		}
		log.WithField("model_version", model.Version).Info("Scoring model loaded")
	}

	// Assemble the pipeline
	cacheLayer := cache.New(store, log)
	svc := analyzer.NewService(explorerClient, transferClient, subgraphClient, balanceClient, cacheLayer, cfg, log)
	agent := assistant.New(cfg)
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitPerMinute, cfg.RateLimitPerHour, log)

	handlers := server.NewHandlers(svc, agent, prober, cfg, log)
	router := server.NewRouter(handlers, limiter, cfg, log)
	srv := server.New(cfg, router, log)

	// Setup graceful shutdown
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	log.Info("Service stopped")
}
