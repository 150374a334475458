package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"openbet/backend/internal/cache"
	"openbet/backend/internal/client"
	"openbet/backend/internal/config"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/pipeline"
	"openbet/backend/internal/repository"
	"openbet/backend/internal/scheduler"
	"openbet/backend/internal/scorer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting OpenBet pipeline worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("cron", cfg.NightlyPipelineCron).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize database connection; predictions are archived when it is up
	var archive scorer.Archive
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to database - continuing without prediction archive")
	} else {
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database schema")
		}
		archive = db.Predictions
		log.Info().Msg("Database connection established")
	}

	// Initialize odds client, with a Redis response cache when available
	oddsOpts := client.Options{
		Sport:        cfg.OddsAPISport,
		Timeout:      cfg.OddsAPITimeout,
		EventTimeout: cfg.OddsAPIEventTimeout,
		RateLimit:    cfg.OddsAPIRateLimit,
		Burst:        cfg.OddsAPIBurst,
		CacheTTL:     cfg.OddsCacheTTL(),
	}
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisCache.Close()
			oddsOpts.Cache = redisCache
			log.Info().Msg("Redis cache connected")
		}
	}
	oddsClient := client.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, oddsOpts)
	log.Info().Str("sport", cfg.OddsAPISport).Msg("Odds API client initialized")

	components := pipeline.FromConfig(cfg, oddsClient, archive)
	if err := components.Store.Reload(); err != nil {
		log.Warn().Err(err).Msg("No trained models on disk yet")
	}
	nightly := pipeline.Default(components)

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				if db != nil {
					db.PoolStats()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create and start scheduler
	sched := scheduler.NewScheduler(cfg.NightlyPipelineCron, nightly)

	log.Info().Strs("stages", nightly.Stages()).Msg("Starting scheduler...")
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Run the pipeline once at startup if enabled
	if cfg.RunPipelineOnStart {
		log.Info().Msg("Running initial pipeline...")
		if err := sched.RunNow(ctx); err != nil {
			log.Error().Err(err).Msg("Initial pipeline failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial pipeline completed successfully")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
