package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"openbet/backend/internal/api"
	"openbet/backend/internal/artifact"
	"openbet/backend/internal/auth"
	"openbet/backend/internal/cache"
	"openbet/backend/internal/client"
	"openbet/backend/internal/config"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/repository"
	"openbet/backend/internal/snapshot"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting OpenBet API server")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Int("port", cfg.ServerPort).
		Msg("Configuration loaded")

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{
		BoxScoreDir: cfg.BoxScoreDir(),
		Snapshots:   snapshot.Dir{Root: cfg.DataDir},
		Models:      artifact.NewStore(cfg.ModelDir),
		Bankroll:    cfg.ArbitrageBankroll,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.GoogleClientID != "" {
		deps.Verifier = auth.NewGoogleVerifier(
			cfg.GoogleClientID,
			auth.NewJWKSKeySource(cfg.GoogleCertsURL, 10*time.Second),
		)
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set - sign-in disabled")
	}
	if _, err := deps.Models.ReloadIfChanged(); err != nil {
		log.Warn().Err(err).Msg("Model artifacts not loaded")
	}

	// Database backs sign-in and discussions; without it those endpoints answer 503
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to database - user endpoints disabled")
	} else {
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database schema")
		}
		deps.Users = db.Users
		deps.Discussions = db.Discussions
		deps.Database = db
	}

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
		}
	}
	deps.Odds = client.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, oddsOpts)

	router, err := api.NewServer(deps).Router()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				if deps.Database != nil {
					db.PoolStats()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Pick up artifacts the worker retrains overnight
	go func() {
		ticker := time.NewTicker(cfg.ModelReloadInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reloaded, err := deps.Models.ReloadIfChanged()
				if reloaded {
					log.Info().Err(err).Msg("Model artifacts changed on disk, reloaded")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}
