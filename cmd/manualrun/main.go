// Command manualrun runs the batch pipeline, or a single stage of it, once and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"openbet/backend/internal/client"
	"openbet/backend/internal/config"
	"openbet/backend/internal/pipeline"
	"openbet/backend/internal/repository"
	"openbet/backend/internal/scorer"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	stage := flag.String("stage", "all", "pipeline stage to run, or \"all\"")
	archive := flag.Bool("archive", false, "archive game predictions to the database")
	list := flag.Bool("list", false, "list stage names and exit")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.MustLoad()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var predArchive scorer.Archive
	if *archive {
		db, err := repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     strconv.Itoa(cfg.DatabasePort),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		// 1. Validate database connectivity
		log.Info().Msg("Validating service health...")
		if err := db.Health(ctx); err != nil {
			log.Fatal().Err(err).Msg("Database health check failed")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database schema")
		}
		predArchive = db.Predictions
	}

	oddsClient := client.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, client.Options{
		Sport:        cfg.OddsAPISport,
		Timeout:      cfg.OddsAPITimeout,
		EventTimeout: cfg.OddsAPIEventTimeout,
		RateLimit:    cfg.OddsAPIRateLimit,
		Burst:        cfg.OddsAPIBurst,
	})

	components := pipeline.FromConfig(cfg, oddsClient, predArchive)
	if err := components.Store.Reload(); err != nil {
		log.Warn().Err(err).Msg("No trained models on disk yet")
	}
	p := pipeline.Default(components)

	if *list {
		for _, name := range p.Stages() {
			fmt.Println(name)
		}
		return
	}

	start := time.Now()
	var err error
	if *stage == "all" {
		err = p.Run(ctx)
	} else {
		err = p.RunStage(ctx, *stage)
	}
	if err != nil {
		log.Error().Err(err).Str("stage", *stage).Msg("Manual run failed")
		os.Exit(1)
	}

	log.Info().
		Str("stage", *stage).
		Dur("duration", time.Since(start)).
		Msg("Manual run complete")
}
