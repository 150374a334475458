package pipeline

import (
	"openbet/backend/internal/artifact"
	"openbet/backend/internal/backtest"
	"openbet/backend/internal/client"
	"openbet/backend/internal/config"
	"openbet/backend/internal/roster"
	"openbet/backend/internal/scorer"
	"openbet/backend/internal/snapshot"
	"openbet/backend/internal/trainer"
)

// FromConfig builds the batch components for cfg. The artifact store starts
// empty; call Store.Reload to pick up models already on disk. archive may be nil.
func FromConfig(cfg *config.Config, odds scorer.OddsSource, archive scorer.Archive) Components {
	out := snapshot.Dir{Root: cfg.DataDir}
	store := artifact.NewStore(cfg.ModelDir)

	stats := client.NewStatsClient(cfg.NBAStatsBaseURL, cfg.NBASeason, cfg.NBAStatsTimeout)
	rosters := roster.NewCache(out.Path(snapshot.PlayerTeamMapFile), cfg.RosterCacheTTL, stats)

	start := config.Date(cfg.BacktestStartDate)
	if start.IsZero() {
		start = backtest.DefaultStart
	}

	return Components{
		Trainer: trainer.New(trainer.Config{
			DataDir:            cfg.BoxScoreDir(),
			ModelDir:           cfg.ModelDir,
			PlayerHistoryStart: config.Date(cfg.PlayerHistoryStart),
			PlayerTrainStart:   config.Date(cfg.PlayerTrainStart),
		}),
		Backtester: backtest.New(cfg.BoxScoreDir(), store, out, start),
		Scorer: scorer.New(odds, store, rosters, out, scorer.Options{
			SideMode: cfg.PropsSideMode,
			Archive:  archive,
		}),
		Store:        store,
		PlayerModels: cfg.EnablePlayerModel,
	}
}
