// Package trainer fits the team score model and the player stat models from the
// box-score CSVs and persists them as artifacts.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/dataset"
	"openbet/backend/internal/features"
	"openbet/backend/internal/forest"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrNoRows is returned when cleaning leaves nothing to train on.
var ErrNoRows = errors.New("no training rows after cleaning")

const holdoutFraction = 0.2

// Config locates inputs and outputs and tunes the estimators.
type Config struct {
	DataDir  string // box-score CSV directory
	ModelDir string

	// Player rows before PlayerHistoryStart are ignored; rows before
	// PlayerTrainStart feed rolling features but are not trained on.
	PlayerHistoryStart time.Time
	PlayerTrainStart   time.Time

	TeamParams   forest.Params
	PlayerParams forest.Params
}

// DefaultTeamParams is 100 trees with seed 42.
func DefaultTeamParams() forest.Params {
	return forest.DefaultParams()
}

// DefaultPlayerParams is 50 trees, min samples split 10, seed 42.
func DefaultPlayerParams() forest.Params {
	p := forest.DefaultParams()
	p.NTrees = 50
	p.MinSamplesSplit = 10
	return p
}

// Trainer runs the training stages.
type Trainer struct {
	cfg   Config
	now   func() time.Time
	paths dataset.Paths
}

// New creates a trainer. Zero-valued params fall back to the defaults.
func New(cfg Config) *Trainer {
	if cfg.TeamParams.NTrees == 0 {
		cfg.TeamParams = DefaultTeamParams()
	}
	if cfg.PlayerParams.NTrees == 0 {
		cfg.PlayerParams = DefaultPlayerParams()
	}
	return &Trainer{cfg: cfg, now: time.Now, paths: dataset.Paths{Dir: cfg.DataDir}}
}

// LoadTeamFeatureTable loads Games.csv and TeamStatistics.csv from dir and
// returns the cleaned, opponent-joined team feature rows.
func LoadTeamFeatureTable(dir string) ([]features.Row, []models.Game, error) {
	paths := dataset.Paths{Dir: dir}

	games, err := dataset.LoadGames(paths.Games())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load games: %w", err)
	}
	stats, err := dataset.LoadTeamStats(paths.TeamStats())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load team statistics: %w", err)
	}

	prepared := dataset.PrepareTeamStats(stats, games)
	rows, dropped := features.JoinOpponents(features.BuildTeamFeatures(prepared))
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("Team rows without an opponent row dropped")
	}

	log.Info().
		Int("raw_rows", len(stats)).
		Int("clean_rows", len(prepared)).
		Int("feature_rows", len(rows)).
		Msg("Team feature table built")
	return rows, games, nil
}

// FitTeamModel trains the team score regressor on joined feature rows.
func FitTeamModel(rows []features.Row, params forest.Params) (*artifact.TeamModel, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	model, mae, err := fitTarget(rows, features.TeamFeatureColumns, features.TeamTarget, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fit team model: %w", err)
	}

	return &artifact.TeamModel{
		Model:          model,
		FeatureColumns: append([]string(nil), features.TeamFeatureColumns...),
		Target:         features.TeamTarget,
		Latest:         features.Latest(rows),
		HoldoutMAE:     mae,
		TrainingRows:   len(rows),
	}, nil
}

// FitPlayerModels trains one regressor per player target. Snapshots come from
// every row in table; only rows dated on or after trainStart are fitted.
func FitPlayerModels(table features.PlayerTable, trainStart time.Time, params forest.Params) (*artifact.PlayerModels, error) {
	train := make([]features.Row, 0, len(table.Rows))
	for _, r := range table.Rows {
		if trainStart.IsZero() || !r.Date.Before(trainStart) {
			train = append(train, r)
		}
	}
	if len(train) == 0 {
		return nil, ErrNoRows
	}

	out := &artifact.PlayerModels{
		Models:         make(map[string]*forest.Forest, len(features.PlayerTargets)),
		FeatureColumns: append([]string(nil), features.PlayerFeatureColumns...),
		Latest:         features.Latest(table.Rows),
		Defense:        table.Defense,
		HoldoutMAE:     make(map[string]float64, len(features.PlayerTargets)),
		TrainingRows:   len(train),
	}
	for _, target := range features.PlayerTargets {
		model, mae, err := fitTarget(train, features.PlayerFeatureColumns, target, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fit %s model: %w", target, err)
		}
		out.Models[target] = model
		out.HoldoutMAE[target] = mae
	}
	return out, nil
}

// fitTarget fits on a shuffled 80% split, scores the 20% holdout, and returns the
// model fitted on the training split.
func fitTarget(rows []features.Row, cols []string, target string, params forest.Params) (*forest.Forest, float64, error) {
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		X[i] = r.Vector(cols)
		y[i] = r.Get(target)
	}

	trainIdx, testIdx := forest.TrainTestSplit(len(rows), holdoutFraction, params.Seed)
	if len(trainIdx) == 0 {
		trainIdx = testIdx
	}
	Xtr, ytr := forest.Select(X, y, trainIdx)
	Xte, yte := forest.Select(X, y, testIdx)

	model, err := forest.Fit(Xtr, ytr, params)
	if err != nil {
		return nil, 0, err
	}
	return model, forest.MeanAbsoluteError(yte, model.PredictAll(Xte)), nil
}

// TrainTeamModel builds the team table, fits, and saves team_model.json.
func (t *Trainer) TrainTeamModel(ctx context.Context) (*artifact.TeamModel, error) {
	start := time.Now()

	rows, _, err := LoadTeamFeatureTable(t.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := FitTeamModel(rows, t.cfg.TeamParams)
	if err != nil {
		return nil, err
	}
	m.TrainedAt = t.now().UTC()

	if err := artifact.SaveTeamModel(t.cfg.ModelDir, m); err != nil {
		return nil, err
	}
	metrics.RecordModel("team", m.Target, m.HoldoutMAE, m.TrainingRows)

	log.Info().
		Int("rows", m.TrainingRows).
		Int("teams", len(m.Latest)).
		Float64("holdout_mae", m.HoldoutMAE).
		Dur("duration", time.Since(start)).
		Msg("Team model trained")
	return m, nil
}

// TrainPlayerModels builds the player table, fits every target, and saves
// player_models.json.
func (t *Trainer) TrainPlayerModels(ctx context.Context) (*artifact.PlayerModels, error) {
	start := time.Now()

	games, err := dataset.LoadGames(t.paths.Games())
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	stats, err := dataset.LoadPlayerStats(t.paths.PlayerStats())
	if err != nil {
		return nil, fmt.Errorf("failed to load player statistics: %w", err)
	}

	stats = dataset.PreparePlayerStats(stats, games)
	if floor := t.cfg.PlayerHistoryStart; !floor.IsZero() {
		kept := stats[:0]
		for _, s := range stats {
			if !s.GameTime.Before(floor) {
				kept = append(kept, s)
			}
		}
		stats = kept
	}
	if len(stats) == 0 {
		return nil, ErrNoRows
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := features.BuildPlayerFeatures(stats)
	m, err := FitPlayerModels(table, t.cfg.PlayerTrainStart, t.cfg.PlayerParams)
	if err != nil {
		return nil, err
	}
	m.TrainedAt = t.now().UTC()

	if err := artifact.SavePlayerModels(t.cfg.ModelDir, m); err != nil {
		return nil, err
	}
	for target, mae := range m.HoldoutMAE {
		metrics.RecordModel("player", target, mae, m.TrainingRows)
		log.Info().Str("target", target).Float64("holdout_mae", mae).Msg("Player model trained")
	}

	log.Info().
		Int("rows", m.TrainingRows).
		Int("players", len(m.Latest)).
		Dur("duration", time.Since(start)).
		Msg("Player models trained")
	return m, nil
}
