// Package pipeline runs the nightly batch stages in order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/backtest"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/scorer"
	"openbet/backend/internal/trainer"

	"github.com/rs/zerolog/log"
)

// Stage names
const (
	StageTrainTeam    = "train-team"
	StageTrainPlayers = "train-players"
	StageHistory      = "history"
	StageReloadModels = "reload-models"
	StageDaily        = "daily"
	StageProps        = "props"
)

// Stage is one named step of the pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline runs stages sequentially and stops at the first failure.
type Pipeline struct {
	stages []Stage
}

// New creates a pipeline from stages in run order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage. The first error aborts the run and is returned
// wrapped with the stage name.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	log.Info().Strs("stages", p.Stages()).Msg("Pipeline starting")

	for _, s := range p.stages {
		if err := p.runStage(ctx, s); err != nil {
			log.Error().
				Err(err).
				Str("stage", s.Name).
				Dur("duration", time.Since(start)).
				Msg("Pipeline aborted")
			return err
		}
	}

	metrics.RecordPipelineSuccess()
	log.Info().Dur("duration", time.Since(start)).Msg("Pipeline complete")
	return nil
}

// RunStage executes the named stage alone.
func (p *Pipeline) RunStage(ctx context.Context, name string) error {
	for _, s := range p.stages {
		if s.Name == name {
			return p.runStage(ctx, s)
		}
	}
	return fmt.Errorf("unknown stage %q", name)
}

func (p *Pipeline) runStage(ctx context.Context, s Stage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage %s: %w", s.Name, err)
	}

	start := time.Now()
	log.Info().Str("stage", s.Name).Msg("Stage starting")

	err := s.Run(ctx)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordPipelineStage(s.Name, "error", duration.Seconds())
		metrics.RecordError("pipeline", s.Name)
		return fmt.Errorf("stage %s: %w", s.Name, err)
	}

	metrics.RecordPipelineStage(s.Name, "success", duration.Seconds())
	log.Info().Str("stage", s.Name).Dur("duration", duration).Msg("Stage complete")
	return nil
}

// Components are the batch jobs the default pipeline wires together.
type Components struct {
	Trainer    *trainer.Trainer
	Backtester *backtest.Backtester
	Scorer     *scorer.Scorer
	Store      *artifact.Store

	// PlayerModels disables the player training and projection steps when false.
	PlayerModels bool
}

// Default builds train-team, train-players, history, reload-models, daily and
// props in that order.
func Default(c Components) *Pipeline {
	stages := []Stage{
		{Name: StageTrainTeam, Run: func(ctx context.Context) error {
			m, err := c.Trainer.TrainTeamModel(ctx)
			if err != nil {
				return err
			}
			c.Store.SetTeam(m)
			return nil
		}},
	}

	if c.PlayerModels {
		stages = append(stages, Stage{Name: StageTrainPlayers, Run: func(ctx context.Context) error {
			_, err := c.Trainer.TrainPlayerModels(ctx)
			return err
		}})
	}

	stages = append(stages,
		Stage{Name: StageHistory, Run: func(ctx context.Context) error {
			_, err := c.Backtester.Run(ctx)
			return err
		}},
		Stage{Name: StageReloadModels, Run: func(ctx context.Context) error {
			// a missing artifact disables its predictions; only a total miss fails
			err := c.Store.Reload()
			if c.Store.Team() == nil && c.Store.Players() == nil {
				return err
			}
			return nil
		}},
		Stage{Name: StageDaily, Run: func(ctx context.Context) error {
			if _, err := c.Scorer.ScoreGames(ctx); err != nil {
				return err
			}
			if c.PlayerModels && c.Store.Players() != nil {
				if _, err := c.Scorer.ProjectPlayers(ctx); err != nil {
					return err
				}
			}
			return nil
		}},
		Stage{Name: StageProps, Run: func(ctx context.Context) error {
			_, err := c.Scorer.CollectProps(ctx)
			return err
		}},
	)
	return New(stages...)
}
