package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"openbet/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PredictionRepository archives team score predictions
type PredictionRepository struct {
	db *Database
}

// SaveGamePredictions inserts a batch of predictions in one transaction
func (r *PredictionRepository) SaveGamePredictions(ctx context.Context, preds []models.GamePrediction) error {
	if len(preds) == 0 {
		return nil
	}
	for i := range preds {
		if err := validatePrediction(&preds[i]); err != nil {
			return fmt.Errorf("prediction validation failed: %w", err)
		}
	}

	start := time.Now()
	query := `
		INSERT INTO predictions (
			event_id, model_name, model_version,
			home_team, away_team, commence_time,
			predicted_home_score, predicted_away_score, predicted_margin, predicted_winner,
			predicted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	batch := &pgx.Batch{}
	for i := range preds {
		p := &preds[i]
		var commence *time.Time
		if !p.CommenceTime.IsZero() {
			commence = &p.CommenceTime
		}
		batch.Queue(query,
			p.EventID, p.ModelName, p.ModelVersion,
			p.HomeTeam, p.AwayTeam, commence,
			p.PredictedHomeScore, p.PredictedAwayScore, p.PredictedMargin, p.PredictedWinner,
			p.PredictedAt,
		)
	}

	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	observe("insert", "predictions", start, err)
	if err != nil {
		return fmt.Errorf("failed to save predictions: %w", err)
	}

	log.Info().Int("count", len(preds)).Msg("Game predictions archived")
	return nil
}

// LatestForEvent retrieves the most recent prediction for an odds event
func (r *PredictionRepository) LatestForEvent(ctx context.Context, eventID string) (*models.GamePrediction, error) {
	start := time.Now()
	query := `
		SELECT id, event_id, model_name, model_version,
			   home_team, away_team, COALESCE(commence_time, 'epoch'::timestamptz),
			   predicted_home_score, predicted_away_score, predicted_margin, predicted_winner,
			   predicted_at, created_at
		FROM predictions
		WHERE event_id = $1
		ORDER BY predicted_at DESC
		LIMIT 1
	`

	var p models.GamePrediction
	err := r.db.Pool.QueryRow(ctx, query, eventID).Scan(
		&p.ID, &p.EventID, &p.ModelName, &p.ModelVersion,
		&p.HomeTeam, &p.AwayTeam, &p.CommenceTime,
		&p.PredictedHomeScore, &p.PredictedAwayScore, &p.PredictedMargin, &p.PredictedWinner,
		&p.PredictedAt, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		observe("select", "predictions", start, nil)
		return nil, nil
	}
	observe("select", "predictions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return &p, nil
}

// validatePrediction ensures a row is complete before insertion
func validatePrediction(p *models.GamePrediction) error {
	if p.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if p.ModelName == "" {
		return fmt.Errorf("model_name is required")
	}
	if p.PredictedHomeScore < 0 || p.PredictedAwayScore < 0 {
		return fmt.Errorf("predicted scores must be non-negative")
	}
	if p.PredictedWinner == "" {
		return fmt.Errorf("predicted_winner is required")
	}
	if p.PredictedAt.IsZero() {
		return fmt.Errorf("predicted_at is required")
	}
	return nil
}
