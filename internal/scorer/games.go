package scorer

import (
	"context"
	"fmt"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/client"
	"openbet/backend/internal/dataset"
	"openbet/backend/internal/features"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/models"
	"openbet/backend/internal/roster"
	"openbet/backend/internal/snapshot"

	"github.com/rs/zerolog/log"
)

// ModelName labels archived team predictions.
const ModelName = "team_random_forest"

// PredictGame scores one event with the team model. It returns nil when either
// team cannot be resolved or has no snapshot.
func PredictGame(m *artifact.TeamModel, ev *models.Event) *models.TeamPrediction {
	if m == nil {
		return nil
	}
	homeID, ok := roster.ResolveTeamID(ev.HomeTeam)
	if !ok {
		return nil
	}
	awayID, ok := roster.ResolveTeamID(ev.AwayTeam)
	if !ok {
		return nil
	}
	home, ok := m.Snapshot(homeID)
	if !ok {
		return nil
	}
	away, ok := m.Snapshot(awayID)
	if !ok {
		return nil
	}

	tip, _ := dataset.ParseTime(ev.CommenceTime)
	homeFatigue := features.UpcomingFatigue(home, tip, true)
	awayFatigue := features.UpcomingFatigue(away, tip, false)

	homeScore := m.PredictScore(home, away, true, homeFatigue, awayFatigue)
	awayScore := m.PredictScore(away, home, false, awayFatigue, homeFatigue)
	margin := homeScore - awayScore

	winner := ev.AwayTeam
	if margin > 0 {
		winner = ev.HomeTeam
	}
	return &models.TeamPrediction{
		PredictedHomeScore: round(homeScore, 1),
		PredictedAwayScore: round(awayScore, 1),
		PredictedMargin:    round(margin, 1),
		PredictedWinner:    winner,
	}
}

// ScoreGames fetches today's moneyline and spread odds, attaches a prediction to
// every event and writes todays_data.json. Without a team model every
// prediction is null and the file is still written.
func (s *Scorer) ScoreGames(ctx context.Context) (*models.TodaysData, error) {
	events, err := s.odds.FetchOdds(ctx, []string{client.MarketH2H, client.MarketSpreads})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live odds: %w", err)
	}

	model := s.store.Team()
	if model == nil {
		log.Warn().Msg("No team model loaded, game predictions disabled")
	}

	now := s.now()
	archived := make([]models.GamePrediction, 0, len(events))
	predicted := 0
	for i := range events {
		ev := &events[i]
		ev.OpenBetPrediction = PredictGame(model, ev)
		if ev.OpenBetPrediction == nil {
			metrics.RecordPrediction("team", "skipped")
			log.Debug().
				Str("home", ev.HomeTeam).
				Str("away", ev.AwayTeam).
				Msg("No prediction for event")
			continue
		}
		predicted++
		metrics.RecordPrediction("team", "success")
		archived = append(archived, gamePrediction(ev, model, now))
	}

	data := &models.TodaysData{Games: events, LastUpdated: snapshot.Timestamp(now)}
	if err := s.out.WriteTodaysData(data); err != nil {
		return nil, err
	}

	if s.archive != nil && len(archived) > 0 {
		if err := s.archive.SaveGamePredictions(ctx, archived); err != nil {
			log.Warn().Err(err).Msg("Failed to archive game predictions")
			metrics.RecordError("scorer", "archive")
		}
	}

	log.Info().
		Int("events", len(events)).
		Int("predicted", predicted).
		Msg("Game predictions written")
	return data, nil
}

func gamePrediction(ev *models.Event, m *artifact.TeamModel, now time.Time) models.GamePrediction {
	p := ev.OpenBetPrediction
	gp := models.GamePrediction{
		EventID:            ev.ID,
		ModelName:          ModelName,
		HomeTeam:           ev.HomeTeam,
		AwayTeam:           ev.AwayTeam,
		PredictedHomeScore: p.PredictedHomeScore,
		PredictedAwayScore: p.PredictedAwayScore,
		PredictedMargin:    p.PredictedMargin,
		PredictedWinner:    p.PredictedWinner,
		PredictedAt:        now.UTC(),
	}
	gp.CommenceTime, _ = dataset.ParseTime(ev.CommenceTime)
	if !m.TrainedAt.IsZero() {
		gp.ModelVersion.String = m.TrainedAt.UTC().Format(time.RFC3339)
		gp.ModelVersion.Valid = true
	}
	return gp
}
