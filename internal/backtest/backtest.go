// Package backtest replays scheduled games with as-of feature snapshots and logs
// the team model's predicted winner against the recorded result.
package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/dataset"
	"openbet/backend/internal/features"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/models"
	"openbet/backend/internal/snapshot"
	"openbet/backend/internal/trainer"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultStart is the first game date replayed when none is configured.
var DefaultStart = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

// Backtester regenerates prediction_history.json.
type Backtester struct {
	dataDir string
	store   *artifact.Store
	out     snapshot.Dir
	start   time.Time
	now     func() time.Time
}

// New creates a backtester reading CSVs from dataDir. A zero start means DefaultStart.
func New(dataDir string, store *artifact.Store, out snapshot.Dir, start time.Time) *Backtester {
	if start.IsZero() {
		start = DefaultStart
	}
	return &Backtester{dataDir: dataDir, store: store, out: out, start: start, now: time.Now}
}

// Replay predicts every schedule game in [start, now] in date order. Games
// where either team has no earlier feature row are skipped.
func Replay(m *artifact.TeamModel, history features.History, schedule []models.ScheduledGame, games []models.Game, start, end time.Time) []models.HistoryEntry {
	results := make(map[string]*models.Game, len(games))
	for i := range games {
		if _, dup := results[games[i].GameID]; !dup {
			results[games[i].GameID] = &games[i]
		}
	}

	replay := make([]models.ScheduledGame, 0, len(schedule))
	for _, g := range schedule {
		if g.GameTime.Before(start) || g.GameTime.After(end) {
			continue
		}
		replay = append(replay, g)
	}
	sort.SliceStable(replay, func(i, j int) bool { return replay[i].GameTime.Before(replay[j].GameTime) })

	entries := make([]models.HistoryEntry, 0, len(replay))
	for _, g := range replay {
		home, ok := history.AsOf(g.HomeTeamID, g.GameTime)
		if !ok {
			continue
		}
		away, ok := history.AsOf(g.AwayTeamID, g.GameTime)
		if !ok {
			continue
		}

		homeFatigue := features.UpcomingFatigue(home, g.GameTime, true)
		awayFatigue := features.UpcomingFatigue(away, g.GameTime, false)
		predHome := m.PredictScore(home, away, true, homeFatigue, awayFatigue)
		predAway := m.PredictScore(away, home, false, awayFatigue, homeFatigue)

		predicted := g.AwayTeamName
		if predHome-predAway > 0 {
			predicted = g.HomeTeamName
		}

		actual := models.WinnerUnknown
		if res, ok := results[g.GameID]; ok {
			if homeWon, scored := res.HomeWon(); scored {
				actual = g.AwayTeamName
				if homeWon {
					actual = g.HomeTeamName
				}
			}
		}

		entries = append(entries, models.HistoryEntry{
			GameID:             g.GameID,
			Date:               g.GameTime.Format("2006-01-02"),
			HomeTeam:           g.HomeTeamName,
			AwayTeam:           g.AwayTeamName,
			PredictedWinner:    predicted,
			ActualWinner:       actual,
			IsCorrect:          actual != models.WinnerUnknown && actual == predicted,
			PredictedHomeScore: round1(predHome),
			PredictedAwayScore: round1(predAway),
		})
	}
	return entries
}

func round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// Run rebuilds the history file from the CSVs and the loaded team model.
func (b *Backtester) Run(ctx context.Context) (*models.PredictionHistory, error) {
	start := time.Now()

	m := b.store.Team()
	if m == nil {
		return nil, fmt.Errorf("team model not loaded")
	}

	rows, games, err := trainer.LoadTeamFeatureTable(b.dataDir)
	if err != nil {
		return nil, err
	}
	schedule, err := dataset.LoadSchedule(dataset.Paths{Dir: b.dataDir}.Schedule())
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := b.now()
	entries := Replay(m, features.NewHistory(rows), schedule, games, b.start, now)

	correct, decided := 0, 0
	for _, e := range entries {
		if e.ActualWinner == models.WinnerUnknown {
			continue
		}
		decided++
		if e.IsCorrect {
			correct++
		}
		metrics.RecordPrediction("backtest", fmt.Sprintf("%t", e.IsCorrect))
	}

	out := &models.PredictionHistory{Games: entries, LastUpdated: snapshot.Timestamp(now)}
	if err := b.out.WritePredictionHistory(out); err != nil {
		return nil, err
	}

	ev := log.Info().
		Int("replayed", len(entries)).
		Int("decided", decided).
		Int("correct", correct).
		Dur("duration", time.Since(start))
	if decided > 0 {
		ev = ev.Float64("accuracy", float64(correct)/float64(decided))
	}
	ev.Msg("Prediction history written")
	return out, nil
}
