package backtest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/dataset"
	"openbet/backend/internal/features"
	"openbet/backend/internal/forest"
	"openbet/backend/internal/models"
	"openbet/backend/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 11, d, 19, 0, 0, 0, time.UTC)
}

// model predicts 120 for a side averaging over 105 and 100 otherwise.
func model() *artifact.TeamModel {
	return &artifact.TeamModel{
		Model: &forest.Forest{Trees: []forest.Tree{{Nodes: []forest.Node{
			{Feature: 0, Threshold: 105, Left: 1, Right: 2},
			{Feature: -1, Value: 100},
			{Feature: -1, Value: 120},
		}}}},
		FeatureColumns: []string{features.Rolling(features.ColTeamScore)},
	}
}

func row(team string, d int, rolling float64) features.Row {
	return features.Row{
		EntityID: team,
		Date:     day(d),
		Values:   map[string]float64{features.Rolling(features.ColTeamScore): rolling},
	}
}

func scored(id string, home, away float64) models.Game {
	return models.Game{
		GameID:    id,
		HomeScore: sql.NullFloat64{Float64: home, Valid: true},
		AwayScore: sql.NullFloat64{Float64: away, Valid: true},
	}
}

func TestReplay(t *testing.T) {
	history := features.NewHistory([]features.Row{
		row("A", 1, 110), row("A", 5, 90),
		row("B", 1, 100), row("B", 5, 115),
	})
	schedule := []models.ScheduledGame{
		{GameID: "g3", GameTime: day(5), HomeTeamID: "A", AwayTeamID: "B", HomeTeamName: "Alphas", AwayTeamName: "Betas"},
		{GameID: "g1", GameTime: day(1), HomeTeamID: "A", AwayTeamID: "B", HomeTeamName: "Alphas", AwayTeamName: "Betas"},
		{GameID: "g2", GameTime: day(3), HomeTeamID: "A", AwayTeamID: "B", HomeTeamName: "Alphas", AwayTeamName: "Betas"},
		{GameID: "g9", GameTime: day(20), HomeTeamID: "A", AwayTeamID: "B", HomeTeamName: "Alphas", AwayTeamName: "Betas"},
	}
	games := []models.Game{scored("g2", 90, 101), scored("g3", 99, 99), {GameID: "g9"}}

	entries := Replay(model(), history, schedule, games, day(1), day(30))
	require.Len(t, entries, 3, "g1 has no earlier rows and is skipped")

	g2 := entries[0]
	assert.Equal(t, "g2", g2.GameID)
	assert.Equal(t, "2024-11-03", g2.Date)
	assert.Equal(t, 120.0, g2.PredictedHomeScore, "as-of row is day 1 for both sides")
	assert.Equal(t, 100.0, g2.PredictedAwayScore)
	assert.Equal(t, "Alphas", g2.PredictedWinner)
	assert.Equal(t, "Betas", g2.ActualWinner)
	assert.False(t, g2.IsCorrect)

	g3 := entries[1]
	assert.Equal(t, "Alphas", g3.PredictedWinner, "the day-5 rows are not visible on day 5")
	assert.Equal(t, "Betas", g3.ActualWinner, "a level score counts as an away win")

	g9 := entries[2]
	assert.Equal(t, "Betas", g9.PredictedWinner, "day-5 rows are used after day 5")
	assert.Equal(t, models.WinnerUnknown, g9.ActualWinner)
	assert.False(t, g9.IsCorrect)
}

func TestReplay_Window(t *testing.T) {
	history := features.NewHistory([]features.Row{row("A", 1, 110), row("B", 1, 100)})
	schedule := []models.ScheduledGame{
		{GameID: "early", GameTime: day(2), HomeTeamID: "A", AwayTeamID: "B"},
		{GameID: "late", GameTime: day(28), HomeTeamID: "A", AwayTeamID: "B"},
	}

	entries := Replay(model(), history, schedule, nil, day(3), day(27))
	assert.Empty(t, entries)
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestBacktester_Run(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, dataset.GamesFile, "gameId,gameDateTimeEst,hometeamId,awayteamId,hometeamName,awayteamName,homeScore,awayScore,gameLabel\n"+
		"1,2024-11-01 19:00:00,10,20,Alphas,Betas,110,100,\n"+
		"2,2024-11-03 19:00:00,20,10,Betas,Alphas,95,105,\n")
	writeFile(t, dir, dataset.TeamStatsFile, "gameId,teamId,opponentTeamId,gameDateTimeEst,home,teamScore,opponentScore\n"+
		"1,10,20,2024-11-01 19:00:00,1,110,100\n"+
		"1,20,10,2024-11-01 19:00:00,0,100,110\n"+
		"2,20,10,2024-11-03 19:00:00,1,95,105\n"+
		"2,10,20,2024-11-03 19:00:00,0,105,95\n")
	writeFile(t, dir, dataset.ScheduleFile, "gameId,gameDateTimeEst,homeTeamId,awayTeamId,homeTeamName,awayTeamName\n"+
		"1,2024-11-01 19:00:00,10,20,Alphas,Betas\n"+
		"2,2024-11-03 19:00:00,20,10,Betas,Alphas\n"+
		"3,2024-11-05 19:00:00,10,20,Alphas,Betas\n")

	store := artifact.NewStore(t.TempDir())
	store.SetTeam(model())
	out := snapshot.Dir{Root: t.TempDir()}

	b := New(dir, store, out, time.Time{})
	b.now = func() time.Time { return day(10) }

	history, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, history.Games, 2, "game 1 has no prior rows")

	// Game 2 uses each team's day-1 row, whose rolling means are still zero.
	assert.Equal(t, "Alphas", history.Games[0].ActualWinner)
	assert.Equal(t, models.WinnerUnknown, history.Games[1].ActualWinner)

	written, err := out.PredictionHistory()
	require.NoError(t, err)
	assert.Equal(t, snapshot.Timestamp(day(10)), written.LastUpdated)
	assert.Len(t, written.Games, 2)
}

func TestBacktester_RunWithoutModel(t *testing.T) {
	b := New(t.TempDir(), artifact.NewStore(t.TempDir()), snapshot.Dir{Root: t.TempDir()}, time.Time{})

	_, err := b.Run(context.Background())
	assert.Error(t, err)
}
