package trainer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/dataset"
	"openbet/backend/internal/features"
	"openbet/backend/internal/forest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var teams = []string{"1610612737", "1610612738", "1610612739", "1610612740"}

// writeBoxScores writes a small league: every day each pair of teams meets once,
// the home side scoring ten more than the away side.
func writeBoxScores(t *testing.T, dir string, days int) {
	t.Helper()

	var games, teamStats, playerStats strings.Builder
	games.WriteString("gameId,gameDateTimeEst,hometeamId,awayteamId,hometeamName,awayteamName,homeScore,awayScore,gameLabel\n")
	teamStats.WriteString("gameId,teamId,opponentTeamId,gameDateTimeEst,home,teamScore,opponentScore,fieldGoalsAttempted,freeThrowsAttempted,reboundsOffensive,turnovers,reboundsTotal,assists,fieldGoalsPercentage,teamCity,teamName\n")
	playerStats.WriteString("gameId,personId,firstName,lastName,playerteamId,opponentteamId,gameDateTimeEst,home,points,reboundsTotal,assists,threePointersMade,numMinutes\n")

	id := 0
	base := time.Date(2024, 10, 22, 19, 30, 0, 0, time.UTC)
	for d := 0; d < days; d++ {
		ts := base.AddDate(0, 0, 2*d).Format("2006-01-02 15:04:05")
		for i := 0; i < len(teams); i += 2 {
			home, away := teams[(i+d)%len(teams)], teams[(i+d+1)%len(teams)]
			id++
			gid := fmt.Sprintf("224%05d", id)
			hs, as := 110+d%5, 100+d%3
			fmt.Fprintf(&games, "%s,%s,%s,%s,Home %s,Away %s,%d,%d,\n", gid, ts, home, away, home, away, hs, as)
			fmt.Fprintf(&teamStats, "%s,%s,%s,%s,1,%d,%d,88,20,10,13,45,25,0.47,City,%s\n", gid, home, away, ts, hs, as, home)
			fmt.Fprintf(&teamStats, "%s,%s,%s,%s,0,%d,%d,86,18,9,14,42,22,0.44,City,%s\n", gid, away, home, ts, as, hs, away)
			fmt.Fprintf(&playerStats, "%s,9%s,Star,%s,%s,%s,%s,1,%d,8,6,3,34\n", gid, home[7:], home[7:], home, away, ts, 25+d%4)
			fmt.Fprintf(&playerStats, "%s,9%s,Star,%s,%s,%s,%s,0,%d,7,5,2,33\n", gid, away[7:], away[7:], away, home, ts, 20+d%4)
		}
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.GamesFile), []byte(games.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.TeamStatsFile), []byte(teamStats.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.PlayerStatsFile), []byte(playerStats.String()), 0o644))
}

func smallParams() forest.Params {
	p := forest.DefaultParams()
	p.NTrees = 5
	return p
}

func newTestTrainer(t *testing.T) (*Trainer, string, string) {
	dataDir, modelDir := t.TempDir(), t.TempDir()
	writeBoxScores(t, dataDir, 20)
	tr := New(Config{
		DataDir:      dataDir,
		ModelDir:     modelDir,
		TeamParams:   smallParams(),
		PlayerParams: smallParams(),
	})
	tr.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return tr, dataDir, modelDir
}

func TestDefaultParams(t *testing.T) {
	team := DefaultTeamParams()
	assert.Equal(t, 100, team.NTrees)
	assert.Equal(t, int64(42), team.Seed)

	player := DefaultPlayerParams()
	assert.Equal(t, 50, player.NTrees)
	assert.Equal(t, 10, player.MinSamplesSplit)
	assert.Equal(t, int64(42), player.Seed)
}

func TestLoadTeamFeatureTable(t *testing.T) {
	dir := t.TempDir()
	writeBoxScores(t, dir, 6)

	rows, games, err := LoadTeamFeatureTable(dir)
	require.NoError(t, err)
	assert.Len(t, games, 12)
	assert.Len(t, rows, 24, "every team-game has its opponent")

	for _, r := range rows {
		assert.Contains(t, r.Values, features.Opp(features.Rolling(features.ColTeamScore)))
	}
}

func TestTrainTeamModel(t *testing.T) {
	tr, _, modelDir := newTestTrainer(t)

	m, err := tr.TrainTeamModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, features.TeamFeatureColumns, m.FeatureColumns)
	assert.Equal(t, features.TeamTarget, m.Target)
	assert.Len(t, m.Latest, len(teams))
	assert.Equal(t, 80, m.TrainingRows)
	assert.False(t, m.TrainedAt.IsZero())

	loaded, err := artifact.LoadTeamModel(modelDir)
	require.NoError(t, err)
	assert.Equal(t, m.FeatureColumns, loaded.FeatureColumns)
	assert.Len(t, loaded.Model.Trees, 5)
}

func TestTrainTeamModel_MissingCSV(t *testing.T) {
	tr := New(Config{DataDir: t.TempDir(), ModelDir: t.TempDir()})

	_, err := tr.TrainTeamModel(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFitTeamModel_NoRows(t *testing.T) {
	_, err := FitTeamModel(nil, smallParams())
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestTrainPlayerModels(t *testing.T) {
	tr, _, modelDir := newTestTrainer(t)

	m, err := tr.TrainPlayerModels(context.Background())
	require.NoError(t, err)
	for _, target := range features.PlayerTargets {
		assert.Contains(t, m.Models, target)
		assert.Contains(t, m.HoldoutMAE, target)
	}
	assert.Len(t, m.Latest, len(teams), "one player per team")
	assert.Len(t, m.Defense, len(teams))

	loaded, err := artifact.LoadPlayerModels(modelDir)
	require.NoError(t, err)
	assert.Equal(t, features.PlayerFeatureColumns, loaded.FeatureColumns)
}

func TestFitPlayerModels_TrainStart(t *testing.T) {
	rows := make([]features.Row, 0, 20)
	for d := 0; d < 20; d++ {
		rows = append(rows, features.Row{
			EntityID: "p1",
			Date:     time.Date(2024, 1, 1+d, 0, 0, 0, 0, time.UTC),
			Values:   map[string]float64{features.ColPoints: float64(d)},
		})
	}
	table := features.PlayerTable{Rows: rows}

	m, err := FitPlayerModels(table, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), smallParams())
	require.NoError(t, err)
	assert.Equal(t, 10, m.TrainingRows)
	assert.Equal(t, rows[19].Date, m.Latest["p1"].Date, "snapshots use the full history")

	_, err = FitPlayerModels(table, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), smallParams())
	assert.ErrorIs(t, err, ErrNoRows)
}
