package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"openbet/backend/internal/models"
)

// CSV file names inside the box-score directory
const (
	GamesFile       = "Games.csv"
	TeamStatsFile   = "TeamStatistics.csv"
	PlayerStatsFile = "PlayerStatistics.csv"
	ScheduleFile    = "LeagueSchedule25_26.csv"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Paths locates the box-score CSVs.
type Paths struct {
	Dir string
}

func (p Paths) Games() string       { return filepath.Join(p.Dir, GamesFile) }
func (p Paths) TeamStats() string   { return filepath.Join(p.Dir, TeamStatsFile) }
func (p Paths) PlayerStats() string { return filepath.Join(p.Dir, PlayerStatsFile) }
func (p Paths) Schedule() string    { return filepath.Join(p.Dir, ScheduleFile) }

func requireColumns(t *table, path string, cols ...string) error {
	for _, c := range cols {
		if !t.has(c) {
			return fmt.Errorf("%w %q in %s", ErrMissingColumn, c, path)
		}
	}
	return nil
}

// LoadGames reads Games.csv in file order.
func LoadGames(path string) ([]models.Game, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(t, path, "gameId"); err != nil {
		return nil, err
	}

	games := make([]models.Game, 0, len(t.rows))
	for _, row := range t.rows {
		g := models.Game{
			GameID:       t.id(row, "gameId"),
			DateTimeEst:  t.str(row, "gameDateTimeEst"),
			HomeTeamID:   t.id(row, "hometeamId"),
			AwayTeamID:   t.id(row, "awayteamId"),
			HomeTeamName: t.str(row, "hometeamName"),
			AwayTeamName: t.str(row, "awayteamName"),
			GameLabel:    t.str(row, "gameLabel"),
		}
		g.GameTime, _ = ParseTime(g.DateTimeEst)
		if v, ok := t.number(row, "homeScore"); ok {
			g.HomeScore = sql.NullFloat64{Float64: v, Valid: true}
		}
		if v, ok := t.number(row, "awayScore"); ok {
			g.AwayScore = sql.NullFloat64{Float64: v, Valid: true}
		}
		games = append(games, g)
	}
	return games, nil
}

// LoadTeamStats reads TeamStatistics.csv. Rows without a parseable date are dropped;
// missing numeric cells are zero.
func LoadTeamStats(path string) ([]models.TeamGameStat, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(t, path, "gameId", "teamId", "opponentTeamId", "gameDateTimeEst"); err != nil {
		return nil, err
	}

	stats := make([]models.TeamGameStat, 0, len(t.rows))
	for _, row := range t.rows {
		ts, ok := t.time(row, "gameDateTimeEst")
		if !ok {
			continue
		}
		stats = append(stats, models.TeamGameStat{
			GameID:               t.id(row, "gameId"),
			TeamID:               t.id(row, "teamId"),
			OpponentTeamID:       t.id(row, "opponentTeamId"),
			TeamName:             t.str(row, "teamName"),
			TeamCity:             t.str(row, "teamCity"),
			GameTime:             ts,
			Home:                 t.flag(row, "home"),
			FieldGoalsAttempted:  t.float(row, "fieldGoalsAttempted"),
			FreeThrowsAttempted:  t.float(row, "freeThrowsAttempted"),
			ReboundsOffensive:    t.float(row, "reboundsOffensive"),
			ReboundsTotal:        t.float(row, "reboundsTotal"),
			Turnovers:            t.float(row, "turnovers"),
			TeamScore:            t.float(row, "teamScore"),
			OpponentScore:        t.float(row, "opponentScore"),
			Assists:              t.float(row, "assists"),
			FieldGoalsPercentage: t.float(row, "fieldGoalsPercentage"),
		})
	}
	return stats, nil
}

// LoadPlayerStats reads PlayerStatistics.csv.
func LoadPlayerStats(path string) ([]models.PlayerGameStat, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(t, path, "gameId", "personId", "gameDateTimeEst"); err != nil {
		return nil, err
	}

	stats := make([]models.PlayerGameStat, 0, len(t.rows))
	for _, row := range t.rows {
		ts, ok := t.time(row, "gameDateTimeEst")
		if !ok {
			continue
		}
		stats = append(stats, models.PlayerGameStat{
			GameID:            t.id(row, "gameId"),
			PersonID:          t.id(row, "personId"),
			FirstName:         t.str(row, "firstName"),
			LastName:          t.str(row, "lastName"),
			TeamID:            t.id(row, "playerteamId"),
			OpponentTeamID:    t.id(row, "opponentteamId"),
			GameTime:          ts,
			Home:              t.flag(row, "home"),
			Points:            t.float(row, "points"),
			ReboundsTotal:     t.float(row, "reboundsTotal"),
			Assists:           t.float(row, "assists"),
			ThreePointersMade: t.float(row, "threePointersMade"),
			NumMinutes:        t.float(row, "numMinutes"),
		})
	}
	return stats, nil
}

// LoadSchedule reads the league schedule CSV.
func LoadSchedule(path string) ([]models.ScheduledGame, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(t, path, "gameId", "homeTeamId", "awayTeamId", "gameDateTimeEst"); err != nil {
		return nil, err
	}

	games := make([]models.ScheduledGame, 0, len(t.rows))
	for _, row := range t.rows {
		ts, ok := t.time(row, "gameDateTimeEst")
		if !ok {
			continue
		}
		games = append(games, models.ScheduledGame{
			GameID:       t.id(row, "gameId"),
			DateTimeEst:  t.str(row, "gameDateTimeEst"),
			GameTime:     ts,
			HomeTeamID:   t.id(row, "homeTeamId"),
			AwayTeamID:   t.id(row, "awayTeamId"),
			HomeTeamName: t.str(row, "homeTeamName"),
			AwayTeamName: t.str(row, "awayTeamName"),
		})
	}
	return games, nil
}
