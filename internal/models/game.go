package models

import (
	"database/sql"
	"time"
)

// Game is one row of Games.csv: a played (or scheduled) NBA game.
type Game struct {
	GameID       string
	DateTimeEst  string // raw gameDateTimeEst value
	GameTime     time.Time
	HomeTeamID   string
	AwayTeamID   string
	HomeTeamName string
	AwayTeamName string
	HomeScore    sql.NullFloat64
	AwayScore    sql.NullFloat64
	GameLabel    string
}

// Scored reports whether both final scores are present.
func (g *Game) Scored() bool {
	return g.HomeScore.Valid && g.AwayScore.Valid
}

// HomeWon reports whether the home side won. ok is false for unscored games.
// A level score counts as an away win.
func (g *Game) HomeWon() (won bool, ok bool) {
	if !g.Scored() {
		return false, false
	}
	return g.HomeScore.Float64 > g.AwayScore.Float64, true
}

// GameDate returns the date part of the raw timestamp (YYYY-MM-DD).
func (g *Game) GameDate() string {
	return DatePart(g.DateTimeEst)
}

// ScheduledGame is one row of the league schedule CSV.
type ScheduledGame struct {
	GameID       string
	DateTimeEst  string
	GameTime     time.Time
	HomeTeamID   string
	AwayTeamID   string
	HomeTeamName string
	AwayTeamName string
}

// WinnerUnknown labels a game without a recorded result.
const WinnerUnknown = "Unknown"

// DatePart cuts a timestamp string down to its calendar date.
func DatePart(ts string) string {
	for i := 0; i < len(ts); i++ {
		if ts[i] == ' ' || ts[i] == 'T' {
			return ts[:i]
		}
	}
	return ts
}
