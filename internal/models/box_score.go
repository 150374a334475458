package models

import (
	"strings"
	"time"
)

// PlayerGameStat is one player's box score line for one game (PlayerStatistics.csv).
type PlayerGameStat struct {
	GameID         string
	PersonID       string
	FirstName      string
	LastName       string
	TeamID         string // playerteamId
	OpponentTeamID string // opponentteamId
	GameTime       time.Time
	Home           bool

	Points            float64
	ReboundsTotal     float64
	Assists           float64
	ThreePointersMade float64
	NumMinutes        float64
}

// PlayerName returns "First Last" with blanks trimmed.
func (s *PlayerGameStat) PlayerName() string {
	return strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}

// Stat returns the value of one of the modelled stat columns.
func (s *PlayerGameStat) Stat(column string) (float64, bool) {
	switch column {
	case "points":
		return s.Points, true
	case "reboundsTotal":
		return s.ReboundsTotal, true
	case "assists":
		return s.Assists, true
	case "threePointersMade":
		return s.ThreePointersMade, true
	case "numMinutes":
		return s.NumMinutes, true
	}
	return 0, false
}
