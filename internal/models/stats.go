package models

import "time"

// TeamGameStat is one team's box score line for one game (TeamStatistics.csv).
type TeamGameStat struct {
	GameID         string
	TeamID         string
	OpponentTeamID string
	TeamName       string
	TeamCity       string
	GameTime       time.Time
	Home           bool

	FieldGoalsAttempted  float64
	FreeThrowsAttempted  float64
	ReboundsOffensive    float64
	ReboundsTotal        float64
	Turnovers            float64
	TeamScore            float64
	OpponentScore        float64
	Assists              float64
	FieldGoalsPercentage float64
}

// Possessions estimates possessions as FGA + 0.44*FTA - OREB + TOV.
func (s *TeamGameStat) Possessions() float64 {
	return s.FieldGoalsAttempted + 0.44*s.FreeThrowsAttempted - s.ReboundsOffensive + s.Turnovers
}

// Margin is the signed point differential from this team's perspective.
func (s *TeamGameStat) Margin() float64 {
	return s.TeamScore - s.OpponentScore
}

// DisplayName joins city and name the way box scores print them.
func (s *TeamGameStat) DisplayName() string {
	switch {
	case s.TeamCity == "":
		return s.TeamName
	case s.TeamName == "":
		return s.TeamCity
	default:
		return s.TeamCity + " " + s.TeamName
	}
}
