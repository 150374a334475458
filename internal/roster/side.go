package roster

import (
	"strings"

	"openbet/backend/internal/models"
)

// Map is normalized player name -> normalized team name.
type Map map[string]string

// Side decides which team in a matchup a player belongs to, returning
// models.SideHome, models.SideAway or models.SideUnknown.
func (m Map) Side(player, homeTeam, awayTeam string) string {
	if player == "" {
		return models.SideUnknown
	}
	team := m[NormalizePlayerName(player)]
	if team == "" {
		return models.SideUnknown
	}

	home := NormalizeTeamName(homeTeam)
	away := NormalizeTeamName(awayTeam)
	switch {
	case team == home:
		return models.SideHome
	case team == away:
		return models.SideAway
	case home != "" && (strings.Contains(home, team) || strings.Contains(team, home)):
		return models.SideHome
	case away != "" && (strings.Contains(away, team) || strings.Contains(team, away)):
		return models.SideAway
	}
	return models.SideUnknown
}
