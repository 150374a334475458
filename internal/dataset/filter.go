package dataset

import (
	"sort"

	"openbet/backend/internal/models"
)

// ExcludedLabels are game labels that never feed a model.
var ExcludedLabels = map[string]bool{
	"Preseason":     true,
	"All-Star Game": true,
}

// ValidGameIDs returns the IDs of games whose label is not excluded.
// The second result is false when no game carries a label, in which case
// callers should not filter at all.
func ValidGameIDs(games []models.Game) (map[string]bool, bool) {
	labelled := false
	valid := make(map[string]bool, len(games))
	for _, g := range games {
		if g.GameLabel != "" {
			labelled = true
		}
		if !ExcludedLabels[g.GameLabel] {
			valid[g.GameID] = true
		}
	}
	return valid, labelled
}

// PrepareTeamStats applies the team-stat cleaning rules in order: drop
// excluded games, keep the first row per (gameId, teamId), drop any game
// that is not left with exactly two rows. The result is sorted by team
// then game time.
func PrepareTeamStats(stats []models.TeamGameStat, games []models.Game) []models.TeamGameStat {
	valid, labelled := ValidGameIDs(games)

	seen := make(map[[2]string]bool, len(stats))
	perGame := make(map[string]int)
	kept := make([]models.TeamGameStat, 0, len(stats))
	for _, s := range stats {
		if s.GameID == "" || s.TeamID == "" {
			continue
		}
		if labelled && !valid[s.GameID] {
			continue
		}
		key := [2]string{s.GameID, s.TeamID}
		if seen[key] {
			continue
		}
		seen[key] = true
		perGame[s.GameID]++
		kept = append(kept, s)
	}

	out := kept[:0]
	for _, s := range kept {
		if perGame[s.GameID] == 2 {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TeamID != out[j].TeamID {
			return out[i].TeamID < out[j].TeamID
		}
		return out[i].GameTime.Before(out[j].GameTime)
	})
	return out
}

// PreparePlayerStats drops excluded games and repeated (gameId, personId)
// rows, then sorts by player and game time.
func PreparePlayerStats(stats []models.PlayerGameStat, games []models.Game) []models.PlayerGameStat {
	valid, labelled := ValidGameIDs(games)

	seen := make(map[[2]string]bool, len(stats))
	out := make([]models.PlayerGameStat, 0, len(stats))
	for _, s := range stats {
		if s.GameID == "" || s.PersonID == "" {
			continue
		}
		if labelled && !valid[s.GameID] {
			continue
		}
		key := [2]string{s.GameID, s.PersonID}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PersonID != out[j].PersonID {
			return out[i].PersonID < out[j].PersonID
		}
		return out[i].GameTime.Before(out[j].GameTime)
	})
	return out
}

// RecentGames returns games on the given date (YYYY-MM-DD), or every game when
// date is empty, newest first and capped at limit when limit > 0.
func RecentGames(games []models.Game, date string, limit int) []models.Game {
	out := make([]models.Game, 0)
	for _, g := range games {
		if date == "" || g.GameDate() == date {
			out = append(out, g)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.GameTime.Equal(b.GameTime) {
			return a.GameTime.After(b.GameTime)
		}
		return a.DateTimeEst > b.DateTimeEst
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
