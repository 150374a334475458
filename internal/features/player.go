package features

import (
	"sort"

	"openbet/backend/internal/models"
)

// Player stat columns
const (
	ColPoints  = "points"
	ColThrees  = "threePointersMade"
	ColMinutes = "numMinutes"
)

// PlayerTargets are the stats with a dedicated player model.
var PlayerTargets = []string{ColPoints, ColRebounds, ColAssists, ColThrees}

// PlayerRolledColumns are the player stats given a rolling_ mean.
var PlayerRolledColumns = []string{ColPoints, ColRebounds, ColAssists, ColThrees, ColMinutes}

// PlayerFeatureColumns is the player models' input order.
var PlayerFeatureColumns = []string{
	ColHome,
	Rolling(ColPoints),
	Rolling(ColRebounds),
	Rolling(ColAssists),
	Rolling(ColMinutes),
	Opp(Allowed(ColPoints)),
	Opp(Allowed(ColRebounds)),
}

// defenseMinPeriods is the prior-game count needed before a team's conceded
// averages are trusted.
const defenseMinPeriods = 3

// Allowed names a team's trailing average of a stat conceded to opposing players.
func Allowed(stat string) string {
	return "l10_" + stat + "_allowed"
}

// PlayerTable holds player feature rows plus each team's latest defensive context.
type PlayerTable struct {
	Rows    []Row
	Defense map[string]Row
}

// BuildPlayerFeatures derives per-player rolling features and joins the opposing
// team's trailing conceded averages. Output rows are ordered by (personId, date).
func BuildPlayerFeatures(stats []models.PlayerGameStat) PlayerTable {
	sorted := make([]models.PlayerGameStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PersonID != sorted[j].PersonID {
			return sorted[i].PersonID < sorted[j].PersonID
		}
		return sorted[i].GameTime.Before(sorted[j].GameTime)
	})

	defenseRows := buildDefense(sorted)
	defenseIndex := make(map[[2]string]Row, len(defenseRows))
	for _, d := range defenseRows {
		defenseIndex[[2]string{d.EntityID, d.GameID}] = d
	}

	rows := make([]Row, 0, len(sorted))
	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && sorted[end].PersonID == sorted[start].PersonID {
			end++
		}
		group := sorted[start:end]

		rolled := make(map[string][]float64, len(PlayerRolledColumns))
		for _, c := range PlayerRolledColumns {
			series := make([]float64, len(group))
			for i := range group {
				series[i], _ = group[i].Stat(c)
			}
			rolled[c] = LaggedRollingMean(series, Window, 1)
		}

		for i := range group {
			s := &group[i]
			vals := map[string]float64{ColHome: boolValue(s.Home)}
			for _, c := range PlayerRolledColumns {
				vals[c], _ = s.Stat(c)
				vals[Rolling(c)] = rolled[c][i]
			}
			def := defenseIndex[[2]string{s.OpponentTeamID, s.GameID}]
			for _, t := range PlayerTargets {
				vals[Opp(Allowed(t))] = def.Get(Allowed(t))
			}
			rows = append(rows, Row{
				EntityID:   s.PersonID,
				Name:       s.PlayerName(),
				TeamID:     s.TeamID,
				OpponentID: s.OpponentTeamID,
				GameID:     s.GameID,
				Date:       s.GameTime,
				Home:       s.Home,
				Values:     vals,
			})
		}
		start = end
	}

	return PlayerTable{Rows: rows, Defense: Latest(defenseRows)}
}

// buildDefense sums what each team's opponents produced per game, then takes
// lagged window-10 means per team (ordered by date).
func buildDefense(stats []models.PlayerGameStat) []Row {
	type key struct{ team, game string }
	totals := make(map[key]*Row)
	var order []key
	for i := range stats {
		s := &stats[i]
		if s.TeamID == "" {
			continue
		}
		k := key{s.TeamID, s.GameID}
		r, ok := totals[k]
		if !ok {
			r = &Row{EntityID: s.TeamID, TeamID: s.TeamID, GameID: s.GameID, Date: s.GameTime, Values: map[string]float64{}}
			totals[k] = r
			order = append(order, k)
		}
		for _, t := range PlayerTargets {
			v, _ := s.Stat(t)
			r.Values[t] += v
		}
	}

	// Sums are produced by the player's own team; a team's conceded figures are
	// the sums of whoever it played, so re-key by the opponent.
	opponents := make(map[key]string)
	for i := range stats {
		s := &stats[i]
		if s.TeamID != "" && s.OpponentTeamID != "" {
			opponents[key{s.TeamID, s.GameID}] = s.OpponentTeamID
		}
	}

	conceded := make([]Row, 0, len(order))
	for _, k := range order {
		opp, ok := opponents[k]
		if !ok {
			continue
		}
		src := totals[k]
		conceded = append(conceded, Row{
			EntityID: opp,
			TeamID:   opp,
			GameID:   k.game,
			Date:     src.Date,
			Values:   src.Values,
		})
	}

	sort.SliceStable(conceded, func(i, j int) bool {
		if conceded[i].EntityID != conceded[j].EntityID {
			return conceded[i].EntityID < conceded[j].EntityID
		}
		return conceded[i].Date.Before(conceded[j].Date)
	})

	out := make([]Row, 0, len(conceded))
	for start := 0; start < len(conceded); {
		end := start
		for end < len(conceded) && conceded[end].EntityID == conceded[start].EntityID {
			end++
		}
		group := conceded[start:end]

		means := make(map[string][]float64, len(PlayerTargets))
		for _, t := range PlayerTargets {
			series := make([]float64, len(group))
			for i := range group {
				series[i] = group[i].Get(t)
			}
			means[t] = LaggedRollingMean(series, Window, defenseMinPeriods)
		}

		for i := range group {
			vals := make(map[string]float64, len(PlayerTargets))
			for _, t := range PlayerTargets {
				vals[Allowed(t)] = means[t][i]
			}
			out = append(out, Row{
				EntityID: group[i].EntityID,
				TeamID:   group[i].TeamID,
				GameID:   group[i].GameID,
				Date:     group[i].Date,
				Values:   vals,
			})
		}
		start = end
	}
	return out
}
