package features

import (
	"math"
	"sort"
	"time"

	"openbet/backend/internal/models"
)

// Team stat columns carried on every team row and rolled.
const (
	ColTeamScore     = "teamScore"
	ColOpponentScore = "opponentScore"
	ColFGPct         = "fieldGoalsPercentage"
	ColRebounds      = "reboundsTotal"
	ColAssists       = "assists"
)

// TeamRolledColumns are the team stats given a rolling_ mean.
var TeamRolledColumns = []string{ColTeamScore, ColOpponentScore, ColFGPct, ColPossessions, ColRebounds, ColAssists}

// TeamFeatureColumns is the team score model's input order.
var TeamFeatureColumns = []string{
	ColHome,
	ColFatigue,
	ColHomeStrength,
	Rolling(ColTeamScore),
	Rolling(ColPossessions),
	Rolling(ColFGPct),
	Opp(Rolling(ColTeamScore)),
	Opp(Rolling(ColPossessions)),
	Opp(Rolling(ColOpponentScore)),
	Opp(ColFatigue),
	Opp(ColHomeStrength),
}

// TeamTarget is the column the team model predicts.
const TeamTarget = ColTeamScore

const (
	defaultRestDays = 3
	maxRestDays     = 7
)

// BuildTeamFeatures derives one feature row per team-game. The input need not be
// sorted; the output is ordered by (teamId, date).
func BuildTeamFeatures(stats []models.TeamGameStat) []Row {
	sorted := make([]models.TeamGameStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TeamID != sorted[j].TeamID {
			return sorted[i].TeamID < sorted[j].TeamID
		}
		return sorted[i].GameTime.Before(sorted[j].GameTime)
	})

	rows := make([]Row, 0, len(sorted))
	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && sorted[end].TeamID == sorted[start].TeamID {
			end++
		}
		rows = append(rows, teamGroupFeatures(sorted[start:end])...)
		start = end
	}
	return rows
}

func teamGroupFeatures(group []models.TeamGameStat) []Row {
	n := len(group)
	series := make(map[string][]float64, len(TeamRolledColumns))
	for _, c := range TeamRolledColumns {
		series[c] = make([]float64, n)
	}
	margins := make([]float64, n)
	isHome := make([]bool, n)

	for i := range group {
		s := &group[i]
		series[ColTeamScore][i] = s.TeamScore
		series[ColOpponentScore][i] = s.OpponentScore
		series[ColFGPct][i] = s.FieldGoalsPercentage
		series[ColPossessions][i] = s.Possessions()
		series[ColRebounds][i] = s.ReboundsTotal
		series[ColAssists][i] = s.Assists
		margins[i] = s.Margin()
		isHome[i] = s.Home
	}

	rolled := make(map[string][]float64, len(TeamRolledColumns))
	for _, c := range TeamRolledColumns {
		rolled[c] = LaggedRollingMean(series[c], Window, 1)
	}
	homeStrength := LaggedExpandingMean(margins, isHome)

	rows := make([]Row, n)
	for i := range group {
		s := &group[i]
		vals := map[string]float64{
			ColHome:              boolValue(s.Home),
			"fieldGoalsAttempted": s.FieldGoalsAttempted,
			"freeThrowsAttempted": s.FreeThrowsAttempted,
			"reboundsOffensive":   s.ReboundsOffensive,
			"turnovers":           s.Turnovers,
			ColHomeStrength:       homeStrength[i],
		}
		for _, c := range TeamRolledColumns {
			vals[c] = series[c][i]
			vals[Rolling(c)] = rolled[c][i]
		}

		rest := float64(defaultRestDays)
		fatigue := 0.0
		if i > 0 {
			prev := &group[i-1]
			rest = RestDays(prev.GameTime, s.GameTime)
			fatigue = Fatigue(rest, prev.Home, s.Home)
		}
		vals[ColRestDays] = rest
		vals[ColFatigue] = fatigue

		rows[i] = Row{
			EntityID:   s.TeamID,
			Name:       s.DisplayName(),
			TeamID:     s.TeamID,
			OpponentID: s.OpponentTeamID,
			GameID:     s.GameID,
			Date:       s.GameTime,
			Home:       s.Home,
			Values:     vals,
		}
	}
	return rows
}

// RestDays is whole days between two games, capped at seven.
func RestDays(prev, next time.Time) float64 {
	days := math.Floor(next.Sub(prev).Hours() / 24)
	if days > maxRestDays {
		days = maxRestDays
	}
	return days
}

// Fatigue scores a game given rest days and the home flags of the previous and
// current game. Games after more than one day of rest score zero; back-to-backs
// score 1 for home/home, 3 for away/away and 2 for a switch.
func Fatigue(restDays float64, prevHome, home bool) float64 {
	if restDays > 1 {
		return 0
	}
	switch {
	case prevHome && home:
		return 1
	case !prevHome && !home:
		return 3
	default:
		return 2
	}
}

// UpcomingFatigue scores a game at t given the team's latest snapshot row.
func UpcomingFatigue(last Row, t time.Time, home bool) float64 {
	if last.Date.IsZero() || t.IsZero() || !t.After(last.Date) {
		return 0
	}
	return Fatigue(RestDays(last.Date, t), last.Home, home)
}

// OpponentSourceColumns are copied from the opponent's row with the opp_ prefix.
func OpponentSourceColumns() []string {
	cols := []string{ColHomeStrength, ColFatigue}
	for _, c := range TeamRolledColumns {
		cols = append(cols, Rolling(c))
	}
	return cols
}

// JoinOpponents inner-joins each row with its opponent's row from the same game
// and copies the opponent's derived columns under opp_ names. Rows whose
// opponent row is missing are dropped; the count is returned.
func JoinOpponents(rows []Row) ([]Row, int) {
	index := make(map[[2]string]int, len(rows))
	for i, r := range rows {
		index[[2]string{r.GameID, r.EntityID}] = i
	}

	cols := OpponentSourceColumns()
	joined := make([]Row, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		j, ok := index[[2]string{r.GameID, r.OpponentID}]
		if !ok {
			dropped++
			continue
		}
		opp := rows[j]
		out := r.clone()
		for _, c := range cols {
			out.Values[Opp(c)] = opp.Get(c)
		}
		joined = append(joined, out)
	}
	return joined, dropped
}
