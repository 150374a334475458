package features

import (
	"testing"
	"time"

	"openbet/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 11, 1, 19, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

func TestLaggedRollingMean(t *testing.T) {
	series := []float64{100, 110, 90, 120}
	out := LaggedRollingMean(series, Window, 1)

	assert.Equal(t, 0.0, out[0], "first game has no history")
	assert.Equal(t, 100.0, out[1])
	assert.Equal(t, 105.0, out[2], "game 3 uses the mean of games 1-2 only")
	assert.Equal(t, 100.0, out[3])
}

func TestLaggedRollingMean_Window(t *testing.T) {
	series := make([]float64, 15)
	for i := range series {
		series[i] = float64(i + 1)
	}
	out := LaggedRollingMean(series, 10, 1)
	// position 12 averages values at 2..11 -> 3..12
	assert.InDelta(t, 7.5, out[12], 1e-9)
}

func TestLaggedRollingMean_MinPeriods(t *testing.T) {
	out := LaggedRollingMean([]float64{5, 5, 5, 5}, 10, 3)
	assert.Equal(t, []float64{0, 0, 0, 5}, out)
}

func TestLaggedRollingMean_NoLookahead(t *testing.T) {
	base := []float64{1, 2, 3, 4, 5, 6}
	changed := []float64{1, 2, 3, 400, 500, 600}
	a := LaggedRollingMean(base, Window, 1)
	b := LaggedRollingMean(changed, Window, 1)
	assert.Equal(t, a[:4], b[:4], "values up to and including the changed game must not move")
}

func TestLaggedExpandingMean(t *testing.T) {
	margins := []float64{10, -5, 20, 4}
	home := []bool{true, false, true, false}
	out := LaggedExpandingMean(margins, home)
	assert.Equal(t, []float64{0, 10, 10, 15}, out)
}

func TestFatigue(t *testing.T) {
	assert.Equal(t, 0.0, Fatigue(2, true, true))
	assert.Equal(t, 1.0, Fatigue(1, true, true))
	assert.Equal(t, 2.0, Fatigue(1, false, true))
	assert.Equal(t, 2.0, Fatigue(0, true, false))
	assert.Equal(t, 3.0, Fatigue(1, false, false))
}

func TestRestDays(t *testing.T) {
	assert.Equal(t, 1.0, RestDays(day(1), day(2)))
	assert.Equal(t, 7.0, RestDays(day(1), day(20)), "rest is capped")
}

func pairStats(gameID string, d int, home, away string, homePts, awayPts float64) []models.TeamGameStat {
	return []models.TeamGameStat{
		{GameID: gameID, TeamID: home, OpponentTeamID: away, GameTime: day(d), Home: true, TeamScore: homePts, OpponentScore: awayPts, FieldGoalsAttempted: 80},
		{GameID: gameID, TeamID: away, OpponentTeamID: home, GameTime: day(d), Home: false, TeamScore: awayPts, OpponentScore: homePts, FieldGoalsAttempted: 85},
	}
}

func TestBuildTeamFeatures(t *testing.T) {
	var stats []models.TeamGameStat
	stats = append(stats, pairStats("3", 5, "A", "B", 90, 100)...)
	stats = append(stats, pairStats("1", 1, "A", "B", 100, 90)...)
	stats = append(stats, pairStats("2", 2, "B", "A", 95, 110)...)

	rows := BuildTeamFeatures(stats)
	require.Len(t, rows, 6)

	var a []Row
	for _, r := range rows {
		if r.EntityID == "A" {
			a = append(a, r)
		}
	}
	require.Len(t, a, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{a[0].GameID, a[1].GameID, a[2].GameID}, "rows are date ordered")

	assert.Equal(t, 0.0, a[0].Get(Rolling(ColTeamScore)))
	assert.Equal(t, 100.0, a[1].Get(Rolling(ColTeamScore)))
	assert.Equal(t, 105.0, a[2].Get(Rolling(ColTeamScore)), "game 3 rolling score is the mean of games 1-2")

	assert.Equal(t, 0.0, a[0].Get(ColHomeStrength))
	assert.Equal(t, 10.0, a[1].Get(ColHomeStrength), "home strength carries across away games")
	assert.Equal(t, 10.0, a[2].Get(ColHomeStrength))

	assert.Equal(t, 3.0, a[0].Get(ColRestDays))
	assert.Equal(t, 2.0, a[1].Get(ColFatigue), "home then away on consecutive days")
	assert.Equal(t, 0.0, a[2].Get(ColFatigue))
	assert.Equal(t, 80.0, a[0].Get(ColPossessions))
}

func TestJoinOpponents(t *testing.T) {
	var stats []models.TeamGameStat
	stats = append(stats, pairStats("1", 1, "A", "B", 100, 90)...)
	stats = append(stats, pairStats("2", 2, "A", "B", 120, 80)...)
	rows := BuildTeamFeatures(stats)
	rows = append(rows, Row{EntityID: "C", OpponentID: "Z", GameID: "9", Values: map[string]float64{}})

	joined, dropped := JoinOpponents(rows)
	assert.Equal(t, 1, dropped, "rows without an opponent row are dropped")
	require.Len(t, joined, 4)

	for _, r := range joined {
		if r.EntityID == "A" && r.GameID == "2" {
			assert.Equal(t, 90.0, r.Get(Opp(Rolling(ColTeamScore))), "opponent context is B's rolling score")
			assert.Equal(t, 100.0, r.Get(Rolling(ColTeamScore)))
		}
	}
	_, hasOpp := rows[0].Values[Opp(Rolling(ColTeamScore))]
	assert.False(t, hasOpp, "input rows are not mutated")
}

func TestMatchupVector(t *testing.T) {
	self := Row{Values: map[string]float64{ColHomeStrength: 4, Rolling(ColTeamScore): 110}}
	opp := Row{Values: map[string]float64{ColHomeStrength: -2, Rolling(ColOpponentScore): 105}}

	vec := MatchupVector(TeamFeatureColumns, self, opp, true, 1, 3)
	want := []float64{1, 1, 4, 110, 0, 0, 0, 0, 105, 3, -2}
	assert.Equal(t, want, vec)
}

func TestHistory_AsOf(t *testing.T) {
	rows := []Row{
		{EntityID: "A", GameID: "2", Date: day(3)},
		{EntityID: "A", GameID: "1", Date: day(1)},
	}
	h := NewHistory(rows)

	_, ok := h.AsOf("A", day(1))
	assert.False(t, ok, "a game on the same date is not prior history")

	r, ok := h.AsOf("A", day(3))
	require.True(t, ok)
	assert.Equal(t, "1", r.GameID)

	r, ok = h.AsOf("A", day(10))
	require.True(t, ok)
	assert.Equal(t, "2", r.GameID)

	_, ok = h.AsOf("B", day(10))
	assert.False(t, ok)
}

func TestBuildPlayerFeatures(t *testing.T) {
	var stats []models.PlayerGameStat
	for g := 1; g <= 5; g++ {
		gid := string(rune('0' + g))
		stats = append(stats,
			models.PlayerGameStat{GameID: gid, PersonID: "p1", FirstName: "Jay", LastName: "Doe", TeamID: "A", OpponentTeamID: "B", GameTime: day(g), Points: float64(10 * g)},
			models.PlayerGameStat{GameID: gid, PersonID: "p2", TeamID: "B", OpponentTeamID: "A", GameTime: day(g), Points: 20},
		)
	}

	table := BuildPlayerFeatures(stats)
	require.Len(t, table.Rows, 10)

	p1 := table.Rows[:5]
	assert.Equal(t, "Jay Doe", p1[0].Name)
	assert.Equal(t, 15.0, p1[2].Get(Rolling(ColPoints)))

	// B concedes p1's points; averages need three prior games before they count.
	p2 := table.Rows[5:]
	assert.Equal(t, 0.0, p1[2].Get(Opp(Allowed(ColPoints))))
	assert.Equal(t, 20.0, p1[3].Get(Opp(Allowed(ColPoints))), "mean of 10, 20, 30")
	assert.Equal(t, 0.0, p2[2].Get(Opp(Allowed(ColPoints))))
	assert.Equal(t, 20.0, p2[3].Get(Opp(Allowed(ColPoints))), "A concedes a flat 20")

	require.Contains(t, table.Defense, "B")
	assert.Equal(t, 25.0, table.Defense["B"].Get(Allowed(ColPoints)), "latest lagged value for game 5")
}
