// Package features turns cleaned box-score rows into per-game feature rows:
// lagged rolling means, home strength, rest and fatigue, and opponent context.
package features

import (
	"sort"
	"strings"
	"time"
)

// Column names shared by the trainer, scorer and backtester.
const (
	ColHome         = "home"
	ColFatigue      = "fatigue_index"
	ColHomeStrength = "home_strength"
	ColRestDays     = "rest_days"
	ColPossessions  = "possessions"

	OppPrefix     = "opp_"
	RollingPrefix = "rolling_"

	// Window is the trailing game count used for rolling means.
	Window = 10
)

// Row is one entity's (team or player) feature values for one game.
type Row struct {
	EntityID   string             `json:"entity_id"`
	Name       string             `json:"name,omitempty"`
	TeamID     string             `json:"team_id,omitempty"`
	OpponentID string             `json:"opponent_id,omitempty"`
	GameID     string             `json:"game_id"`
	Date       time.Time          `json:"date"`
	Home       bool               `json:"home"`
	Values     map[string]float64 `json:"values"`
}

// Get returns a column value, zero when absent.
func (r Row) Get(col string) float64 {
	return r.Values[col]
}

// Vector lays out the row's values in column order.
func (r Row) Vector(cols []string) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = r.Values[c]
	}
	return out
}

func (r Row) clone() Row {
	vals := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		vals[k] = v
	}
	r.Values = vals
	return r
}

// Rolling returns the rolling column name for a source column.
func Rolling(col string) string {
	return RollingPrefix + col
}

// Opp returns the opponent-context column name for a column.
func Opp(col string) string {
	return OppPrefix + col
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// MatchupVector builds a prediction input in the persisted column order for an
// upcoming game. Columns prefixed opp_ are read from the opponent's snapshot,
// home and the fatigue pair are supplied by the caller, everything else comes
// from the entity's own snapshot. Unknown columns are zero.
func MatchupVector(cols []string, self, opp Row, home bool, fatigue, oppFatigue float64) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		switch {
		case c == ColHome:
			out[i] = boolValue(home)
		case c == ColFatigue:
			out[i] = fatigue
		case c == Opp(ColFatigue):
			out[i] = oppFatigue
		case strings.HasPrefix(c, OppPrefix):
			out[i] = opp.Get(strings.TrimPrefix(c, OppPrefix))
		default:
			out[i] = self.Get(c)
		}
	}
	return out
}

// Latest returns the last row per entity. Rows must be in (entity, date) order.
func Latest(rows []Row) map[string]Row {
	out := make(map[string]Row)
	for _, r := range rows {
		out[r.EntityID] = r
	}
	return out
}

// History indexes feature rows by entity for as-of lookups.
type History map[string][]Row

// NewHistory groups rows per entity, each group sorted by date.
func NewHistory(rows []Row) History {
	h := make(History)
	for _, r := range rows {
		h[r.EntityID] = append(h[r.EntityID], r)
	}
	for id := range h {
		group := h[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })
	}
	return h
}

// AsOf returns the entity's most recent row dated strictly before t.
func (h History) AsOf(entityID string, t time.Time) (Row, bool) {
	group := h[entityID]
	i := sort.Search(len(group), func(i int) bool { return !group[i].Date.Before(t) })
	if i == 0 {
		return Row{}, false
	}
	return group[i-1], true
}
