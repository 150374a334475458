// Package roster resolves sportsbook team and player names to league identities.
package roster

import (
	"sort"
	"strings"

	"openbet/backend/internal/models"
)

var punctuation = strings.NewReplacer(".", "", ",", "", "'", "", "`", "")

// NormalizePlayerName lower-cases, strips punctuation and collapses whitespace.
func NormalizePlayerName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = punctuation.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTeamName is NormalizePlayerName with a leading "the " dropped.
func NormalizeTeamName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "the ")
	s = punctuation.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

type teamKey struct {
	norm string
	id   string
}

var (
	exactTeams = map[string]string{}
	normTeams  []teamKey
)

func init() {
	seen := map[string]bool{}
	add := func(name, id string) {
		exactTeams[name] = id
		n := NormalizeTeamName(name)
		if !seen[n] {
			seen[n] = true
			normTeams = append(normTeams, teamKey{norm: n, id: id})
		}
	}
	for _, t := range models.NBATeams {
		add(t.FullName, t.ID)
	}
	for name, id := range models.TeamAliases {
		add(name, id)
	}
	sort.Slice(normTeams, func(i, j int) bool { return normTeams[i].norm < normTeams[j].norm })
}

// ResolveTeamID maps a display name to a league team ID: exact table match,
// then normalized match, then substring containment in either direction.
// Containment that matches more than one franchise is treated as unresolved.
func ResolveTeamID(name string) (string, bool) {
	if id, ok := exactTeams[name]; ok {
		return id, true
	}
	n := NormalizeTeamName(name)
	if n == "" {
		return "", false
	}
	for _, k := range normTeams {
		if k.norm == n {
			return k.id, true
		}
	}

	found := ""
	for _, k := range normTeams {
		if strings.Contains(k.norm, n) || strings.Contains(n, k.norm) {
			if found != "" && found != k.id {
				return "", false
			}
			found = k.id
		}
	}
	return found, found != ""
}
