package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"openbet/backend/internal/models"
	"openbet/backend/internal/snapshot"

	"github.com/rs/zerolog/log"
)

// Fetcher returns the player names on a team's current roster.
type Fetcher interface {
	FetchTeamRoster(ctx context.Context, teamID string) ([]string, error)
}

type cacheFile struct {
	LastUpdated string `json:"last_updated"`
	Map         Map    `json:"map"`
}

// Cache is the player -> team map persisted to a JSON file and rebuilt from
// the roster feed when older than its TTL. There is no locking; concurrent
// refreshes just overwrite each other.
type Cache struct {
	path    string
	ttl     time.Duration
	fetcher Fetcher
	now     func() time.Time
}

// NewCache creates a cache backed by the file at path.
func NewCache(path string, ttl time.Duration, fetcher Fetcher) *Cache {
	return &Cache{path: path, ttl: ttl, fetcher: fetcher, now: time.Now}
}

// Load returns the cached map when it is fresh, otherwise refreshes it.
func (c *Cache) Load(ctx context.Context) (Map, error) {
	if m, ok := c.fresh(); ok {
		return m, nil
	}
	return c.Refresh(ctx)
}

func (c *Cache) fresh() (Map, bool) {
	var f cacheFile
	if err := snapshot.ReadJSON(c.path, &f); err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			log.Warn().Err(err).Str("path", c.path).Msg("Failed to read player-team cache")
		}
		return nil, false
	}
	updated, ok := parseStamp(f.LastUpdated)
	if !ok || c.now().Sub(updated) > c.ttl {
		return nil, false
	}
	if f.Map == nil {
		f.Map = Map{}
	}
	return f.Map, true
}

// parseStamp accepts RFC 3339 and zone-less ISO timestamps (read as UTC).
func parseStamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Refresh rebuilds the map from every team's roster and saves it. Teams whose
// roster cannot be fetched are skipped.
func (c *Cache) Refresh(ctx context.Context) (Map, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("no roster fetcher configured")
	}

	m := Map{}
	failed := 0
	for _, team := range models.NBATeams {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		players, err := c.fetcher.FetchTeamRoster(ctx, team.ID)
		if err != nil {
			failed++
			log.Warn().Err(err).Str("team_id", team.ID).Msg("Roster fetch failed, skipping team")
			continue
		}
		teamNorm := NormalizeTeamName(team.FullName)
		for _, p := range players {
			if key := NormalizePlayerName(p); key != "" {
				m[key] = teamNorm
			}
		}
	}

	if failed == len(models.NBATeams) {
		return nil, fmt.Errorf("failed to fetch any team roster")
	}

	if err := snapshot.WriteJSON(c.path, cacheFile{LastUpdated: snapshot.Timestamp(c.now()), Map: m}); err != nil {
		return nil, fmt.Errorf("failed to save player-team cache: %w", err)
	}
	log.Info().
		Int("players", len(m)).
		Int("failed_teams", failed).
		Str("path", c.path).
		Msg("Player-team map refreshed")
	return m, nil
}
