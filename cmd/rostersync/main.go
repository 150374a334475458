// Roster sync job.
//
// Rebuilds the player -> team map the props stage uses to resolve which side a
// player is on. Runs once and exits; the nightly pipeline also refreshes the map
// lazily when it is older than its TTL.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"openbet/backend/internal/client"
	"openbet/backend/internal/models"
	"openbet/backend/internal/roster"
	"openbet/backend/internal/snapshot"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// minRosterSize flags teams whose roster came back suspiciously short.
const minRosterSize = 10

// Config holds the settings this job needs; the full service config also
// demands odds and database credentials, which a roster refresh does not use.
type Config struct {
	DataDir         string        `envconfig:"DATA_DIR" default:"data"`
	NBAStatsBaseURL string        `envconfig:"NBA_STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	NBASeason       string        `envconfig:"NBA_SEASON" default:"2025-26"`
	NBAStatsTimeout time.Duration `envconfig:"NBA_STATS_TIMEOUT" default:"30s"`
	RosterCacheTTL  time.Duration `envconfig:"ROSTER_CACHE_TTL" default:"24h"`
}

// RosterSync refreshes the cached player -> team map
type RosterSync struct {
	cache  *roster.Cache
	logger *zap.Logger
	config Config
}

// NewRosterSync creates a new sync job
func NewRosterSync(cache *roster.Cache, logger *zap.Logger, config Config) *RosterSync {
	return &RosterSync{cache: cache, logger: logger, config: config}
}

// Sync refreshes the map, or only loads it when force is false and the cache is fresh
func (r *RosterSync) Sync(ctx context.Context, force bool) error {
	start := time.Now()
	r.logger.Info("Starting roster sync",
		zap.String("season", r.config.NBASeason),
		zap.Bool("force", force))

	var (
		m   roster.Map
		err error
	)
	if force {
		m, err = r.cache.Refresh(ctx)
	} else {
		m, err = r.cache.Load(ctx)
	}
	if err != nil {
		r.logger.Error("Roster sync failed", zap.Error(err))
		return err
	}

	r.report(m)
	r.logger.Info("Roster sync completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("players", len(m)))
	return nil
}

// report logs per-team roster sizes and flags short or missing rosters
func (r *RosterSync) report(m roster.Map) {
	counts := TeamCounts(m)

	teams := make([]string, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	for _, team := range teams {
		if counts[team] < minRosterSize {
			r.logger.Warn("Short roster", zap.String("team", team), zap.Int("players", counts[team]))
		} else {
			r.logger.Debug("Roster", zap.String("team", team), zap.Int("players", counts[team]))
		}
	}
	for _, t := range models.NBATeams {
		if _, ok := counts[roster.NormalizeTeamName(t.FullName)]; !ok {
			r.logger.Warn("Team missing from map", zap.String("team", t.FullName))
		}
	}
}

// TeamCounts tallies players per normalized team name
func TeamCounts(m roster.Map) map[string]int {
	counts := make(map[string]int)
	for _, team := range m {
		counts[team]++
	}
	return counts
}

func main() {
	force := flag.Bool("force", true, "refresh even when the cached map is still fresh")
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	_ = godotenv.Load()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatal("Failed to process environment config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := client.NewStatsClient(config.NBAStatsBaseURL, config.NBASeason, config.NBAStatsTimeout)
	path := snapshot.Dir{Root: config.DataDir}.Path(snapshot.PlayerTeamMapFile)
	cache := roster.NewCache(path, config.RosterCacheTTL, stats)

	logger.Info("Starting Roster Sync",
		zap.String("path", path),
		zap.Duration("ttl", config.RosterCacheTTL))

	if err := NewRosterSync(cache, logger, config).Sync(ctx, *force); err != nil {
		logger.Fatal("Sync failed", zap.Error(err))
	}
}
