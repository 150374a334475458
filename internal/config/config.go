package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Props side modes
const (
	PropsSideResolved = "resolved"
	PropsSideBoth     = "both"
)

// Config holds all application configuration
type Config struct {
	// The Odds API
	OddsAPIKey          string        `envconfig:"ODDS_API_KEY" required:"true"`
	OddsAPIBaseURL      string        `envconfig:"ODDS_API_BASE_URL" default:"https://api.the-odds-api.com/v4"`
	OddsAPISport        string        `envconfig:"ODDS_API_SPORT" default:"basketball_nba"`
	OddsAPITimeout      time.Duration `envconfig:"ODDS_API_TIMEOUT" default:"10s"`
	OddsAPIEventTimeout time.Duration `envconfig:"ODDS_API_EVENT_TIMEOUT" default:"15s"`
	OddsAPIRateLimit    float64       `envconfig:"ODDS_API_RATE_LIMIT" default:"5"` // requests per second
	OddsAPIBurst        int           `envconfig:"ODDS_API_BURST" default:"5"`

	// NBA stats (rosters)
	NBAStatsBaseURL string        `envconfig:"NBA_STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	NBASeason       string        `envconfig:"NBA_SEASON" default:"2025-26"`
	NBAStatsTimeout time.Duration `envconfig:"NBA_STATS_TIMEOUT" default:"30s"`
	RosterCacheTTL  time.Duration `envconfig:"ROSTER_CACHE_TTL" default:"24h"`

	// Storage
	DataDir  string `envconfig:"DATA_DIR" default:"data"`
	ModelDir string `envconfig:"MODEL_DIR" default:"models"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"openbet"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"openbet"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Caching TTL (in seconds)
	CacheTTLOdds int `envconfig:"CACHE_TTL_ODDS" default:"60"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP API
	ServerPort  int    `envconfig:"SERVER_PORT" default:"5000"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	// How often the server checks the model directory for retrained artifacts
	ModelReloadInterval time.Duration `envconfig:"MODEL_RELOAD_INTERVAL" default:"5m"`

	// Google sign-in
	GoogleClientID string `envconfig:"GOOGLE_CLIENT_ID" default:""`
	GoogleCertsURL string `envconfig:"GOOGLE_CERTS_URL" default:"https://www.googleapis.com/oauth2/v3/certs"`

	// Pipeline
	NightlyPipelineCron string  `envconfig:"NIGHTLY_PIPELINE_CRON" default:"0 9 * * *"`
	RunPipelineOnStart  bool    `envconfig:"RUN_PIPELINE_ON_START" default:"false"`
	EnablePlayerModel   bool    `envconfig:"ENABLE_PLAYER_MODEL" default:"true"`
	PropsSideMode       string  `envconfig:"PROPS_SIDE_MODE" default:"resolved"`
	BacktestStartDate   string  `envconfig:"BACKTEST_START_DATE" default:"2024-11-01"`
	PlayerHistoryStart  string  `envconfig:"PLAYER_HISTORY_START" default:"2022-10-01"`
	PlayerTrainStart    string  `envconfig:"PLAYER_TRAIN_START" default:"2023-10-01"`
	ArbitrageBankroll   float64 `envconfig:"ARBITRAGE_BANKROLL" default:"100"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OddsAPIKey == "" {
		return fmt.Errorf("ODDS_API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.PropsSideMode != PropsSideResolved && c.PropsSideMode != PropsSideBoth {
		return fmt.Errorf("PROPS_SIDE_MODE must be %q or %q, got %q", PropsSideResolved, PropsSideBoth, c.PropsSideMode)
	}

	for key, value := range map[string]string{
		"BACKTEST_START_DATE":  c.BacktestStartDate,
		"PLAYER_HISTORY_START": c.PlayerHistoryStart,
		"PLAYER_TRAIN_START":   c.PlayerTrainStart,
	} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return fmt.Errorf("%s must be YYYY-MM-DD: %w", key, err)
		}
	}

	if c.ModelReloadInterval <= 0 {
		return fmt.Errorf("MODEL_RELOAD_INTERVAL must be positive")
	}

	if c.ArbitrageBankroll <= 0 {
		return fmt.Errorf("ARBITRAGE_BANKROLL must be positive")
	}

	if c.IsProduction() && c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required in production")
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// BoxScoreDir is where the downloaded box-score CSVs live.
func (c *Config) BoxScoreDir() string {
	return filepath.Join(c.DataDir, "box_scores")
}

// OddsCacheTTL returns the upstream odds cache lifetime.
func (c *Config) OddsCacheTTL() time.Duration {
	return time.Duration(c.CacheTTLOdds) * time.Second
}

// Date parses one of the YYYY-MM-DD settings. Empty values yield the zero time.
func Date(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
