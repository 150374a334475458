package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "test-key")
	t.Setenv("DATABASE_PASSWORD", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "basketball_nba", cfg.OddsAPISport)
	assert.Equal(t, 10*time.Second, cfg.OddsAPITimeout)
	assert.Equal(t, 15*time.Second, cfg.OddsAPIEventTimeout)
	assert.Equal(t, PropsSideResolved, cfg.PropsSideMode)
	assert.Equal(t, 100.0, cfg.ArbitrageBankroll)
	assert.Equal(t, 24*time.Hour, cfg.RosterCacheTTL)
	assert.Equal(t, "data/box_scores", cfg.BoxScoreDir())
	assert.Equal(t, time.Minute, cfg.OddsCacheTTL())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, 5*time.Minute, cfg.ModelReloadInterval)
}

func TestLoad_MissingKey(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "")
	t.Setenv("DATABASE_PASSWORD", "secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			OddsAPIKey:          "k",
			DatabasePassword:    "p",
			PropsSideMode:       PropsSideBoth,
			BacktestStartDate:   "2024-11-01",
			ArbitrageBankroll:   100,
			ModelReloadInterval: time.Minute,
			AppEnv:              "development",
		}
	}

	c := valid()
	assert.NoError(t, c.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad side mode", func(c *Config) { c.PropsSideMode = "home" }},
		{"no reload interval", func(c *Config) { c.ModelReloadInterval = 0 }},
		{"bad date", func(c *Config) { c.PlayerTrainStart = "10/01/2023" }},
		{"zero bankroll", func(c *Config) { c.ArbitrageBankroll = 0 }},
		{"production without client id", func(c *Config) { c.AppEnv = "production" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), Date("2024-11-01"))
	assert.True(t, Date("").IsZero())
}
