package repository

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"openbet/backend/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Pool sizing for the API server and the pipeline worker. Both are light
// users: sign-in, discussion threads and one prediction batch per night.
const (
	defaultMaxConns = 10
	defaultMinConns = 2
)

// Database owns the Postgres pool behind user profiles, discussion threads
// and the prediction archive.
type Database struct {
	Pool *pgxpool.Pool

	Users       *UserRepository
	Discussions *DiscussionRepository
	Predictions *PredictionRepository
}

// Config holds Postgres connection settings
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN renders cfg as a postgres:// URL. Credentials are escaped.
func (cfg Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// NewDatabase opens the pool, pings it and attaches the repositories
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	poolConfig.MinConns = defaultMinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Connected to openbet database")

	db := &Database{Pool: pool}
	db.Users = &UserRepository{db: db}
	db.Discussions = &DiscussionRepository{db: db}
	db.Predictions = &PredictionRepository{db: db}
	return db, nil
}

// Close releases the pool. Safe on a partially built Database.
func (db *Database) Close() {
	if db.Pool == nil {
		return
	}
	db.Pool.Close()
	log.Info().Msg("Database pool closed")
}

// Health pings Postgres for /health, bounded to two seconds.
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	Total    int32
	Acquired int32
	Idle     int32
	Max      int32
}

// PoolStats snapshots the pool and publishes the connection gauges.
func (db *Database) PoolStats() PoolStats {
	stat := db.Pool.Stat()
	metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())
	return PoolStats{
		Total:    stat.TotalConns(),
		Acquired: stat.AcquiredConns(),
		Idle:     stat.IdleConns(),
		Max:      stat.MaxConns(),
	}
}

// observe records a query's outcome
func observe(operation, table string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordDBQuery(operation, table, status, time.Since(start).Seconds())
}
