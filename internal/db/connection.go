// Package db opens the Postgres connection pool the scraper writes layer maps through.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/layermap-scraper/internal/config"
)

const (
	defaultMaxConns        = 8
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnectTimeout  = 10 * time.Second

	// pingMaxElapsed bounds how long startup waits for the database to accept connections
	pingMaxElapsed = 2 * time.Minute
)

// PoolOption customizes pool creation
type PoolOption func(*poolOptions)

type poolOptions struct {
	maxElapsed time.Duration
}

// WithPingMaxElapsed overrides how long NewPool keeps retrying the initial ping
func WithPingMaxElapsed(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.maxElapsed = d
	}
}

// NewPool creates a pgx connection pool from the provided configuration and
// waits, with exponential backoff, until the database answers a ping.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig, opts ...PoolOption) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	o := &poolOptions{maxElapsed: pingMaxElapsed}
	for _, opt := range opts {
		opt(o)
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(o.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Database not ready, retrying",
				"host", cfg.Host,
				"retry_in", next,
				"error", err,
			)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connection established",
		"user", cfg.User,
		"host", cfg.Host,
		"port", cfg.GetPort(),
		"database", cfg.Database,
	)

	return pool, nil
}

func poolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	connStr, err := cfg.GetConnectionString()
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	poolCfg.MaxConnLifetime = defaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid connection max lifetime: %w", err)
		}
		poolCfg.MaxConnLifetime = lifetime
	}

	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return poolCfg, nil
}
