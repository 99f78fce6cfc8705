// Package postgres stores player profiles in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/config"
)

// applicationName tags every session in pg_stat_activity.
const applicationName = "udderworld"

// Pool is the connection pool player storage runs on.
type Pool struct {
	db            *pgxpool.Pool
	healthTimeout time.Duration
	logger        *zap.Logger
}

// Open connects to the database in cfg and refuses to return until it has
// answered a health check within cfg.HealthTimeout.
//
// Precondition: cfg has passed config validation; logger must be non-nil.
// Postcondition: Returns a healthy Pool that must be closed, or a non-nil error.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	p := &Pool{db: db, healthTimeout: cfg.HealthTimeout, logger: logger}
	latency, err := p.Health(ctx)
	if err != nil {
		db.Close()
		logger.Error("database health check failed",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Duration("timeout", cfg.HealthTimeout),
			zap.Error(err),
		)
		return nil, fmt.Errorf("database health check on %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	logger.Info("database healthy",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Duration("latency", latency),
	)
	return p, nil
}

// Health pings the database, giving up after the configured timeout.
//
// Postcondition: Returns the round-trip latency, or a non-nil error.
func (p *Pool) Health(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.healthTimeout)
	defer cancel()
	start := time.Now()
	if err := p.db.Ping(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Players returns the player repository backed by this pool.
func (p *Pool) Players() *PlayerRepository {
	return &PlayerRepository{db: p.db}
}

// Close releases every connection. The pool and its repositories are
// unusable afterwards.
func (p *Pool) Close() {
	p.db.Close()
}
