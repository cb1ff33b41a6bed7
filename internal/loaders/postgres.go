package loaders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fourteentrees/flow-gateway/internal/utils"
)

var (
	// ErrNoDatabase is returned by every query when DATABASE_URL was not configured.
	ErrNoDatabase = errors.New("database not configured")
	ErrNotFound   = errors.New("record not found")
)

type PostgresClient struct {
	dsn  string
	pool *pgxpool.Pool
}

func NewPostgresClient(dsn string, workerCount int) (*PostgresClient, error) {
	client := &PostgresClient{
		dsn: dsn,
	}

	pool, err := client.createConnectionPool(workerCount)
	if err != nil {
		return nil, err
	}

	client.pool = pool
	utils.Zlog.Info("Connected to PostgreSQL", zap.Int32("max_conns", pool.Config().MaxConns))
	return client, nil
}

func (c *PostgresClient) createConnectionPool(workerCount int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Postgres DSN: %w", err)
	}

	cfg.MaxConns = int32(workerCount) + 2
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = 60 * time.Minute
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	return pool, nil
}

func (c *PostgresClient) Close() error {
	if c != nil && c.pool != nil {
		c.pool.Close()
	}
	return nil
}

// Ping reports whether the pool can reach the database.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if c == nil || c.pool == nil {
		return ErrNoDatabase
	}
	return c.pool.Ping(ctx)
}

func (c *PostgresClient) ready() error {
	if c == nil || c.pool == nil {
		return ErrNoDatabase
	}
	return nil
}
