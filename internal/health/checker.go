// Package health probes the portal's dependencies for the readiness endpoint.
package health

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Checker probes one dependency
type Checker interface {
	// Type returns the dependency kind
	Type() string

	// HealthCheck returns nil when the dependency is usable
	HealthCheck(ctx context.Context) error
}

// BaseChecker provides common functionality for checkers
type BaseChecker struct {
	checkerType string
}

// Type returns the dependency kind
func (c *BaseChecker) Type() string {
	return c.checkerType
}

// PostgresChecker runs a trivial query over database/sql
type PostgresChecker struct {
	BaseChecker
	db *sql.DB
}

// NewPostgresChecker opens a dedicated probe connection
func NewPostgresChecker(dsn string) (*PostgresChecker, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(1)
	return NewPostgresCheckerFromDB(db), nil
}

// NewPostgresCheckerFromDB wraps an existing handle
func NewPostgresCheckerFromDB(db *sql.DB) *PostgresChecker {
	return &PostgresChecker{BaseChecker: BaseChecker{checkerType: "postgres"}, db: db}
}

// HealthCheck verifies the database answers and the drafts table exists
func (c *PostgresChecker) HealthCheck(ctx context.Context) error {
	var exists bool
	err := c.db.QueryRowContext(ctx, `SELECT to_regclass('public.intake_drafts') IS NOT NULL`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("postgres unavailable: %w", err)
	}
	if !exists {
		return fmt.Errorf("postgres schema not migrated")
	}
	return nil
}

// Close closes the probe connection
func (c *PostgresChecker) Close() error {
	return c.db.Close()
}

// RedisChecker pings redis
type RedisChecker struct {
	BaseChecker
	client *redis.Client
}

// NewRedisChecker wraps a redis client
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{BaseChecker: BaseChecker{checkerType: "redis"}, client: client}
}

// HealthCheck verifies redis connectivity
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Pinger is anything with a context-aware health call
type Pinger interface {
	Health(ctx context.Context) error
}

// BackendChecker calls the marketplace backend health endpoint
type BackendChecker struct {
	BaseChecker
	backend Pinger
}

// NewBackendChecker wraps the backend SDK
func NewBackendChecker(backend Pinger) *BackendChecker {
	return &BackendChecker{BaseChecker: BaseChecker{checkerType: "backend"}, backend: backend}
}

// HealthCheck verifies the backend answers
func (c *BackendChecker) HealthCheck(ctx context.Context) error {
	return c.backend.Health(ctx)
}
