// Package postgres opens and tunes the sqlx connection pool backing the
// linklytics store and applies its schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// poolSettings is the pool tuning applied to every new connection pool.
// Options override individual fields before the pool is dialed.
type poolSettings struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
}

var defaultPoolSettings = poolSettings{
	connMaxIdleTime: 5 * time.Minute,
	connMaxLifetime: 30 * time.Minute,
	maxIdleConns:    5,
	maxOpenConns:    25,
}

type Option func(*poolSettings)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(s *poolSettings) {
		s.connMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *poolSettings) {
		s.connMaxLifetime = d
	}
}

func WithMaxIdleConns(n int) Option {
	return func(s *poolSettings) {
		s.maxIdleConns = n
	}
}

func WithMaxOpenConns(n int) Option {
	return func(s *poolSettings) {
		s.maxOpenConns = n
	}
}

// New connects to the database at dsn over the pgx stdlib driver and applies
// the resolved pool settings. The connection is verified with a ping before
// it is returned.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	settings := defaultPoolSettings
	for _, opt := range opts {
		opt(&settings)
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetConnMaxIdleTime(settings.connMaxIdleTime)
	db.SetConnMaxLifetime(settings.connMaxLifetime)
	db.SetMaxIdleConns(settings.maxIdleConns)
	db.SetMaxOpenConns(settings.maxOpenConns)

	return db, nil
}
