// Package postgres implements the execution journal on PostgreSQL via pgx.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fd1az/defi-trader/business/execution/app"
	"github.com/fd1az/defi-trader/business/execution/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds connection parameters.
type Config struct {
	DSN      string
	MaxConns int
}

var _ app.Journal = (*Journal)(nil)

// Journal stores execution records in the execution_records table.
type Journal struct {
	pool *pgxpool.Pool
}

// New connects, pings and applies pending migrations.
func New(ctx context.Context, cfg Config) (*Journal, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	j := &Journal{pool: pool}
	if err := j.RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return j, nil
}

// RunMigrations applies the embedded SQL files in lexicographic order and
// tracks them in schema_migrations.
func (j *Journal) RunMigrations(ctx context.Context) error {
	const createTracker = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`
	if _, err := j.pool.Exec(ctx, createTracker); err != nil {
		return fmt.Errorf("postgres: create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: read migrations dir: %w", err)
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Name() < entries[b].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var exists bool
		err := j.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)",
			entry.Name(),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("postgres: check migration %s: %w", entry.Name(), err)
		}
		if exists {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("postgres: read migration %s: %w", entry.Name(), err)
		}

		tx, err := j.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("postgres: begin tx for %s: %w", entry.Name(), err)
		}
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: exec migration %s: %w", entry.Name(), err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (filename) VALUES ($1)",
			entry.Name(),
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: record migration %s: %w", entry.Name(), err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("postgres: commit migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// Record inserts rec.
func (j *Journal) Record(ctx context.Context, rec *domain.Record) error {
	_, err := j.pool.Exec(ctx, `
		INSERT INTO execution_records (id, kind, subject, operator, amount_in, amount_out, tx_hash, status, gas_used, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, string(rec.Kind), rec.Subject, rec.Operator,
		nullableNumeric(rec.AmountIn), nullableNumeric(rec.AmountOut),
		rec.TxHash, string(rec.Status), int64(rec.GasUsed), rec.Error,
		rec.StartedAt, finishedAt(rec),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert execution_record %s: %w", rec.ID, err)
	}
	return nil
}

// Ping checks the connection.
func (j *Journal) Ping(ctx context.Context) error {
	return j.pool.Ping(ctx)
}

// Close shuts down the pool.
func (j *Journal) Close() error {
	j.pool.Close()
	return nil
}

func nullableNumeric(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func finishedAt(rec *domain.Record) time.Time {
	if rec.FinishedAt.IsZero() {
		return rec.StartedAt
	}
	return rec.FinishedAt
}
