// Package sqlite implements the execution journal on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fd1az/defi-trader/business/execution/app"
	"github.com/fd1az/defi-trader/business/execution/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS execution_records (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    subject     TEXT NOT NULL,
    operator    TEXT NOT NULL DEFAULT '',
    amount_in   TEXT NOT NULL DEFAULT '',
    amount_out  TEXT NOT NULL DEFAULT '',
    tx_hash     TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    gas_used    INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_execution_records_started_at ON execution_records (started_at);
`

var _ app.Journal = (*Journal)(nil)

// Journal stores execution records in a SQLite file.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One writer; the engine never journals concurrently anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record inserts rec.
func (j *Journal) Record(ctx context.Context, rec *domain.Record) error {
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = rec.StartedAt
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO execution_records (id, kind, subject, operator, amount_in, amount_out, tx_hash, status, gas_used, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), string(rec.Kind), rec.Subject, rec.Operator,
		rec.AmountIn, rec.AmountOut, rec.TxHash, string(rec.Status),
		int64(rec.GasUsed), rec.Error,
		rec.StartedAt.UnixMilli(), finished.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert execution_record %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, kind, subject, operator, amount_in, amount_out, tx_hash, status, gas_used, error, started_at, finished_at
		FROM execution_records ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query execution_records: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			rec              domain.Record
			id, kind, status string
			gasUsed          int64
			started, ended   int64
		)
		if err := rows.Scan(&id, &kind, &rec.Subject, &rec.Operator, &rec.AmountIn, &rec.AmountOut,
			&rec.TxHash, &status, &gasUsed, &rec.Error, &started, &ended); err != nil {
			return nil, fmt.Errorf("sqlite: scan execution_record: %w", err)
		}
		if err := rec.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("sqlite: bad record id %q: %w", id, err)
		}
		rec.Kind = domain.Kind(kind)
		rec.Status = domain.Status(status)
		rec.GasUsed = uint64(gasUsed)
		rec.StartedAt = time.UnixMilli(started)
		rec.FinishedAt = time.UnixMilli(ended)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Ping checks the database.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
