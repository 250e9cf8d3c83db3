// Package postgres provides a PostgreSQL-backed [report.Store].
//
// Reports are stored as one row per report with the per-question results in a
// JSONB column; listing scans them back out. [Migrate] is idempotent and runs
// automatically on [NewStore], so the store is safe to point at a fresh
// database.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/report"
)

// Compile-time interface check.
var _ report.Store = (*Store)(nil)

const ddlReports = `
CREATE TABLE IF NOT EXISTS reports (
    id         TEXT         PRIMARY KEY,
    owner_key  TEXT         NOT NULL DEFAULT '',
    ts         TIMESTAMPTZ  NOT NULL,
    type       TEXT         NOT NULL DEFAULT '',
    overall    INT          NOT NULL DEFAULT 0,
    results    JSONB        NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_reports_owner_ts
    ON reports (owner_key, ts DESC);
`

// Store persists interview reports in PostgreSQL. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("report postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("report postgres: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("report postgres: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the reports table and index if they do not exist. Idempotent
// and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlReports); err != nil {
		return fmt.Errorf("report postgres: migrate: %w", err)
	}
	return nil
}

// Save implements [report.Store]. Saving the same report ID twice overwrites
// the previous row, so a retried save is harmless.
func (s *Store) Save(ctx context.Context, rep *interview.Report, ownerKey string) error {
	if rep == nil {
		return fmt.Errorf("report postgres: save: nil report")
	}
	results, err := json.Marshal(rep.Results)
	if err != nil {
		return fmt.Errorf("report postgres: marshal results: %w", err)
	}

	const q = `
		INSERT INTO reports (id, owner_key, ts, type, overall, results)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET owner_key = EXCLUDED.owner_key,
		    ts        = EXCLUDED.ts,
		    type      = EXCLUDED.type,
		    overall   = EXCLUDED.overall,
		    results   = EXCLUDED.results`

	_, err = s.pool.Exec(ctx, q, rep.ID, ownerKey, rep.Timestamp, string(rep.Type), rep.OverallScore, results)
	if err != nil {
		return fmt.Errorf("report postgres: save: %w", err)
	}
	return nil
}

// List implements [report.Store]. Returns the owner's reports newest first.
func (s *Store) List(ctx context.Context, ownerKey string) ([]*interview.Report, error) {
	const q = `
		SELECT id, ts, type, overall, results
		FROM   reports
		WHERE  owner_key = $1
		ORDER  BY ts DESC`

	rows, err := s.pool.Query(ctx, q, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("report postgres: list: %w", err)
	}

	reports, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*interview.Report, error) {
		var (
			rep     interview.Report
			typ     string
			results []byte
		)
		if err := row.Scan(&rep.ID, &rep.Timestamp, &typ, &rep.OverallScore, &results); err != nil {
			return nil, err
		}
		rep.Type = interview.SessionType(typ)
		if err := json.Unmarshal(results, &rep.Results); err != nil {
			return nil, fmt.Errorf("parse results: %w", err)
		}
		return &rep, nil
	})
	if err != nil {
		return nil, fmt.Errorf("report postgres: scan rows: %w", err)
	}
	if reports == nil {
		reports = []*interview.Report{}
	}
	return reports, nil
}

// Ping checks database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
