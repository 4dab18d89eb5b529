// Package postgres provides the shared project store backed by PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/store/codec"
	"github.com/wonny/quantum/pkg/database"
)

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS quantum;
	CREATE TABLE IF NOT EXISTS quantum.projects (
		url           TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		source        TEXT NOT NULL,
		verdict       TEXT NOT NULL,
		score_global  DOUBLE PRECISION NOT NULL,
		payload       JSONB NOT NULL,
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_scan_at  TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	ALTER TABLE quantum.projects ADD COLUMN IF NOT EXISTS name_key TEXT NOT NULL DEFAULT '';
	DROP INDEX IF EXISTS quantum.projects_lower_name_idx;
	CREATE INDEX IF NOT EXISTS projects_name_key_idx ON quantum.projects (name_key);
	CREATE INDEX IF NOT EXISTS projects_verdict_idx ON quantum.projects (verdict);
`

// Store implements contracts.Store on quantum.projects
// ⭐ SSOT: projects table is written here only
type Store struct {
	db *database.DB
}

// New ensures the schema and returns the store; the store owns db afterwards
func New(ctx context.Context, db *database.DB) (*Store, error) {
	if _, err := db.Pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("%w: ensure schema: %v", contracts.ErrStore, err)
	}
	return &Store{db: db}, nil
}

// Seen reports whether url has a record
func (s *Store) Seen(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quantum.projects WHERE url = $1)`, url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: seen: %v", contracts.ErrStore, err)
	}
	return exists, nil
}

// Upsert inserts or replaces the record for rec.URL
func (s *Store) Upsert(ctx context.Context, rec *contracts.ProjectRecord) error {
	if err := codec.CheckUpsert(ctx, rec); err != nil {
		return err
	}
	payload, err := codec.Encode(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO quantum.projects (url, name, name_key, source, verdict, score_global, payload, first_seen_at, last_scan_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			name_key = EXCLUDED.name_key,
			source = EXCLUDED.source,
			verdict = EXCLUDED.verdict,
			score_global = EXCLUDED.score_global,
			payload = EXCLUDED.payload,
			first_seen_at = EXCLUDED.first_seen_at,
			last_scan_at = EXCLUDED.last_scan_at,
			updated_at = now()
	`

	_, err = s.db.Pool.Exec(ctx, query,
		rec.URL, rec.Name, codec.NameKey(rec.Name), rec.Source, string(rec.Decision.Verdict), rec.Decision.Score,
		payload, rec.FirstSeenAt, rec.LastScanAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", contracts.ErrStore, rec.URL, err)
	}
	return nil
}

// GetAll returns every record ordered by first sighting, then url
func (s *Store) GetAll(ctx context.Context) ([]contracts.ProjectRecord, error) {
	return s.query(ctx, `
		SELECT payload FROM quantum.projects
		ORDER BY first_seen_at ASC, url ASC
	`)
}

// GetByName returns records whose name matches case-insensitively, ignoring surrounding whitespace
func (s *Store) GetByName(ctx context.Context, name string) ([]contracts.ProjectRecord, error) {
	key := codec.NameKey(name)
	if key == "" {
		return nil, nil
	}
	return s.query(ctx, `
		SELECT payload FROM quantum.projects
		WHERE name_key = $1
		ORDER BY first_seen_at ASC, url ASC
	`, key)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]contracts.ProjectRecord, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", contracts.ErrStore, err)
	}
	defer rows.Close()

	var out []contracts.ProjectRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", contracts.ErrStore, err)
		}
		rec, err := codec.Decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", contracts.ErrStore, err)
	}
	return out, nil
}

// HealthCheck reports pool health
func (s *Store) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return s.db.HealthCheck(ctx)
}

// Close closes the pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

var _ contracts.Store = (*Store)(nil)
