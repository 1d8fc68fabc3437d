package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps captures in a shared database so several generator
// instances see the same payloads.
type PostgresStore struct {
	pool         *pgxpool.Pool
	captures     string
	flags        string
	historyLimit int
}

// NewPostgresStore connects to dsn and creates the tables in schema
// ("public" when empty).
func NewPostgresStore(ctx context.Context, dsn, schema string, limit int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if strings.TrimSpace(schema) == "" {
		schema = "public"
	}
	s := &PostgresStore{
		pool:         pool,
		captures:     pgx.Identifier{schema, "captures"}.Sanitize(),
		flags:        pgx.Identifier{schema, "capture_flags"}.Sanitize(),
		historyLimit: historyLimit(limit),
	}
	if err := s.migrate(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context, schema string) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + s.captures + ` (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			item_count INTEGER NOT NULL DEFAULT 0,
			agent_name TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS captures_kind_seq_idx ON ` + s.captures + ` (kind, seq)`,
		`CREATE TABLE IF NOT EXISTS ` + s.flags + ` (
			name TEXT PRIMARY KEY,
			value BOOLEAN NOT NULL DEFAULT false
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, c Capture) (Capture, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Capture{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO `+s.captures+` (id, kind, payload, item_count, agent_name, source, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, string(c.Kind), c.Payload, c.Count, c.AgentName, c.Source, c.CreatedAt)
	if err != nil {
		return Capture{}, fmt.Errorf("insert capture: %w", err)
	}
	_, err = tx.Exec(ctx,
		`DELETE FROM `+s.captures+` WHERE kind = $1 AND seq NOT IN (SELECT seq FROM `+s.captures+` WHERE kind = $1 ORDER BY seq DESC LIMIT $2)`,
		string(c.Kind), s.historyLimit)
	if err != nil {
		return Capture{}, fmt.Errorf("trim history: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Capture{}, err
	}
	return c, nil
}

const pgColumns = `id, kind, payload, item_count, agent_name, source, created_at`

func (s *PostgresStore) Latest(ctx context.Context, kind Kind) (Capture, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgColumns+` FROM `+s.captures+` WHERE kind = $1 ORDER BY seq DESC LIMIT 1`, string(kind))
	c, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Capture{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) History(ctx context.Context, kind Kind, limit int) ([]Capture, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgColumns+` FROM `+s.captures+` WHERE kind = $1 ORDER BY seq DESC LIMIT $2`, string(kind), historyLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		c, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Clear(ctx context.Context, kind Kind) error {
	var err error
	if kind == "" {
		_, err = s.pool.Exec(ctx, `DELETE FROM `+s.captures)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM `+s.captures+` WHERE kind = $1`, string(kind))
	}
	if err != nil {
		return err
	}
	return s.SetPrefillPending(ctx, false)
}

func (s *PostgresStore) SetPrefillPending(ctx context.Context, pending bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.flags+` (name, value) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
		prefillFlag, pending)
	return err
}

func (s *PostgresStore) ConsumePrefill(ctx context.Context) (Prefill, bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE `+s.flags+` SET value = false WHERE name = $1 AND value`, prefillFlag)
	if err != nil {
		return Prefill{}, false, err
	}
	if tag.RowsAffected() == 0 {
		return Prefill{}, false, nil
	}
	p, err := loadPrefill(ctx, s)
	return p, err == nil, err
}

func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func scanPostgres(row pgx.Row) (Capture, error) {
	var c Capture
	var kind string
	if err := row.Scan(&c.ID, &kind, &c.Payload, &c.Count, &c.AgentName, &c.Source, &c.CreatedAt); err != nil {
		return Capture{}, err
	}
	c.Kind = Kind(kind)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}
