package capture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	_ "modernc.org/sqlite"
)

const prefillFlag = "qis_prefill_pending"

// SQLiteStore is the default Store, one database file per installation.
type SQLiteStore struct {
	db           *sql.DB
	historyLimit int
	dbPath       string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, limit int) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	dbPath, err := expandHome(dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, historyLimit: historyLimit(limit), dbPath: dbPath}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		item_count INTEGER NOT NULL DEFAULT 0,
		agent_name TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_captures_kind_seq ON captures(kind, seq);

	CREATE TABLE IF NOT EXISTS flags (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return migrateSQLiteSchema(db)
}

// migrateSQLiteSchema adds columns introduced after the first release;
// "duplicate column name" means the column is already there.
func migrateSQLiteSchema(db *sql.DB) error {
	migrations := []string{
		"agent_name TEXT NOT NULL DEFAULT ''",
		"source TEXT NOT NULL DEFAULT ''",
	}
	for _, colDef := range migrations {
		if _, err := db.Exec("ALTER TABLE captures ADD COLUMN " + colDef); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration failed for [%s]: %w", colDef, err)
		}
		log.Infof("Added column %s to captures table", strings.Fields(colDef)[0])
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, c Capture) (Capture, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Capture{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO captures (id, kind, payload, item_count, agent_name, source, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Kind), c.Payload, c.Count, c.AgentName, c.Source, c.CreatedAt.UnixNano())
	if err != nil {
		return Capture{}, fmt.Errorf("insert capture: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM captures WHERE kind = ? AND seq NOT IN (SELECT seq FROM captures WHERE kind = ? ORDER BY seq DESC LIMIT ?)`,
		string(c.Kind), string(c.Kind), s.historyLimit)
	if err != nil {
		return Capture{}, fmt.Errorf("trim history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Capture{}, err
	}
	return c, nil
}

const sqliteColumns = `id, kind, payload, item_count, agent_name, source, created_at`

func (s *SQLiteStore) Latest(ctx context.Context, kind Kind) (Capture, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM captures WHERE kind = ? ORDER BY seq DESC LIMIT 1`, string(kind))
	c, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Capture{}, ErrNotFound
	}
	return c, err
}

func (s *SQLiteStore) History(ctx context.Context, kind Kind, limit int) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM captures WHERE kind = ? ORDER BY seq DESC LIMIT ?`, string(kind), historyLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		c, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context, kind Kind) error {
	var err error
	if kind == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM captures`)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM captures WHERE kind = ?`, string(kind))
	}
	if err != nil {
		return err
	}
	return s.SetPrefillPending(ctx, false)
}

func (s *SQLiteStore) SetPrefillPending(ctx context.Context, pending bool) error {
	v := 0
	if pending {
		v = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flags (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		prefillFlag, v)
	return err
}

func (s *SQLiteStore) ConsumePrefill(ctx context.Context) (Prefill, bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE flags SET value = 0 WHERE name = ? AND value = 1`, prefillFlag)
	if err != nil {
		return Prefill{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Prefill{}, false, nil
	}
	p, err := loadPrefill(ctx, s)
	return p, err == nil, err
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (Capture, error) {
	var c Capture
	var kind string
	var created int64
	if err := row.Scan(&c.ID, &kind, &c.Payload, &c.Count, &c.AgentName, &c.Source, &created); err != nil {
		return Capture{}, err
	}
	c.Kind = Kind(kind)
	c.CreatedAt = time.Unix(0, created).UTC()
	return c, nil
}

// loadPrefill reads the latest capture of each kind from st.
func loadPrefill(ctx context.Context, st Store) (Prefill, error) {
	var p Prefill
	for _, kind := range []Kind{KindTools, KindMessages} {
		c, err := st.Latest(ctx, kind)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Prefill{}, err
		}
		if kind == KindTools {
			p.Tools = &c
		} else {
			p.Messages = &c
		}
	}
	return p, nil
}
