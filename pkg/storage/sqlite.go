package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"helios-hq/relay/pkg/accounts"
)

const schema = `
CREATE TABLE IF NOT EXISTS account_usage (
    account_id  TEXT PRIMARY KEY,
    bytes_in    INTEGER NOT NULL DEFAULT 0,
    bytes_out   INTEGER NOT NULL DEFAULT 0,
    requests    INTEGER NOT NULL DEFAULT 0,
    last_used   INTEGER NOT NULL DEFAULT 0,
    health      TEXT NOT NULL DEFAULT 'active',
    updated_at  INTEGER NOT NULL
);
`

const upsertUsage = `
INSERT INTO account_usage (account_id, bytes_in, bytes_out, requests, last_used, health, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(account_id) DO UPDATE SET
    bytes_in   = excluded.bytes_in,
    bytes_out  = excluded.bytes_out,
    requests   = excluded.requests,
    last_used  = excluded.last_used,
    health     = excluded.health,
    updated_at = excluded.updated_at;
`

const selectUsage = `
SELECT account_id, bytes_in, bytes_out, requests, last_used
FROM account_usage;
`

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long a locked database is retried before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// SQLite is a Backend over a single SQLite database file. WAL mode keeps
// snapshot writes from blocking concurrent reads.
type SQLite struct {
	db     *sql.DB
	save   *sql.Stmt
	logger *slog.Logger
}

// NewSQLite opens (creating if needed) the database at cfg.Path and prepares
// the snapshot statements.
func NewSQLite(cfg SQLiteConfig, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, &BackendError{Backend: "sqlite", Op: "open", Err: err}
	}

	// A single writer keeps SQLite's locking out of the picture.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, &BackendError{Backend: "sqlite", Op: "enable_wal", Err: err}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, &BackendError{Backend: "sqlite", Op: "set_busy_timeout", Err: err}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &BackendError{Backend: "sqlite", Op: "create_schema", Err: err}
	}

	save, err := db.Prepare(upsertUsage)
	if err != nil {
		db.Close()
		return nil, &BackendError{Backend: "sqlite", Op: "prepare", Err: err}
	}

	logger.Info("sqlite snapshot store opened", "path", cfg.Path)
	return &SQLite{db: db, save: save, logger: logger}, nil
}

// SaveSnapshot implements Backend. All rows are written in one transaction
// so a restored snapshot is never a mix of two ticks.
func (s *SQLite) SaveSnapshot(ctx context.Context, states []accounts.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &BackendError{Backend: "sqlite", Op: "begin", Err: err}
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	stmt := tx.StmtContext(ctx, s.save)
	for _, st := range states {
		_, err := stmt.ExecContext(ctx,
			st.Account.ID,
			st.Usage.BytesIn,
			st.Usage.BytesOut,
			st.Usage.Requests,
			st.Usage.LastUsed.Unix(),
			string(st.Health),
			now,
		)
		if err != nil {
			return &BackendError{Backend: "sqlite", Op: "save_snapshot", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &BackendError{Backend: "sqlite", Op: "commit", Err: err}
	}
	return nil
}

// LoadUsage implements Backend.
func (s *SQLite) LoadUsage(ctx context.Context) (map[string]accounts.UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectUsage)
	if err != nil {
		return nil, &BackendError{Backend: "sqlite", Op: "load_usage", Err: err}
	}
	defer rows.Close()

	records := make(map[string]accounts.UsageRecord)
	for rows.Next() {
		var (
			id       string
			rec      accounts.UsageRecord
			lastUsed int64
		)
		if err := rows.Scan(&id, &rec.BytesIn, &rec.BytesOut, &rec.Requests, &lastUsed); err != nil {
			return nil, &BackendError{Backend: "sqlite", Op: "scan", Err: err}
		}
		if lastUsed > 0 {
			rec.LastUsed = time.Unix(lastUsed, 0)
		}
		records[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, &BackendError{Backend: "sqlite", Op: "load_usage", Err: err}
	}

	if len(records) == 0 {
		return nil, ErrNoSnapshot
	}
	return records, nil
}

// Close implements Backend.
func (s *SQLite) Close() error {
	s.save.Close()
	return s.db.Close()
}
