package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/io-sea/wfm-engine/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	workflow_name TEXT NOT NULL,
	user_name TEXT NOT NULL,
	start_ts INTEGER NOT NULL,
	end_ts INTEGER,
	status TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_session_active_identity
	ON session(name, workflow_name, user_name)
	WHERE status != 'STOPPED';

CREATE TABLE IF NOT EXISTS service (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES session(id),
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	location TEXT,
	targets TEXT,
	flavor TEXT,
	namespace TEXT,
	mountpoint TEXT,
	storagesize TEXT,
	datanodes INTEGER NOT NULL DEFAULT 1,
	start_ts INTEGER,
	end_ts INTEGER,
	status TEXT NOT NULL,
	jobid INTEGER NOT NULL DEFAULT -1
);
CREATE INDEX IF NOT EXISTS idx_service_session ON service(session_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_service_name ON service(name);

CREATE TABLE IF NOT EXISTS step_description (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES session(id),
	service_id INTEGER NOT NULL DEFAULT 0,
	name TEXT NOT NULL,
	command TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_stepdesc_session_name ON step_description(session_id, name);

CREATE TABLE IF NOT EXISTS step_instance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	step_description_id INTEGER NOT NULL REFERENCES step_description(id),
	instance_name TEXT NOT NULL,
	start_ts INTEGER NOT NULL,
	stop_ts INTEGER,
	status TEXT NOT NULL,
	progress TEXT,
	jobid INTEGER NOT NULL DEFAULT -1,
	command TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_stepinstance_name ON step_instance(instance_name);
CREATE INDEX IF NOT EXISTS idx_stepinstance_stepdesc ON step_instance(step_description_id);
CREATE INDEX IF NOT EXISTS idx_stepinstance_jobid ON step_instance(jobid);

CREATE TABLE IF NOT EXISTS namespace_lock (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	namespace TEXT NOT NULL,
	service_name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_namespacelock_namespace ON namespace_lock(namespace);

CREATE TABLE IF NOT EXISTS activity_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	object_type TEXT NOT NULL,
	object_id INTEGER NOT NULL,
	activity TEXT NOT NULL,
	ts INTEGER NOT NULL
);
`

// Store wraps a *sql.DB with the repository methods components A's callers
// depend on. All writes funnel through WithTx; row creations and removals
// commit their ActivityLog entry in the same transaction, while status,
// jobid, progress and session-id updates write no ActivityLog row.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite-backed store at dsn and
// applies the schema. dsn may be a file path or ":memory:" for tests.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite serializes writers; a single connection avoids "database is
	// locked" errors under the engine's one-row-lock-per-write model.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logging.Info("store", "opened store at %s", dsn)
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error returned by fn (or a panic, which it re-raises after
// rollback).
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error("store", rbErr, "rollback failed after error %v", err)
		}
		return err
	}
	return tx.Commit()
}

func logActivity(ctx context.Context, tx *sql.Tx, objectType string, objectID int64, activity ActivityKind) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activity_log (object_type, object_id, activity, ts) VALUES (?, ?, ?, ?)`,
		objectType, objectID, activity, nowUnix())
	return err
}
