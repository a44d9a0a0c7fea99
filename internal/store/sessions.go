package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// ErrUnknownSession is returned by GetSessionByName when no matching row
// exists, per §4.A's "missing-row lookups ... signal unknown session" rule.
var ErrUnknownSession = errors.New("unknown session")

// CreateSession inserts a Session row (STARTING status expected) and its
// ActivityLog entry in one transaction. Violating the
// (name, workflow_name, user) uniqueness-among-non-STOPPED invariant
// surfaces as a KindState "session-exists" error.
func (s *Store) CreateSession(ctx context.Context, sess *Session) (int64, error) {
	var id int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO session (name, workflow_name, user_name, start_ts, status) VALUES (?, ?, ?, ?, ?)`,
			sess.Name, sess.WorkflowName, sess.User, sess.StartTS.Unix(), string(sess.Status))
		if err != nil {
			if isUniqueViolation(err) {
				return wfmerr.State(sess.Name, "session already exists for (%s, %s, %s)", sess.Name, sess.WorkflowName, sess.User)
			}
			return fmt.Errorf("insert session: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		return logActivity(ctx, tx, "session", id, ActivityCreation)
	})
	return id, err
}

// UpdateSessionStatus sets a session's status.
func (s *Store) UpdateSessionStatus(ctx context.Context, id int64, status SessionStatus) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE session SET status = ? WHERE id = ?`, string(status), id)
		return err
	})
}

// DeleteSession removes a session row (called at the end of cleanup, §4.G.2
// step 8) along with its ActivityLog entry.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, id); err != nil {
			return err
		}
		return logActivity(ctx, tx, "session", id, ActivityRemoval)
	})
}

// GetSessionByID returns the session with the given id, or nil if absent.
func (s *Store) GetSessionByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, workflow_name, user_name, start_ts, end_ts, status FROM session WHERE id = ?`, id)
	return scanSession(row)
}

// GetSessionByName returns sessions matching name (optionally scoped to
// workflow). Per the Design Notes' session-name-scoping decision,
// uniqueness is only enforced within (name, user, workflow), so listings by
// name alone may return multiple rows; this method preserves that
// multiplicity and only returns ErrUnknownSession when the result is empty.
func (s *Store) GetSessionByName(ctx context.Context, name, workflowName string) ([]*Session, error) {
	query := `SELECT id, name, workflow_name, user_name, start_ts, end_ts, status FROM session WHERE name = ?`
	args := []interface{}{name}
	if workflowName != "" {
		query += ` AND workflow_name = ?`
		args = append(args, workflowName)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrUnknownSession
	}
	return sessions, nil
}

// GetAllSessions returns every session, optionally filtered by user.
func (s *Store) GetAllSessions(ctx context.Context, user string) ([]*Session, error) {
	query := `SELECT id, name, workflow_name, user_name, start_ts, end_ts, status FROM session`
	var args []interface{}
	if user != "" {
		query += ` WHERE user_name = ?`
		args = append(args, user)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var out []*Session
	for rows.Next() {
		sess, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sess, err
}

func scanSessionRow(row rowScanner) (*Session, error) {
	var sess Session
	var startTS int64
	var endTS sql.NullInt64
	var status string
	if err := row.Scan(&sess.ID, &sess.Name, &sess.WorkflowName, &sess.User, &startTS, &endTS, &status); err != nil {
		return nil, err
	}
	sess.StartTS = unixToTime(startTS)
	sess.EndTS = unixToTimePtr(endTS)
	sess.Status = SessionStatus(status)
	return &sess, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite wraps SQLITE_CONSTRAINT violations with this
	// substring in the driver error message; there is no typed sentinel
	// exported by the driver for unique-constraint failures specifically.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
