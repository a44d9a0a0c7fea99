package store

import (
	"context"
	"database/sql"

	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// CreateStepDescription inserts a StepDescription row. (session_id, name)
// must be unique per §3.
func (s *Store) CreateStepDescription(ctx context.Context, sd *StepDescription) (int64, error) {
	var id int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO step_description (session_id, service_id, name, command) VALUES (?, ?, ?, ?)`,
			sd.SessionID, sd.ServiceID, sd.Name, sd.Command)
		if err != nil {
			if isUniqueViolation(err) {
				return wfmerr.State(sd.Name, "step %q already defined for this session", sd.Name)
			}
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		return logActivity(ctx, tx, "step_description", id, ActivityCreation)
	})
	return id, err
}

// DeleteStepDescription removes a step-description row.
func (s *Store) DeleteStepDescription(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM step_description WHERE id = ?`, id); err != nil {
			return err
		}
		return logActivity(ctx, tx, "step_description", id, ActivityRemoval)
	})
}

// GetStepDescriptionsBySession returns every step description declared for
// a session.
func (s *Store) GetStepDescriptionsBySession(ctx context.Context, sessionID int64) ([]*StepDescription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, service_id, name, command FROM step_description WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStepDescriptions(rows)
}

// GetStepDescription returns the (session_id, name) step description, or
// nil if none exists.
func (s *Store) GetStepDescription(ctx context.Context, sessionID int64, name string) (*StepDescription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, service_id, name, command FROM step_description WHERE session_id = ? AND name = ?`,
		sessionID, name)
	sd, err := scanStepDescriptionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sd, err
}

// GetAllStepDescriptions returns every step description across every
// session, for the listing surface of §6.
func (s *Store) GetAllStepDescriptions(ctx context.Context) ([]*StepDescription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, service_id, name, command FROM step_description ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStepDescriptions(rows)
}

// GetStepDescriptionsByName returns every step description across every
// session sharing the given name.
func (s *Store) GetStepDescriptionsByName(ctx context.Context, name string) ([]*StepDescription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, service_id, name, command FROM step_description WHERE name = ? ORDER BY id`,
		name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStepDescriptions(rows)
}

func scanStepDescriptions(rows *sql.Rows) ([]*StepDescription, error) {
	var out []*StepDescription
	for rows.Next() {
		sd, err := scanStepDescriptionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sd)
	}
	return out, rows.Err()
}

func scanStepDescriptionRow(row rowScanner) (*StepDescription, error) {
	var sd StepDescription
	if err := row.Scan(&sd.ID, &sd.SessionID, &sd.ServiceID, &sd.Name, &sd.Command); err != nil {
		return nil, err
	}
	return &sd, nil
}
