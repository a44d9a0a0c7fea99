package store

import (
	"context"
	"database/sql"
)

// CreateStepInstance allocates the next per-step-description instance index
// and inserts the StepInstance row in the same transaction, so that two
// concurrent start-step calls for the same step-description cannot compute
// the same index (§4.F, §5). nameFor receives the 1-based index and must
// return the instance_name to persist.
func (s *Store) CreateStepInstance(ctx context.Context, stepDescriptionID int64, command string, nameFor func(index int) string) (id int64, index int, instanceName string, err error) {
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		if scanErr := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM step_instance WHERE step_description_id = ?`, stepDescriptionID,
		).Scan(&count); scanErr != nil {
			return scanErr
		}
		index = count + 1
		instanceName = nameFor(index)

		res, insErr := tx.ExecContext(ctx, `
			INSERT INTO step_instance (step_description_id, instance_name, start_ts, status, progress, jobid, command)
			VALUES (?, ?, ?, ?, '', ?, ?)`,
			stepDescriptionID, instanceName, nowUnix(), string(StepStarting), NoDependencySentinel, command)
		if insErr != nil {
			return insErr
		}
		id, insErr = res.LastInsertId()
		if insErr != nil {
			return insErr
		}
		return logActivity(ctx, tx, "step_instance", id, ActivityCreation)
	})
	return id, index, instanceName, err
}

// DeleteStepInstance removes a step-instance row, e.g. after a failed
// submission (§4.G.3 step 7).
func (s *Store) DeleteStepInstance(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM step_instance WHERE id = ?`, id); err != nil {
			return err
		}
		return logActivity(ctx, tx, "step_instance", id, ActivityRemoval)
	})
}

// UpdateStepInstanceJobID sets the jobid and status of a step instance
// (§4.G.3 step 8, after successful submission).
func (s *Store) UpdateStepInstanceJobID(ctx context.Context, id, jobid int64, status StepInstanceStatus) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE step_instance SET jobid = ?, status = ? WHERE id = ?`, jobid, string(status), id)
		return err
	})
}

// UpdateStepInstanceStatus sets a step instance's status.
func (s *Store) UpdateStepInstanceStatus(ctx context.Context, id int64, status StepInstanceStatus) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE step_instance SET status = ? WHERE id = ?`, string(status), id)
		return err
	})
}

// UpdateStepInstanceProgress persists a progress string verbatim (§4.G.5).
func (s *Store) UpdateStepInstanceProgress(ctx context.Context, id int64, progress string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE step_instance SET progress = ? WHERE id = ?`, progress, id)
		return err
	})
}

// GetStepInstancesByStepDescription returns every instance of a step
// description, in creation order (and hence ascending index order).
func (s *Store) GetStepInstancesByStepDescription(ctx context.Context, stepDescriptionID int64) ([]*StepInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, step_description_id, instance_name, start_ts, stop_ts, status, progress, jobid, command
		FROM step_instance WHERE step_description_id = ? ORDER BY id`, stepDescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStepInstances(rows)
}

// GetStepInstancesByJobID returns every instance matching jobid (should be
// 0 or 1 for a well-formed query per §4.G.5).
func (s *Store) GetStepInstancesByJobID(ctx context.Context, jobid int64) ([]*StepInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, step_description_id, instance_name, start_ts, stop_ts, status, progress, jobid, command
		FROM step_instance WHERE jobid = ?`, jobid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStepInstances(rows)
}

func scanStepInstances(rows *sql.Rows) ([]*StepInstance, error) {
	var out []*StepInstance
	for rows.Next() {
		si, err := scanStepInstanceRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

func scanStepInstanceRow(row rowScanner) (*StepInstance, error) {
	var si StepInstance
	var startTS int64
	var stopTS sql.NullInt64
	var status string
	if err := row.Scan(&si.ID, &si.StepDescriptionID, &si.InstanceName, &startTS, &stopTS,
		&status, &si.Progress, &si.JobID, &si.Command); err != nil {
		return nil, err
	}
	si.StartTS = unixToTime(startTS)
	si.StopTS = unixToTimePtr(stopTS)
	si.Status = StepInstanceStatus(status)
	return &si, nil
}
