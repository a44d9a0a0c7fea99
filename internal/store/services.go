package store

import (
	"context"
	"database/sql"
)

// CreateService inserts a Service row and its ActivityLog entry. The start
// protocol calls it before the Session row exists (§4.G.1 step 8-9), so the
// row is patched with the session id at step 10 via SetServiceSession.
func (s *Store) CreateService(ctx context.Context, svc *Service) (int64, error) {
	var id int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO service (session_id, name, kind, location, targets, flavor, namespace,
				mountpoint, storagesize, datanodes, start_ts, status, jobid)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			svc.SessionID, svc.Name, string(svc.Kind), svc.Location, svc.Targets, svc.Flavor,
			svc.Namespace, svc.Mountpoint, svc.StorageSize, svc.DataNodes,
			timePtrToUnix(svc.StartTS), string(svc.Status), svc.JobID)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		return logActivity(ctx, tx, "service", id, ActivityCreation)
	})
	return id, err
}

// SetServiceSession patches a service row with its owning session id
// (§4.G.1 step 10: services are started before the session row exists).
func (s *Store) SetServiceSession(ctx context.Context, serviceID, sessionID int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE service SET session_id = ? WHERE id = ?`, sessionID, serviceID)
		return err
	})
}

// UpdateServiceStatus sets a service's status; the jobid is set separately
// by UpdateServiceJobID.
func (s *Store) UpdateServiceStatus(ctx context.Context, id int64, status ServiceStatus) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE service SET status = ? WHERE id = ?`, string(status), id)
		return err
	})
}

// UpdateServiceJobID sets a service's jobid.
func (s *Store) UpdateServiceJobID(ctx context.Context, id, jobid int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE service SET jobid = ? WHERE id = ?`, jobid, id)
		return err
	})
}

// DeleteService removes a service row and logs its removal.
func (s *Store) DeleteService(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM service WHERE id = ?`, id); err != nil {
			return err
		}
		return logActivity(ctx, tx, "service", id, ActivityRemoval)
	})
}

// GetServicesBySession returns every service belonging to a session, in
// insertion (declaration) order.
func (s *Store) GetServicesBySession(ctx context.Context, sessionID int64) ([]*Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, name, kind, location, targets, flavor, namespace, mountpoint,
			storagesize, datanodes, start_ts, end_ts, status, jobid
		FROM service WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanServices(rows)
}

// GetServiceByName returns the service with the given globally-unique name,
// or nil if none exists.
func (s *Store) GetServiceByName(ctx context.Context, name string) (*Service, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, kind, location, targets, flavor, namespace, mountpoint,
			storagesize, datanodes, start_ts, end_ts, status, jobid
		FROM service WHERE name = ?`, name)
	return scanService(row)
}

func scanServices(rows *sql.Rows) ([]*Service, error) {
	var out []*Service
	for rows.Next() {
		svc, err := scanServiceRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func scanService(row rowScanner) (*Service, error) {
	svc, err := scanServiceRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return svc, err
}

func scanServiceRow(row rowScanner) (*Service, error) {
	var svc Service
	var kind, status string
	var startTS, endTS sql.NullInt64
	if err := row.Scan(&svc.ID, &svc.SessionID, &svc.Name, &kind, &svc.Location, &svc.Targets,
		&svc.Flavor, &svc.Namespace, &svc.Mountpoint, &svc.StorageSize, &svc.DataNodes,
		&startTS, &endTS, &status, &svc.JobID); err != nil {
		return nil, err
	}
	svc.Kind = ServiceKind(kind)
	svc.Status = ServiceStatus(status)
	svc.StartTS = unixToTimePtr(startTS)
	svc.EndTS = unixToTimePtr(endTS)
	return &svc, nil
}
