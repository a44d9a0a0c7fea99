package store

import (
	"context"
	"database/sql"

	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// AcquireNamespaceLock inserts a lock row for namespace, or fails with a
// KindResource error naming the current holder if one already exists. This
// is the linearization point for the namespace-collision invariant (§4.G.1
// step 6, §8 scenario 4).
func (s *Store) AcquireNamespaceLock(ctx context.Context, namespace, serviceName string) (int64, error) {
	existing, err := s.GetNamespaceLock(ctx, namespace)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, wfmerr.Resource(namespace, "NS %s already used by other services [%s]", namespace, existing.ServiceName)
	}

	var id int64
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		res, insErr := tx.ExecContext(ctx,
			`INSERT INTO namespace_lock (namespace, service_name) VALUES (?, ?)`, namespace, serviceName)
		if insErr != nil {
			if isUniqueViolation(insErr) {
				return wfmerr.Resource(namespace, "NS %s already used by other services", namespace)
			}
			return insErr
		}
		id, insErr = res.LastInsertId()
		if insErr != nil {
			return insErr
		}
		return logActivity(ctx, tx, "namespace_lock", id, ActivityCreation)
	})
	return id, err
}

// ReleaseNamespaceLock removes the lock row for namespace, if any. Releasing
// an absent lock is a no-op, matching the retry-safety of the stop/rollback
// protocols.
func (s *Store) ReleaseNamespaceLock(ctx context.Context, namespace string) error {
	existing, err := s.GetNamespaceLock(ctx, namespace)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM namespace_lock WHERE namespace = ?`, namespace); err != nil {
			return err
		}
		return logActivity(ctx, tx, "namespace_lock", existing.ID, ActivityRemoval)
	})
}

// GetNamespaceLock looks up the lock row for namespace, or nil if unlocked.
func (s *Store) GetNamespaceLock(ctx context.Context, namespace string) (*NamespaceLock, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, namespace, service_name FROM namespace_lock WHERE namespace = ?`, namespace)
	var nl NamespaceLock
	err := row.Scan(&nl.ID, &nl.Namespace, &nl.ServiceName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &nl, nil
}
