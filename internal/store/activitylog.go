package store

import "context"

// GetActivityLog returns the full, append-only activity log in
// chronological order. Tests use it to assert that each creation and
// removal leaves one ActivityLog row.
func (s *Store) GetActivityLog(ctx context.Context) ([]*ActivityLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, object_type, object_id, activity, ts FROM activity_log ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ActivityLogEntry
	for rows.Next() {
		var e ActivityLogEntry
		var ts int64
		var activity string
		if err := rows.Scan(&e.ID, &e.ObjectType, &e.ObjectID, &activity, &ts); err != nil {
			return nil, err
		}
		e.Activity = ActivityKind(activity)
		e.TS = unixToTime(ts)
		out = append(out, &e)
	}
	return out, rows.Err()
}
