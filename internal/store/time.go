package store

import (
	"database/sql"
	"time"
)

func nowUnix() int64 { return time.Now().Unix() }

func unixToTime(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func unixToTimePtr(sec sql.NullInt64) *time.Time {
	if !sec.Valid {
		return nil
	}
	t := unixToTime(sec.Int64)
	return &t
}

func timePtrToUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
