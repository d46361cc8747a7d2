package repository

import (
	"time"

	"goalengine/pkg/metrics"
)

func observe(operation, table string, start time.Time) {
	metrics.RecordDBQueryDuration(operation, table, time.Since(start))
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// inLocation reinterprets a DATE column value as midnight in loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func inLocationPtr(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := inLocation(*t, loc)
	return &v
}
