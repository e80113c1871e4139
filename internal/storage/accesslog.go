package storage

import (
	"context"
	"fmt"
	"time"
)

// AppendAccessLog adds one audit-trail row and trims the table back to
// MaxAccessLogEntries, evicting the oldest rows first.
func (s *SQLiteStorage) AppendAccessLog(ctx context.Context, entry AccessLogEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO access_logs (ts, ip, location, action) VALUES (?, ?, ?, ?)",
		ts.UTC().Format(time.RFC3339), entry.IP, entry.Location, entry.Action)
	if err != nil {
		return fmt.Errorf("failed to append access log: %w", err)
	}

	// Trim to the retention cap. Row IDs are monotonic, so keeping the
	// highest N ids keeps the newest N entries.
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM access_logs WHERE id NOT IN (SELECT id FROM access_logs ORDER BY id DESC LIMIT ?)",
		MaxAccessLogEntries)
	if err != nil {
		return fmt.Errorf("failed to trim access log: %w", err)
	}

	return nil
}

// ListAccessLogs returns up to limit entries, newest first.
// A limit <= 0 or greater than the cap returns the full retained window.
func (s *SQLiteStorage) ListAccessLogs(ctx context.Context, limit int) ([]AccessLogEntry, error) {
	if limit <= 0 || limit > MaxAccessLogEntries {
		limit = MaxAccessLogEntries
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, ts, ip, location, action FROM access_logs ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}
	defer func() {
		//nolint:errcheck
		rows.Close()
	}()

	var entries []AccessLogEntry
	for rows.Next() {
		var e AccessLogEntry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.IP, &e.Location, &e.Action); err != nil {
			return nil, fmt.Errorf("failed to scan access log row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse access log timestamp: %w", err)
		}
		e.Timestamp = parsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate access logs: %w", err)
	}

	return entries, nil
}
