package storage

import (
	"context"
	"fmt"
)

// AddWhitelistIP inserts an IP into the whitelist.
// Inserting an IP that is already present is a no-op.
func (s *SQLiteStorage) AddWhitelistIP(ctx context.Context, ip string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO whitelist (ip) VALUES (?) ON CONFLICT(ip) DO NOTHING", ip)
	if err != nil {
		return fmt.Errorf("failed to add whitelist ip: %w", err)
	}
	return nil
}

// IsWhitelisted reports whether an IP is in the whitelist.
func (s *SQLiteStorage) IsWhitelisted(ctx context.Context, ip string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM whitelist WHERE ip = ?", ip).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check whitelist: %w", err)
	}
	return count > 0, nil
}

// ListWhitelist returns all whitelisted IPs. Order is not significant.
func (s *SQLiteStorage) ListWhitelist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT ip FROM whitelist")
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelist: %w", err)
	}
	defer func() {
		//nolint:errcheck
		rows.Close()
	}()

	var ips []string
	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			return nil, fmt.Errorf("failed to scan whitelist row: %w", err)
		}
		ips = append(ips, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate whitelist: %w", err)
	}

	return ips, nil
}
