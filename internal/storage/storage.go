// Package storage provides SQLite persistence for the usage dashboard:
// the config/kv tables read by the config resolver, the bounded access log,
// and the IP whitelist.
package storage

import (
	"context"
	"time"
)

// MaxAccessLogEntries bounds the access log; the oldest rows are evicted
// once the table grows past this cap.
const MaxAccessLogEntries = 100

// AccessLogEntry is one audit-trail row, appended on login and on
// dashboard view.
type AccessLogEntry struct {
	ID        int64     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Location  string    `json:"location"`
	Action    string    `json:"action"`
}

// Storage defines the interface for SQLite persistence operations.
type Storage interface {
	// Config operations (relational key/value table, read by the resolver)
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// KV operations (flat key-value table, second resolver backend)
	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key, value string) error

	// Access log operations
	AppendAccessLog(ctx context.Context, entry AccessLogEntry) error
	ListAccessLogs(ctx context.Context, limit int) ([]AccessLogEntry, error)

	// Whitelist operations
	AddWhitelistIP(ctx context.Context, ip string) error
	IsWhitelisted(ctx context.Context, ip string) (bool, error)
	ListWhitelist(ctx context.Context) ([]string, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}
