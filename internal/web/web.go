// Package web serves the usage dashboard: the HTML page, the stats JSON
// endpoints, and login.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/sipico/cf-usage-dashboard/internal/storage"
	"github.com/sipico/cf-usage-dashboard/internal/usage"
)

// Storage interface for web operations
type Storage interface {
	AppendAccessLog(ctx context.Context, entry storage.AccessLogEntry) error
	ListAccessLogs(ctx context.Context, limit int) ([]storage.AccessLogEntry, error)
	IsWhitelisted(ctx context.Context, ip string) (bool, error)
	Ping(ctx context.Context) error
}

// StatsProvider produces the per-account usage records shown on the
// dashboard, plus the request limit in force for the cycle.
type StatsProvider interface {
	AggregateAll(ctx context.Context) []usage.Record
	RequestLimit(ctx context.Context) int64
}

// Notifier checks records against the alert threshold.
type Notifier interface {
	CheckAndNotify(ctx context.Context, records []usage.Record, limit int64)
}

// settingResolver is the slice of the config resolver the handler uses.
type settingResolver interface {
	Resolve(ctx context.Context, key, def string) string
}

// taskRunner schedules fire-and-forget work after the response is written.
type taskRunner interface {
	Submit(name string, fn func(ctx context.Context))
}

// Handler serves the dashboard endpoints.
type Handler struct {
	storage  Storage
	stats    StatsProvider
	notifier Notifier
	resolver settingResolver
	runner   taskRunner
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a dashboard handler.
func NewHandler(store Storage, stats StatsProvider, notifier Notifier, resolver settingResolver, runner taskRunner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		storage:  store,
		stats:    stats,
		notifier: notifier,
		resolver: resolver,
		runner:   runner,
		logger:   logger,
		now:      time.Now,
	}
}
