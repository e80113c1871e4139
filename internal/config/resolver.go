package config

import (
	"context"
	"log/slog"
	"os"
)

// Provider is a single source of setting values. Lookup reports whether
// the key is present in this source. Implementations must treat their own
// failures as absence rather than returning them to the caller.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, key string) (string, bool)
}

// Resolver resolves setting values through an ordered provider chain.
// The first provider that has the key wins; if none do, the caller's
// default is returned. Resolve never fails.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver builds a resolver over the given providers, consulted in order.
func NewResolver(logger *slog.Logger, providers ...Provider) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{providers: providers, logger: logger}
}

// Resolve returns the value for key from the first provider that has it,
// or def when no provider does.
func (r *Resolver) Resolve(ctx context.Context, key, def string) string {
	for _, p := range r.providers {
		if v, ok := p.Lookup(ctx, key); ok {
			r.logger.Debug("setting resolved", "key", key, "source", p.Name())
			return v
		}
	}
	r.logger.Debug("setting resolved", "key", key, "source", "default")
	return def
}

// EnvProvider reads settings from process environment variables. Empty
// values count as absent so an exported-but-blank variable falls through
// to the next source.
type EnvProvider struct{}

func (EnvProvider) Name() string { return "env" }

func (EnvProvider) Lookup(_ context.Context, key string) (string, bool) {
	v := os.Getenv(key)
	if v == "" {
		return "", false
	}
	return v, true
}

// StaticProvider serves settings from a fixed map. Used for runtime
// bindings established at startup and in tests.
type StaticProvider struct {
	name   string
	values map[string]string
}

// NewStaticProvider builds a provider over a copy of values.
func NewStaticProvider(name string, values map[string]string) *StaticProvider {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &StaticProvider{name: name, values: m}
}

func (p *StaticProvider) Name() string { return p.name }

func (p *StaticProvider) Lookup(_ context.Context, key string) (string, bool) {
	v, ok := p.values[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// settingStore is the subset of the storage layer the resolver needs.
type settingStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	GetKV(ctx context.Context, key string) (string, error)
}

// ConfigTableProvider reads settings from the relational config table.
// Store errors are logged and reported as absence.
type ConfigTableProvider struct {
	store  settingStore
	logger *slog.Logger
}

// NewConfigTableProvider builds a provider over the config table.
func NewConfigTableProvider(store settingStore, logger *slog.Logger) *ConfigTableProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigTableProvider{store: store, logger: logger}
}

func (p *ConfigTableProvider) Name() string { return "config" }

func (p *ConfigTableProvider) Lookup(ctx context.Context, key string) (string, bool) {
	v, err := p.store.GetConfig(ctx, key)
	if err != nil {
		p.logger.Debug("config table lookup missed", "key", key, "error", err)
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}

// KVProvider reads settings from the key-value table. Store errors are
// logged and reported as absence.
type KVProvider struct {
	store  settingStore
	logger *slog.Logger
}

// NewKVProvider builds a provider over the kv table.
func NewKVProvider(store settingStore, logger *slog.Logger) *KVProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVProvider{store: store, logger: logger}
}

func (p *KVProvider) Name() string { return "kv" }

func (p *KVProvider) Lookup(ctx context.Context, key string) (string, bool) {
	v, err := p.store.GetKV(ctx, key)
	if err != nil {
		p.logger.Debug("kv lookup missed", "key", key, "error", err)
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}
