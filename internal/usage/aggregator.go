package usage

import (
	"context"
	"log/slog"

	"github.com/sipico/cf-usage-dashboard/internal/cloudflare"
	"github.com/sipico/cf-usage-dashboard/internal/config"
)

// settingResolver is the slice of the config resolver the aggregator uses.
type settingResolver interface {
	Resolve(ctx context.Context, key, def string) string
}

// Aggregator collects usage records for the default account plus the ten
// numbered extra-account slots.
type Aggregator struct {
	fetcher  *Fetcher
	resolver settingResolver
	logger   *slog.Logger
}

// NewAggregator builds an aggregator over the given fetcher and resolver.
func NewAggregator(fetcher *Fetcher, resolver settingResolver, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{fetcher: fetcher, resolver: resolver, logger: logger}
}

// AggregateAll fetches usage for every configured account. Output order is
// stable: the default account first, then slots in ascending order. Slots
// that are unset, and a wholly unconfigured default account, produce no
// record, so the result holds at most eleven entries.
func (a *Aggregator) AggregateAll(ctx context.Context) []Record {
	records := make([]Record, 0, config.MaxAccountSlots+1)

	defaultCred := cloudflare.Credential{
		Email:     a.resolver.Resolve(ctx, config.KeyEmail, ""),
		Key:       a.resolver.Resolve(ctx, config.KeyGlobalKey, ""),
		AccountID: a.resolver.Resolve(ctx, config.KeyAccountID, ""),
		APIToken:  a.resolver.Resolve(ctx, config.KeyAPIToken, ""),
	}
	if !defaultCred.Empty() {
		records = append(records, a.fetcher.Fetch(ctx, defaultCred))
	}

	for i := 1; i <= config.MaxAccountSlots; i++ {
		key := config.AccountSlotKey(i)
		raw := a.resolver.Resolve(ctx, key, "")
		if raw == "" {
			continue
		}
		cred, err := config.ParseCredential(raw)
		if err != nil {
			a.logger.Warn("skipping account slot", "key", key, "error", err)
			continue
		}
		records = append(records, a.fetcher.Fetch(ctx, cred))
	}

	return records
}

// RequestLimit resolves the per-account daily request limit for the
// current cycle.
func (a *Aggregator) RequestLimit(ctx context.Context) int64 {
	return parseLimit(a.resolver.Resolve(ctx, config.KeyRequestLimit, ""))
}
