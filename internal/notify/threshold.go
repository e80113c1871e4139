package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sipico/cf-usage-dashboard/internal/config"
	"github.com/sipico/cf-usage-dashboard/internal/metrics"
	"github.com/sipico/cf-usage-dashboard/internal/usage"
)

// AlertThresholdPercent is the usage percentage at which an alert fires.
const AlertThresholdPercent = 95.0

// settingResolver is the slice of the config resolver the notifier uses.
type settingResolver interface {
	Resolve(ctx context.Context, key, def string) string
}

// messageSender is the slice of the Telegram client the notifier uses.
type messageSender interface {
	SendMessage(ctx context.Context, botToken, chatID, text string) error
}

// ThresholdNotifier alerts when an account's daily usage crosses the
// threshold. Every alert check that qualifies sends a message; there is
// no cooldown, so repeated dashboard views near the limit repeat the
// alert. Delivery failures are logged and swallowed.
type ThresholdNotifier struct {
	sender   messageSender
	resolver settingResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewThresholdNotifier builds a notifier over the given sender and resolver.
func NewThresholdNotifier(sender messageSender, resolver settingResolver, logger *slog.Logger) *ThresholdNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThresholdNotifier{sender: sender, resolver: resolver, logger: logger, now: time.Now}
}

// CheckAndNotify sends one alert per record whose usage is at or above the
// threshold. Failed records and records without a positive limit are
// ignored. It never returns an error.
func (n *ThresholdNotifier) CheckAndNotify(ctx context.Context, records []usage.Record, limit int64) {
	if limit <= 0 {
		return
	}

	botToken := n.resolver.Resolve(ctx, config.KeyBotToken, "")
	chatID := n.resolver.Resolve(ctx, config.KeyChatID, "")
	if botToken == "" || chatID == "" {
		n.logger.Debug("telegram alerting not configured, skipping threshold check")
		return
	}

	for _, rec := range records {
		if !rec.Success {
			continue
		}
		pct := float64(rec.Requests) / float64(limit) * 100
		if pct < AlertThresholdPercent {
			continue
		}

		text := n.alertText(rec, pct)
		if err := n.sender.SendMessage(ctx, botToken, chatID, text); err != nil {
			metrics.RecordAlert("failed")
			n.logger.Warn("alert delivery failed",
				"email", rec.Email, "account_id", rec.AccountID, "error", err)
			continue
		}
		metrics.RecordAlert("sent")
		n.logger.Info("usage alert sent",
			"email", rec.Email, "account_id", rec.AccountID, "percent", pct)
	}
}

func (n *ThresholdNotifier) alertText(rec usage.Record, pct float64) string {
	return fmt.Sprintf(
		"Cloudflare usage alert\nAccount: %s (%s)\nRequests today: %d (%.1f%% of limit)\nTime: %s",
		rec.Email, rec.AccountID, rec.Requests,
		pct, n.now().Format("2006-01-02 15:04:05"),
	)
}
