package usage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sipico/cf-usage-dashboard/internal/cloudflare"
	"github.com/sipico/cf-usage-dashboard/internal/metrics"
)

// api is the slice of the Cloudflare client the fetcher uses.
type api interface {
	ListAccounts(ctx context.Context, cred cloudflare.Credential) ([]cloudflare.Account, error)
	QueryDailyUsage(ctx context.Context, cred cloudflare.Credential, accountID string, from, to time.Time) (*cloudflare.DailyUsage, error)
}

// Fetcher turns one credential into a usage record. It never returns an
// error: every failure mode becomes a Record with Success false.
type Fetcher struct {
	client api
	logger *slog.Logger
	now    func() time.Time
}

// NewFetcher builds a fetcher over the given Cloudflare client.
func NewFetcher(client api, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger, now: time.Now}
}

// Fetch resolves the credential's account and queries today's usage,
// from UTC midnight up to now.
func (f *Fetcher) Fetch(ctx context.Context, cred cloudflare.Credential) (rec Record) {
	defer func() {
		if rec.Success {
			metrics.RecordUpstreamFetch("success")
		} else {
			metrics.RecordUpstreamFetch("failure")
		}
	}()

	if cred.Empty() {
		return Record{Success: false, Msg: MsgNoCredential}
	}

	email := cred.Email
	if email == "" {
		email = TokenDisplayName
	}

	accountID := cred.AccountID
	if accountID == "" && cred.HasKeyPair() {
		id, err := f.resolveAccountID(ctx, cred)
		if err != nil {
			f.logger.Warn("account listing failed", "email", email, "error", err)
			return Record{Success: false, Email: email, Msg: err.Error()}
		}
		accountID = id
	}
	if accountID == "" {
		return Record{Success: false, Email: email, Msg: MsgNoAccountID}
	}

	now := f.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	du, err := f.client.QueryDailyUsage(ctx, cred, accountID, from, now)
	if err != nil {
		f.logger.Warn("usage query failed", "email", email, "account_id", accountID, "error", err)
		return Record{Success: false, Email: email, AccountID: accountID, Msg: err.Error()}
	}

	return Record{
		Success:         true,
		Requests:        du.Total(),
		PagesRequests:   du.PagesRequests,
		WorkersRequests: du.WorkersRequests,
		Email:           email,
		AccountID:       accountID,
	}
}

// resolveAccountID lists the credential's accounts and picks the one whose
// name starts with the credential email (case-insensitive). When none
// match, the first listed account is used.
func (f *Fetcher) resolveAccountID(ctx context.Context, cred cloudflare.Credential) (string, error) {
	accounts, err := f.client.ListAccounts(ctx, cred)
	if err != nil {
		return "", err
	}

	prefix := strings.ToLower(cred.Email)
	for _, a := range accounts {
		if strings.HasPrefix(strings.ToLower(a.Name), prefix) {
			return a.ID, nil
		}
	}
	return accounts[0].ID, nil
}
