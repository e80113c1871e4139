package usage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sipico/cf-usage-dashboard/internal/cloudflare"
	"github.com/sipico/cf-usage-dashboard/internal/testutil/mockcf"
)

func newTestFetcher(t *testing.T) (*Fetcher, *mockcf.Server) {
	t.Helper()
	mock := mockcf.New()
	t.Cleanup(mock.Close)
	client := cloudflare.NewClient(cloudflare.WithBaseURL(mock.URL()))
	return NewFetcher(client, nil), mock
}

func TestFetch_EmptyCredential(t *testing.T) {
	t.Parallel()
	f, _ := newTestFetcher(t)

	rec := f.Fetch(context.Background(), cloudflare.Credential{})
	if rec.Success {
		t.Error("Success = true, want false for empty credential")
	}
	if rec.Msg != MsgNoCredential {
		t.Errorf("Msg = %q, want %q", rec.Msg, MsgNoCredential)
	}
	if rec.Requests != 0 {
		t.Errorf("Requests = %d, want 0", rec.Requests)
	}
}

func TestFetch_KeyPairCredential(t *testing.T) {
	t.Parallel()
	f, mock := newTestFetcher(t)
	mock.AddAccount("acc-other", "Somebody Else's Account")
	mock.AddAccount("acc-1", "ops@example.com's Account")
	mock.SetUsage("acc-1", 1200, 800)

	cred := cloudflare.Credential{Email: "Ops@Example.com", Key: "global-key"}
	rec := f.Fetch(context.Background(), cred)

	if !rec.Success {
		t.Fatalf("Success = false (msg %q), want true", rec.Msg)
	}
	if rec.AccountID != "acc-1" {
		t.Errorf("AccountID = %q, want %q (matched by email prefix)", rec.AccountID, "acc-1")
	}
	if rec.Requests != 2000 {
		t.Errorf("Requests = %d, want 2000", rec.Requests)
	}
	if rec.Requests != rec.PagesRequests+rec.WorkersRequests {
		t.Errorf("Requests = %d, want pages %d + workers %d",
			rec.Requests, rec.PagesRequests, rec.WorkersRequests)
	}
	if rec.Email != "Ops@Example.com" {
		t.Errorf("Email = %q, want credential email", rec.Email)
	}
}

func TestFetch_NoNameMatchFallsBackToFirstAccount(t *testing.T) {
	t.Parallel()
	f, mock := newTestFetcher(t)
	mock.AddAccount("acc-first", "Production")
	mock.AddAccount("acc-second", "Staging")
	mock.SetUsage("acc-first", 10, 0)

	cred := cloudflare.Credential{Email: "nomatch@example.com", Key: "global-key"}
	rec := f.Fetch(context.Background(), cred)

	if !rec.Success {
		t.Fatalf("Success = false (msg %q), want true", rec.Msg)
	}
	if rec.AccountID != "acc-first" {
		t.Errorf("AccountID = %q, want %q (first listed)", rec.AccountID, "acc-first")
	}
}

func TestFetch_ExplicitAccountIDSkipsListing(t *testing.T) {
	t.Parallel()
	f, mock := newTestFetcher(t)
	mock.AddAccount("acc-9", "Token Account")
	mock.SetUsage("acc-9", 500, 250)

	cred := cloudflare.Credential{APIToken: "api-token", AccountID: "acc-9"}
	rec := f.Fetch(context.Background(), cred)

	if !rec.Success {
		t.Fatalf("Success = false (msg %q), want true", rec.Msg)
	}
	if mock.AccountsCalls() != 0 {
		t.Errorf("AccountsCalls() = %d, want 0 when the id is explicit", mock.AccountsCalls())
	}
	if rec.Email != TokenDisplayName {
		t.Errorf("Email = %q, want %q for token credentials", rec.Email, TokenDisplayName)
	}
	if rec.Requests != 750 {
		t.Errorf("Requests = %d, want 750", rec.Requests)
	}
}

func TestFetch_AccountListingFailure(t *testing.T) {
	t.Parallel()
	f, mock := newTestFetcher(t)
	mock.FailAccounts(403)

	cred := cloudflare.Credential{Email: "ops@example.com", Key: "bad-key"}
	rec := f.Fetch(context.Background(), cred)

	if rec.Success {
		t.Error("Success = true, want false when account listing fails")
	}
	if !strings.Contains(rec.Msg, "403") {
		t.Errorf("Msg = %q, want the upstream status embedded", rec.Msg)
	}
	if rec.Requests != 0 {
		t.Errorf("Requests = %d, want 0 on failure", rec.Requests)
	}
}

func TestFetch_NoResolvableAccountID(t *testing.T) {
	t.Parallel()
	f, mock := newTestFetcher(t)
	mock.AddAccount("acc-1", "ops@example.com's Account")

	// A bare email cannot list accounts and carries no explicit id.
	cred := cloudflare.Credential{Email: "ops@example.com"}
	rec := f.Fetch(context.Background(), cred)

	if rec.Success {
		t.Error("Success = true, want false without a resolvable account id")
	}
	if rec.Msg != MsgNoAccountID {
		t.Errorf("Msg = %q, want %q", rec.Msg, MsgNoAccountID)
	}
	if mock.AccountsCalls() != 0 {
		t.Errorf("AccountsCalls() = %d, want 0 without a key pair", mock.AccountsCalls())
	}
}

func TestFetch_UsageQueryFailure(t *testing.T) {
	t.Parallel()
	f, mock := newTestFetcher(t)
	mock.AddAccount("acc-1", "ops@example.com's Account")
	mock.FailGraphQL(502)

	cred := cloudflare.Credential{Email: "ops@example.com", Key: "global-key"}
	rec := f.Fetch(context.Background(), cred)

	if rec.Success {
		t.Error("Success = true, want false when the usage query fails")
	}
	if rec.AccountID != "acc-1" {
		t.Errorf("AccountID = %q, want resolved id kept on failure", rec.AccountID)
	}
	if rec.Msg == "" {
		t.Error("Msg is empty, want failure detail")
	}
}

func TestFetch_QueriesFromUTCMidnight(t *testing.T) {
	t.Parallel()
	f, mock := newTestFetcher(t)
	mock.AddAccount("acc-1", "ops@example.com's Account")
	mock.SetUsage("acc-1", 1, 1)

	fixed := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	cred := cloudflare.Credential{Email: "ops@example.com", Key: "global-key"}
	if rec := f.Fetch(context.Background(), cred); !rec.Success {
		t.Fatalf("Success = false (msg %q), want true", rec.Msg)
	}

	from, to, ok := mock.LastGraphQLWindow()
	if !ok {
		t.Fatal("mock recorded no GraphQL window")
	}
	wantFrom := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if !from.Equal(wantFrom) {
		t.Errorf("window start = %v, want %v", from, wantFrom)
	}
	if !to.Equal(fixed) {
		t.Errorf("window end = %v, want %v", to, fixed)
	}
}
