package cloudflare

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sipico/cf-usage-dashboard/internal/testutil/mockcf"
)

func TestListAccounts(t *testing.T) {
	t.Parallel()

	t.Run("success with accounts", func(t *testing.T) {
		t.Parallel()
		server := mockcf.New()
		defer server.Close()

		server.AddAccount("ACC1", "a@x.com Account")
		server.AddAccount("ACC2", "b@y.com Account")

		client := NewClient(WithBaseURL(server.URL()))
		cred := Credential{Email: "a@x.com", Key: "k"}

		accounts, err := client.ListAccounts(context.Background(), cred)
		if err != nil {
			t.Fatalf("ListAccounts failed: %v", err)
		}
		if len(accounts) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(accounts))
		}
		if accounts[0].ID != "ACC1" {
			t.Errorf("expected first account ACC1, got %s", accounts[0].ID)
		}
	})

	t.Run("empty list is an error", func(t *testing.T) {
		t.Parallel()
		server := mockcf.New()
		defer server.Close()

		client := NewClient(WithBaseURL(server.URL()))
		_, err := client.ListAccounts(context.Background(), Credential{Email: "a@x.com", Key: "k"})
		if err != ErrNoAccounts {
			t.Errorf("expected ErrNoAccounts, got %v", err)
		}
	})

	t.Run("403 embeds status code", func(t *testing.T) {
		t.Parallel()
		server := mockcf.New()
		defer server.Close()

		server.FailAccounts(http.StatusForbidden)

		client := NewClient(WithBaseURL(server.URL()))
		_, err := client.ListAccounts(context.Background(), Credential{Email: "a@x.com", Key: "k"})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "403") {
			t.Errorf("expected error to contain 403, got %q", err.Error())
		}
	})
}

func TestQueryDailyUsage(t *testing.T) {
	t.Parallel()

	day := func() (time.Time, time.Time) {
		now := time.Now().UTC()
		return now.Truncate(24 * time.Hour), now
	}

	t.Run("sums pages and workers", func(t *testing.T) {
		t.Parallel()
		server := mockcf.New()
		defer server.Close()

		server.SetUsage("ACC1", 100, 50)

		client := NewClient(WithBaseURL(server.URL()))
		from, to := day()
		usage, err := client.QueryDailyUsage(context.Background(), Credential{APIToken: "t"}, "ACC1", from, to)
		if err != nil {
			t.Fatalf("QueryDailyUsage failed: %v", err)
		}
		if usage.PagesRequests != 100 || usage.WorkersRequests != 50 {
			t.Errorf("expected 100/50, got %d/%d", usage.PagesRequests, usage.WorkersRequests)
		}
		if usage.Total() != 150 {
			t.Errorf("expected total 150, got %d", usage.Total())
		}
	})

	t.Run("graphql error surfaces message", func(t *testing.T) {
		t.Parallel()
		server := mockcf.New()
		defer server.Close()

		server.InjectGraphQLError("quota exceeded")

		client := NewClient(WithBaseURL(server.URL()))
		from, to := day()
		_, err := client.QueryDailyUsage(context.Background(), Credential{APIToken: "t"}, "ACC1", from, to)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "quota exceeded") {
			t.Errorf("expected graphql message in error, got %q", err.Error())
		}
	})

	t.Run("missing account payload", func(t *testing.T) {
		t.Parallel()
		server := mockcf.New()
		defer server.Close()

		server.InjectEmptyPayload()

		client := NewClient(WithBaseURL(server.URL()))
		from, to := day()
		_, err := client.QueryDailyUsage(context.Background(), Credential{APIToken: "t"}, "ACC1", from, to)
		if err != ErrEmptyUsagePayload {
			t.Errorf("expected ErrEmptyUsagePayload, got %v", err)
		}
	})

	t.Run("non-OK status", func(t *testing.T) {
		t.Parallel()
		server := mockcf.New()
		defer server.Close()

		server.FailGraphQL(http.StatusBadGateway)

		client := NewClient(WithBaseURL(server.URL()))
		from, to := day()
		_, err := client.QueryDailyUsage(context.Background(), Credential{APIToken: "t"}, "ACC1", from, to)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "502") {
			t.Errorf("expected error to contain 502, got %q", err.Error())
		}
	})
}

func TestCredentialShapes(t *testing.T) {
	t.Parallel()

	if !(Credential{}).Empty() {
		t.Error("zero credential should be empty")
	}
	if (Credential{Email: "a@x.com"}).Empty() {
		t.Error("credential with email should not be empty")
	}
	if !(Credential{Email: "a@x.com", Key: "k"}).HasKeyPair() {
		t.Error("email+key should have key pair")
	}
	if (Credential{Email: "a@x.com"}).HasKeyPair() {
		t.Error("email alone should not have key pair")
	}
	if !(Credential{APIToken: "t"}).HasToken() {
		t.Error("token credential should have token")
	}
}
