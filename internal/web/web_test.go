package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sipico/cf-usage-dashboard/internal/background"
	"github.com/sipico/cf-usage-dashboard/internal/config"
	"github.com/sipico/cf-usage-dashboard/internal/storage"
	"github.com/sipico/cf-usage-dashboard/internal/usage"
)

// statsStub serves canned records without touching the network.
type statsStub struct {
	records []usage.Record
	limit   int64
	panics  bool
}

func (s *statsStub) AggregateAll(context.Context) []usage.Record {
	if s.panics {
		panic("upstream exploded")
	}
	return s.records
}

func (s *statsStub) RequestLimit(context.Context) int64 {
	if s.limit == 0 {
		return usage.DefaultRequestLimit
	}
	return s.limit
}

// notifierStub records threshold checks.
type notifierStub struct {
	mu    sync.Mutex
	calls int
}

func (n *notifierStub) CheckAndNotify(context.Context, []usage.Record, int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

func (n *notifierStub) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type testEnv struct {
	router   chi.Router
	store    *storage.SQLiteStorage
	stats    *statsStub
	notifier *notifierStub
	runner   *background.Runner
}

func newTestEnv(t *testing.T, stats *statsStub) *testEnv {
	t.Helper()

	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		//nolint:errcheck
		store.Close()
	})

	resolver := config.NewResolver(nil,
		config.NewStaticProvider("test", map[string]string{config.KeyWebPassword: "hunter2"}))
	notifier := &notifierStub{}
	runner := background.NewRunner(nil)

	h := NewHandler(store, stats, notifier, resolver, runner, nil)
	return &testEnv{
		router:   h.NewRouter(),
		store:    store,
		stats:    stats,
		notifier: notifier,
		runner:   runner,
	}
}

func successRecords() []usage.Record {
	return []usage.Record{{
		Success:         true,
		Requests:        1500,
		PagesRequests:   1000,
		WorkersRequests: 500,
		Email:           "ops@example.com",
		AccountID:       "acc-1",
	}}
}

func loginRequest(password string) *http.Request {
	form := url.Values{"password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func authCookie(value string) *http.Cookie {
	return &http.Cookie{Name: "auth", Value: value}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("correct password sets 30 day cookie", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, loginRequest("hunter2"))

		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != "auth" {
			t.Fatalf("cookies = %v, want one auth cookie", cookies)
		}
		if cookies[0].Value != "hunter2" {
			t.Errorf("cookie value = %q, want the shared secret", cookies[0].Value)
		}
		if cookies[0].MaxAge != 30*24*60*60 {
			t.Errorf("cookie MaxAge = %d, want %d", cookies[0].MaxAge, 30*24*60*60)
		}
	})

	t.Run("wrong password returns 401 without cookie", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, loginRequest("wrong"))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Errorf("cookies = %v, want none on failed login", w.Result().Cookies())
		}
	})

	t.Run("successful login is recorded in the access log", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{})

		w := httptest.NewRecorder()
		req := loginRequest("hunter2")
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		req.Header.Set("CF-IPCountry", "NL")
		env.router.ServeHTTP(w, req)
		env.runner.Wait()

		entries, err := env.store.ListAccessLogs(context.Background(), 10)
		if err != nil {
			t.Fatalf("ListAccessLogs() error = %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("len(entries) = %d, want 1", len(entries))
		}
		e := entries[0]
		if e.Action != "login" || e.IP != "203.0.113.7" || e.Location != "NL" {
			t.Errorf("entry = %+v, want login from 203.0.113.7 (NL)", e)
		}
	})
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	t.Run("without cookie serves the login form", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: successRecords()})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), `name="password"`) {
			t.Error("body should contain the login form")
		}
		if strings.Contains(w.Body.String(), "ops@example.com") {
			t.Error("body must not leak account data before login")
		}
	})

	t.Run("with valid cookie shows account cards", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: successRecords()})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(authCookie("hunter2"))
		env.router.ServeHTTP(w, req)
		env.runner.Wait()

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		body := w.Body.String()
		if !strings.Contains(body, "ops@example.com") {
			t.Error("body should contain the account email")
		}
		if !strings.Contains(body, "1,500") {
			t.Error("body should contain the formatted request count")
		}

		entries, err := env.store.ListAccessLogs(context.Background(), 10)
		if err != nil {
			t.Fatalf("ListAccessLogs() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Action != "dashboard" {
			t.Errorf("entries = %+v, want one dashboard view", entries)
		}
		if env.notifier.Calls() != 1 {
			t.Errorf("notifier calls = %d, want 1", env.notifier.Calls())
		}
	})

	t.Run("with stale cookie serves the login form", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: successRecords()})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(authCookie("old-password"))
		env.router.ServeHTTP(w, req)

		if !strings.Contains(w.Body.String(), `name="password"`) {
			t.Error("stale cookie should fall back to the login form")
		}
	})

	t.Run("whitelisted ip bypasses the cookie", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: successRecords()})
		if err := env.store.AddWhitelistIP(context.Background(), "198.51.100.4"); err != nil {
			t.Fatalf("AddWhitelistIP() error = %v", err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.4")
		env.router.ServeHTTP(w, req)

		if !strings.Contains(w.Body.String(), "ops@example.com") {
			t.Error("whitelisted client should see the dashboard without a cookie")
		}
	})
}

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("returns records with CORS open", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: successRecords()})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?flag=stats", nil))
		env.runner.Wait()

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
		}
		body := w.Body.String()
		if !strings.Contains(body, `"requests":1500`) || !strings.Contains(body, `"success":true`) {
			t.Errorf("body = %q, want serialized usage records", body)
		}
		if env.notifier.Calls() != 1 {
			t.Errorf("notifier calls = %d, want 1", env.notifier.Calls())
		}
	})

	t.Run("empty configuration yields an empty array", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: []usage.Record{}})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?flag=stats", nil))

		if got := strings.TrimSpace(w.Body.String()); got != "[]" {
			t.Errorf("body = %q, want []", got)
		}
	})
}

func TestStatsAPI(t *testing.T) {
	t.Parallel()

	t.Run("returns an html fragment", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: successRecords()})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?flag=stats_api", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		body := w.Body.String()
		if !strings.Contains(body, `"html":`) {
			t.Errorf("body = %q, want an html envelope", body)
		}
		if !strings.Contains(body, "ops@example.com") {
			t.Errorf("body = %q, want rendered account cards", body)
		}
	})

	t.Run("zero accounts yields the placeholder without a success field", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{records: []usage.Record{}})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?flag=stats_api", nil))

		body := w.Body.String()
		if !strings.Contains(body, "no accounts configured") {
			t.Errorf("body = %q, want the placeholder fragment", body)
		}
		if strings.Contains(body, "success") {
			t.Errorf("body = %q, must not carry a success field", body)
		}
	})
}

func TestRouting(t *testing.T) {
	t.Parallel()

	t.Run("unknown path returns 404", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("unknown flag returns 404", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?flag=bogus", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("wrong method returns 404", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &statsStub{})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestRecoverer(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &statsStub{panics: true})

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?flag=stats", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "upstream exploded") {
		t.Errorf("body = %q, want the panic message", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &statsStub{})

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}
