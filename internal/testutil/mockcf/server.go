// Package mockcf provides a mock Cloudflare v4 API server for testing the
// usage dashboard without touching the real API.
package mockcf

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Server is a mock Cloudflare API server backed by httptest.
type Server struct {
	srv *httptest.Server
	mux *http.ServeMux

	mu       sync.RWMutex
	accounts []Account
	usage    map[string]Usage // keyed by account ID

	// Failure injection. A zero status means "behave normally".
	accountsStatus int
	graphqlStatus  int
	graphqlErrMsg  string
	emptyPayload   bool

	// Request counters, for asserting call behavior.
	accountsCalls int
	graphqlCalls  int

	// Time window of the most recent analytics query, as sent on the wire.
	lastWindowGeq string
	lastWindowLeq string
}

// Account mirrors one entry of the /accounts listing.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Usage holds the per-category request counters served for one account.
type Usage struct {
	PagesRequests   int64
	WorkersRequests int64
}

// New creates and starts a mock Cloudflare API server.
func New() *Server {
	s := NewUnstarted()
	s.srv = httptest.NewServer(s.mux)
	return s
}

// NewUnstarted creates a mock server without binding a listener. Used by
// the standalone mock binary, which serves the handler itself.
func NewUnstarted() *Server {
	s := &Server{
		usage: make(map[string]Usage),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts", s.handleListAccounts)
	mux.HandleFunc("/graphql", s.handleGraphQL)
	mux.HandleFunc("/admin/state", s.handleAdminState)
	mux.HandleFunc("/admin/accounts", s.handleAdminAddAccount)
	s.mux = mux
	return s
}

// Handler returns the HTTP handler serving the mock API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// URL returns the base URL of the mock server.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the mock server down.
func (s *Server) Close() {
	s.srv.Close()
}

// AddAccount registers an account visible through the listing endpoint.
func (s *Server) AddAccount(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, Account{ID: id, Name: name})
}

// SetUsage sets the counters returned by the analytics query for an account.
func (s *Server) SetUsage(accountID string, pages, workers int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[accountID] = Usage{PagesRequests: pages, WorkersRequests: workers}
}

// FailAccounts makes the listing endpoint return the given HTTP status.
func (s *Server) FailAccounts(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountsStatus = status
}

// FailGraphQL makes the analytics endpoint return the given HTTP status.
func (s *Server) FailGraphQL(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphqlStatus = status
}

// InjectGraphQLError makes the analytics endpoint return HTTP 200 with an
// application-level error entry carrying the given message.
func (s *Server) InjectGraphQLError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphqlErrMsg = msg
}

// InjectEmptyPayload makes the analytics endpoint return a response with no
// account payload.
func (s *Server) InjectEmptyPayload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptyPayload = true
}

// Reset clears all state, injected failures, and request counters.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = nil
	s.usage = make(map[string]Usage)
	s.accountsStatus = 0
	s.graphqlStatus = 0
	s.graphqlErrMsg = ""
	s.emptyPayload = false
	s.accountsCalls = 0
	s.graphqlCalls = 0
	s.lastWindowGeq = ""
	s.lastWindowLeq = ""
}

// AccountsCalls returns the number of listing requests received.
func (s *Server) AccountsCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountsCalls
}

// GraphQLCalls returns the number of analytics requests received.
func (s *Server) GraphQLCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graphqlCalls
}

// LastGraphQLWindow returns the time window of the most recent analytics
// query. ok is false if no query was received or the bounds did not parse.
func (s *Server) LastGraphQLWindow() (from, to time.Time, ok bool) {
	s.mu.RLock()
	geq, leq := s.lastWindowGeq, s.lastWindowLeq
	s.mu.RUnlock()

	from, errFrom := time.Parse(time.RFC3339, geq)
	to, errTo := time.Parse(time.RFC3339, leq)
	if errFrom != nil || errTo != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
