package mockcf

import (
	"encoding/json"
	"net/http"
)

// v4Envelope is the standard Cloudflare response envelope.
type v4Envelope struct {
	Success bool      `json:"success"`
	Errors  []v4Error `json:"errors"`
	Result  any       `json:"result"`
}

type v4Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// graphQLBody is the subset of the analytics request the mock inspects.
type graphQLBody struct {
	Variables struct {
		AccountID string `json:"AccountID"`
		Filter    struct {
			DatetimeGeq string `json:"datetime_geq"`
			DatetimeLeq string `json:"datetime_leq"`
		} `json:"filter"`
	} `json:"variables"`
}

// handleListAccounts serves GET /accounts.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	s.accountsCalls++
	status := s.accountsStatus
	accounts := make([]Account, len(s.accounts))
	copy(accounts, s.accounts)
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, v4Envelope{
			Success: false,
			Errors:  []v4Error{{Code: 10000, Message: "Authentication error"}},
		})
		return
	}

	writeJSON(w, http.StatusOK, v4Envelope{
		Success: true,
		Result:  accounts,
	})
}

// handleGraphQL serves POST /graphql with the getBillingMetrics shape.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body graphQLBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.graphqlCalls++
	s.lastWindowGeq = body.Variables.Filter.DatetimeGeq
	s.lastWindowLeq = body.Variables.Filter.DatetimeLeq
	status := s.graphqlStatus
	errMsg := s.graphqlErrMsg
	empty := s.emptyPayload
	usage, known := s.usage[body.Variables.AccountID]
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, v4Envelope{
			Success: false,
			Errors:  []v4Error{{Code: 10000, Message: "Authentication error"}},
		})
		return
	}

	if errMsg != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   nil,
			"errors": []map[string]string{{"message": errMsg}},
		})
		return
	}

	accounts := []map[string]any{}
	if !empty && known {
		accounts = append(accounts, map[string]any{
			"pagesFunctionsInvocationsAdaptiveGroups": []map[string]any{
				{"sum": map[string]int64{"requests": usage.PagesRequests}},
			},
			"workersInvocationsAdaptive": []map[string]any{
				{"sum": map[string]int64{"requests": usage.WorkersRequests}},
			},
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"viewer": map[string]any{
				"accounts": accounts,
			},
		},
	})
}

// handleAdminState reports mock state. Doubles as the health endpoint for
// the standalone mock binary.
func (s *Server) handleAdminState(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	state := map[string]any{
		"accounts":       len(s.accounts),
		"accounts_calls": s.accountsCalls,
		"graphql_calls":  s.graphqlCalls,
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, state)
}

// handleAdminAddAccount seeds an account and its counters. Only used by
// the standalone mock binary; in-process tests call the setters directly.
func (s *Server) handleAdminAddAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Pages   int64  `json:"pages"`
		Workers int64  `json:"workers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.AddAccount(body.ID, body.Name)
	s.SetUsage(body.ID, body.Pages, body.Workers)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response write errors are unrecoverable
	json.NewEncoder(w).Encode(v)
}
