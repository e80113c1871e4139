package web

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/sipico/cf-usage-dashboard/internal/usage"
)

// noAccountsFragment is served by the stats_api endpoint when nothing is
// configured.
const noAccountsFragment = `<div class="empty">no accounts configured</div>`

// setCORSHeaders opens the stats endpoints to any origin so external
// status pages can poll them.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleStats serves the raw usage records.
// GET /?flag=stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	records := h.stats.AggregateAll(r.Context())
	limit := h.stats.RequestLimit(r.Context())

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, records)

	h.checkThreshold(records, limit)
}

// HandleStatsAPI serves a rendered HTML fragment for client-side refresh.
// GET /?flag=stats_api
func (h *Handler) HandleStatsAPI(w http.ResponseWriter, r *http.Request) {
	records := h.stats.AggregateAll(r.Context())
	limit := h.stats.RequestLimit(r.Context())

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, map[string]string{"html": h.renderFragment(records, limit)})

	h.checkThreshold(records, limit)
}

// renderFragment renders the per-account cards used both inside the
// dashboard page and by the stats_api endpoint.
func (h *Handler) renderFragment(records []usage.Record, limit int64) string {
	if len(records) == 0 {
		return noAccountsFragment
	}

	var buf bytes.Buffer
	data := dashboardData{Accounts: buildAccountViews(records, limit), Limit: limit}
	if err := templates.ExecuteTemplate(&buf, "accounts.html", data); err != nil {
		h.logger.Error("template error", "error", err)
		return noAccountsFragment
	}
	return buf.String()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response write errors are unrecoverable
	json.NewEncoder(w).Encode(v)
}
