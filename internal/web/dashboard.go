package web

import (
	"context"
	"net/http"

	"github.com/sipico/cf-usage-dashboard/internal/storage"
	"github.com/sipico/cf-usage-dashboard/internal/usage"
)

// HandleRoot dispatches GET / on the flag query parameter: the stats JSON
// endpoints are flag-selected variants of the dashboard page.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("flag") {
	case "stats":
		h.HandleStats(w, r)
	case "stats_api":
		h.HandleStatsAPI(w, r)
	case "":
		h.HandleDashboard(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandleDashboard shows the usage dashboard, or the login form when the
// caller is not authenticated.
// GET /
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.isAuthenticated(r) {
		h.renderLogin(w)
		return
	}

	records := h.stats.AggregateAll(r.Context())
	limit := h.stats.RequestLimit(r.Context())

	data := dashboardData{
		Accounts:  buildAccountViews(records, limit),
		Limit:     limit,
		Generated: h.now().Format("2006-01-02 15:04:05"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		h.logger.Error("template error", "error", err)
	}

	h.recordAccess(r, "dashboard")
	h.checkThreshold(records, limit)
}

func (h *Handler) renderLogin(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "login.html", nil); err != nil {
		h.logger.Error("template error", "error", err)
	}
}

// recordAccess appends an audit-trail entry after the response, detached
// from the request lifetime.
func (h *Handler) recordAccess(r *http.Request, action string) {
	entry := storage.AccessLogEntry{
		Timestamp: h.now().UTC(),
		IP:        clientIP(r),
		Location:  clientLocation(r),
		Action:    action,
	}
	h.runner.Submit("access-log", func(ctx context.Context) {
		if err := h.storage.AppendAccessLog(ctx, entry); err != nil {
			h.logger.Warn("access log append failed", "action", action, "error", err)
		}
	})
}

// checkThreshold runs the alert check after the response.
func (h *Handler) checkThreshold(records []usage.Record, limit int64) {
	h.runner.Submit("threshold-check", func(ctx context.Context) {
		h.notifier.CheckAndNotify(ctx, records, limit)
	})
}
