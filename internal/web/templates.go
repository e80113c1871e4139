package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/sipico/cf-usage-dashboard/internal/usage"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"formatNumber": formatNumber,
	}).ParseFS(templateFS, "templates/*.html"),
)

// dashboardData is the model behind the dashboard page and the account
// card fragment.
type dashboardData struct {
	Accounts  []accountView
	Limit     int64
	Generated string
}

// accountView is one rendered account card.
type accountView struct {
	Email           string
	AccountID       string
	Success         bool
	Msg             string
	Requests        int64
	PagesRequests   int64
	WorkersRequests int64
	Percent         string
	NearLimit       bool
}

func buildAccountViews(records []usage.Record, limit int64) []accountView {
	views := make([]accountView, 0, len(records))
	for _, rec := range records {
		v := accountView{
			Email:           rec.Email,
			AccountID:       rec.AccountID,
			Success:         rec.Success,
			Msg:             rec.Msg,
			Requests:        rec.Requests,
			PagesRequests:   rec.PagesRequests,
			WorkersRequests: rec.WorkersRequests,
		}
		if rec.Success && limit > 0 {
			pct := float64(rec.Requests) / float64(limit) * 100
			v.Percent = fmt.Sprintf("%.1f%%", pct)
			v.NearLimit = pct >= 95
		}
		views = append(views, v)
	}
	return views
}

func formatNumber(n int64) string {
	if n == 0 {
		return "0"
	}

	str := fmt.Sprintf("%d", n)
	negative := n < 0
	if negative {
		str = str[1:]
	}

	var result strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}

	if negative {
		return "-" + result.String()
	}
	return result.String()
}
