// Package usage fetches and aggregates per-account daily request counts
// from the Cloudflare API.
package usage

// Failure messages carried on records that could not be fetched.
const (
	MsgNoCredential = "no credential configured"
	MsgNoAccountID  = "cannot resolve account id"
)

// TokenDisplayName labels token-authenticated accounts that carry no email.
const TokenDisplayName = "API Token"

// Record is one account's normalized daily usage. Failed fetches produce
// a record with Success false, zero counters, and the failure in Msg.
type Record struct {
	Success         bool   `json:"success"`
	Requests        int64  `json:"requests"`
	PagesRequests   int64  `json:"pagesRequests"`
	WorkersRequests int64  `json:"workersRequests"`
	Email           string `json:"email"`
	AccountID       string `json:"accountID"`
	Msg             string `json:"msg,omitempty"`
}
