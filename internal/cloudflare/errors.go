package cloudflare

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError represents a structured error entry from the Cloudflare v4 API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cloudflare: request failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cloudflare: %s", e.Message)
}

// Sentinel errors for common API error cases.
var (
	// ErrNoAccounts is returned when the account-listing call succeeds but
	// carries no result entries.
	ErrNoAccounts = errors.New("cloudflare: no accounts returned")

	// ErrEmptyUsagePayload is returned when the analytics response carries
	// no account payload.
	ErrEmptyUsagePayload = errors.New("cloudflare: no account usage data returned")
)

// errorEnvelope is the standard v4 error body {success:false, errors:[...]}.
type errorEnvelope struct {
	Success bool       `json:"success"`
	Errors  []APIError `json:"errors"`
}

// parseError converts a non-OK API response into an error that embeds the
// HTTP status and, when present, the provider's own error text.
func parseError(statusCode int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 {
		apiErr := env.Errors[0]
		apiErr.StatusCode = statusCode
		return &apiErr
	}
	return fmt.Errorf("cloudflare: request failed (status %d)", statusCode)
}
