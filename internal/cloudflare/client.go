// Package cloudflare provides a client for the Cloudflare v4 API calls the
// dashboard needs: account listing and the daily invocation analytics query.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default base URL for the Cloudflare v4 API.
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"
)

// billingMetricsQuery sums Pages and Workers invocations for one account
// over a datetime window. The group limits follow the analytics API caps.
const billingMetricsQuery = `
query getBillingMetrics($AccountID: String!, $filter: AccountWorkersInvocationsAdaptiveFilter_InputObject) {
    viewer {
        accounts(filter: {accountTag: $AccountID}) {
            pagesFunctionsInvocationsAdaptiveGroups(limit: 500, filter: $filter) {
                sum { requests }
            }
            workersInvocationsAdaptive(limit: 5000, filter: $filter) {
                sum { requests }
            }
        }
    }
}`

// Client is an HTTP client for the Cloudflare v4 API.
// Every call is attempted exactly once; there is no retry logic.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing with mock server).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new Cloudflare API client. Credentials are supplied
// per call, not per client, because one dashboard queries many accounts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// setAuthHeaders applies the credential's auth shape to a request.
// An API token wins over the email+global-key pair.
func setAuthHeaders(req *http.Request, cred Credential) {
	req.Header.Set("Content-Type", "application/json")
	if cred.HasToken() {
		req.Header.Set("Authorization", "Bearer "+cred.APIToken)
		return
	}
	req.Header.Set("X-AUTH-EMAIL", cred.Email)
	req.Header.Set("X-AUTH-KEY", cred.Key)
}

// ListAccounts retrieves the accounts visible to the credential.
// GET /accounts
func (c *Client) ListAccounts(ctx context.Context, cred Credential) ([]Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts", nil)
	if err != nil {
		return nil, err
	}
	setAuthHeaders(req, cred)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		//nolint:errcheck
		resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, body)
	}

	var result ListAccountsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success || len(result.Result) == 0 {
		return nil, ErrNoAccounts
	}

	return result.Result, nil
}

// QueryDailyUsage issues the analytics query for one account covering the
// window [from, to]. Callers pass midnight UTC of the current day and now.
// POST /graphql
func (c *Client) QueryDailyUsage(ctx context.Context, cred Credential, accountID string, from, to time.Time) (*DailyUsage, error) {
	gqlReq := graphQLRequest{
		Query: billingMetricsQuery,
		Variables: map[string]any{
			"AccountID": accountID,
			"filter": map[string]any{
				"datetime_geq": from.UTC().Format(time.RFC3339),
				"datetime_leq": to.UTC().Format(time.RFC3339),
			},
		},
	}

	body, err := json.Marshal(gqlReq)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setAuthHeaders(httpReq, cred)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		//nolint:errcheck
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, respBody)
	}

	var result graphQLResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("cloudflare: graphql error: %s", result.Errors[0].Message)
	}

	if result.Data == nil || len(result.Data.Viewer.Accounts) == 0 {
		return nil, ErrEmptyUsagePayload
	}

	acc := result.Data.Viewer.Accounts[0]
	usage := &DailyUsage{}
	for _, g := range acc.PagesGroups {
		usage.PagesRequests += g.Sum.Requests
	}
	for _, g := range acc.WorkersGroups {
		usage.WorkersRequests += g.Sum.Requests
	}

	return usage, nil
}
