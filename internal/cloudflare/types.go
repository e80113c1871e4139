package cloudflare

// Credential identifies and authorizes access to one Cloudflare account.
// Exactly one of the two auth shapes is expected: email+global key, or an
// API token. An account ID may be pre-supplied alongside either shape to
// skip the account-listing call.
type Credential struct {
	Email     string `json:"email"`
	Key       string `json:"key"`
	AccountID string `json:"id"`
	APIToken  string `json:"token"`
}

// Empty reports whether all four credential fields are blank.
func (c Credential) Empty() bool {
	return c.Email == "" && c.Key == "" && c.AccountID == "" && c.APIToken == ""
}

// HasKeyPair reports whether the email+global-key shape is usable.
func (c Credential) HasKeyPair() bool {
	return c.Email != "" && c.Key != ""
}

// HasToken reports whether an API token is present.
func (c Credential) HasToken() bool {
	return c.APIToken != ""
}

// Account is one entry from the account-listing endpoint.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListAccountsResponse is the envelope returned by GET /accounts.
type ListAccountsResponse struct {
	Success bool       `json:"success"`
	Errors  []APIError `json:"errors"`
	Result  []Account  `json:"result"`
}

// DailyUsage holds the request counters for one account over one UTC day.
type DailyUsage struct {
	PagesRequests   int64
	WorkersRequests int64
}

// Total returns the combined pages+workers request count.
func (u DailyUsage) Total() int64 {
	return u.PagesRequests + u.WorkersRequests
}

// graphQLRequest is the body posted to the analytics query endpoint.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphQLResponse mirrors the subset of the analytics response we read.
type graphQLResponse struct {
	Data   *graphQLData   `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLData struct {
	Viewer struct {
		Accounts []accountUsage `json:"accounts"`
	} `json:"viewer"`
}

type accountUsage struct {
	PagesGroups   []invocationGroup `json:"pagesFunctionsInvocationsAdaptiveGroups"`
	WorkersGroups []invocationGroup `json:"workersInvocationsAdaptive"`
}

type invocationGroup struct {
	Sum struct {
		Requests int64 `json:"requests"`
	} `json:"sum"`
}
