package workbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ignite/workbooks-sync/internal/pkg/httpretry"
)

// Client is the Workbooks CRM API client
type Client struct {
	baseURL         string
	apiKey          string
	logicalDatabase string
	httpClient      httpretry.HTTPDoer
}

// NewClient creates a new Workbooks API client
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		logicalDatabase: cfg.LogicalDatabase,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout,
		}, cfg.MaxRetries),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated request against the API. Transport
// failures, non-2xx statuses and unreadable bodies are all surfaced as
// *APIError so callers can branch on Kind.
func (c *Client) doRequest(ctx context.Context, method, resource string, query url.Values, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindValidationFailed, Detail: fmt.Sprintf("marshal request body: %v", err)}
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	reqURL := fmt.Sprintf("%s/%s.api", c.baseURL, resource)
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, &APIError{Kind: KindRemoteUnavailable, Detail: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.logicalDatabase != "" {
		req.Header.Set("X-Logical-Database", c.logicalDatabase)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindRemoteUnavailable, Detail: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindMalformedResponse, Status: resp.StatusCode, Detail: fmt.Sprintf("read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Kind:   kindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Detail: truncate(string(respBody), 512),
		}
	}

	return respBody, nil
}

// Search queries a resource. Filters are encoded in the remote's triplet
// convention (_ff[]/_ft[]/_fc[]). start/limit page through results.
func (c *Client) Search(ctx context.Context, resource string, filters []Filter, start, limit int) ([]Record, error) {
	query := url.Values{}
	if start > 0 {
		query.Set("_start", strconv.Itoa(start))
	}
	if limit > 0 {
		query.Set("_limit", strconv.Itoa(limit))
	}
	for _, f := range filters {
		query.Add("_ff[]", f.Field)
		query.Add("_ft[]", f.Comparator)
		query.Add("_fc[]", f.Value)
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, resource, query, nil)
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, &APIError{Kind: KindMalformedResponse, Detail: fmt.Sprintf("parse search response: %v", err)}
	}

	return response.Data, nil
}

// Create inserts a single record into the given resource. The payload is sent
// as a one-element batch, matching the remote convention. The returned
// WriteResult may legitimately lack a usable id — callers decide how to treat
// that (the registration flow treats it as a soft success).
func (c *Client) Create(ctx context.Context, resource string, payload map[string]string) (*WriteResult, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, resource, nil, []map[string]string{payload})
	if err != nil {
		return nil, err
	}

	var result WriteResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &APIError{Kind: KindMalformedResponse, Detail: fmt.Sprintf("parse create response: %v", err)}
	}

	return &result, nil
}

// Update modifies an existing record. The payload must carry the record id
// and the current lock_version; the remote rejects stale lock versions.
func (c *Client) Update(ctx context.Context, resource string, payload map[string]string) (*WriteResult, error) {
	if payload[FieldID] == "" || payload[FieldLockVersion] == "" {
		return nil, &APIError{Kind: KindValidationFailed, Detail: "update payload requires id and lock_version"}
	}

	respBody, err := c.doRequest(ctx, http.MethodPut, resource, nil, []map[string]string{payload})
	if err != nil {
		return nil, err
	}

	var result WriteResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &APIError{Kind: KindMalformedResponse, Detail: fmt.Sprintf("parse update response: %v", err)}
	}

	return &result, nil
}

// FindPersonByEmail looks up at most one Person by email. The email is
// lowercased before querying; the remote match is case-insensitive. Returns
// nil (no error) when nothing is found.
func (c *Client) FindPersonByEmail(ctx context.Context, email string) (*Record, error) {
	records, err := c.Search(ctx, ResourcePeople, []Filter{
		Eq(FieldEmail, strings.ToLower(email)),
	}, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// FindOrganisationByName looks up at most one Organisation by exact name.
// Returns nil (no error) when nothing is found.
func (c *Client) FindOrganisationByName(ctx context.Context, name string) (*Record, error) {
	records, err := c.Search(ctx, ResourceOrganisations, []Filter{
		Eq(FieldOrgName, name),
	}, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Ping performs a minimal authenticated request for health checks.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Search(ctx, ResourcePeople, nil, 0, 1)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
