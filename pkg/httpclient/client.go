// Package httpclient is a client for the aomesh HTTP diagnostics API.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrNotAuthenticated is returned by admin calls made without a token
var ErrNotAuthenticated = errors.New("client has no admin token")

// Client provides HTTP client for the aomesh API
type Client struct {
	config     Config
	httpClient *http.Client
	token      string
	baseURL    *url.URL
}

// NewClient creates a new aomesh HTTP client
func NewClient(config Config) (*Client, error) {
	config.SetDefaults()

	// Validate required config
	if config.ServerURL == "" {
		return nil, fmt.Errorf("ServerURL is required")
	}

	// Parse base URL
	baseURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		token:      config.Token,
		baseURL:    baseURL,
	}, nil
}

// Info returns the API description served at the root path
func (c *Client) Info(ctx context.Context) (*APIInfoResponse, error) {
	var resp APIInfoResponse
	if err := c.doRequest(ctx, "/", &resp, false); err != nil {
		return nil, fmt.Errorf("failed to get api info: %w", err)
	}
	return &resp, nil
}

// GetHealth returns the health status of the runtime. An unhealthy runtime
// answers 503 with a full status body, which is returned without an error.
func (c *Client) GetHealth(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(ctx, "/api/v1/health", &resp, false)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		if jsonErr := json.Unmarshal(apiErr.body, &resp); jsonErr == nil {
			return &resp, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get health status: %w", err)
	}
	return &resp, nil
}

// Admin Methods (require admin token)

// AdminListSubscriptions returns the subscription registry
func (c *Client) AdminListSubscriptions(ctx context.Context) (*AdminSubscriptionsResponse, error) {
	var resp AdminSubscriptionsResponse
	if err := c.doRequest(ctx, "/api/v1/admin/subscriptions", &resp, true); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return &resp, nil
}

// AdminListPools returns the event pool statistics
func (c *Client) AdminListPools(ctx context.Context) (*AdminPoolsResponse, error) {
	var resp AdminPoolsResponse
	if err := c.doRequest(ctx, "/api/v1/admin/pools", &resp, true); err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	return &resp, nil
}

// AdminListObjects returns the active object statistics
func (c *Client) AdminListObjects(ctx context.Context) (*AdminObjectsResponse, error) {
	var resp AdminObjectsResponse
	if err := c.doRequest(ctx, "/api/v1/admin/objects", &resp, true); err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return &resp, nil
}

// APIError is a non-2xx response of the server
type APIError struct {
	StatusCode int
	Status     string
	Message    string

	body []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("API error (%d): %s - %s", e.StatusCode, e.Status, e.Message)
}

// doRequest performs a GET request with optional authentication
func (c *Client) doRequest(ctx context.Context, path string, respBody any, requireAuth bool) error {
	if requireAuth && c.token == "" {
		return ErrNotAuthenticated
	}
	fullURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requireAuth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Read response body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Check status code
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, body: bodyBytes}
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err == nil {
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	// Parse successful response
	if respBody != nil {
		if err := json.Unmarshal(bodyBytes, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// IsAuthenticated returns whether the client has a token
func (c *Client) IsAuthenticated() bool {
	return c.token != ""
}

// SetToken sets the admin token
func (c *Client) SetToken(token string) {
	c.token = token
}
