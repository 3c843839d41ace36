package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/flagkeep/flagkeep/internal/store"
)

// Client is an HTTP client for the flagkeep API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response decoded from the envelope.
type APIError struct {
	StatusCode int
	Err        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s: %s", e.StatusCode, e.Err, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Err)
}

// envelope mirrors the server's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// ListFlags retrieves all flags, optionally filtered by a search term.
func (c *Client) ListFlags(ctx context.Context, search string) ([]store.FeatureFlag, error) {
	path := "/feature-flags"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var flags []store.FeatureFlag
	if err := c.do(ctx, http.MethodGet, path, nil, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

// ListEnabledFlags retrieves enabled flags only.
func (c *Client) ListEnabledFlags(ctx context.Context) ([]store.FeatureFlag, error) {
	var flags []store.FeatureFlag
	if err := c.do(ctx, http.MethodGet, "/feature-flags/enabled", nil, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

// GetFlag retrieves a single flag by key.
func (c *Client) GetFlag(ctx context.Context, key string) (*store.FeatureFlag, error) {
	var flag store.FeatureFlag
	if err := c.do(ctx, http.MethodGet, "/feature-flags/"+url.PathEscape(key), nil, &flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

// CreateFlag creates a new flag.
func (c *Client) CreateFlag(ctx context.Context, params store.CreateParams) (*store.FeatureFlag, error) {
	var flag store.FeatureFlag
	if err := c.do(ctx, http.MethodPost, "/feature-flags", params, &flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

// UpdateFlag applies a partial update to an existing flag.
func (c *Client) UpdateFlag(ctx context.Context, key string, patch store.Patch) (*store.FeatureFlag, error) {
	var flag store.FeatureFlag
	if err := c.do(ctx, http.MethodPut, "/feature-flags/"+url.PathEscape(key), patch, &flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

// ToggleFlag flips a flag's enabled state.
func (c *Client) ToggleFlag(ctx context.Context, key string) (*store.FeatureFlag, error) {
	var flag store.FeatureFlag
	if err := c.do(ctx, http.MethodPatch, "/feature-flags/"+url.PathEscape(key)+"/toggle", nil, &flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

// DeleteFlag removes a flag.
func (c *Client) DeleteFlag(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/feature-flags/"+url.PathEscape(key), nil, nil)
}

// do executes one API round trip and decodes the envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Err: env.Error, Message: env.Message}
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
