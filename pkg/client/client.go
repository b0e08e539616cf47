package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/casequest/coach-engine/internal/models"
)

// Client is a Go SDK for the coach-engine API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new coach-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ScenarioList is the catalog listing response
type ScenarioList struct {
	Scenarios []models.Scenario `json:"scenarios"`
	Total     int               `json:"total"`
}

// CategoryList is the category listing response
type CategoryList struct {
	Categories []models.CategoryProfile `json:"categories"`
	Total      int                      `json:"total"`
}

// ListScenarios returns catalog scenarios filtered by category and
// difficulty; empty or "All" values match everything.
func (c *Client) ListScenarios(ctx context.Context, category, difficulty string) (*ScenarioList, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}

	path := "/api/v1/scenarios"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result ScenarioList
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListCategories returns the category profiles present in the catalog
func (c *Client) ListCategories(ctx context.Context) (*CategoryList, error) {
	var result CategoryList
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetScenario returns one scenario by ID
func (c *Client) GetScenario(ctx context.Context, id string) (*models.Scenario, error) {
	var result models.Scenario
	if err := c.do(ctx, http.MethodGet, "/api/v1/scenarios/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateSession registers a new practice session in the landing phase
func (c *Client) CreateSession(ctx context.Context) (*models.CreateSessionResponse, error) {
	var result models.CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSession returns the current session snapshot
func (c *Client) GetSession(ctx context.Context, token string) (*models.Snapshot, error) {
	var result models.Snapshot
	if err := c.do(ctx, http.MethodGet, c.sessionPath(token, ""), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteSession removes a session
func (c *Client) DeleteSession(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, c.sessionPath(token, ""), nil, nil)
}

// StartPractice moves the session from landing to scenario selection
func (c *Client) StartPractice(ctx context.Context, token string) (*models.Snapshot, error) {
	return c.action(ctx, token, "practice", nil)
}

// SelectScenario starts a coaching run for the given scenario
func (c *Client) SelectScenario(ctx context.Context, token, scenarioID string) (*models.Snapshot, error) {
	return c.action(ctx, token, "scenario", models.SelectScenarioRequest{ScenarioID: scenarioID})
}

// SendMessage submits one user chat turn
func (c *Client) SendMessage(ctx context.Context, token, text string) (*models.Snapshot, error) {
	return c.action(ctx, token, "messages", models.SendMessageRequest{Text: text})
}

// RequestHint asks the coach for a directional nudge
func (c *Client) RequestHint(ctx context.Context, token string) (*models.Snapshot, error) {
	return c.action(ctx, token, "hint", nil)
}

// Complete ends the coaching run and retrieves the evaluation
func (c *Client) Complete(ctx context.Context, token string) (*models.Snapshot, error) {
	return c.action(ctx, token, "complete", nil)
}

// Exit discards the practice run and returns to selection
func (c *Client) Exit(ctx context.Context, token string) (*models.Snapshot, error) {
	return c.action(ctx, token, "exit", nil)
}

// GoHome discards the practice run and returns to landing
func (c *Client) GoHome(ctx context.Context, token string) (*models.Snapshot, error) {
	return c.action(ctx, token, "home", nil)
}

// action POSTs one session action and decodes the snapshot
func (c *Client) action(ctx context.Context, token, name string, body interface{}) (*models.Snapshot, error) {
	var result models.Snapshot
	if err := c.do(ctx, http.MethodPost, c.sessionPath(token, name), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) sessionPath(token, suffix string) string {
	path := "/api/v1/sessions/" + url.PathEscape(token)
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}

// do performs one request and unwraps the API envelope
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !envelope.Success {
		if envelope.Error != nil {
			return fmt.Errorf("API error: %s - %s", envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}

	return nil
}
