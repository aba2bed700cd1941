package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/circular-readiness/internal/assessment"
	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
)

// Client is a Go SDK for the circular-readiness API
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new circular-readiness client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned for every non-2xx response
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code (e.g. "invalid_answer")
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// SessionState is returned by answer, weights and reset calls
type SessionState struct {
	Session *models.Session `json:"session"`
	Results *scoring.Result `json:"results"`
}

// ListOptions filters history listings
type ListOptions struct {
	Product string
	Company string
	Limit   int
	Offset  int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Product != "" {
		q.Set("product", o.Product)
	}
	if o.Company != "" {
		q.Set("company", o.Company)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// --- Sessions ---

// CreateSession starts a new assessment
func (c *Client) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	var s models.Session
	if err := c.call(ctx, http.MethodPost, "/api/v1/sessions", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession retrieves a session by ID
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := c.call(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns all sessions, newest first
func (c *Client) ListSessions(ctx context.Context) ([]*models.Session, error) {
	var data struct {
		Sessions []*models.Session `json:"sessions"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/sessions", nil, &data); err != nil {
		return nil, err
	}
	return data.Sessions, nil
}

// DeleteSession removes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/sessions/"+url.PathEscape(id), nil, nil)
}

// SetAnswer records an answer; a nil score clears it
func (c *Client) SetAnswer(ctx context.Context, id string, req models.SetAnswerRequest) (*SessionState, error) {
	var state SessionState
	if err := c.call(ctx, http.MethodPut, "/api/v1/sessions/"+url.PathEscape(id)+"/answers", req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SetWeights replaces the session's raw theme weights
func (c *Client) SetWeights(ctx context.Context, id string, weights map[string]float64) (*SessionState, error) {
	var state SessionState
	req := models.SetWeightsRequest{Weights: weights}
	if err := c.call(ctx, http.MethodPut, "/api/v1/sessions/"+url.PathEscape(id)+"/weights", req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Reset clears all answers of a session
func (c *Client) Reset(ctx context.Context, id string) (*SessionState, error) {
	var state SessionState
	if err := c.call(ctx, http.MethodPost, "/api/v1/sessions/"+url.PathEscape(id)+"/reset", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Results returns the current scores of a session
func (c *Client) Results(ctx context.Context, id string) (*scoring.Result, error) {
	var res scoring.Result
	if err := c.call(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(id)+"/results", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveSnapshot appends the session to history
func (c *Client) SaveSnapshot(ctx context.Context, id string, req models.SaveSnapshotRequest) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.call(ctx, http.MethodPost, "/api/v1/sessions/"+url.PathEscape(id)+"/snapshots", req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// --- History ---

// History lists saved snapshots, oldest first
func (c *Client) History(ctx context.Context, opts ListOptions) ([]*models.Snapshot, error) {
	var data struct {
		Snapshots []*models.Snapshot `json:"snapshots"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/history"+opts.query(), nil, &data); err != nil {
		return nil, err
	}
	return data.Snapshots, nil
}

// GetSnapshot retrieves a single saved assessment
func (c *Client) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.call(ctx, http.MethodGet, "/api/v1/history/"+url.PathEscape(id), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Comparison returns the history comparison table
func (c *Client) Comparison(ctx context.Context, opts ListOptions) (*assessment.Comparison, error) {
	var cmp assessment.Comparison
	if err := c.call(ctx, http.MethodGet, "/api/v1/history/comparison"+opts.query(), nil, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// Details returns every answered question across the history
func (c *Client) Details(ctx context.Context, opts ListOptions) ([]assessment.DetailRow, error) {
	var data struct {
		Rows []assessment.DetailRow `json:"rows"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/history/details"+opts.query(), nil, &data); err != nil {
		return nil, err
	}
	return data.Rows, nil
}

// --- Catalog ---

// Catalog returns the full question catalog
func (c *Client) Catalog(ctx context.Context) (*models.Catalog, error) {
	var cat models.Catalog
	if err := c.call(ctx, http.MethodGet, "/api/v1/catalog", nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListThemes returns theme summaries in catalog order
func (c *Client) ListThemes(ctx context.Context) ([]models.ThemeSummary, error) {
	var data struct {
		Themes []models.ThemeSummary `json:"themes"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/catalog/themes", nil, &data); err != nil {
		return nil, err
	}
	return data.Themes, nil
}

// Levels returns the maturity bands
func (c *Client) Levels(ctx context.Context) ([]models.MaturityLevel, error) {
	var data struct {
		Levels []models.MaturityLevel `json:"levels"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/catalog/levels", nil, &data); err != nil {
		return nil, err
	}
	return data.Levels, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

// call sends body as JSON and decodes the envelope's data into out
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	status, respBody, err := c.doRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		if status >= 400 {
			return &APIError{Status: status, Code: "http_error", Message: string(respBody)}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || status >= 400 {
		apiErr := &APIError{Status: status, Code: "unknown_error"}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// BaseURL returns the API base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}
