// Package client is a small SDK for driving the translation API from
// workbench frontends and CLI tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/axiomflow/api/internal/model"
)

const defaultTimeout = 30 * time.Second

// Client talks to the translation API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent on every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetDocument loads the full document record: metadata plus parsed pages.
// Exactly one of the results is non-nil.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*model.DocumentRecord, error) {
	var record model.DocumentRecord
	if err := c.get(ctx, "/api/documents/"+documentID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetJob fetches the current job snapshot
func (c *Client) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	if err := c.get(ctx, "/api/jobs/"+jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// StartTranslation submits a translate job for a document
func (c *Client) StartTranslation(ctx context.Context, req *model.TranslateJobCreateRequest) (*model.TranslateJobCreatedResponse, error) {
	var resp model.TranslateJobCreatedResponse
	if err := c.post(ctx, "/api/jobs/translate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export requests an export artifact for a document
func (c *Client) Export(ctx context.Context, req *model.ExportRequest) (*model.ExportResponse, error) {
	var resp model.ExportResponse
	if err := c.post(ctx, "/api/export", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SourcePDFURL returns the URL serving the document's original PDF
func (c *Client) SourcePDFURL(documentID string) string {
	return c.baseURL + "/api/documents/" + documentID + "/source"
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
