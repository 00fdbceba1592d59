package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/axiomflow/api/internal/config"
)

// PDFRenderer defines the interface for the PDF layout/render service
type PDFRenderer interface {
	RenderPDF(ctx context.Context, req *RenderPDFRequest) (*RenderPDFResponse, error)
	HealthCheck(ctx context.Context) error
}

// RenderPDFRequest represents the request for rendering a translated PDF.
// Kind selects the layout: "mono" replaces source text with translations,
// "dual" interleaves source and translated pages.
type RenderPDFRequest struct {
	Document        json.RawMessage `json:"document"`
	Kind            string          `json:"kind"`
	SubsetFonts     bool            `json:"subset_fonts"`
	ConvertToPDFA   bool            `json:"convert_to_pdfa"`
	PDFAPart        *int            `json:"pdfa_part,omitempty"`
	PDFAConformance string          `json:"pdfa_conformance,omitempty"`
}

// RenderPDFResponse represents the rendered artifact
type RenderPDFResponse struct {
	Filename string `json:"filename"`
	PDFBytes []byte `json:"pdf_bytes"`
	Size     int64  `json:"size"`
}

// RendererClient implements PDFRenderer for the render microservice
type RendererClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewRendererClient creates a new renderer client
func NewRendererClient(cfg *config.RendererConfig) *RendererClient {
	return &RendererClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.ServiceURL,
	}
}

// RenderPDF sends the document to the render endpoint
func (c *RendererClient) RenderPDF(ctx context.Context, req *RenderPDFRequest) (*RenderPDFResponse, error) {
	var result RenderPDFResponse
	if err := c.post(ctx, "/render", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HealthCheck checks if the renderer service is available
func (c *RendererClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("renderer service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// post sends a POST request with JSON body and parses the response
func (c *RendererClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("renderer service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *RendererClient) IsConfigured() bool {
	return c.baseURL != ""
}
