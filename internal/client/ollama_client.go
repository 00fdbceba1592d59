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

	"github.com/axiomflow/api/internal/config"
)

// OllamaClient implements Translator against a local Ollama instance
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// NewOllamaClient creates a new Ollama chat client
func NewOllamaClient(cfg *config.OllamaConfig) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

// IsConfigured returns true if the client has valid configuration
func (c *OllamaClient) IsConfigured() bool {
	return c.baseURL != "" && c.model != ""
}

// Translate translates text through the Ollama chat API
func (c *OllamaClient) Translate(ctx context.Context, text string, meta TranslateMeta) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	system := fmt.Sprintf(
		"You are a professional translator. Translate the user's text from %s to %s. "+
			"Keep formulas, citations and placeholders unchanged. Reply with the translation only.",
		meta.LangIn, meta.LangOut,
	)

	chatReq := &ollamaChatRequest{
		Model: c.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Stream: false,
	}

	bodyBytes, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return strings.TrimSpace(chatResp.Message.Content), nil
}
