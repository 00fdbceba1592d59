package client

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/axiomflow/api/internal/config"
)

// Google's web endpoint rejects requests beyond this length.
const googleMaxTextLen = 5000

const googleUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

var googleResultRe = regexp.MustCompile(`(?s)class="(?:t0|result-container)">(.*?)<`)

// GoogleClient implements Translator using the Google translate web endpoint.
// It needs no API key.
type GoogleClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewGoogleClient creates a new Google web translate client
func NewGoogleClient(cfg *config.GoogleConfig) *GoogleClient {
	return &GoogleClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		endpoint: cfg.Endpoint,
	}
}

func (c *GoogleClient) Name() string { return "google" }

// IsConfigured returns true if the client has valid configuration
func (c *GoogleClient) IsConfigured() bool {
	return c.endpoint != ""
}

// Translate translates text through the web endpoint
func (c *GoogleClient) Translate(ctx context.Context, text string, meta TranslateMeta) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if len(text) > googleMaxTextLen {
		// back off to a rune boundary so the endpoint never sees a split rune
		cut := googleMaxTextLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	params := url.Values{}
	params.Set("sl", normalizeGoogleLang(meta.LangIn))
	params.Set("tl", normalizeGoogleLang(meta.LangOut))
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", googleUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Google] translate returned %d for %q", resp.StatusCode, truncate(text, 80))
		return "", fmt.Errorf("google translate error (status %d)", resp.StatusCode)
	}

	result, err := extractGoogleResult(string(body))
	if err != nil {
		return "", err
	}
	return result, nil
}

// extractGoogleResult pulls the translation out of the mobile endpoint's HTML
func extractGoogleResult(page string) (string, error) {
	m := googleResultRe.FindStringSubmatch(page)
	if m == nil {
		return "", fmt.Errorf("no translation found in response")
	}
	return removeControlCharacters(html.UnescapeString(m[1])), nil
}

// normalizeGoogleLang maps bare language codes onto the variants Google
// expects (zh must be zh-CN).
func normalizeGoogleLang(lang string) string {
	switch strings.ToLower(lang) {
	case "zh", "zh-hans":
		return "zh-CN"
	case "zh-hant":
		return "zh-TW"
	case "":
		return "auto"
	}
	return lang
}

func removeControlCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
