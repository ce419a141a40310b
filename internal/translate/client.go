// Package translate adapts an external translation engine for label
// and paragraph translation, with token-preservation rules for figure
// and chart text.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Request carries one text unit to translate with its surrounding
// context hint (paragraph vs. diagram label vs. chart axis).
type Request struct {
	Text        string `json:"text"`
	ContextHint string `json:"context,omitempty"`
	SourceLang  string `json:"source_lang"`
	TargetLang  string `json:"target_lang"`
}

// Client translates a single text unit. Implementations call an
// external engine; tests substitute fakes.
type Client interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// HTTPClientConfig configures the HTTP translation client.
type HTTPClientConfig struct {
	Endpoint string
	Timeout  time.Duration // per-request timeout (0 = 30s)
}

// HTTPClient calls the translation engine over HTTP with JSON bodies.
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
}

// NewHTTPClient builds a translation client for the given endpoint.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type translateResponse struct {
	Text string `json:"text"`
}

// Translate sends the request and returns the translated text.
func (c *HTTPClient) Translate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode translation request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation engine returned status %d", resp.StatusCode)
	}
	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	return out.Text, nil
}
