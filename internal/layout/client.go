package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"
)

// Client classifies page layout via an external vision service. Any
// error from the classifier is advisory: callers fall back to heuristic
// segmentation and the page never fails on a layout error.
type Client interface {
	Classify(ctx context.Context, img image.Image) (*Analysis, error)
}

// HTTPClientConfig configures the HTTP layout client.
type HTTPClientConfig struct {
	Endpoint string
	Timeout  time.Duration // per-request timeout (0 = 90s)
}

// HTTPClient calls the layout classification service over HTTP.
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
}

// NewHTTPClient builds a layout client for the given endpoint.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Classify sends the page raster and decodes the layout analysis.
func (c *HTTPClient) Classify(ctx context.Context, img image.Image) (*Analysis, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page raster: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build layout request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("layout request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("layout service returned status %d", resp.StatusCode)
	}
	var a Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode layout response: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout analysis: %w", err)
	}
	return &a, nil
}
