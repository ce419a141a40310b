package ocr

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

// Client recognizes text on a page raster. Implementations call an
// external OCR engine; tests substitute fakes.
type Client interface {
	Recognize(ctx context.Context, img image.Image) (*Result, error)
}

// HTTPClientConfig configures the HTTP OCR client.
type HTTPClientConfig struct {
	Endpoint string        // full URL of the recognize endpoint
	Timeout  time.Duration // per-request timeout (0 = 60s)
}

// HTTPClient talks to an OCR engine over HTTP. The page raster is sent
// as a PNG body and the engine responds with a JSON Result.
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
}

// NewHTTPClient builds an OCR client for the given endpoint.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Recognize sends the raster to the OCR engine and decodes the result.
func (c *HTTPClient) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page raster: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR engine returned status %d", resp.StatusCode)
	}
	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode OCR response: %w", err)
	}
	if res.Width == 0 && res.Height == 0 {
		b := img.Bounds()
		res.Width, res.Height = b.Dx(), b.Dy()
	}
	if err := Validate(&res); err != nil {
		return nil, fmt.Errorf("invalid OCR response: %w", err)
	}
	return &res, nil
}
