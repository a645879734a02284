package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docket/internal/services"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the OCR service.
type Config struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
}

// Page is one recognized page of a document.
type Page struct {
	Number     int     `json:"number"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Document is the full recognition result.
type Document struct {
	Pages []Page `json:"pages"`
}

// Text joins all page text in page order.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, page := range d.Pages {
		if text := strings.TrimSpace(page.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Client talks to the OCR recognition endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an OCR client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Endpoint:       strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Recognize submits document bytes and returns the recognized pages.
func (c *Client) Recognize(ctx context.Context, content []byte) (*Document, error) {
	if c.cfg.Endpoint == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ocr", "recognize", "endpoint not configured", nil)
	}
	if len(content) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ocr", "recognize", "empty document", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/v1/recognize", bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "ocr", "recognize", "request timed out", err)
		}
		return nil, services.Wrap(services.ErrTransient, "ocr", "recognize", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ocr", "recognize", "read response", err)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ocr", "recognize", "malformed response", err)
	}
	return &doc, nil
}

// HealthCheck verifies the service answers at all.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.Endpoint == "" {
		return errors.New("ocr endpoint not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ocr health: http %d", resp.StatusCode)
	}
	return nil
}

func classifyStatus(status int, body []byte) error {
	if status < 400 {
		return nil
	}
	detail := fmt.Sprintf("http %d: %s", status, summarize(body))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "ocr", "recognize", detail, nil)
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrTransient, "ocr", "recognize", detail, nil)
	case status >= 500:
		return services.Wrap(services.ErrTransient, "ocr", "recognize", detail, nil)
	default:
		return services.Wrap(services.ErrValidation, "ocr", "recognize", detail, nil)
	}
}

func summarize(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
