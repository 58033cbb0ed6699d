// Package ocr is a client for the OCR service that turns a report image
// into plain text.
//
// The service exposes POST /ocr (multipart field "file") answering
// {"text": "...", "status": "success" | "no_text_found"} or, on failure,
// {"error": "...", "details": "..."}; and GET /health.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNoText is returned when the service read the image but found no text.
	ErrNoText = errors.New("no text found in image")

	// ErrUnavailable is returned when every attempt to reach the service failed.
	ErrUnavailable = errors.New("ocr service unavailable")
)

const (
	statusSuccess = "success"
	statusNoText  = "no_text_found"
)

// Config configures the client.
type Config struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"` // per attempt
	Retries int           `mapstructure:"retries" yaml:"retries"`
	Backoff time.Duration `mapstructure:"backoff" yaml:"backoff"` // doubles on each retry
}

// DefaultConfig returns a 30s timeout with two retries.
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:5000",
		Timeout: 30 * time.Second,
		Retries: 2,
		Backoff: 500 * time.Millisecond,
	}
}

// APIError is a non-retryable error response from the service.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr service returned %d: %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("ocr service returned %d: %s", e.StatusCode, e.Message)
}

type ocrResponse struct {
	Text   string `json:"text"`
	Status string `json:"status"`
}

// Client talks to the OCR service. It is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for retries.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient creates a client for the service at cfg.URL.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract uploads an image and returns the recognised text. Server errors
// and transport failures are retried; 4xx responses are not.
func (c *Client) Extract(ctx context.Context, filename string, image io.Reader) (string, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", &APIError{StatusCode: http.StatusBadRequest, Message: "empty image"}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.Backoff << (attempt - 1)
			c.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("retrying ocr request")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := c.extractOnce(ctx, filename, data)
		if err == nil {
			return text, nil
		}
		if !retryable(err) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrUnavailable, c.cfg.Retries+1, lastErr)
}

func (c *Client) extractOnce(ctx context.Context, filename string, data []byte) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/ocr", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ocr response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(payload, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return "", apiErr
	}

	var out ocrResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("failed to decode ocr response: %w", err)
	}

	switch out.Status {
	case statusSuccess:
		if strings.TrimSpace(out.Text) == "" {
			return "", ErrNoText
		}
		return out.Text, nil
	case statusNoText:
		return "", ErrNoText
	default:
		return "", fmt.Errorf("unexpected ocr status %q", out.Status)
	}
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// retryable reports whether err is worth another attempt: transport
// failures and 5xx responses are, client errors and empty results are not.
func retryable(err error) bool {
	if errors.Is(err, ErrNoText) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
