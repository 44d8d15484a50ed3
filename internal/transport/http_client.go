package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/events"
	"github.com/TheMichaelB/sealshare/internal/models"
)

// Response bodies above this size are rejected.
const maxResponseSize = 16 << 20

// HTTPClient handles HTTP communication with the snippet store.
type HTTPClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	token     string
	logger    *events.Logger

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
}

// statusError marks a response status worth retrying.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.status, e.body)
}

// NewHTTPClient creates an HTTP client.
func NewHTTPClient(cfg *config.APIConfig, logger *events.Logger) *HTTPClient {
	// Create transport with HTTP/2 support
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			NextProtos: []string{"h2", "http/1.1"},
		},
	}

	// Configure HTTP/2
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.WithError(err).Warn("Failed to configure HTTP/2")
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Second,
		logger:     logger.WithField("component", "http_client"),
	}
}

// SetInsecureSkipVerify disables TLS certificate checks for local servers.
func (c *HTTPClient) SetInsecureSkipVerify(skip bool) {
	if t, ok := c.client.Transport.(*http.Transport); ok && t.TLSClientConfig != nil {
		t.TLSClientConfig.InsecureSkipVerify = skip
	}
	if skip {
		c.logger.Warn("TLS certificate verification disabled")
	}
}

// SetRetryDelay changes the initial backoff delay.
func (c *HTTPClient) SetRetryDelay(d time.Duration) {
	c.retryDelay = d
}

// DoJSON sends payload (if any) as JSON and decodes a JSON response into out
// (if non-nil). Non-2xx responses become *models.APIError.
func (c *HTTPClient) DoJSON(ctx context.Context, method, path string, payload, out interface{}, headers map[string]string) error {
	url := c.baseURL + path

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	logger := c.logger.For(ctx)
	requestID := events.RequestID(ctx)

	// Request bodies are ciphertext; only their size is logged
	logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    url,
		"size":   len(body),
	}).Debug("Sending request")

	var (
		status   int
		respBody []byte
	)
	err := c.retry(ctx, func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		// Set headers
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if c.retryableFor(method, resp.StatusCode) {
			return &statusError{status: resp.StatusCode, body: data}
		}

		status = resp.StatusCode
		respBody = data
		return nil
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return c.apiError(se.status, se.body)
		}
		return err
	}

	logger.WithFields(map[string]interface{}{
		"status": status,
		"size":   len(respBody),
	}).Debug("Received response")

	if status < 200 || status > 299 {
		return c.apiError(status, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}

// apiError converts an error response into *models.APIError.
func (c *HTTPClient) apiError(status int, body []byte) error {
	apiErr := &models.APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	apiErr.StatusCode = status

	if apiErr.Code == "" {
		switch status {
		case http.StatusNotFound, http.StatusGone:
			apiErr.Code = models.ErrCodeNotFound
		case http.StatusRequestEntityTooLarge:
			apiErr.Code = models.ErrCodeTooLarge
		case http.StatusForbidden, http.StatusUnauthorized:
			apiErr.Code = models.ErrCodeForbidden
		case http.StatusTooManyRequests:
			apiErr.Code = models.ErrCodeRateLimit
		default:
			apiErr.Code = models.ErrCodeServerError
		}
	}

	return apiErr
}

// retry executes a function with exponential backoff.
func (c *HTTPClient) retry(ctx context.Context, fn func() error) error {
	logger := c.logger.For(ctx)
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
			}).Debug("Retrying request")

			select {
			case <-time.After(delay):
				delay *= 2 // Exponential backoff
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		// Check if error is retryable
		if !c.isRetryableError(err) {
			return err
		}
	}

	var se *statusError
	if errors.As(lastErr, &se) {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable checks if an HTTP status code is retryable.
func (c *HTTPClient) isRetryable(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusBadGateway ||
		status == http.StatusGatewayTimeout ||
		(status >= 500 && status < 600)
}

// retryableFor reports whether a response status may be retried for method.
// A 5xx after a POST may follow a stored snippet, so POST only retries 429.
func (c *HTTPClient) retryableFor(method string, status int) bool {
	if !c.isRetryable(status) {
		return false
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	default:
		return status == http.StatusTooManyRequests
	}
}

// isRetryableError checks if an error is retryable.
func (c *HTTPClient) isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Network failures and retryable statuses
	return true
}
