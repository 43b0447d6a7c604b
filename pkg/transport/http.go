// Package transport performs the HTTP exchange with the batchexecute endpoint.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultEndpoint is the translate front end's batchexecute URL.
	DefaultEndpoint = "https://translate.google.com/_/TranslateWebserverUi/data/batchexecute"
	// DefaultReferer is sent as the Referer header.
	DefaultReferer = "https://translate.google.com/"
	// DefaultUserAgent is a fixed desktop Chrome user agent. The endpoint may
	// reject requests without a browser-like one.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.2526.106 Safari/537.36"
	// DefaultTimeout bounds a single round trip.
	DefaultTimeout = 30 * time.Second

	// ContentType is the form content type the endpoint expects.
	ContentType = "application/x-www-form-urlencoded;charset=utf-8"
)

// Transport posts an encoded request body and returns the raw response text.
// Implementations must be safe for concurrent use.
type Transport interface {
	Post(ctx context.Context, body []byte) (string, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s: %s", e.Status, truncate(e.Body, 200))
}

// Config holds HTTPTransport settings. Zero fields fall back to the defaults.
type Config struct {
	Endpoint  string
	Referer   string
	UserAgent string
	Timeout   time.Duration
	Logger    *logrus.Logger
}

// HTTPTransport posts to the batchexecute endpoint with fixed headers.
// It never retries.
type HTTPTransport struct {
	endpoint string
	http     *resty.Client
	logger   *logrus.Logger
}

// NewHTTPTransport creates a transport from cfg.
func NewHTTPTransport(cfg Config) *HTTPTransport {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Referer", cfg.Referer).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Content-Type", ContentType)

	return &HTTPTransport{
		endpoint: cfg.Endpoint,
		http:     client,
		logger:   cfg.Logger,
	}
}

// Endpoint returns the URL requests are posted to.
func (t *HTTPTransport) Endpoint() string {
	return t.endpoint
}

// Post sends body and returns the response text. Content-Length is set
// from len(body).
func (t *HTTPTransport) Post(ctx context.Context, body []byte) (string, error) {
	t.logger.WithFields(logrus.Fields{
		"url":        t.endpoint,
		"body_bytes": len(body),
	}).Debug("Posting batchexecute request")

	startTime := time.Now()
	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(t.endpoint)
	if err != nil {
		t.logger.WithError(err).WithFields(logrus.Fields{
			"url": t.endpoint,
		}).Error("batchexecute request failed")
		return "", fmt.Errorf("post %s: %w", t.endpoint, err)
	}

	duration := time.Since(startTime)
	t.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode(),
		"duration_ms": duration.Milliseconds(),
	}).Debug("batchexecute request completed")

	if !resp.IsSuccess() {
		t.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode(),
			"response":    truncate(string(resp.Body()), 200),
		}).Error("batchexecute request returned non-success status")
		return "", &StatusError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       string(resp.Body()),
		}
	}

	return string(resp.Body()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
