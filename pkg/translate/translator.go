// Package translate validates translation requests and runs them through the
// batchexecute encoder, an HTTP transport and the response decoder.
package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/batchxlate/pkg/batchexecute"
	"github.com/dasmlab/batchxlate/pkg/language"
	"github.com/dasmlab/batchxlate/pkg/transport"
)

// MaxTextLength is the longest accepted input, in UTF-8 bytes.
const MaxTextLength = 5000

// healthProbeText is translated by CheckHealth.
const healthProbeText = "hello"

var (
	// ErrInvalidInput is returned for empty or over-long text and for an
	// auto target language. No request is sent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport wraps connection failures, timeouts and non-2xx statuses.
	ErrTransport = errors.New("transport error")

	// ErrNoSegments is returned by CheckHealth when a well-formed response
	// carries no translation.
	ErrNoSegments = errors.New("health check failed: no segments returned")

	// ErrMalformedResponse matches any failure to decode the response.
	ErrMalformedResponse = batchexecute.ErrMalformedResponse
)

// Translator defines the interface for translation backends.
// The gRPC and HTTP fronts depend on it rather than on Client.
type Translator interface {
	// Translate returns the translated segments of text in order.
	Translate(ctx context.Context, text string, source, target language.LanguageCode) ([]string, error)

	// CheckHealth verifies that the backend answers a translation.
	CheckHealth(ctx context.Context) error

	// SupportedLanguages returns every language the backend accepts.
	SupportedLanguages(ctx context.Context) ([]language.LanguageCode, error)
}

// Client implements Translator on top of the batchexecute RPC.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	transport transport.Transport
	decoder   *batchexecute.Decoder
	metrics   *MetricsCollector
	logger    *logrus.Logger
}

// NewClient creates a client sending requests through t.
func NewClient(t transport.Transport, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		transport: t,
		decoder:   batchexecute.NewDecoder(logger),
		metrics:   NewMetricsCollector(batchexecute.TranslateRPCID),
		logger:    logger,
	}
}

// Translate validates the request, encodes it, sends it once and decodes
// the reply. It either returns every segment or a single error matching
// ErrInvalidInput, ErrTransport or ErrMalformedResponse.
func (c *Client) Translate(ctx context.Context, text string, source, target language.LanguageCode) ([]string, error) {
	startTime := time.Now()
	fields := logrus.Fields{
		"source_lang": source.WireForm(),
		"target_lang": target.WireForm(),
		"text_length": len(text),
	}

	if err := ValidateRequest(text, target); err != nil {
		c.logger.WithError(err).WithFields(fields).Warn("Rejected translation request")
		c.metrics.RecordTranslationRequest(time.Since(startTime), StatusInvalidInput, 0, 0)
		return nil, err
	}

	body := batchexecute.EncodeRequest(text, source, target)
	c.logger.WithFields(fields).Debug("Translating text with batchexecute")

	raw, err := c.transport.Post(ctx, body)
	if err != nil {
		c.logger.WithError(err).WithFields(fields).Error("Translation request failed")
		c.metrics.RecordTranslationRequest(time.Since(startTime), StatusTransportError, len(body), 0)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	segments, err := c.decoder.Decode(raw)
	if err != nil {
		var de *batchexecute.DecodeError
		if errors.As(err, &de) {
			c.metrics.RecordDecodeFailure(de.Step)
		}
		c.logger.WithError(err).WithFields(fields).Error("Failed to decode translation response")
		c.metrics.RecordTranslationRequest(time.Since(startTime), StatusMalformedResponse, len(body), 0)
		return nil, err
	}

	duration := time.Since(startTime)
	c.metrics.RecordTranslationRequest(duration, StatusSuccess, len(body), len(segments))
	c.logger.WithFields(fields).WithFields(logrus.Fields{
		"segments":    len(segments),
		"duration_ms": duration.Milliseconds(),
	}).Info("Translation completed successfully")

	return segments, nil
}

// CheckHealth translates a short probe word into English.
func (c *Client) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking batchexecute health")

	segments, err := c.Translate(ctx, healthProbeText, language.Auto, language.English)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if len(segments) == 0 {
		return ErrNoSegments
	}

	c.logger.Debug("batchexecute health check passed")
	return nil
}

// SupportedLanguages returns the fixed catalog. It never contacts the
// remote service.
func (c *Client) SupportedLanguages(ctx context.Context) ([]language.LanguageCode, error) {
	return language.All(), nil
}

// ValidateRequest checks text length and that target is not auto.
func ValidateRequest(text string, target language.LanguageCode) error {
	if text == "" {
		return fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if n := len(text); n > MaxTextLength {
		return fmt.Errorf("%w: text is %d bytes, limit is %d", ErrInvalidInput, n, MaxTextLength)
	}
	if target.IsAuto() {
		return fmt.Errorf("%w: auto is only valid as source language", ErrInvalidInput)
	}
	return nil
}
