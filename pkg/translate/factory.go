package translate

import (
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/batchxlate/pkg/transport"
)

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Endpoint is the batchexecute URL. Defaults to transport.DefaultEndpoint.
	Endpoint string
	// Referer and UserAgent override the browser-like request headers.
	Referer   string
	UserAgent string
	// Timeout bounds one round trip. Defaults to transport.DefaultTimeout.
	Timeout time.Duration
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a batchexecute-backed Translator from cfg.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = transport.DefaultEndpoint
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		cfg.Logger.WithFields(logrus.Fields{
			"endpoint": cfg.Endpoint,
		}).Error("Unsupported endpoint scheme")
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", cfg.Endpoint)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint,
		"timeout":  cfg.Timeout.String(),
	}).Info("Creating translator instance")

	t := transport.NewHTTPTransport(transport.Config{
		Endpoint:  cfg.Endpoint,
		Referer:   cfg.Referer,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Logger:    cfg.Logger,
	})
	return NewClient(t, cfg.Logger), nil
}
