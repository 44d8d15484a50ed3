package client

import (
	"errors"
	"fmt"

	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/crypto"
	"github.com/TheMichaelB/sealshare/internal/events"
	"github.com/TheMichaelB/sealshare/internal/history"
	"github.com/TheMichaelB/sealshare/internal/metrics"
	"github.com/TheMichaelB/sealshare/internal/services/snippets"
	"github.com/TheMichaelB/sealshare/internal/transport"
)

// Client provides the high-level API for sealshare operations.
type Client struct {
	Snippets *snippets.Service
	History  history.Store // nil when history is disabled
	Metrics  *metrics.Registry

	config    *config.Config
	logger    *events.Logger
	transport transport.Transport
}

// New creates a new sealshare client.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	httpClient := transport.NewHTTPClient(&cfg.API, logger)
	if cfg.Dev.InsecureSkipVerify {
		httpClient.SetInsecureSkipVerify(true)
	}
	return NewWithTransport(cfg, transport.NewTransportWithClient(httpClient, logger), logger)
}

// NewWithTransport creates a client over an existing transport.
func NewWithTransport(cfg *config.Config, tr transport.Transport, logger *events.Logger) (*Client, error) {
	var store history.Store
	if cfg.History.Enabled {
		var err error
		store, err = history.Open(&cfg.History, logger)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
	}

	reg := metrics.DefaultRegistry()

	return &Client{
		Snippets:  snippets.NewService(tr, crypto.NewProvider(), store, reg, cfg, logger),
		History:   store,
		Metrics:   reg,
		config:    cfg,
		logger:    logger,
		transport: tr,
	}, nil
}

// Close releases the transport and history and flushes metrics.
func (c *Client) Close() error {
	var errs []error

	if err := c.transport.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.History != nil {
		if err := c.History.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Metrics.WriteTextfile(c.config.Metrics.Textfile); err != nil {
		c.logger.WithError(err).Warn("Failed to write metrics")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
