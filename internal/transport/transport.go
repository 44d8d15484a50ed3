package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/events"
	"github.com/TheMichaelB/sealshare/internal/models"
)

const snippetsPath = "/api/v1/snippets"

// Transport talks to the remote snippet store.
type Transport interface {
	// CreateSnippet uploads an encrypted snippet.
	CreateSnippet(ctx context.Context, req *models.CreateSnippetRequest) (*models.CreateSnippetResponse, error)

	// GetSnippet fetches an encrypted snippet by ID.
	GetSnippet(ctx context.Context, id string) (*models.SnippetResponse, error)

	// DeleteSnippet removes a snippet using the token returned at creation.
	DeleteSnippet(ctx context.Context, id, deleteToken string) error

	// Close releases idle connections.
	Close() error
}

// DefaultTransport implements the Transport interface over HTTP.
type DefaultTransport struct {
	httpClient *HTTPClient
	logger     *events.Logger
}

// NewTransport creates a transport instance.
func NewTransport(cfg *config.APIConfig, logger *events.Logger) Transport {
	return NewTransportWithClient(NewHTTPClient(cfg, logger), logger)
}

// NewTransportWithClient wraps an existing HTTP client.
func NewTransportWithClient(httpClient *HTTPClient, logger *events.Logger) *DefaultTransport {
	return &DefaultTransport{
		httpClient: httpClient,
		logger:     logger.WithField("component", "transport"),
	}
}

// CreateSnippet posts the encrypted payload.
func (t *DefaultTransport) CreateSnippet(ctx context.Context, req *models.CreateSnippetRequest) (*models.CreateSnippetResponse, error) {
	var resp models.CreateSnippetResponse
	if err := t.httpClient.DoJSON(ctx, http.MethodPost, snippetsPath, req, &resp, nil); err != nil {
		return nil, fmt.Errorf("create snippet: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("create snippet: server returned no id")
	}

	t.logger.For(ctx).WithFields(map[string]interface{}{
		"snippet_id": resp.ID,
		"size":       len(req.Ciphertext),
	}).Debug("Snippet created")

	return &resp, nil
}

// GetSnippet fetches a snippet.
func (t *DefaultTransport) GetSnippet(ctx context.Context, id string) (*models.SnippetResponse, error) {
	var resp models.SnippetResponse
	if err := t.httpClient.DoJSON(ctx, http.MethodGet, snippetPath(id), nil, &resp, nil); err != nil {
		return nil, fmt.Errorf("get snippet %s: %w", id, err)
	}
	if resp.ID == "" {
		resp.ID = id
	}
	return &resp, nil
}

// DeleteSnippet deletes a snippet.
func (t *DefaultTransport) DeleteSnippet(ctx context.Context, id, deleteToken string) error {
	headers := map[string]string{"X-Delete-Token": deleteToken}
	if err := t.httpClient.DoJSON(ctx, http.MethodDelete, snippetPath(id), nil, nil, headers); err != nil {
		return fmt.Errorf("delete snippet %s: %w", id, err)
	}
	return nil
}

// Close closes idle connections.
func (t *DefaultTransport) Close() error {
	t.httpClient.client.CloseIdleConnections()
	return nil
}

func snippetPath(id string) string {
	return snippetsPath + "/" + url.PathEscape(id)
}
