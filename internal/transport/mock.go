package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/TheMichaelB/sealshare/internal/models"
)

// MockTransport is an in-memory snippet store for tests.
type MockTransport struct {
	mu sync.Mutex

	// Stored snippets by ID
	Snippets map[string]*models.SnippetResponse
	tokens   map[string]string

	// Error injection
	CreateError error
	GetError    error
	DeleteError error

	// Request tracking
	CreateRequests []models.CreateSnippetRequest
	GetRequests    []string
	DeleteRequests []string

	// State
	nextID int
	now    func() time.Time
	closed bool
}

// NewMockTransport creates a mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Snippets: make(map[string]*models.SnippetResponse),
		tokens:   make(map[string]string),
		now:      time.Now,
	}
}

// SetClock overrides the time source used for created_at and expires_at.
func (m *MockTransport) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// CreateSnippet stores the request and assigns an ID.
func (m *MockTransport) CreateSnippet(ctx context.Context, req *models.CreateSnippetRequest) (*models.CreateSnippetResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateRequests = append(m.CreateRequests, *req)

	if m.CreateError != nil {
		return nil, m.CreateError
	}

	m.nextID++
	id := fmt.Sprintf("snip%04d", m.nextID)
	token := fmt.Sprintf("del-%s", id)

	created := m.now().UTC()
	var expiresAt *time.Time
	if d := models.ExpiryDurations[req.Expiry]; d > 0 {
		t := created.Add(d)
		expiresAt = &t
	}

	m.Snippets[id] = &models.SnippetResponse{
		WireEnvelope:      req.WireEnvelope,
		ID:                id,
		Salt:              req.Salt,
		PasswordProtected: req.PasswordProtected,
		Title:             req.Title,
		Language:          req.Language,
		Visibility:        req.Visibility,
		CreatedAt:         created,
		ExpiresAt:         expiresAt,
	}
	m.tokens[id] = token

	return &models.CreateSnippetResponse{
		ID:          id,
		DeleteToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// GetSnippet returns a stored snippet.
func (m *MockTransport) GetSnippet(ctx context.Context, id string) (*models.SnippetResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetRequests = append(m.GetRequests, id)

	if m.GetError != nil {
		return nil, m.GetError
	}

	snippet, ok := m.Snippets[id]
	if !ok {
		return nil, notFound(id)
	}
	if snippet.ExpiresAt != nil && !m.now().Before(*snippet.ExpiresAt) {
		return nil, &models.APIError{
			Code:       models.ErrCodeExpired,
			Message:    "snippet expired",
			StatusCode: http.StatusGone,
		}
	}

	copied := *snippet
	return &copied, nil
}

// DeleteSnippet removes a snippet when the token matches.
func (m *MockTransport) DeleteSnippet(ctx context.Context, id, deleteToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteRequests = append(m.DeleteRequests, id)

	if m.DeleteError != nil {
		return m.DeleteError
	}

	token, ok := m.tokens[id]
	if !ok {
		return notFound(id)
	}
	if token != deleteToken {
		return &models.APIError{
			Code:       models.ErrCodeForbidden,
			Message:    "invalid delete token",
			StatusCode: http.StatusForbidden,
		}
	}

	delete(m.Snippets, id)
	delete(m.tokens, id)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (m *MockTransport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func notFound(id string) error {
	return &models.APIError{
		Code:       models.ErrCodeNotFound,
		Message:    fmt.Sprintf("snippet %s not found", id),
		StatusCode: http.StatusNotFound,
	}
}
