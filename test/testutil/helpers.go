package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/TheMichaelB/sealshare/internal/models"
)

// TestServer is an in-process snippet store speaking the HTTP API.
type TestServer struct {
	*httptest.Server

	mu       sync.RWMutex
	snippets map[string]*models.SnippetResponse
	tokens   map[string]string
	bodies   [][]byte
	requests []string
	nextID   int
}

// NewTestServer creates a new test HTTP server.
func NewTestServer() *TestServer {
	ts := &TestServer{
		snippets: make(map[string]*models.SnippetResponse),
		tokens:   make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/snippets", ts.handleCreate)
	mux.HandleFunc("GET /api/v1/snippets/{id}", ts.handleGet)
	mux.HandleFunc("DELETE /api/v1/snippets/{id}", ts.handleDelete)

	ts.Server = httptest.NewServer(mux)
	return ts
}

// Bodies returns every raw upload body received so far.
func (ts *TestServer) Bodies() [][]byte {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return append([][]byte(nil), ts.bodies...)
}

// RequestIDs returns the X-Request-ID header of every upload so far.
func (ts *TestServer) RequestIDs() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return append([]string(nil), ts.requests...)
}

// Snippet returns a stored snippet.
func (ts *TestServer) Snippet(id string) (*models.SnippetResponse, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	s, ok := ts.snippets[id]
	return s, ok
}

// Tamper replaces a stored snippet's ciphertext.
func (ts *TestServer) Tamper(id, ciphertext string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if s, ok := ts.snippets[id]; ok {
		s.Ciphertext = ciphertext
	}
}

func (ts *TestServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body")
		return
	}

	var req models.CreateSnippetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}
	if req.Ciphertext == "" || req.Nonce == "" || req.Tag == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "missing envelope fields")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.bodies = append(ts.bodies, body)
	ts.requests = append(ts.requests, r.Header.Get("X-Request-ID"))
	ts.nextID++
	id := fmt.Sprintf("t%05d", ts.nextID)
	token := "del-" + id
	now := time.Now().UTC()

	var expiresAt *time.Time
	if d := models.ExpiryDurations[req.Expiry]; d > 0 {
		t := now.Add(d)
		expiresAt = &t
	}

	ts.snippets[id] = &models.SnippetResponse{
		WireEnvelope:      req.WireEnvelope,
		ID:                id,
		Salt:              req.Salt,
		PasswordProtected: req.PasswordProtected,
		Title:             req.Title,
		Language:          req.Language,
		Visibility:        req.Visibility,
		CreatedAt:         now,
		ExpiresAt:         expiresAt,
	}
	ts.tokens[id] = token

	writeJSON(w, http.StatusCreated, models.CreateSnippetResponse{ID: id, DeleteToken: token, ExpiresAt: expiresAt})
}

func (ts *TestServer) handleGet(w http.ResponseWriter, r *http.Request) {
	ts.mu.RLock()
	s, ok := ts.snippets[r.PathValue("id")]
	ts.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, models.ErrCodeNotFound, "snippet not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (ts *TestServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ts.mu.Lock()
	defer ts.mu.Unlock()

	token, ok := ts.tokens[id]
	if !ok {
		writeError(w, http.StatusNotFound, models.ErrCodeNotFound, "snippet not found")
		return
	}
	if r.Header.Get("X-Delete-Token") != token {
		writeError(w, http.StatusForbidden, models.ErrCodeForbidden, "invalid delete token")
		return
	}

	delete(ts.snippets, id)
	delete(ts.tokens, id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.APIError{Code: code, Message: message, StatusCode: status})
}
