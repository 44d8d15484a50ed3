package testutil

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/events"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// TestConfig returns a valid configuration rooted in a temp directory.
func TestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 5 * time.Second
	cfg.API.MaxRetries = 1
	cfg.History.Dir = filepath.Join(t.TempDir(), "history")
	cfg.Log.Color = false
	return cfg
}

// SampleSnippets covers the content shapes shares must round-trip.
var SampleSnippets = map[string]string{
	"go": `package main

import "fmt"

func main() {
	fmt.Println("hello")
}
`,
	"unicode":   "Hello, 世界! 🔐 Ñoño ü",
	"json":      `{"api_key":"not-really","nested":{"a":[1,2,3]}}`,
	"plaintext": "line one\nline two\r\n\ttabbed",
}
