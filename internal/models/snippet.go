package models

import (
	"fmt"
	"time"

	"github.com/TheMichaelB/sealshare/internal/crypto"
)

// Expiry choices understood by the snippet store.
var ExpiryDurations = map[string]time.Duration{
	"1h":    time.Hour,
	"1d":    24 * time.Hour,
	"7d":    7 * 24 * time.Hour,
	"30d":   30 * 24 * time.Hour,
	"never": 0,
}

// Visibility choices understood by the snippet store.
var Visibilities = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
}

// ValidateExpiry checks an expiry label.
func ValidateExpiry(expiry string) error {
	if _, ok := ExpiryDurations[expiry]; !ok {
		return fmt.Errorf("unknown expiry %q", expiry)
	}
	return nil
}

// ValidateVisibility checks a visibility label.
func ValidateVisibility(visibility string) error {
	if !Visibilities[visibility] {
		return fmt.Errorf("unknown visibility %q", visibility)
	}
	return nil
}

// CreateSnippetRequest is the upload payload. It carries ciphertext only;
// there is deliberately no field for a password or key.
type CreateSnippetRequest struct {
	crypto.WireEnvelope
	Salt              string `json:"salt,omitempty"`
	PasswordProtected bool   `json:"password_protected"`
	Title             string `json:"title,omitempty"`
	Language          string `json:"language,omitempty"`
	Expiry            string `json:"expires_in"`
	Visibility        string `json:"visibility"`
}

// CreateSnippetResponse is returned after a successful upload.
type CreateSnippetResponse struct {
	ID          string     `json:"id"`
	DeleteToken string     `json:"delete_token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// SnippetResponse is a fetched snippet.
type SnippetResponse struct {
	crypto.WireEnvelope
	ID                string     `json:"id"`
	Salt              string     `json:"salt,omitempty"`
	PasswordProtected bool       `json:"password_protected"`
	Title             string     `json:"title,omitempty"`
	Language          string     `json:"language,omitempty"`
	Visibility        string     `json:"visibility,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// Snippet is a decrypted snippet.
type Snippet struct {
	ID                string
	Content           string
	Title             string
	Language          string
	PasswordProtected bool
	CreatedAt         time.Time
	ExpiresAt         *time.Time
}
