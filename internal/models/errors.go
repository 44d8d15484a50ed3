package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeExpired     = "EXPIRED"
	ErrCodeTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeForbidden   = "FORBIDDEN"
	ErrCodeRateLimit   = "RATE_LIMIT"
	ErrCodeServerError = "SERVER_ERROR"
)

// Sentinel errors
var (
	ErrSnippetNotFound  = errors.New("snippet not found")
	ErrPasswordRequired = errors.New("snippet is password protected")
	ErrKeyRequired      = errors.New("link has no decryption key")
	ErrContentTooLarge  = errors.New("content exceeds size limit")
	ErrEmptyContent     = errors.New("content is empty")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrRateLimited      = errors.New("rate limited")
)

// APIError represents an error from the snippet store.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps well-known codes to sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case ErrCodeNotFound, ErrCodeExpired:
		return ErrSnippetNotFound
	case ErrCodeTooLarge:
		return ErrContentTooLarge
	case ErrCodeRateLimit:
		return ErrRateLimited
	}
	return nil
}

// ShareError provides detailed share failure information.
type ShareError struct {
	Phase     string // encrypt, upload, record
	SnippetID string
	Err       error
}

func (e *ShareError) Error() string {
	if e.SnippetID != "" {
		return fmt.Sprintf("share %s: snippet %s: %v", e.Phase, e.SnippetID, e.Err)
	}
	return fmt.Sprintf("share %s: %v", e.Phase, e.Err)
}

func (e *ShareError) Unwrap() error {
	return e.Err
}

// DecryptError represents a failure to open a fetched snippet.
type DecryptError struct {
	SnippetID string
	Reason    string
	Err       error
}

func (e *DecryptError) Error() string {
	if e.SnippetID != "" {
		return fmt.Sprintf("decrypt %s: %s: %v", e.SnippetID, e.Reason, e.Err)
	}
	return fmt.Sprintf("decrypt: %s: %v", e.Reason, e.Err)
}

func (e *DecryptError) Unwrap() error {
	return e.Err
}
