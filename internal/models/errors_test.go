package models_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheMichaelB/sealshare/internal/crypto"
	"github.com/TheMichaelB/sealshare/internal/models"
)

func TestShareError(t *testing.T) {
	tests := []struct {
		name string
		err  *models.ShareError
		want string
	}{
		{
			name: "with snippet",
			err: &models.ShareError{
				Phase:     "record",
				SnippetID: "abc123",
				Err:       errors.New("disk full"),
			},
			want: "share record: snippet abc123: disk full",
		},
		{
			name: "without snippet",
			err: &models.ShareError{
				Phase: "upload",
				Err:   errors.New("connection timeout"),
			},
			want: "share upload: connection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &models.APIError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid token",
		StatusCode: 401,
		RequestID:  "req-123",
	}

	want := "API error 401 (UNAUTHORIZED): Invalid token"
	assert.Equal(t, want, err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestAPIErrorSentinels(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{models.ErrCodeNotFound, models.ErrSnippetNotFound},
		{models.ErrCodeExpired, models.ErrSnippetNotFound},
		{models.ErrCodeTooLarge, models.ErrContentTooLarge},
		{models.ErrCodeRateLimit, models.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			var err error = &models.APIError{Code: tt.code, StatusCode: 400}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecryptError(t *testing.T) {
	err := &models.DecryptError{
		SnippetID: "abc123",
		Reason:    "wrong password",
		Err:       crypto.ErrAuthenticationFailure,
	}

	assert.Equal(t, "decrypt abc123: wrong password: authentication failed", err.Error())
	assert.ErrorIs(t, err, crypto.ErrAuthenticationFailure)

	bare := &models.DecryptError{Reason: "bad envelope", Err: crypto.ErrMalformedInput}
	assert.Equal(t, "decrypt: bad envelope: malformed input", bare.Error())
}

func TestValidateExpiryAndVisibility(t *testing.T) {
	for _, expiry := range []string{"1h", "1d", "7d", "30d", "never"} {
		assert.NoError(t, models.ValidateExpiry(expiry))
	}
	assert.Error(t, models.ValidateExpiry("2w"))

	for _, visibility := range []string{"public", "unlisted", "private"} {
		assert.NoError(t, models.ValidateVisibility(visibility))
	}
	assert.Error(t, models.ValidateVisibility("hidden"))
}
