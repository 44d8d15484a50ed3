package share_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/sealshare/internal/crypto"
	"github.com/TheMichaelB/sealshare/internal/share"
)

func TestBuildAndParseURL(t *testing.T) {
	key := bytes.Repeat([]byte{0xfb}, crypto.KeySize)

	link := share.BuildURL("https://sealshare.dev/", "abc123", key)
	assert.Equal(t, "https://sealshare.dev/s/abc123#"+crypto.EncodeKey(key), link)

	parsed, err := share.ParseURL(link)
	require.NoError(t, err)
	assert.Equal(t, "https://sealshare.dev", parsed.BaseURL)
	assert.Equal(t, "abc123", parsed.SnippetID)
	assert.True(t, parsed.HasKey())
	assert.Equal(t, key, parsed.Key)
}

func TestPasswordURL(t *testing.T) {
	link := share.BuildPasswordURL("https://sealshare.dev", "xyz")
	assert.Equal(t, "https://sealshare.dev/s/xyz", link)
	assert.NotContains(t, link, "#")

	parsed, err := share.ParseURL(link)
	require.NoError(t, err)
	assert.Equal(t, "xyz", parsed.SnippetID)
	assert.False(t, parsed.HasKey())
}

func TestParseURLWithBasePath(t *testing.T) {
	parsed, err := share.ParseURL("http://localhost:8080/paste/s/q1w2e3/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/paste", parsed.BaseURL)
	assert.Equal(t, "q1w2e3", parsed.SnippetID)
}

func TestParseURLErrors(t *testing.T) {
	shortKey := crypto.EncodeKey(make([]byte, 16))

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"not a url", "::::", share.ErrInvalidLink},
		{"wrong scheme", "ftp://sealshare.dev/s/abc", share.ErrInvalidLink},
		{"no snippet path", "https://sealshare.dev/abc", share.ErrInvalidLink},
		{"empty id", "https://sealshare.dev/s/", share.ErrInvalidLink},
		{"nested id", "https://sealshare.dev/s/a/b", share.ErrInvalidLink},
		{"bad fragment alphabet", "https://sealshare.dev/s/abc#a+b/", crypto.ErrInvalidEncoding},
		{"short key", "https://sealshare.dev/s/abc#" + shortKey, crypto.ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := share.ParseURL(tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://sealshare.dev/s/abc#[REDACTED]", share.Redact("https://sealshare.dev/s/abc#c2VjcmV0"))
	assert.Equal(t, "https://sealshare.dev/s/abc", share.Redact("https://sealshare.dev/s/abc"))
}
