// Package share builds and parses snippet links.
//
// A key-mode link carries the raw key in the URL fragment, which clients never
// send to a server:
//
//	https://sealshare.dev/s/<id>#<url-safe key>
//
// A password-mode link has no fragment; the reader supplies the password.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/TheMichaelB/sealshare/internal/crypto"
)

const pathPrefix = "/s/"

// ErrInvalidLink is returned for URLs that do not point at a snippet.
var ErrInvalidLink = errors.New("invalid snippet link")

// Link is a parsed snippet link.
type Link struct {
	BaseURL   string
	SnippetID string
	Key       []byte // nil for password-mode links
}

// HasKey reports whether the link carries a decryption key.
func (l Link) HasKey() bool {
	return l.Key != nil
}

// BuildURL returns a key-mode link.
func BuildURL(baseURL, snippetID string, key []byte) string {
	return BuildPasswordURL(baseURL, snippetID) + "#" + crypto.EncodeKey(key)
}

// BuildPasswordURL returns a link without a key fragment.
func BuildPasswordURL(baseURL, snippetID string) string {
	return strings.TrimRight(baseURL, "/") + pathPrefix + url.PathEscape(snippetID)
}

// ParseURL splits a link into base, snippet ID and optional key.
func ParseURL(raw string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Link{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLink, u.Scheme)
	}

	idx := strings.LastIndex(u.Path, pathPrefix)
	if idx < 0 {
		return Link{}, fmt.Errorf("%w: missing %s path", ErrInvalidLink, pathPrefix)
	}
	id := strings.Trim(u.Path[idx+len(pathPrefix):], "/")
	if id == "" || strings.Contains(id, "/") {
		return Link{}, fmt.Errorf("%w: bad snippet id", ErrInvalidLink)
	}

	link := Link{
		BaseURL:   u.Scheme + "://" + u.Host + u.Path[:idx],
		SnippetID: id,
	}

	if u.Fragment != "" {
		key, err := crypto.DecodeKey(u.Fragment)
		if err != nil {
			return Link{}, err
		}
		if err := crypto.ValidateKeySize(key); err != nil {
			return Link{}, err
		}
		link.Key = key
	}

	return link, nil
}

// Redact strips the key fragment so a link can be logged.
func Redact(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i] + "#" + "[REDACTED]"
	}
	return raw
}
