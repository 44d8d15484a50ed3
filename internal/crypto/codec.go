package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeKey renders b as unpadded URL-safe base64.
// The result never contains '+', '/' or '='.
func EncodeKey(b []byte) string {
	s := base64.StdEncoding.EncodeToString(b)
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	return strings.TrimRight(s, "=")
}

// DecodeKey reverses EncodeKey. Correctly placed trailing padding is accepted.
// Unused trailing bits must be zero so each key has exactly one encoding.
func DecodeKey(s string) ([]byte, error) {
	body := strings.TrimRight(s, "=")
	if pad := len(s) - len(body); pad > 0 && (pad > 2 || len(s)%4 != 0) {
		return nil, fmt.Errorf("%w: bad padding", ErrInvalidEncoding)
	}

	for i := 0; i < len(body); i++ {
		if !isURLSafe(body[i]) {
			return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrInvalidEncoding, body[i], i)
		}
	}

	std := strings.NewReplacer("-", "+", "_", "/").Replace(body)
	for len(std)%4 != 0 {
		std += "="
	}

	b, err := base64.StdEncoding.Strict().DecodeString(std)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b, nil
}

func isURLSafe(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

// encodeField renders an envelope field with the standard alphabet.
func encodeField(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func decodeField(name, s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEncoding, name, err)
	}
	return b, nil
}
