package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// DeriveKey stretches password into a KeySize key with PBKDF2-HMAC-SHA256.
// The iteration count is fixed; both sides of a share must agree on it.
// An empty password is valid.
func DeriveKey(password, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrMalformedInput, SaltSize, len(salt))
	}

	return pbkdf2.Key(password, salt, PBKDF2Iterations, KeySize, sha256.New), nil
}
