package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Seal encrypts plaintext with AES-256-GCM under key and a fresh nonce drawn
// from random. No additional data is authenticated.
// Returns: ciphertext (same length as plaintext), nonce, tag.
func Seal(plaintext, key []byte, random RandomSource) (ciphertext, nonce, tag []byte, err error) {
	if err := ValidateKeySize(key); err != nil {
		return nil, nil, nil, err
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}

	// Generate nonce
	nonce, err = random.RandomBytes(NonceSize)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate nonce: %w", err)
	}
	if len(nonce) != NonceSize {
		return nil, nil, nil, fmt.Errorf("%w: random source returned %d nonce bytes", ErrMalformedInput, len(nonce))
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	// Split the trailing tag off the sealed output
	split := len(sealed) - TagSize
	ciphertext = sealed[:split:split]
	tag = sealed[split:]

	return ciphertext, nonce, tag, nil
}

// Open verifies tag and decrypts ciphertext. On any verification failure it
// returns ErrAuthenticationFailure and no plaintext.
func Open(ciphertext, nonce, tag, key []byte) ([]byte, error) {
	if err := ValidateKeySize(key); err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrMalformedInput, NonceSize, len(nonce))
	}
	if len(tag) != TagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes, got %d", ErrMalformedInput, TagSize, len(tag))
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// aead.Open expects ciphertext||tag
	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}

	return plaintext, nil
}

// ValidateKeySize checks if the key is the correct size.
func ValidateKeySize(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: key must be %d bytes, got %d", ErrMalformedInput, KeySize, len(key))
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithTagSize(block, TagSize)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return aead, nil
}
