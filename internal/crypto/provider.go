package crypto

import (
	"errors"
	"fmt"
)

const (
	// Key sizes
	KeySize   = 32 // AES-256
	NonceSize = 12 // GCM standard
	TagSize   = 16 // GCM tag
	SaltSize  = 16

	// PBKDF2Iterations is part of the password-share format. Changing it
	// makes every previously issued password share undecryptable.
	PBKDF2Iterations = 100000
)

// Errors
var (
	ErrInvalidEncoding       = errors.New("invalid encoding")
	ErrMalformedInput        = errors.New("malformed input")
	ErrAuthenticationFailure = errors.New("authentication failed")
)

// CryptoProvider implements Provider over an injected RandomSource.
type CryptoProvider struct {
	random RandomSource
}

var _ Provider = (*CryptoProvider)(nil)

// Option configures a CryptoProvider.
type Option func(*CryptoProvider)

// WithRandomSource replaces the system CSPRNG.
func WithRandomSource(r RandomSource) Option {
	return func(p *CryptoProvider) {
		p.random = r
	}
}

// NewProvider creates a crypto provider.
func NewProvider(opts ...Option) *CryptoProvider {
	p := &CryptoProvider{
		random: SystemRandom{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GenerateKey returns a fresh random key.
func (p *CryptoProvider) GenerateKey() ([]byte, error) {
	key, err := p.random.RandomBytes(KeySize)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// GenerateSalt returns a fresh random salt.
func (p *CryptoProvider) GenerateSalt() ([]byte, error) {
	salt, err := p.random.RandomBytes(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Encrypt seals plaintext under a new random key and returns the key.
// The caller renders the key with EncodeKey for the link fragment.
func (p *CryptoProvider) Encrypt(plaintext string) (Envelope, []byte, error) {
	key, err := p.GenerateKey()
	if err != nil {
		return Envelope{}, nil, err
	}

	env, err := p.seal([]byte(plaintext), key)
	if err != nil {
		return Envelope{}, nil, err
	}
	return env, key, nil
}

// Decrypt opens env with key.
func (p *CryptoProvider) Decrypt(env Envelope, key []byte) (string, error) {
	plaintext, err := Open(env.ciphertext, env.nonce, env.tag, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptWithPassword seals plaintext under a key derived from password and
// a new salt. The salt is not secret.
func (p *CryptoProvider) EncryptWithPassword(plaintext, password string) (Envelope, []byte, error) {
	salt, err := p.GenerateSalt()
	if err != nil {
		return Envelope{}, nil, err
	}

	key, err := DeriveKey([]byte(password), salt)
	if err != nil {
		return Envelope{}, nil, err
	}

	env, err := p.seal([]byte(plaintext), key)
	if err != nil {
		return Envelope{}, nil, err
	}
	return env, salt, nil
}

// DecryptWithPassword re-derives the key from password and salt and opens env.
// A wrong password surfaces as ErrAuthenticationFailure.
func (p *CryptoProvider) DecryptWithPassword(env Envelope, password string, salt []byte) (string, error) {
	key, err := DeriveKey([]byte(password), salt)
	if err != nil {
		return "", err
	}
	return p.Decrypt(env, key)
}

func (p *CryptoProvider) seal(plaintext, key []byte) (Envelope, error) {
	ciphertext, nonce, tag, err := Seal(plaintext, key, p.random)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ciphertext: ciphertext, nonce: nonce, tag: tag}, nil
}

var defaultProvider = NewProvider()

// Encrypt seals plaintext with the system random source.
func Encrypt(plaintext string) (Envelope, []byte, error) {
	return defaultProvider.Encrypt(plaintext)
}

// Decrypt opens env with key.
func Decrypt(env Envelope, key []byte) (string, error) {
	return defaultProvider.Decrypt(env, key)
}

// EncryptWithPassword seals plaintext under a password with the system random source.
func EncryptWithPassword(plaintext, password string) (Envelope, []byte, error) {
	return defaultProvider.EncryptWithPassword(plaintext, password)
}

// DecryptWithPassword opens a password-mode envelope.
func DecryptWithPassword(env Envelope, password string, salt []byte) (string, error) {
	return defaultProvider.DecryptWithPassword(env, password, salt)
}
