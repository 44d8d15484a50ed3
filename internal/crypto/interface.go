package crypto

// Provider defines the interface for snippet encryption.
type Provider interface {
	// Encrypt seals plaintext under a freshly generated random key.
	Encrypt(plaintext string) (Envelope, []byte, error)

	// Decrypt opens an envelope produced by Encrypt.
	Decrypt(env Envelope, key []byte) (string, error)

	// EncryptWithPassword seals plaintext under a key derived from password
	// and a fresh salt. The salt is returned so it can travel with the envelope.
	EncryptWithPassword(plaintext, password string) (Envelope, []byte, error)

	// DecryptWithPassword re-derives the key from password and salt and opens env.
	DecryptWithPassword(env Envelope, password string, salt []byte) (string, error)

	// GenerateKey returns a fresh random key.
	GenerateKey() ([]byte, error)
}

// RandomSource produces cryptographically secure random bytes.
type RandomSource interface {
	RandomBytes(n int) ([]byte, error)
}
