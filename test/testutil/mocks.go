package testutil

import (
	"github.com/stretchr/testify/mock"

	"github.com/TheMichaelB/sealshare/internal/crypto"
)

// MockCryptoProvider mocks crypto operations.
type MockCryptoProvider struct {
	mock.Mock
}

var _ crypto.Provider = (*MockCryptoProvider)(nil)

func NewMockCryptoProvider() *MockCryptoProvider {
	return &MockCryptoProvider{}
}

func (m *MockCryptoProvider) Encrypt(plaintext string) (crypto.Envelope, []byte, error) {
	args := m.Called(plaintext)
	return envelopeArg(args, 0), bytesArg(args, 1), args.Error(2)
}

func (m *MockCryptoProvider) Decrypt(env crypto.Envelope, key []byte) (string, error) {
	args := m.Called(env, key)
	return args.String(0), args.Error(1)
}

func (m *MockCryptoProvider) EncryptWithPassword(plaintext, password string) (crypto.Envelope, []byte, error) {
	args := m.Called(plaintext, password)
	return envelopeArg(args, 0), bytesArg(args, 1), args.Error(2)
}

func (m *MockCryptoProvider) DecryptWithPassword(env crypto.Envelope, password string, salt []byte) (string, error) {
	args := m.Called(env, password, salt)
	return args.String(0), args.Error(1)
}

func (m *MockCryptoProvider) GenerateKey() ([]byte, error) {
	args := m.Called()
	return bytesArg(args, 0), args.Error(1)
}

func envelopeArg(args mock.Arguments, i int) crypto.Envelope {
	if env, ok := args.Get(i).(crypto.Envelope); ok {
		return env
	}
	return crypto.Envelope{}
}

func bytesArg(args mock.Arguments, i int) []byte {
	if b, ok := args.Get(i).([]byte); ok {
		return b
	}
	return nil
}
