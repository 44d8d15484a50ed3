package crypto_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/sealshare/internal/crypto"
)

func TestEncodeKey(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty", []byte{}, ""},
		{"nil", nil, ""},
		{"one byte", []byte{0x41}, "QQ"},
		{"two bytes", []byte{0x41, 0x41}, "QUE"},
		{"three bytes", []byte{0x41, 0x41, 0x41}, "QUFB"},
		{"plus and slash", []byte{0xfb, 0xff}, "-_8"},
		{"all high bits", []byte{0xff, 0xff, 0xff}, "____"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, crypto.EncodeKey(tt.input))
		})
	}
}

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{"empty", "", []byte{}, false},
		{"unpadded", "QQ", []byte{0x41}, false},
		{"padded", "QQ==", []byte{0x41}, false},
		{"url alphabet", "-_8", []byte{0xfb, 0xff}, false},
		{"standard plus", "+/8", nil, true},
		{"space", "QU E", nil, true},
		{"bad padding length", "QQ=", nil, true},
		{"only padding", "====", nil, true},
		{"impossible length", "Q", nil, true},
		{"unicode", "QQé", nil, true},
		{"nonzero trailing bits", "QR", nil, true},
		{"nonzero trailing bits padded", "QR==", nil, true},
		{"nonzero trailing bits two bytes", "QUF", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := crypto.DecodeKey(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, crypto.ErrInvalidEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWireEnvelope(t *testing.T) {
	provider := crypto.NewProvider()

	t.Run("key mode round trip through JSON", func(t *testing.T) {
		env, key, err := provider.Encrypt("Hello, World!")
		require.NoError(t, err)

		data, err := json.Marshal(env.Wire())
		require.NoError(t, err)

		var fields map[string]string
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Len(t, fields, 3)
		assert.Contains(t, fields, "ciphertext")
		assert.Contains(t, fields, "nonce")
		assert.Contains(t, fields, "tag")

		var wire crypto.WireEnvelope
		require.NoError(t, json.Unmarshal(data, &wire))

		parsed, err := crypto.ParseWire(wire)
		require.NoError(t, err)
		assert.True(t, env.Equal(parsed))

		result, err := provider.Decrypt(parsed, key)
		require.NoError(t, err)
		assert.Equal(t, "Hello, World!", result)
	})

	t.Run("password mode carries salt as a sibling field", func(t *testing.T) {
		env, salt, err := provider.EncryptWithPassword("Secret content", "pw")
		require.NoError(t, err)

		data, err := json.Marshal(env.WirePassword(salt))
		require.NoError(t, err)

		var fields map[string]string
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Contains(t, fields, "salt")
		assert.Contains(t, fields, "ciphertext")

		var wire crypto.WirePasswordEnvelope
		require.NoError(t, json.Unmarshal(data, &wire))

		parsed, parsedSalt, err := crypto.ParsePasswordWire(wire)
		require.NoError(t, err)
		assert.Equal(t, salt, parsedSalt)

		result, err := provider.DecryptWithPassword(parsed, "pw", parsedSalt)
		require.NoError(t, err)
		assert.Equal(t, "Secret content", result)
	})

	t.Run("invalid base64", func(t *testing.T) {
		env, _, err := provider.Encrypt("x")
		require.NoError(t, err)

		wire := env.Wire()
		wire.Tag = "not base64!"
		_, err = crypto.ParseWire(wire)
		assert.ErrorIs(t, err, crypto.ErrInvalidEncoding)
	})

	t.Run("wrong nonce length", func(t *testing.T) {
		env, _, err := provider.Encrypt("x")
		require.NoError(t, err)

		wire := env.Wire()
		wire.Nonce = "AAAA"
		_, err = crypto.ParseWire(wire)
		assert.ErrorIs(t, err, crypto.ErrMalformedInput)
	})

	t.Run("wrong salt length", func(t *testing.T) {
		_, err := crypto.DecodeSalt("AAAA")
		assert.ErrorIs(t, err, crypto.ErrMalformedInput)
	})
}
