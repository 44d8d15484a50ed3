package crypto

import (
	"bytes"
	"fmt"
)

// Envelope binds a ciphertext to the nonce and tag it was sealed with.
// Fields are unexported so a produced envelope cannot be altered in place.
type Envelope struct {
	ciphertext []byte
	nonce      []byte
	tag        []byte
}

// NewEnvelope copies the given parts into an Envelope after checking the
// nonce and tag lengths.
func NewEnvelope(ciphertext, nonce, tag []byte) (Envelope, error) {
	if len(nonce) != NonceSize {
		return Envelope{}, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrMalformedInput, NonceSize, len(nonce))
	}
	if len(tag) != TagSize {
		return Envelope{}, fmt.Errorf("%w: tag must be %d bytes, got %d", ErrMalformedInput, TagSize, len(tag))
	}

	return Envelope{
		ciphertext: clone(ciphertext),
		nonce:      clone(nonce),
		tag:        clone(tag),
	}, nil
}

// Ciphertext returns a copy of the encrypted bytes.
func (e Envelope) Ciphertext() []byte { return clone(e.ciphertext) }

// Nonce returns a copy of the nonce.
func (e Envelope) Nonce() []byte { return clone(e.nonce) }

// Tag returns a copy of the authentication tag.
func (e Envelope) Tag() []byte { return clone(e.tag) }

// Equal reports whether both envelopes hold the same bytes.
func (e Envelope) Equal(other Envelope) bool {
	return bytes.Equal(e.ciphertext, other.ciphertext) &&
		bytes.Equal(e.nonce, other.nonce) &&
		bytes.Equal(e.tag, other.tag)
}

// WireEnvelope is the JSON shape exchanged with the snippet store.
type WireEnvelope struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
	Tag        string `json:"tag"`
}

// WirePasswordEnvelope adds the derivation salt for password-mode shares.
type WirePasswordEnvelope struct {
	WireEnvelope
	Salt string `json:"salt"`
}

// Wire renders the envelope with standard base64 fields.
func (e Envelope) Wire() WireEnvelope {
	return WireEnvelope{
		Ciphertext: encodeField(e.ciphertext),
		Nonce:      encodeField(e.nonce),
		Tag:        encodeField(e.tag),
	}
}

// WirePassword renders the envelope together with its salt.
func (e Envelope) WirePassword(salt []byte) WirePasswordEnvelope {
	return WirePasswordEnvelope{
		WireEnvelope: e.Wire(),
		Salt:         encodeField(salt),
	}
}

// ParseWire decodes a wire envelope.
func ParseWire(w WireEnvelope) (Envelope, error) {
	ciphertext, err := decodeField("ciphertext", w.Ciphertext)
	if err != nil {
		return Envelope{}, err
	}
	nonce, err := decodeField("nonce", w.Nonce)
	if err != nil {
		return Envelope{}, err
	}
	tag, err := decodeField("tag", w.Tag)
	if err != nil {
		return Envelope{}, err
	}

	return NewEnvelope(ciphertext, nonce, tag)
}

// ParsePasswordWire decodes a password-mode wire envelope and its salt.
func ParsePasswordWire(w WirePasswordEnvelope) (Envelope, []byte, error) {
	env, err := ParseWire(w.WireEnvelope)
	if err != nil {
		return Envelope{}, nil, err
	}

	salt, err := DecodeSalt(w.Salt)
	if err != nil {
		return Envelope{}, nil, err
	}

	return env, salt, nil
}

// DecodeSalt decodes a standard base64 salt and checks its length.
func DecodeSalt(s string) ([]byte, error) {
	salt, err := decodeField("salt", s)
	if err != nil {
		return nil, err
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrMalformedInput, SaltSize, len(salt))
	}
	return salt, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
