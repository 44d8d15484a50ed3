package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// SystemRandom reads from the operating system CSPRNG.
type SystemRandom struct{}

// RandomBytes returns n bytes from crypto/rand.
func (SystemRandom) RandomBytes(n int) ([]byte, error) {
	return readBytes(rand.Reader, n)
}

// ReaderSource adapts an io.Reader into a RandomSource.
// Tests use it with a fixed byte stream to get reproducible nonces and salts.
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource wraps r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// RandomBytes reads exactly n bytes from the wrapped reader.
func (s *ReaderSource) RandomBytes(n int) ([]byte, error) {
	return readBytes(s.r, n)
}

func readBytes(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrMalformedInput, n)
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}
