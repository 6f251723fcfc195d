// Package rng provides a deterministic randomness stream for seeded protocol
// runs and reproducible tests. Production nodes pass crypto/rand.Reader
// instead; nothing in this package is suitable as a system entropy source.
package rng

import (
	"encoding/binary"
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"
)

type reader struct {
	cipher *chacha20.Cipher
}

// New returns an io.Reader producing a ChaCha20 keystream keyed from seed.
// Equal seeds yield equal streams.
func New(seed uint64) io.Reader {
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], seed)
	return FromBytes(seedBytes[:])
}

// FromBytes keys the stream from an arbitrary seed, e.g. a transcript digest.
func FromBytes(seed []byte) io.Reader {
	key := blake3.Sum256(seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		// Key and nonce sizes are fixed above.
		panic(err)
	}
	return &reader{cipher: c}
}

func (r *reader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
