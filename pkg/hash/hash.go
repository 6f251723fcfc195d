// Package hash provides domain-separated transcript hashing over blake3.
package hash

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Size is the width of every digest produced by this package.
const Size = 32

// Digest is a fixed-width collision-resistant digest.
type Digest [Size]byte

// IsZero reports whether the digest is all zeroes. The zero digest names the
// genesis parent.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:8])
}

// Sum hashes data under the given domain tag.
func Sum(domain string, data []byte) Digest {
	h := New(domain)
	h.WriteBytes(data)
	return h.Sum()
}

// Hash is a transcript writer. Every Write* call length-prefixes its input so
// transcripts are unambiguous regardless of field widths.
type Hash struct {
	h *blake3.Hasher
}

// New returns a transcript keyed by the domain tag.
func New(domain string) *Hash {
	h := blake3.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(domain)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(domain))
	return &Hash{h: h}
}

// WriteBytes appends a length-prefixed byte string to the transcript.
func (t *Hash) WriteBytes(data []byte) *Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(data)))
	_, _ = t.h.Write(n[:])
	_, _ = t.h.Write(data)
	return t
}

// WriteUint64 appends a big-endian integer to the transcript.
func (t *Hash) WriteUint64(v uint64) *Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], v)
	return t.WriteBytes(n[:])
}

// Sum finalizes the transcript into a digest. The transcript may keep
// accumulating writes afterwards.
func (t *Hash) Sum() Digest {
	var d Digest
	sum := t.h.Sum(nil)
	copy(d[:], sum)
	return d
}
