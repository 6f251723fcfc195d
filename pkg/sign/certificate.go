package sign

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/luxfi/optrand/pkg/party"
)

// Certificate is a quorum of distinct-signer signatures over one message.
// Ed25519 does not aggregate, so the certificate is literally the signature
// set; Sigs is indexed by replica with nil entries for absent signers, and
// Signers mirrors the occupied slots.
type Certificate struct {
	Signers *bitset.BitSet
	Sigs    [][]byte
}

// NewCertificate returns an empty certificate for a committee of n replicas.
func NewCertificate(n int) *Certificate {
	return &Certificate{
		Signers: bitset.New(uint(n)),
		Sigs:    make([][]byte, n),
	}
}

// Add records a signer's signature. Re-adding a signer is a no-op.
func (c *Certificate) Add(id party.ID, sig []byte) {
	if int(id) >= len(c.Sigs) || c.Signers.Test(uint(id)) {
		return
	}
	c.Signers.Set(uint(id))
	c.Sigs[id] = append([]byte(nil), sig...)
}

// Count returns the number of distinct signers.
func (c *Certificate) Count() int {
	return int(c.Signers.Count())
}

// Verify checks that at least quorum distinct signers signed msg, resolving
// keys through pks.
func (c *Certificate) Verify(msg []byte, quorum int, pks []PublicKey) error {
	if c == nil || c.Signers == nil {
		return errCertEmpty
	}
	if len(c.Sigs) != len(pks) {
		return errCertShape
	}
	valid := 0
	for i, sig := range c.Sigs {
		if !c.Signers.Test(uint(i)) {
			continue
		}
		if sig == nil || !Verify(pks[i], msg, sig) {
			return errCertBadSignature
		}
		valid++
	}
	if valid < quorum {
		return errCertBelowQuorum
	}
	return nil
}

// Clone deep-copies the certificate.
func (c *Certificate) Clone() *Certificate {
	if c == nil {
		return nil
	}
	out := &Certificate{
		Signers: c.Signers.Clone(),
		Sigs:    make([][]byte, len(c.Sigs)),
	}
	for i, sig := range c.Sigs {
		if sig != nil {
			out.Sigs[i] = append([]byte(nil), sig...)
		}
	}
	return out
}
