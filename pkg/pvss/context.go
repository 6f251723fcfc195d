// Package pvss implements the publicly-verifiable secret sharing substrate of
// the randomness beacon: per-epoch dealings with DLEQ correctness proofs,
// aggregation of t+1 dealings into a compact commitment with decomposition
// proofs, and threshold reconstruction of the beacon output.
//
// Shamir polynomials have degree t = (n-1)/2 and are evaluated at x = i+1 for
// replica i. Commitments v_i = g2^{p(i)} live in G2, encryptions
// c_i = pk_i^{p(i)} and decrypted shares g1^{p(i)} in G1, with pk_i = g1^{sk_i}.
// The beacon secret is e(g1^{p(0)}, h2) for the genesis-fixed h2.
package pvss

import (
	"errors"
	"fmt"

	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/pool"
)

var (
	// ErrMalformed marks a structurally invalid object: wrong vector length
	// or failed deserialization.
	ErrMalformed = errors.New("pvss: malformed")
	// ErrInvalidDLEQ marks a failed share-correctness proof.
	ErrInvalidDLEQ = errors.New("pvss: invalid dleq proof")
	// ErrNotOnPolynomial marks commitments failing the low-degree test.
	ErrNotOnPolynomial = errors.New("pvss: commitments not on a degree-t polynomial")
	// ErrInsufficientShares marks a reconstruction attempt below t+1 shares.
	ErrInsufficientShares = errors.New("pvss: insufficient decryption shares")
)

// Context carries the read-only material every PVSS operation needs: committee
// parameters, the beacon pairing base h2, all encryption public keys, and this
// replica's secret scalar. It is safe to share across the event loop and
// worker pool.
type Context struct {
	n  int
	t  int
	id party.ID

	h2         pairing.G2
	publicKeys []pairing.G1
	secret     pairing.Scalar

	pool *pool.Pool
}

// NewContext validates the committee parameters and builds a shared context.
// The reconstruction threshold is fixed at t = (n-1)/2. A non-nil pool
// parallelizes per-share proof verification.
func NewContext(id party.ID, n int, h2 pairing.G2, publicKeys []pairing.G1, secret pairing.Scalar, pl *pool.Pool) (*Context, error) {
	if n < 3 {
		return nil, fmt.Errorf("pvss: committee of %d is below the minimum of 3", n)
	}
	if !id.IsValid(n) {
		return nil, fmt.Errorf("pvss: id %v out of range for n=%d", id, n)
	}
	if len(publicKeys) != n {
		return nil, fmt.Errorf("pvss: got %d public keys, want %d", len(publicKeys), n)
	}
	pk := pairing.G1ScalarBaseMult(&secret)
	if !pk.Equal(&publicKeys[id]) {
		return nil, errors.New("pvss: secret scalar does not match own public key")
	}
	return &Context{
		n:          n,
		t:          (n - 1) / 2,
		id:         id,
		h2:         h2,
		publicKeys: publicKeys,
		secret:     secret,
		pool:       pl,
	}, nil
}

// N returns the committee size.
func (c *Context) N() int { return c.n }

// Threshold returns t; any t+1 decryption shares reconstruct the beacon.
func (c *Context) Threshold() int { return c.t }

// ID returns the owning replica.
func (c *Context) ID() party.ID { return c.id }

// H2 returns the beacon pairing base.
func (c *Context) H2() pairing.G2 { return c.h2 }

// PublicKey returns the encryption key of replica i.
func (c *Context) PublicKey(i party.ID) pairing.G1 {
	return c.publicKeys[i]
}

// shareTranscript binds a dealing DLEQ to the epoch, the dealer, and the
// share index, alongside the points the challenge itself covers.
func shareTranscript(epoch uint64, dealer party.ID, index int) *hash.Hash {
	return hash.New("optrand/pvss/share").
		WriteUint64(epoch).
		WriteUint64(uint64(dealer)).
		WriteUint64(uint64(index))
}

// decryptionTranscript binds a decryption DLEQ to the share holder.
func decryptionTranscript(holder party.ID) *hash.Hash {
	return hash.New("optrand/pvss/decryption").
		WriteUint64(uint64(holder))
}
