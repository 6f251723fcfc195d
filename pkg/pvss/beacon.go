package pvss

import (
	"fmt"
	"io"

	"github.com/luxfi/optrand/pkg/crypto/dleq"
	"github.com/luxfi/optrand/pkg/math/polynomial"
	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
)

// Decryption is one replica's decrypted share of an aggregate, with a DLEQ
// proof of correct decryption. The proof spares verifiers a pairing per share.
type Decryption struct {
	Dec   pairing.G1
	Proof dleq.Proof
}

// Beacon is the per-epoch random output: the Lagrange-reconstructed constant
// term of the aggregate's share polynomial in G1, and its pairing with h2.
type Beacon struct {
	Secret pairing.GT
	Value  pairing.G1
}

// DecryptShare decrypts this replica's own share of the aggregate using its
// own secret key: dec = c_i^{1/sk_i}. The attached proof shows
// log_{g1} pk_i = log_{dec} c_i.
func (c *Context) DecryptShare(random io.Reader, agg *AggregatePVSS) (*Decryption, error) {
	if len(agg.Encs) != c.n {
		return nil, fmt.Errorf("%w: wrong vector length", ErrMalformed)
	}
	enc := agg.Encs[c.id]

	var inv pairing.Scalar
	inv.Inverse(&c.secret)
	dec := pairing.G1ScalarMult(&enc, &inv)

	g1 := pairing.G1Generator()
	proof, err := dleq.ProveG1(random, &c.secret,
		&g1, &c.publicKeys[c.id],
		&dec, &enc,
		decryptionTranscript(c.id))
	if err != nil {
		return nil, fmt.Errorf("pvss: decrypting share: %w", err)
	}
	return &Decryption{Dec: dec, Proof: proof}, nil
}

// VerifyShare checks replica i's decryption of enc against its public key.
func (c *Context) VerifyShare(i party.ID, d *Decryption, enc *pairing.G1) error {
	if !i.IsValid(c.n) {
		return fmt.Errorf("%w: unknown share holder", ErrMalformed)
	}
	g1 := pairing.G1Generator()
	ok := d.Proof.VerifyG1(
		&g1, &c.publicKeys[i],
		&d.Dec, enc,
		decryptionTranscript(i))
	if !ok {
		return fmt.Errorf("%w: decryption share from %v", ErrInvalidDLEQ, i)
	}
	return nil
}

// Reconstruct interpolates the beacon from at least t+1 decryption shares.
// shares is indexed by replica; nil entries are missing. Any t+1 valid shares
// yield the same beacon, and the output is a pure function of the chosen
// subset.
func (c *Context) Reconstruct(shares []*Decryption) (*Beacon, error) {
	if len(shares) != c.n {
		return nil, fmt.Errorf("%w: wrong vector length", ErrMalformed)
	}
	points := make([]pairing.G1, 0, c.t+1)
	xs := make([]uint64, 0, c.t+1)
	for i := 0; i < c.n && len(points) <= c.t; i++ {
		if shares[i] == nil {
			continue
		}
		points = append(points, shares[i].Dec)
		xs = append(xs, party.ID(i).Scalar())
	}
	if len(points) < c.t+1 {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientShares, len(points), c.t+1)
	}

	coeffs, err := polynomial.LagrangeAtZero(xs)
	if err != nil {
		return nil, fmt.Errorf("pvss: reconstruct: %w", err)
	}
	value, err := pairing.G1MultiExp(points, coeffs)
	if err != nil {
		return nil, fmt.Errorf("pvss: reconstruct: %w", err)
	}
	secret, err := pairing.Pair(value, c.h2)
	if err != nil {
		return nil, fmt.Errorf("pvss: reconstruct: %w", err)
	}
	return &Beacon{Secret: secret, Value: value}, nil
}

// BeaconFromValue rebuilds the full beacon from its wire form, the G1 value.
func (c *Context) BeaconFromValue(value pairing.G1) (*Beacon, error) {
	secret, err := pairing.Pair(value, c.h2)
	if err != nil {
		return nil, fmt.Errorf("pvss: beacon from value: %w", err)
	}
	return &Beacon{Secret: secret, Value: value}, nil
}

// VerifyBeacon checks a beacon claimed for an aggregate without any secret
// material: the value must interpolate the aggregate's public commitments at
// zero under the pairing, and the secret must be the value's pairing with h2.
func (c *Context) VerifyBeacon(agg *AggregatePVSS, b *Beacon) error {
	if len(agg.Comms) != c.n {
		return fmt.Errorf("%w: wrong vector length", ErrMalformed)
	}
	xs := make([]uint64, c.t+1)
	for i := range xs {
		xs[i] = party.ID(i).Scalar()
	}
	coeffs, err := polynomial.LagrangeAtZero(xs)
	if err != nil {
		return fmt.Errorf("pvss: verify beacon: %w", err)
	}
	v0, err := pairing.G2MultiExp(agg.Comms[:c.t+1], coeffs)
	if err != nil {
		return fmt.Errorf("pvss: verify beacon: %w", err)
	}

	// e(value, g2) must equal e(g1, v0) = e(g1, g2)^{p(0)}.
	g1 := pairing.G1Generator()
	g2 := pairing.G2Generator()
	lhs, err := pairing.Pair(b.Value, g2)
	if err != nil {
		return fmt.Errorf("pvss: verify beacon: %w", err)
	}
	rhs, err := pairing.Pair(g1, v0)
	if err != nil {
		return fmt.Errorf("pvss: verify beacon: %w", err)
	}
	if !lhs.Equal(&rhs) {
		return fmt.Errorf("pvss: beacon value does not match aggregate commitments")
	}

	secret, err := pairing.Pair(b.Value, c.h2)
	if err != nil {
		return fmt.Errorf("pvss: verify beacon: %w", err)
	}
	if !secret.Equal(&b.Secret) {
		return fmt.Errorf("pvss: beacon secret does not match value")
	}
	return nil
}
