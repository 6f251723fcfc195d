// Package dleq implements non-interactive Chaum-Pedersen proofs of discrete
// logarithm equality, made non-interactive by Fiat-Shamir over a blake3
// transcript.
//
// Two statement shapes are needed by the PVSS layer: a cross-group statement
// x1 = b1^s in G1 together with x2 = b2^s in G2 (dealing correctness), and a
// same-group statement with all four points in G1 (decryption correctness).
// A proof is the pair (challenge, response); commitments are recomputed by
// the verifier.
package dleq

import (
	"fmt"
	"io"

	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/pairing"
)

// Proof is a Chaum-Pedersen proof in compressed (challenge, response) form.
type Proof struct {
	Challenge pairing.Scalar
	Response  pairing.Scalar
}

// Prove returns a proof of knowledge of s with x1 = b1^s and x2 = b2^s,
// bound to the caller's transcript.
func Prove(rng io.Reader, s *pairing.Scalar, b1, x1 *pairing.G1, b2, x2 *pairing.G2, transcript *hash.Hash) (Proof, error) {
	w, err := pairing.RandomScalar(rng)
	if err != nil {
		return Proof{}, fmt.Errorf("dleq: %w", err)
	}
	a1 := pairing.G1ScalarMult(b1, &w)
	a2 := pairing.G2ScalarMult(b2, &w)

	c := challengeCross(b1, x1, b2, x2, &a1, &a2, transcript)

	// r = w - c*s
	var r pairing.Scalar
	r.Mul(&c, s)
	r.Sub(&w, &r)
	return Proof{Challenge: c, Response: r}, nil
}

// Verify checks a cross-group proof against the same transcript the prover
// used.
func (p *Proof) Verify(b1, x1 *pairing.G1, b2, x2 *pairing.G2, transcript *hash.Hash) bool {
	// a1 = b1^r * x1^c, a2 = b2^r * x2^c
	a1 := pairing.G1ScalarMult(b1, &p.Response)
	t1 := pairing.G1ScalarMult(x1, &p.Challenge)
	a1 = pairing.G1Add(&a1, &t1)

	a2 := pairing.G2ScalarMult(b2, &p.Response)
	t2 := pairing.G2ScalarMult(x2, &p.Challenge)
	a2 = pairing.G2Add(&a2, &t2)

	c := challengeCross(b1, x1, b2, x2, &a1, &a2, transcript)
	return c.Equal(&p.Challenge)
}

// ProveG1 returns a proof of knowledge of s with x1 = b1^s and x2 = b2^s,
// all points in G1.
func ProveG1(rng io.Reader, s *pairing.Scalar, b1, x1, b2, x2 *pairing.G1, transcript *hash.Hash) (Proof, error) {
	w, err := pairing.RandomScalar(rng)
	if err != nil {
		return Proof{}, fmt.Errorf("dleq: %w", err)
	}
	a1 := pairing.G1ScalarMult(b1, &w)
	a2 := pairing.G1ScalarMult(b2, &w)

	c := challengeG1(b1, x1, b2, x2, &a1, &a2, transcript)

	var r pairing.Scalar
	r.Mul(&c, s)
	r.Sub(&w, &r)
	return Proof{Challenge: c, Response: r}, nil
}

// VerifyG1 checks a same-group proof.
func (p *Proof) VerifyG1(b1, x1, b2, x2 *pairing.G1, transcript *hash.Hash) bool {
	a1 := pairing.G1ScalarMult(b1, &p.Response)
	t1 := pairing.G1ScalarMult(x1, &p.Challenge)
	a1 = pairing.G1Add(&a1, &t1)

	a2 := pairing.G1ScalarMult(b2, &p.Response)
	t2 := pairing.G1ScalarMult(x2, &p.Challenge)
	a2 = pairing.G1Add(&a2, &t2)

	c := challengeG1(b1, x1, b2, x2, &a1, &a2, transcript)
	return c.Equal(&p.Challenge)
}

func challengeCross(b1, x1 *pairing.G1, b2, x2 *pairing.G2, a1 *pairing.G1, a2 *pairing.G2, transcript *hash.Hash) pairing.Scalar {
	t := transcript
	if t == nil {
		t = hash.New("dleq")
	}
	t.WriteBytes(pairing.G1Bytes(b1))
	t.WriteBytes(pairing.G1Bytes(x1))
	t.WriteBytes(pairing.G2Bytes(b2))
	t.WriteBytes(pairing.G2Bytes(x2))
	t.WriteBytes(pairing.G1Bytes(a1))
	t.WriteBytes(pairing.G2Bytes(a2))
	return digestToScalar(t.Sum())
}

func challengeG1(b1, x1, b2, x2, a1, a2 *pairing.G1, transcript *hash.Hash) pairing.Scalar {
	t := transcript
	if t == nil {
		t = hash.New("dleq")
	}
	t.WriteBytes(pairing.G1Bytes(b1))
	t.WriteBytes(pairing.G1Bytes(x1))
	t.WriteBytes(pairing.G1Bytes(b2))
	t.WriteBytes(pairing.G1Bytes(x2))
	t.WriteBytes(pairing.G1Bytes(a1))
	t.WriteBytes(pairing.G1Bytes(a2))
	return digestToScalar(t.Sum())
}

func digestToScalar(d hash.Digest) pairing.Scalar {
	var s pairing.Scalar
	s.SetBytes(d[:])
	return s
}
