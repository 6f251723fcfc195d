// Package pairing exposes the BLS12-381 groups used by the beacon protocol.
//
// Scalars live in the r-order scalar field, commitments in G2, encrypted and
// decrypted shares in G1, and reconstructed beacon secrets in GT. Serialization
// is canonical: compressed points, 32-byte big-endian scalars.
package pairing

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Group element and scalar types. These are aliases so gnark-crypto's
// arithmetic is available directly on them.
type (
	Scalar = fr.Element
	G1     = bls12381.G1Affine
	G2     = bls12381.G2Affine
	GT     = bls12381.GT
)

// Serialized widths, in bytes.
const (
	ScalarSize = fr.Bytes
	G1Size     = bls12381.SizeOfG1AffineCompressed
	G2Size     = bls12381.SizeOfG2AffineCompressed
)

var (
	g1Gen G1
	g2Gen G2
)

func init() {
	_, _, g1Gen, g2Gen = bls12381.Generators()
}

// G1Generator returns the fixed generator of G1.
func G1Generator() G1 {
	return g1Gen
}

// G2Generator returns the fixed generator of G2.
func G2Generator() G2 {
	return g2Gen
}

// RandomScalar samples a uniform scalar from the caller's reader.
func RandomScalar(rng io.Reader) (Scalar, error) {
	// 64 bytes of entropy keep the modular bias negligible.
	var buf [2 * ScalarSize]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return Scalar{}, fmt.Errorf("pairing: sampling scalar: %w", err)
	}
	var s Scalar
	s.SetBytes(buf[:])
	return s, nil
}

// RandomG2 samples g2^r for a uniform nonzero r. Used once at genesis to fix
// the beacon pairing base h2.
func RandomG2(rng io.Reader) (G2, error) {
	for {
		r, err := RandomScalar(rng)
		if err != nil {
			return G2{}, err
		}
		if r.IsZero() {
			continue
		}
		return G2ScalarMult(&g2Gen, &r), nil
	}
}

// G1ScalarMult returns p^s.
func G1ScalarMult(p *G1, s *Scalar) G1 {
	var bi big.Int
	s.BigInt(&bi)
	var out G1
	out.ScalarMultiplication(p, &bi)
	return out
}

// G1ScalarBaseMult returns g1^s.
func G1ScalarBaseMult(s *Scalar) G1 {
	var bi big.Int
	s.BigInt(&bi)
	var out G1
	out.ScalarMultiplicationBase(&bi)
	return out
}

// G2ScalarMult returns p^s.
func G2ScalarMult(p *G2, s *Scalar) G2 {
	var bi big.Int
	s.BigInt(&bi)
	var out G2
	out.ScalarMultiplication(p, &bi)
	return out
}

// G2ScalarBaseMult returns g2^s.
func G2ScalarBaseMult(s *Scalar) G2 {
	return G2ScalarMult(&g2Gen, s)
}

// G1Add returns a + b.
func G1Add(a, b *G1) G1 {
	var jac bls12381.G1Jac
	jac.FromAffine(a)
	jac.AddMixed(b)
	var out G1
	out.FromJacobian(&jac)
	return out
}

// G2Add returns a + b.
func G2Add(a, b *G2) G2 {
	var jac bls12381.G2Jac
	jac.FromAffine(a)
	jac.AddMixed(b)
	var out G2
	out.FromJacobian(&jac)
	return out
}

// G1MultiExp returns the product of points[i]^scalars[i].
func G1MultiExp(points []G1, scalars []Scalar) (G1, error) {
	var out G1
	if _, err := out.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return G1{}, fmt.Errorf("pairing: G1 multiexp: %w", err)
	}
	return out, nil
}

// G2MultiExp returns the product of points[i]^scalars[i].
func G2MultiExp(points []G2, scalars []Scalar) (G2, error) {
	var out G2
	if _, err := out.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return G2{}, fmt.Errorf("pairing: G2 multiexp: %w", err)
	}
	return out, nil
}

// BatchInvert inverts every element of a in a single field inversion.
// Zero entries stay zero.
func BatchInvert(a []Scalar) []Scalar {
	return fr.BatchInvert(a)
}

// Pair computes e(p, q).
func Pair(p G1, q G2) (GT, error) {
	gt, err := bls12381.Pair([]G1{p}, []G2{q})
	if err != nil {
		return GT{}, fmt.Errorf("pairing: %w", err)
	}
	return gt, nil
}

// ScalarBytes serializes a scalar as 32 big-endian bytes.
func ScalarBytes(s *Scalar) []byte {
	b := s.Bytes()
	return b[:]
}

// ScalarFromBytes decodes a canonical 32-byte big-endian scalar.
func ScalarFromBytes(data []byte) (Scalar, error) {
	var s Scalar
	if len(data) != ScalarSize {
		return s, errors.New("pairing: bad scalar length")
	}
	if err := s.SetBytesCanonical(data); err != nil {
		return s, fmt.Errorf("pairing: %w", err)
	}
	return s, nil
}

// G1Bytes serializes a point in compressed form.
func G1Bytes(p *G1) []byte {
	b := p.Bytes()
	return b[:]
}

// G1FromBytes decodes a compressed G1 point, rejecting off-curve and
// off-subgroup encodings.
func G1FromBytes(data []byte) (G1, error) {
	var p G1
	if len(data) != G1Size {
		return p, errors.New("pairing: bad G1 length")
	}
	if err := p.Unmarshal(data); err != nil {
		return p, fmt.Errorf("pairing: %w", err)
	}
	return p, nil
}

// G2Bytes serializes a point in compressed form.
func G2Bytes(p *G2) []byte {
	b := p.Bytes()
	return b[:]
}

// G2FromBytes decodes a compressed G2 point.
func G2FromBytes(data []byte) (G2, error) {
	var p G2
	if len(data) != G2Size {
		return p, errors.New("pairing: bad G2 length")
	}
	if err := p.Unmarshal(data); err != nil {
		return p, fmt.Errorf("pairing: %w", err)
	}
	return p, nil
}

