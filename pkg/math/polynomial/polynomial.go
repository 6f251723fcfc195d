// Package polynomial implements scalar-field polynomials for Shamir sharing:
// evaluation, Lagrange interpolation at zero, and the dual-code words used by
// the SCRAPE low-degree test.
package polynomial

import (
	"errors"
	"fmt"
	"io"

	"github.com/luxfi/optrand/pkg/pairing"
)

// Polynomial is a polynomial over the scalar field. Coefficients[0] is the
// constant term and holds the shared secret.
type Polynomial struct {
	coefficients []pairing.Scalar
}

// Random samples a uniform polynomial of the given degree. If secret is
// non-nil it becomes the constant term.
func Random(rng io.Reader, degree int, secret *pairing.Scalar) (*Polynomial, error) {
	if degree < 0 {
		return nil, errors.New("polynomial: negative degree")
	}
	coefficients := make([]pairing.Scalar, degree+1)
	for i := range coefficients {
		c, err := pairing.RandomScalar(rng)
		if err != nil {
			return nil, fmt.Errorf("polynomial: %w", err)
		}
		coefficients[i] = c
	}
	if secret != nil {
		coefficients[0].Set(secret)
	}
	return &Polynomial{coefficients: coefficients}, nil
}

// Degree returns the degree of the polynomial.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Secret returns the constant term.
func (p *Polynomial) Secret() pairing.Scalar {
	return p.coefficients[0]
}

// Evaluate computes p(x) by Horner's rule.
func (p *Polynomial) Evaluate(x *pairing.Scalar) pairing.Scalar {
	var acc pairing.Scalar
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		acc.Mul(&acc, x)
		acc.Add(&acc, &p.coefficients[i])
	}
	return acc
}

// EvaluateAt computes p at the small integer point x.
func (p *Polynomial) EvaluateAt(x uint64) pairing.Scalar {
	var xs pairing.Scalar
	xs.SetUint64(x)
	return p.Evaluate(&xs)
}

// LagrangeAtZero returns, for the evaluation points xs (distinct, nonzero),
// the coefficients λ_i with Σ λ_i·p(x_i) = p(0) for every polynomial of
// degree < len(xs).
func LagrangeAtZero(xs []uint64) ([]pairing.Scalar, error) {
	if len(xs) == 0 {
		return nil, errors.New("polynomial: no evaluation points")
	}
	points := make([]pairing.Scalar, len(xs))
	for i, x := range xs {
		if x == 0 {
			return nil, errors.New("polynomial: zero evaluation point")
		}
		points[i].SetUint64(x)
	}

	// λ_i = Π_{j≠i} x_j / (x_j - x_i)
	denominators := make([]pairing.Scalar, len(xs))
	for i := range xs {
		denominators[i].SetOne()
		for j := range xs {
			if i == j {
				continue
			}
			var diff pairing.Scalar
			diff.Sub(&points[j], &points[i])
			if diff.IsZero() {
				return nil, errors.New("polynomial: duplicate evaluation point")
			}
			denominators[i].Mul(&denominators[i], &diff)
		}
	}
	denominators = pairing.BatchInvert(denominators)

	out := make([]pairing.Scalar, len(xs))
	for i := range xs {
		var num pairing.Scalar
		num.SetOne()
		for j := range xs {
			if i == j {
				continue
			}
			num.Mul(&num, &points[j])
		}
		out[i].Mul(&num, &denominators[i])
	}
	return out, nil
}

// DualCodeWord draws a word (α_1, ..., α_n) from the dual of the degree-t
// Reed-Solomon code on points 1..n, using randomness from rng. For any
// vector (s_1, ..., s_n) with s_i = p(i) and deg p ≤ t, Σ α_i·s_i = 0;
// a vector off every degree-t polynomial fails this with overwhelming
// probability.
func DualCodeWord(rng io.Reader, n, t int) ([]pairing.Scalar, error) {
	if t+1 >= n {
		return nil, errors.New("polynomial: no dual freedom for t+1 >= n")
	}
	f, err := Random(rng, n-t-2, nil)
	if err != nil {
		return nil, err
	}

	// u_i = Π_{j≠i} (i-j)^{-1} over the shared evaluation points 1..n.
	us := make([]pairing.Scalar, n)
	for i := 0; i < n; i++ {
		us[i].SetOne()
		var xi pairing.Scalar
		xi.SetUint64(uint64(i + 1))
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			var xj, diff pairing.Scalar
			xj.SetUint64(uint64(j + 1))
			diff.Sub(&xi, &xj)
			us[i].Mul(&us[i], &diff)
		}
	}
	us = pairing.BatchInvert(us)

	word := make([]pairing.Scalar, n)
	for i := 0; i < n; i++ {
		fi := f.EvaluateAt(uint64(i + 1))
		word[i].Mul(&fi, &us[i])
	}
	return word, nil
}
