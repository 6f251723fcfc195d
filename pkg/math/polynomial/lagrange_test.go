package polynomial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/optrand/pkg/crypto/rng"
	"github.com/luxfi/optrand/pkg/math/polynomial"
	"github.com/luxfi/optrand/pkg/pairing"
)

func TestLagrange(t *testing.T) {
	N := 10
	xsEven := make([]uint64, N)
	for i := range xsEven {
		xsEven[i] = uint64(i + 1)
	}
	coefsEven, err := polynomial.LagrangeAtZero(xsEven)
	require.NoError(t, err)
	coefsOdd, err := polynomial.LagrangeAtZero(xsEven[:N-1])
	require.NoError(t, err)

	var sumEven, sumOdd, one pairing.Scalar
	one.SetOne()
	for i := range coefsEven {
		sumEven.Add(&sumEven, &coefsEven[i])
	}
	for i := range coefsOdd {
		sumOdd.Add(&sumOdd, &coefsOdd[i])
	}
	assert.True(t, sumEven.Equal(&one))
	assert.True(t, sumOdd.Equal(&one))
}

func TestLagrangeRecoversSecret(t *testing.T) {
	random := rng.New(42)
	p, err := polynomial.Random(random, 3, nil)
	require.NoError(t, err)
	secret := p.Secret()

	xs := []uint64{2, 4, 5, 7}
	coefs, err := polynomial.LagrangeAtZero(xs)
	require.NoError(t, err)

	var sum pairing.Scalar
	for i, x := range xs {
		share := p.EvaluateAt(x)
		var term pairing.Scalar
		term.Mul(&coefs[i], &share)
		sum.Add(&sum, &term)
	}
	assert.True(t, sum.Equal(&secret))
}

func TestLagrangeRejectsBadPoints(t *testing.T) {
	_, err := polynomial.LagrangeAtZero(nil)
	assert.Error(t, err)
	_, err = polynomial.LagrangeAtZero([]uint64{0, 1})
	assert.Error(t, err)
	_, err = polynomial.LagrangeAtZero([]uint64{3, 3})
	assert.Error(t, err)
}

func TestDualCodeWordOrthogonal(t *testing.T) {
	random := rng.New(42)
	n, deg := 7, 3

	p, err := polynomial.Random(random, deg, nil)
	require.NoError(t, err)
	word, err := polynomial.DualCodeWord(random, n, deg)
	require.NoError(t, err)
	require.Len(t, word, n)

	var sum pairing.Scalar
	for i := 0; i < n; i++ {
		share := p.EvaluateAt(uint64(i + 1))
		var term pairing.Scalar
		term.Mul(&word[i], &share)
		sum.Add(&sum, &term)
	}
	assert.True(t, sum.IsZero())
}

func TestDualCodeWordCatchesHighDegree(t *testing.T) {
	random := rng.New(7)
	n, deg := 7, 3

	p, err := polynomial.Random(random, deg+1, nil)
	require.NoError(t, err)
	word, err := polynomial.DualCodeWord(random, n, deg)
	require.NoError(t, err)

	var sum pairing.Scalar
	for i := 0; i < n; i++ {
		share := p.EvaluateAt(uint64(i + 1))
		var term pairing.Scalar
		term.Mul(&word[i], &share)
		sum.Add(&sum, &term)
	}
	assert.False(t, sum.IsZero())
}
