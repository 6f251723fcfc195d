package pairing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/optrand/pkg/crypto/rng"
	"github.com/luxfi/optrand/pkg/pairing"
)

func TestScalarRoundTrip(t *testing.T) {
	random := rng.New(42)
	s, err := pairing.RandomScalar(random)
	require.NoError(t, err)

	data := pairing.ScalarBytes(&s)
	require.Len(t, data, pairing.ScalarSize)

	got, err := pairing.ScalarFromBytes(data)
	require.NoError(t, err)
	assert.True(t, got.Equal(&s))

	// Serialization is deterministic.
	assert.Equal(t, data, pairing.ScalarBytes(&got))
}

func TestPointRoundTrips(t *testing.T) {
	random := rng.New(42)
	s, err := pairing.RandomScalar(random)
	require.NoError(t, err)

	p1 := pairing.G1ScalarBaseMult(&s)
	d1 := pairing.G1Bytes(&p1)
	require.Len(t, d1, pairing.G1Size)
	got1, err := pairing.G1FromBytes(d1)
	require.NoError(t, err)
	assert.True(t, got1.Equal(&p1))

	p2 := pairing.G2ScalarBaseMult(&s)
	d2 := pairing.G2Bytes(&p2)
	require.Len(t, d2, pairing.G2Size)
	got2, err := pairing.G2FromBytes(d2)
	require.NoError(t, err)
	assert.True(t, got2.Equal(&p2))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := pairing.G1FromBytes(make([]byte, pairing.G1Size-1))
	assert.Error(t, err)
	_, err = pairing.G2FromBytes(nil)
	assert.Error(t, err)
	_, err = pairing.ScalarFromBytes(make([]byte, 1))
	assert.Error(t, err)
}

func TestPairingBilinear(t *testing.T) {
	random := rng.New(42)
	a, err := pairing.RandomScalar(random)
	require.NoError(t, err)
	b, err := pairing.RandomScalar(random)
	require.NoError(t, err)

	g1 := pairing.G1Generator()
	g2 := pairing.G2Generator()
	pa := pairing.G1ScalarMult(&g1, &a)
	qb := pairing.G2ScalarMult(&g2, &b)

	// e(g1^a, g2^b) == e(g1^b, g2^a)
	lhs, err := pairing.Pair(pa, qb)
	require.NoError(t, err)
	pb := pairing.G1ScalarMult(&g1, &b)
	qa := pairing.G2ScalarMult(&g2, &a)
	rhs, err := pairing.Pair(pb, qa)
	require.NoError(t, err)
	assert.True(t, lhs.Equal(&rhs))
}

func TestMultiExpMatchesNaive(t *testing.T) {
	random := rng.New(42)
	g1 := pairing.G1Generator()

	points := make([]pairing.G1, 4)
	scalars := make([]pairing.Scalar, 4)
	var naive pairing.G1
	for i := range points {
		s, err := pairing.RandomScalar(random)
		require.NoError(t, err)
		points[i] = pairing.G1ScalarMult(&g1, &s)
		scalars[i], err = pairing.RandomScalar(random)
		require.NoError(t, err)
		term := pairing.G1ScalarMult(&points[i], &scalars[i])
		if i == 0 {
			naive = term
		} else {
			naive = pairing.G1Add(&naive, &term)
		}
	}

	got, err := pairing.G1MultiExp(points, scalars)
	require.NoError(t, err)
	assert.True(t, got.Equal(&naive))
}
