package sign_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/optrand/pkg/crypto/rng"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/sign"
)

func keyring(t *testing.T, n int) ([]sign.PublicKey, []sign.PrivateKey) {
	t.Helper()
	random := rng.New(42)
	pks := make([]sign.PublicKey, n)
	sks := make([]sign.PrivateKey, n)
	for i := 0; i < n; i++ {
		pk, sk, err := sign.GenerateKey(random)
		require.NoError(t, err)
		pks[i], sks[i] = pk, sk
	}
	return pks, sks
}

func TestSignVerify(t *testing.T) {
	pks, sks := keyring(t, 2)
	msg := []byte("subject")

	sig := sign.Sign(sks[0], msg)
	assert.True(t, sign.Verify(pks[0], msg, sig))
	assert.False(t, sign.Verify(pks[1], msg, sig))
	assert.False(t, sign.Verify(pks[0], []byte("other"), sig))
}

func TestCertificateQuorum(t *testing.T) {
	n, quorum := 4, 2
	pks, sks := keyring(t, n)
	msg := []byte("subject")

	cert := sign.NewCertificate(n)
	assert.Error(t, cert.Verify(msg, quorum, pks))

	cert.Add(0, sign.Sign(sks[0], msg))
	assert.Equal(t, 1, cert.Count())
	assert.Error(t, cert.Verify(msg, quorum, pks))

	// Duplicate signer does not count twice.
	cert.Add(0, sign.Sign(sks[0], msg))
	assert.Equal(t, 1, cert.Count())

	cert.Add(2, sign.Sign(sks[2], msg))
	assert.Equal(t, 2, cert.Count())
	assert.NoError(t, cert.Verify(msg, quorum, pks))
}

func TestCertificateRejectsForgedEntry(t *testing.T) {
	n, quorum := 4, 2
	pks, sks := keyring(t, n)
	msg := []byte("subject")

	cert := sign.NewCertificate(n)
	cert.Add(0, sign.Sign(sks[0], msg))
	cert.Add(1, sign.Sign(sks[2], msg)) // signed by the wrong key
	assert.Error(t, cert.Verify(msg, quorum, pks))
}

func TestCertificateClone(t *testing.T) {
	n := 4
	pks, sks := keyring(t, n)
	msg := []byte("subject")

	cert := sign.NewCertificate(n)
	cert.Add(party.ID(1), sign.Sign(sks[1], msg))
	clone := cert.Clone()
	cert.Add(party.ID(3), sign.Sign(sks[3], msg))

	assert.Equal(t, 1, clone.Count())
	assert.Equal(t, 2, cert.Count())
	assert.Error(t, clone.Verify(msg, 2, pks))
}
