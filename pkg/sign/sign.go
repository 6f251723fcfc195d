// Package sign provides Ed25519 signatures for protocol messages and
// quorum certificates over them.
package sign

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
)

var (
	errCertEmpty        = errors.New("sign: empty certificate")
	errCertShape        = errors.New("sign: certificate shape does not match committee")
	errCertBadSignature = errors.New("sign: invalid signature in certificate")
	errCertBelowQuorum  = errors.New("sign: certificate below quorum")
)

// PublicKey is an Ed25519 verification key.
type PublicKey = ed25519.PublicKey

// PrivateKey is an Ed25519 signing key.
type PrivateKey = ed25519.PrivateKey

// GenerateKey samples a fresh signing keypair from the given reader.
func GenerateKey(rng io.Reader) (PublicKey, PrivateKey, error) {
	pk, sk, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, nil, fmt.Errorf("sign: %w", err)
	}
	return pk, sk, nil
}

// Sign signs msg with sk.
func Sign(sk PrivateKey, msg []byte) []byte {
	return ed25519.Sign(sk, msg)
}

// Verify reports whether sig is a valid signature on msg by pk.
func Verify(pk PublicKey, msg, sig []byte) bool {
	return len(pk) == ed25519.PublicKeySize && ed25519.Verify(pk, msg, sig)
}
