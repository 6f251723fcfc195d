// Package config implements the per-replica configuration and key material.
package config

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/pool"
	"github.com/luxfi/optrand/pkg/pvss"
	"github.com/luxfi/optrand/pkg/sign"
)

// Config is the long-term state a replica is booted with. Everything here is
// read-only after construction and safe to share between the event loop and
// the crypto worker pool.
type Config struct {
	// ID is this replica's identifier.
	ID party.ID

	// NumNodes is the committee size n; up to (n-1)/2 replicas may be faulty.
	NumNodes int

	// DeltaMS is the synchrony bound Δ in milliseconds. Every epoch timeout
	// is a multiple of it.
	DeltaMS uint64

	// Secret is this replica's PVSS decryption scalar.
	Secret pairing.Scalar

	// SigningKey signs votes and proposals.
	SigningKey sign.PrivateKey

	// H2 is the beacon pairing base fixed at genesis.
	H2 pairing.G2

	// PVSSKeys holds every replica's encryption public key, indexed by ID.
	PVSSKeys []pairing.G1

	// VotingKeys holds every replica's vote verification key, indexed by ID.
	VotingKeys []sign.PublicKey
}

// Faults returns f = ⌊(n-1)/2⌋.
func (c *Config) Faults() int {
	return (c.NumNodes - 1) / 2
}

// Quorum returns f+1, the certificate and reconstruction threshold.
func (c *Config) Quorum() int {
	return c.Faults() + 1
}

// Leader returns the proposer of the given epoch, rotating round-robin.
func (c *Config) Leader(epoch uint64) party.ID {
	return party.ID(epoch % uint64(c.NumNodes))
}

// Validate checks that the config is well-formed.
func (c *Config) Validate() error {
	if c.NumNodes < 3 {
		return errors.New("config: need at least 3 nodes")
	}
	if !c.ID.IsValid(c.NumNodes) {
		return fmt.Errorf("config: id %v out of range", c.ID)
	}
	if c.DeltaMS == 0 {
		return errors.New("config: missing delta")
	}
	if len(c.SigningKey) != ed25519.PrivateKeySize {
		return errors.New("config: missing signing key")
	}
	if len(c.PVSSKeys) != c.NumNodes {
		return errors.New("config: pvss key count does not match committee")
	}
	if len(c.VotingKeys) != c.NumNodes {
		return errors.New("config: voting key count does not match committee")
	}
	for id, pk := range c.VotingKeys {
		if len(pk) != ed25519.PublicKeySize {
			return fmt.Errorf("config: missing voting key for replica %d", id)
		}
	}
	pk := pairing.G1ScalarBaseMult(&c.Secret)
	if !pk.Equal(&c.PVSSKeys[c.ID]) {
		return errors.New("config: secret scalar does not match own pvss key")
	}
	return nil
}

// PVSSContext builds the shared PVSS context from this config. A non-nil
// pool parallelizes proof verification.
func (c *Config) PVSSContext(pl *pool.Pool) (*pvss.Context, error) {
	return pvss.NewContext(c.ID, c.NumNodes, c.H2, c.PVSSKeys, c.Secret, pl)
}

// Copy deep-copies the config.
func (c *Config) Copy() *Config {
	out := &Config{
		ID:         c.ID,
		NumNodes:   c.NumNodes,
		DeltaMS:    c.DeltaMS,
		Secret:     c.Secret,
		SigningKey: append(sign.PrivateKey(nil), c.SigningKey...),
		H2:         c.H2,
		PVSSKeys:   append([]pairing.G1(nil), c.PVSSKeys...),
		VotingKeys: make([]sign.PublicKey, len(c.VotingKeys)),
	}
	for i, pk := range c.VotingKeys {
		out.VotingKeys[i] = append(sign.PublicKey(nil), pk...)
	}
	return out
}
