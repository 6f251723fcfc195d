package config

import (
	"fmt"
	"io"

	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/sign"
)

// GenerateCommittee creates matching configs for a fresh committee of n
// replicas: PVSS keypairs, vote signing keypairs, and a shared h2 sampled
// once for all of them.
func GenerateCommittee(rng io.Reader, n int, deltaMS uint64) ([]*Config, error) {
	if n < 3 {
		return nil, fmt.Errorf("config: committee of %d is below the minimum of 3", n)
	}
	h2, err := pairing.RandomG2(rng)
	if err != nil {
		return nil, err
	}

	secrets := make([]pairing.Scalar, n)
	pvssKeys := make([]pairing.G1, n)
	signingKeys := make([]sign.PrivateKey, n)
	votingKeys := make([]sign.PublicKey, n)
	for i := 0; i < n; i++ {
		if secrets[i], err = pairing.RandomScalar(rng); err != nil {
			return nil, err
		}
		pvssKeys[i] = pairing.G1ScalarBaseMult(&secrets[i])
		if votingKeys[i], signingKeys[i], err = sign.GenerateKey(rng); err != nil {
			return nil, err
		}
	}

	configs := make([]*Config, n)
	for i := 0; i < n; i++ {
		configs[i] = &Config{
			ID:         party.ID(i),
			NumNodes:   n,
			DeltaMS:    deltaMS,
			Secret:     secrets[i],
			SigningKey: signingKeys[i],
			H2:         h2,
			PVSSKeys:   append([]pairing.G1(nil), pvssKeys...),
			VotingKeys: append([]sign.PublicKey(nil), votingKeys...),
		}
	}
	return configs, nil
}
