package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/optrand/pkg/config"
	"github.com/luxfi/optrand/pkg/crypto/rng"
)

func TestGenerateCommittee(t *testing.T) {
	configs, err := config.GenerateCommittee(rng.New(42), 4, 50)
	require.NoError(t, err)
	require.Len(t, configs, 4)

	for _, cfg := range configs {
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 1, cfg.Faults())
		assert.Equal(t, 2, cfg.Quorum())
	}

	// All replicas agree on the public material.
	assert.Equal(t, configs[0].PVSSKeys, configs[1].PVSSKeys)
	assert.Equal(t, configs[0].VotingKeys, configs[2].VotingKeys)
	assert.True(t, configs[0].H2.Equal(&configs[3].H2))

	_, err = config.GenerateCommittee(rng.New(42), 2, 50)
	assert.Error(t, err)
}

func TestLeaderRotation(t *testing.T) {
	configs, err := config.GenerateCommittee(rng.New(42), 4, 50)
	require.NoError(t, err)
	cfg := configs[0]

	assert.EqualValues(t, 0, cfg.Leader(0))
	assert.EqualValues(t, 1, cfg.Leader(1))
	assert.EqualValues(t, 3, cfg.Leader(3))
	assert.EqualValues(t, 0, cfg.Leader(4))
}

func TestConfigJSONRoundTrip(t *testing.T) {
	configs, err := config.GenerateCommittee(rng.New(42), 4, 50)
	require.NoError(t, err)
	cfg := configs[2]

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	got := new(config.Config)
	require.NoError(t, json.Unmarshal(data, got))
	require.NoError(t, got.Validate())

	assert.Equal(t, cfg.ID, got.ID)
	assert.Equal(t, cfg.NumNodes, got.NumNodes)
	assert.Equal(t, cfg.DeltaMS, got.DeltaMS)
	assert.True(t, cfg.Secret.Equal(&got.Secret))
	assert.Equal(t, cfg.SigningKey, got.SigningKey)
	assert.True(t, cfg.H2.Equal(&got.H2))
}

func TestValidateCatchesMismatch(t *testing.T) {
	configs, err := config.GenerateCommittee(rng.New(42), 4, 50)
	require.NoError(t, err)

	bad := configs[0].Copy()
	bad.Secret = configs[1].Secret
	assert.Error(t, bad.Validate())

	short := configs[0].Copy()
	short.PVSSKeys = short.PVSSKeys[:2]
	assert.Error(t, short.Validate())
}
