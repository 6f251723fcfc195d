package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/sign"
)

type configJSON struct {
	ID         uint16   `json:"id"`
	NumNodes   int      `json:"num_nodes"`
	DeltaMS    uint64   `json:"delta_ms"`
	Secret     string   `json:"secret"`      // Base64 encoded scalar
	SigningKey string   `json:"signing_key"` // Base64 encoded
	H2         string   `json:"h2"`          // Base64 encoded point
	PVSSKeys   []string `json:"pvss_keys"`
	VotingKeys []string `json:"voting_keys"`
}

// MarshalJSON implements json.Marshaler.
func (c *Config) MarshalJSON() ([]byte, error) {
	pvssKeys := make([]string, len(c.PVSSKeys))
	for i := range c.PVSSKeys {
		pvssKeys[i] = base64.StdEncoding.EncodeToString(pairing.G1Bytes(&c.PVSSKeys[i]))
	}
	votingKeys := make([]string, len(c.VotingKeys))
	for i, pk := range c.VotingKeys {
		votingKeys[i] = base64.StdEncoding.EncodeToString(pk)
	}
	out := &configJSON{
		ID:         uint16(c.ID),
		NumNodes:   c.NumNodes,
		DeltaMS:    c.DeltaMS,
		Secret:     base64.StdEncoding.EncodeToString(pairing.ScalarBytes(&c.Secret)),
		SigningKey: base64.StdEncoding.EncodeToString(c.SigningKey),
		H2:         base64.StdEncoding.EncodeToString(pairing.G2Bytes(&c.H2)),
		PVSSKeys:   pvssKeys,
		VotingKeys: votingKeys,
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	var out configJSON
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}

	c.ID = party.ID(out.ID)
	c.NumNodes = out.NumNodes
	c.DeltaMS = out.DeltaMS

	secretBytes, err := base64.StdEncoding.DecodeString(out.Secret)
	if err != nil {
		return fmt.Errorf("config: failed to decode secret: %w", err)
	}
	if c.Secret, err = pairing.ScalarFromBytes(secretBytes); err != nil {
		return fmt.Errorf("config: failed to unmarshal secret: %w", err)
	}

	signingKey, err := base64.StdEncoding.DecodeString(out.SigningKey)
	if err != nil {
		return fmt.Errorf("config: failed to decode signing key: %w", err)
	}
	c.SigningKey = sign.PrivateKey(signingKey)

	h2Bytes, err := base64.StdEncoding.DecodeString(out.H2)
	if err != nil {
		return fmt.Errorf("config: failed to decode h2: %w", err)
	}
	if c.H2, err = pairing.G2FromBytes(h2Bytes); err != nil {
		return fmt.Errorf("config: failed to unmarshal h2: %w", err)
	}

	c.PVSSKeys = make([]pairing.G1, len(out.PVSSKeys))
	for i, s := range out.PVSSKeys {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("config: failed to decode pvss key %d: %w", i, err)
		}
		if c.PVSSKeys[i], err = pairing.G1FromBytes(raw); err != nil {
			return fmt.Errorf("config: failed to unmarshal pvss key %d: %w", i, err)
		}
	}

	c.VotingKeys = make([]sign.PublicKey, len(out.VotingKeys))
	for i, s := range out.VotingKeys {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("config: failed to decode voting key %d: %w", i, err)
		}
		c.VotingKeys[i] = sign.PublicKey(raw)
	}

	return nil
}
