package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luxfi/optrand/pkg/config"
	"github.com/luxfi/optrand/pkg/crypto/rng"
)

func keygenReader() io.Reader {
	if seed != 0 {
		return rng.New(seed)
	}
	return rand.Reader
}

func runKeygen(cmd *cobra.Command, args []string) error {
	log := logger()
	configs, err := config.GenerateCommittee(keygenReader(), numNodes, deltaMS)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}
	for i, cfg := range configs {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(configDir, fmt.Sprintf("replica-%d.json", i))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("wrote replica config")
	}
	log.Info().Int("nodes", numNodes).Uint64("delta_ms", deltaMS).Msg("committee generated")
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	cfg := new(config.Config)
	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	fmt.Printf("replica:    %d\n", cfg.ID)
	fmt.Printf("committee:  %d nodes, %d faults tolerated\n", cfg.NumNodes, cfg.Faults())
	fmt.Printf("delta:      %dms\n", cfg.DeltaMS)
	fmt.Printf("quorum:     %d\n", cfg.Quorum())
	return nil
}
