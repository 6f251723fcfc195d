package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/optrand/internal/test"
	"github.com/luxfi/optrand/pkg/pairing"
)

func runSimulate(cmd *cobra.Command, args []string) error {
	log := logger()
	net, err := test.NewNetwork(numNodes, deltaMS, seed)
	if err != nil {
		return err
	}
	log.Info().Int("nodes", numNodes).Int("epochs", epochs).Uint64("seed", seed).Msg("starting simulation")

	net.Start()
	epochSpan := 11 * time.Duration(deltaMS) * time.Millisecond
	net.RunUntil(time.Duration(epochs) * epochSpan)

	for e := uint64(0); e < uint64(epochs); e++ {
		committed := 0
		beacons := 0
		for _, m := range net.Machines {
			if _, ok := m.Commits[e]; ok {
				committed++
			}
			if _, ok := m.Beacons[e]; ok {
				beacons++
			}
		}
		fmt.Printf("epoch %d: %d/%d committed, %d/%d beacons\n",
			e, committed, numNodes, beacons, numNodes)
		if m := net.Machines[0]; m.Beacons[e] != nil {
			value := pairing.G1Bytes(&m.Beacons[e].Value)
			fmt.Printf("  beacon value: %x\n", value[:16])
		}
	}
	return nil
}
