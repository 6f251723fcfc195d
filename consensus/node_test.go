package consensus_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/optrand/consensus"
	"github.com/luxfi/optrand/internal/test"
	"github.com/luxfi/optrand/pkg/config"
	"github.com/luxfi/optrand/pkg/crypto/rng"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/pool"
)

// TestNodeRealTime runs four real nodes over the channel transport under
// wall-clock timers and waits for every replica to commit epoch 0.
func TestNodeRealTime(t *testing.T) {
	if testing.Short() {
		t.Skip("wall-clock test")
	}

	const n = 4
	cfgs, err := config.GenerateCommittee(rng.New(42), n, 20)
	require.NoError(t, err)

	pl := pool.NewPool(0)
	defer pl.TearDown()

	hub := test.NewChanHub(n)
	commits := make(chan party.ID, 64)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	for i, cfg := range cfgs {
		pvssCtx, err := cfg.PVSSContext(pl)
		require.NoError(t, err)

		sm := consensus.New(cfg, pvssCtx,
			consensus.NewEventQueue(), consensus.NewMsgBuf(0),
			rng.New(uint64(100+i)), zerolog.Nop())
		id := party.ID(i)
		sm.OnCommit = func(epoch uint64, _ *consensus.Block) {
			if epoch == 0 {
				commits <- id
			}
		}
		node := consensus.NewNode(sm, hub.Transport(id))
		go func() { _ = node.Run(ctx) }()
	}

	seen := make(map[party.ID]bool)
	for len(seen) < n {
		select {
		case id := <-commits:
			seen[id] = true
		case <-ctx.Done():
			t.Fatalf("only %d/%d replicas committed epoch 0 in time", len(seen), n)
		}
	}
}
