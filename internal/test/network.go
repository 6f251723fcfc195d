// Package test provides deterministic in-memory committees for driving the
// consensus state machine through whole epochs under a virtual clock.
package test

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/luxfi/optrand/consensus"
	"github.com/luxfi/optrand/pkg/config"
	"github.com/luxfi/optrand/pkg/crypto/rng"
	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/pvss"
)

// Machine bundles one replica's state machine with its queue, buffer, and
// observed outputs.
type Machine struct {
	Config  *config.Config
	Ctx     *pvss.Context
	SM      *consensus.StateMachine
	Queue   *consensus.EventQueue
	Out     *consensus.MsgBuf
	Commits map[uint64]hash.Digest
	Beacons map[uint64]*pvss.Beacon
}

// Network is a lossless in-memory message fabric over a committee, advancing
// every machine's virtual clock in lockstep. Messages sent in one tick are
// delivered at the next, which models a latency within Δ as long as the tick
// is at most Δ.
type Network struct {
	Machines []*Machine
	now      time.Duration
	step     time.Duration

	// Filter, when set, decides per (from, to, message) whether to deliver.
	Filter func(from, to party.ID, m *consensus.Message) bool
}

// NewNetwork builds a deterministic committee of n replicas. All randomness
// derives from seed; two networks with equal parameters behave identically.
func NewNetwork(n int, deltaMS uint64, seed uint64) (*Network, error) {
	configs, err := config.GenerateCommittee(rng.New(seed), n, deltaMS)
	if err != nil {
		return nil, err
	}
	net := &Network{
		step: time.Duration(deltaMS) * time.Millisecond / 2,
	}
	for i, cfg := range configs {
		ctx, err := cfg.PVSSContext(nil)
		if err != nil {
			return nil, err
		}
		queue := consensus.NewEventQueue()
		out := consensus.NewMsgBuf(0)
		m := &Machine{
			Config:  cfg,
			Ctx:     ctx,
			Queue:   queue,
			Out:     out,
			Commits: make(map[uint64]hash.Digest),
			Beacons: make(map[uint64]*pvss.Beacon),
		}
		m.SM = consensus.New(cfg, ctx, queue, out, rng.New(seed+uint64(i)+1), zerolog.Nop())
		m.SM.OnCommit = func(epoch uint64, block *consensus.Block) {
			m.Commits[epoch] = block.Hash()
		}
		m.SM.OnBeacon = func(epoch uint64, beacon *pvss.Beacon) {
			m.Beacons[epoch] = beacon
		}
		net.Machines = append(net.Machines, m)
	}
	return net, nil
}

// Start boots every machine.
func (n *Network) Start() {
	for _, m := range n.Machines {
		m.SM.Start()
	}
	n.route()
}

// Now returns the shared virtual time.
func (n *Network) Now() time.Duration {
	return n.now
}

// Tick advances all clocks by one step, lets every machine drain its ready
// events, then routes the produced traffic for the next tick.
func (n *Network) Tick() {
	n.now += n.step
	for _, m := range n.Machines {
		m.Queue.Advance(n.now)
		for {
			ev, ok := m.Queue.Pop()
			if !ok {
				break
			}
			m.SM.OnEvent(ev)
		}
	}
	n.route()
}

// RunUntil ticks until the virtual clock reaches the given time.
func (n *Network) RunUntil(t time.Duration) {
	for n.now < t {
		n.Tick()
	}
}

// Inject delivers a hand-crafted message to one replica at the next tick.
func (n *Network) Inject(from, to party.ID, m *consensus.Message) {
	n.Machines[to].Queue.Add(consensus.Event{
		Kind: consensus.EventMessage,
		From: from,
		Msg:  m,
	})
}

// route moves every machine's outbound buffer onto the recipients' queues.
func (n *Network) route() {
	for i, m := range n.Machines {
		from := party.ID(i)
		for {
			out, ok := m.Out.Pop()
			if !ok {
				break
			}
			if out.To.IsBroadcast() {
				for j := range n.Machines {
					if party.ID(j) == from {
						continue
					}
					n.deliver(from, party.ID(j), out.Msg)
				}
				continue
			}
			if out.To.To() == from {
				continue
			}
			n.deliver(from, out.To.To(), out.Msg)
		}
	}
}

func (n *Network) deliver(from, to party.ID, m *consensus.Message) {
	if n.Filter != nil && !n.Filter(from, to, m) {
		return
	}
	n.Inject(from, to, m)
}
