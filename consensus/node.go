package consensus

import (
	"context"
	"time"

	"github.com/luxfi/optrand/pkg/party"
)

// Inbound is a received message with its sender.
type Inbound struct {
	From party.ID
	Msg  *Message
}

// Transport is the messaging layer the core expects from outside: sends are
// infallible into the transport's own buffering, receives surface on a
// channel. Framing and peer management live behind this interface.
type Transport interface {
	// Send ships a message to one replica or, with a broadcast
	// destination, to all other replicas.
	Send(to party.Destination, m *Message)
	// Recv yields inbound messages. Closing the channel shuts the node
	// down.
	Recv() <-chan Inbound
}

// Node drives a state machine against wall-clock time and a transport. One
// goroutine owns everything; a PVSS context built with a worker pool spreads
// proof checks over it inside the event handler, which returns before the
// next event is taken.
type Node struct {
	sm *StateMachine
	tr Transport
}

// NewNode wires a state machine to a transport.
func NewNode(sm *StateMachine, tr Transport) *Node {
	return &Node{sm: sm, tr: tr}
}

// StateMachine returns the driven state machine.
func (n *Node) StateMachine() *StateMachine {
	return n.sm
}

// Run executes the event loop until the context is cancelled or the
// transport closes. The outbound buffer is drained before anything else on
// every iteration; while it is full, inbound traffic is not consumed.
func (n *Node) Run(ctx context.Context) error {
	start := time.Now()
	queue := n.sm.Queue()
	out := n.sm.Outbound()

	n.sm.Start()

	for {
		n.drainOutbound()

		queue.Advance(time.Since(start))
		if ev, ok := queue.Pop(); ok {
			n.sm.OnEvent(ev)
			continue
		}

		// Nothing ready: sleep until the next timer or an inbound message.
		var timer <-chan time.Time
		if deadline, ok := queue.NextDeadline(); ok {
			timer = time.After(deadline - time.Since(start))
		}

		recv := n.tr.Recv()
		if out.Full() {
			recv = nil // back-pressure: stop consuming until drained
		}

		select {
		case <-ctx.Done():
			n.drainOutbound()
			return ctx.Err()
		case in, ok := <-recv:
			if !ok {
				n.drainOutbound()
				return nil
			}
			queue.Add(Event{Kind: EventMessage, From: in.From, Msg: in.Msg})
		case <-timer:
		}
	}
}

func (n *Node) drainOutbound() {
	out := n.sm.Outbound()
	for {
		m, ok := out.Pop()
		if !ok {
			return
		}
		n.tr.Send(m.To, m.Msg)
	}
}
