package test

import (
	"github.com/luxfi/optrand/consensus"
	"github.com/luxfi/optrand/pkg/party"
)

// ChanHub is an in-process transport fabric: one buffered channel per
// replica, with broadcast fan-out. Useful for running real Nodes against
// wall-clock time.
type ChanHub struct {
	chans []chan consensus.Inbound
}

// NewChanHub builds a hub for n replicas.
func NewChanHub(n int) *ChanHub {
	h := &ChanHub{chans: make([]chan consensus.Inbound, n)}
	for i := range h.chans {
		h.chans[i] = make(chan consensus.Inbound, 4096)
	}
	return h
}

// Transport returns replica id's view of the fabric.
func (h *ChanHub) Transport(id party.ID) consensus.Transport {
	return &chanTransport{hub: h, id: id}
}

type chanTransport struct {
	hub *ChanHub
	id  party.ID
}

func (t *chanTransport) Send(to party.Destination, m *consensus.Message) {
	if to.IsBroadcast() {
		for i := range t.hub.chans {
			if party.ID(i) == t.id {
				continue
			}
			t.hub.chans[i] <- consensus.Inbound{From: t.id, Msg: m}
		}
		return
	}
	if to.To() == t.id {
		return
	}
	t.hub.chans[to.To()] <- consensus.Inbound{From: t.id, Msg: m}
}

func (t *chanTransport) Recv() <-chan consensus.Inbound {
	return t.hub.chans[t.id]
}
