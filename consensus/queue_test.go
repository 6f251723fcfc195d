package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/optrand/pkg/party"
)

func TestQueueReadyFIFO(t *testing.T) {
	q := NewEventQueue()
	q.Add(Event{Kind: EventPropose})
	q.Add(Event{Kind: EventEpochEnd})

	ev, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, EventPropose, ev.Kind)
	ev, ok = q.Pop()
	assert.True(t, ok)
	assert.Equal(t, EventEpochEnd, ev.Kind)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueueTimerOrdering(t *testing.T) {
	q := NewEventQueue()
	q.AddTimeout(Event{Kind: EventEpochEnd, Epoch: 1}, 30*time.Millisecond)
	q.AddTimeout(Event{Kind: EventProposeTimeout, Epoch: 1}, 10*time.Millisecond)
	q.AddTimeout(Event{Kind: EventStopSyncCerts, Epoch: 1}, 20*time.Millisecond)

	deadline, ok := q.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, deadline)

	q.Advance(15 * time.Millisecond)
	ev, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, EventProposeTimeout, ev.Kind)
	_, ok = q.Pop()
	assert.False(t, ok)

	q.Advance(40 * time.Millisecond)
	ev, _ = q.Pop()
	assert.Equal(t, EventStopSyncCerts, ev.Kind)
	ev, _ = q.Pop()
	assert.Equal(t, EventEpochEnd, ev.Kind)
}

func TestQueueZeroDelayIsReady(t *testing.T) {
	q := NewEventQueue()
	q.AddTimeout(Event{Kind: EventPropose}, 0)
	_, ok := q.Pop()
	assert.True(t, ok)
}

func TestQueueSameDeadlineKeepsInsertionOrder(t *testing.T) {
	q := NewEventQueue()
	q.AddTimeout(Event{Kind: EventPropose}, 10*time.Millisecond)
	q.AddTimeout(Event{Kind: EventEpochEnd}, 10*time.Millisecond)
	q.Advance(10 * time.Millisecond)

	ev, _ := q.Pop()
	assert.Equal(t, EventPropose, ev.Kind)
	ev, _ = q.Pop()
	assert.Equal(t, EventEpochEnd, ev.Kind)
}

func TestQueueAdvanceBackwardsNoop(t *testing.T) {
	q := NewEventQueue()
	q.Advance(50 * time.Millisecond)
	q.Advance(20 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, q.Now())
}

func TestMsgBufBackPressure(t *testing.T) {
	b := NewMsgBuf(2)
	m := &Message{Kind: KindVote}
	b.Push(party.Broadcast(), m)
	assert.False(t, b.Full())
	b.Push(party.Broadcast(), m)
	assert.True(t, b.Full())

	out, ok := b.Pop()
	assert.True(t, ok)
	assert.True(t, out.To.IsBroadcast())
	assert.False(t, b.Full())
}
