package consensus

import (
	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/party"
)

// EventKind tags scheduler payloads.
type EventKind uint8

const (
	// EventPropose fires when the leader's status-collection wait is over.
	EventPropose EventKind = iota + 1
	// EventEpochEnd unconditionally moves the replica to the next epoch.
	EventEpochEnd
	// EventProposeTimeout gives up on this epoch's proposal.
	EventProposeTimeout
	// EventVoteTimeout sends the synchronous vote for a block if no
	// sync-cert has arrived yet.
	EventVoteTimeout
	// EventCommitTimeout attempts to commit a block.
	EventCommitTimeout
	// EventStopSyncCerts refuses sync-certs arriving after the deadline.
	EventStopSyncCerts
	// EventMessage carries an inbound protocol message.
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventPropose:
		return "Propose"
	case EventEpochEnd:
		return "EpochEnd"
	case EventProposeTimeout:
		return "ProposeTimeout"
	case EventVoteTimeout:
		return "VoteTimeout"
	case EventCommitTimeout:
		return "CommitTimeout"
	case EventStopSyncCerts:
		return "StopAcceptingSyncCerts"
	case EventMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

// Event is a scheduler payload. Timer events carry the epoch (and, where
// relevant, the block hash) they were armed for; consumers discard events
// whose epoch no longer matches rather than cancelling timers.
type Event struct {
	Kind      EventKind
	Epoch     uint64
	BlockHash hash.Digest
	From      party.ID
	Msg       *Message
}
