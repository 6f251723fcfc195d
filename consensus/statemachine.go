package consensus

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/luxfi/optrand/pkg/config"
	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/pvss"
	"github.com/luxfi/optrand/pkg/sign"
)

// StateMachine is the per-replica epoch state machine. It is single-writer:
// only the event loop that owns it may call OnEvent, and all protocol state,
// storage, the event queue, and the outbound buffer are owned by it.
type StateMachine struct {
	cfg     *config.Config
	ctx     *pvss.Context
	log     zerolog.Logger
	random  io.Reader
	queue   *EventQueue
	out     *MsgBuf
	storage *Storage

	epoch      uint64
	epochStart time.Duration

	// highest is the highest certified vote ever seen; the only state that
	// survives epoch bumps.
	highest       CertifiedVote
	highestHeight uint64

	lastLeader      party.ID
	lastLeaderEpoch uint64

	rnd roundContext

	// OnCommit, if set, observes every commit.
	OnCommit func(epoch uint64, block *Block)
	// OnBeacon, if set, observes every beacon output.
	OnBeacon func(epoch uint64, beacon *pvss.Beacon)
}

// roundContext is the per-epoch scratch state, thrown away on every epoch
// bump.
type roundContext struct {
	stopSyncCerts       bool
	receivedSyncCert    bool
	committedThisEpoch  bool
	proposedThisEpoch   bool
	proposeTimedOut     bool
	equivocated         bool
	voteTimeoutArmed    bool
	syncCertIssued      bool
	beaconDone          bool

	proposal     *Block
	proposalHash hash.Digest

	// Leader-side accumulators, drained on propose.
	dealings       []*pvss.Dealing
	dealingIndices []party.ID
	statusSeen     map[party.ID]bool

	votes        map[hash.Digest]*sign.Certificate
	voteSubjects map[hash.Digest]Vote

	syncCert *CertifiedVote

	decShares []*pvss.Decryption
	decCount  int
}

func newRoundContext(n int) roundContext {
	return roundContext{
		statusSeen:   make(map[party.ID]bool),
		votes:        make(map[hash.Digest]*sign.Certificate),
		voteSubjects: make(map[hash.Digest]Vote),
		decShares:    make([]*pvss.Decryption, n),
	}
}

// New builds a state machine from a validated config. random feeds dealing
// and proof generation; pass crypto/rand.Reader in production.
func New(cfg *config.Config, ctx *pvss.Context, queue *EventQueue, out *MsgBuf, random io.Reader, log zerolog.Logger) *StateMachine {
	sm := &StateMachine{
		cfg:     cfg,
		ctx:     ctx,
		log:     log.With().Uint16("replica", uint16(cfg.ID)).Logger(),
		random:  random,
		queue:   queue,
		out:     out,
		storage: NewStorage(),
	}
	sm.highest = CertifiedVote{
		Vote: Vote{BlockHash: sm.storage.GenesisHash()},
	}
	sm.rnd = newRoundContext(cfg.NumNodes)
	return sm
}

// Epoch returns the current epoch number.
func (sm *StateMachine) Epoch() uint64 {
	return sm.epoch
}

// Highest returns the highest certified vote seen so far.
func (sm *StateMachine) Highest() CertifiedVote {
	return sm.highest
}

// Storage exposes the block and certificate store.
func (sm *StateMachine) Storage() *Storage {
	return sm.storage
}

// Queue exposes the event queue driving this machine.
func (sm *StateMachine) Queue() *EventQueue {
	return sm.queue
}

// Outbound exposes the outbound buffer.
func (sm *StateMachine) Outbound() *MsgBuf {
	return sm.out
}

// Start enters the first epoch: 0 for a fresh machine, the restored epoch
// after Restore. Call exactly once before pumping events.
func (sm *StateMachine) Start() {
	sm.enterEpoch(sm.epoch)
}

// OnEvent dispatches one event. Stale timer events (whose epoch no longer
// matches) are discarded here; inbound message failures are logged and
// dropped, never fatal.
func (sm *StateMachine) OnEvent(ev Event) {
	switch ev.Kind {
	case EventMessage:
		if ev.Msg == nil {
			return
		}
		if err := sm.onMessage(ev.From, ev.Msg); err != nil {
			sm.log.Info().
				Uint16("from", uint16(ev.From)).
				Stringer("kind", ev.Msg.Kind).
				Err(err).
				Msg("dropping message")
		}
	case EventEpochEnd:
		if ev.Epoch == sm.epoch {
			sm.enterEpoch(sm.epoch + 1)
		}
	case EventPropose:
		if ev.Epoch == sm.epoch {
			sm.maybePropose(true)
		}
	case EventProposeTimeout:
		if ev.Epoch == sm.epoch && !sm.rnd.proposeTimedOut {
			sm.rnd.proposeTimedOut = true
			sm.log.Debug().Uint64("epoch", ev.Epoch).Msg("propose timed out")
		}
	case EventVoteTimeout:
		sm.onVoteTimeout(ev)
	case EventCommitTimeout:
		sm.onCommitTimeout(ev)
	case EventStopSyncCerts:
		if ev.Epoch == sm.epoch {
			sm.rnd.stopSyncCerts = true
		}
	default:
		// An unknown event kind can only come from our own code.
		panic(fmt.Sprintf("consensus: impossible event kind %d", ev.Kind))
	}
}

func (sm *StateMachine) onMessage(from party.ID, m *Message) error {
	if m == nil || !from.IsValid(sm.cfg.NumNodes) {
		return errUnknownSender
	}
	switch m.Kind {
	case KindPVSSSharing:
		return sm.onPVSSSharing(from, m)
	case KindStatus:
		return sm.onStatus(from, m)
	case KindProposal:
		return sm.onProposal(from, m)
	case KindVote:
		return sm.onVote(from, m)
	case KindSyncCert:
		return sm.onSyncCert(from, m)
	case KindDeliver:
		return sm.onDeliver(from, m)
	case KindDecryptionShare:
		return sm.onDecryptionShare(from, m)
	case KindBeacon:
		return sm.onBeaconMsg(from, m)
	default:
		return errUnknownKind
	}
}

// delta returns the synchrony bound Δ.
func (sm *StateMachine) delta() time.Duration {
	return time.Duration(sm.cfg.DeltaMS) * time.Millisecond
}

// armAt schedules ev at epochStart + mult·Δ, firing immediately if that is
// already past.
func (sm *StateMachine) armAt(mult int64, ev Event) {
	deadline := sm.epochStart + time.Duration(mult)*sm.delta()
	sm.queue.AddTimeout(ev, deadline-sm.queue.Now())
}

// armIn schedules ev relative to now.
func (sm *StateMachine) armIn(mult int64, ev Event) {
	sm.queue.AddTimeout(ev, time.Duration(mult)*sm.delta())
}

// send pushes a unicast message into the outbound buffer.
func (sm *StateMachine) send(to party.ID, m *Message) {
	sm.out.Push(party.Unicast(to), m)
}

// broadcast pushes a message to every peer and loops it back through the
// event queue, so our own handling is causally ordered after the send.
func (sm *StateMachine) broadcast(m *Message) {
	sm.out.Push(party.Broadcast(), m)
	sm.queue.Add(Event{Kind: EventMessage, From: sm.cfg.ID, Msg: m})
}

// updateHighest replaces the highest certified vote if cv is lexicographically
// higher by (epoch, height). This is the only cross-epoch mutation.
func (sm *StateMachine) updateHighest(cv *CertifiedVote) {
	if !cv.Vote.HigherThan(&sm.highest.Vote) {
		return
	}
	sm.log.Info().
		Uint64("epoch", cv.Vote.Epoch).
		Uint64("height", cv.Vote.Height).
		Msg("updating highest certificate")
	sm.highest = cv.Clone()
	sm.highestHeight = cv.Vote.Height
}
