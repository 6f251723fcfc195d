package consensus

import (
	"errors"
)

var (
	errUnknownSender = errors.New("consensus: message from unknown replica")
	errUnknownKind   = errors.New("consensus: unknown message kind")
	errWrongEpoch    = errors.New("consensus: message for a different epoch")
	errWrongLeader   = errors.New("consensus: message from a non-leader")
)

// enterEpoch resets the round context and plays the epoch-start transition:
// arm the fixed phase clock, generate a fresh dealing, and ship it with our
// status to the new leader.
func (sm *StateMachine) enterEpoch(e uint64) {
	if e > 0 {
		sm.log.Info().Uint64("epoch", e-1).Msg("epoch ended")
	}
	sm.epoch = e
	sm.epochReset()
	sm.epochStart = sm.queue.Now()
	sm.lastLeader = sm.cfg.Leader(e)

	sm.armAt(11, Event{Kind: EventEpochEnd, Epoch: e})
	sm.armAt(4, Event{Kind: EventProposeTimeout, Epoch: e})
	sm.armAt(7, Event{Kind: EventStopSyncCerts, Epoch: e})

	dealing, err := sm.ctx.Deal(sm.random, e)
	if err != nil {
		// Dealing generation fails only on a broken randomness source.
		panic(err)
	}

	if sm.lastLeader != sm.cfg.ID {
		sharing, err := NewMessage(KindPVSSSharing, e, &PVSSSharing{Dealing: dealing})
		if err != nil {
			panic(err)
		}
		sm.send(sm.lastLeader, sharing)

		prev := e
		if e > 0 {
			prev = e - 1
		}
		status, err := NewMessage(KindStatus, e, &Status{
			Epoch:         prev,
			HighestHeight: sm.highestHeight,
			Highest:       sm.highest.Clone(),
		})
		if err != nil {
			panic(err)
		}
		sm.send(sm.lastLeader, status)
		return
	}

	// We lead this epoch: queue our own dealing and either propose right
	// away or wait up to 2Δ for status messages to surface a higher
	// certificate.
	sm.lastLeaderEpoch = e
	sm.rnd.dealings = append(sm.rnd.dealings, dealing)
	sm.rnd.dealingIndices = append(sm.rnd.dealingIndices, sm.cfg.ID)
	if sm.highestHeight+1 < e {
		sm.armAt(2, Event{Kind: EventPropose, Epoch: e})
		return
	}
	sm.maybePropose(false)
}

// epochReset clears the per-epoch round context. Calling it twice is the
// same as calling it once.
func (sm *StateMachine) epochReset() {
	sm.rnd = newRoundContext(sm.cfg.NumNodes)
}
