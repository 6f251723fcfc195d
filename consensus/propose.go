package consensus

import (
	"errors"
	"fmt"

	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/sign"
)

// proposalSigningBytes is the message a proposal signature covers.
func proposalSigningBytes(epoch uint64, blockHash hash.Digest) []byte {
	d := hash.New("optrand/proposal").
		WriteUint64(epoch).
		WriteBytes(blockHash[:]).
		Sum()
	return d[:]
}

// onPVSSSharing accepts a fresh dealing addressed to us as this epoch's
// leader and queues it for the next proposal.
func (sm *StateMachine) onPVSSSharing(from party.ID, m *Message) error {
	if m.Epoch != sm.epoch {
		return errWrongEpoch
	}
	if sm.lastLeader != sm.cfg.ID {
		return errors.New("consensus: pvss sharing but not leading")
	}
	for _, id := range sm.rnd.dealingIndices {
		if id == from {
			return nil // duplicate dealer, first one wins
		}
	}

	var body PVSSSharing
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	if body.Dealing == nil {
		return errors.New("consensus: empty pvss sharing")
	}
	if err := sm.ctx.VerifyDealing(body.Dealing, from, sm.epoch); err != nil {
		return err
	}

	sm.rnd.dealings = append(sm.rnd.dealings, body.Dealing)
	sm.rnd.dealingIndices = append(sm.rnd.dealingIndices, from)
	sm.maybePropose(false)
	return nil
}

// onStatus ingests a peer's highest certificate. The monotonic highest-cert
// update applies regardless of the sender's epoch — this is how a lagging
// replica catches up — while the leader's status quorum only counts
// current-epoch messages.
func (sm *StateMachine) onStatus(from party.ID, m *Message) error {
	var body Status
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	if !body.Highest.IsGenesis() {
		if err := body.Highest.Validate(sm.cfg.Quorum(), sm.cfg.VotingKeys); err != nil {
			return fmt.Errorf("consensus: status certificate: %w", err)
		}
		sm.updateHighest(&body.Highest)
	}

	if m.Epoch == sm.epoch && sm.lastLeader == sm.cfg.ID {
		sm.rnd.statusSeen[from] = true
		sm.maybePropose(false)
	}
	return nil
}

// maybePropose proposes once the leader holds t+1 verified dealings and
// either already knows a current-enough certificate, has heard a status
// quorum, or was forced by the 2Δ propose deadline.
func (sm *StateMachine) maybePropose(force bool) {
	if sm.lastLeader != sm.cfg.ID || sm.rnd.proposedThisEpoch || sm.rnd.proposeTimedOut {
		return
	}
	if len(sm.rnd.dealings) < sm.cfg.Quorum() {
		return
	}
	statusReady := sm.highestHeight+1 >= sm.epoch || len(sm.rnd.statusSeen) >= sm.cfg.Quorum()
	if !force && !statusReady {
		return
	}
	sm.doPropose()
}

// doPropose aggregates the queued dealings into a block extending the
// highest certificate and broadcasts the signed proposal.
func (sm *StateMachine) doPropose() {
	quorum := sm.cfg.Quorum()
	indices := sm.rnd.dealingIndices[:quorum]
	dealings := sm.rnd.dealings[:quorum]

	agg, decomps, err := sm.ctx.Aggregate(indices, dealings)
	if err != nil {
		// Every queued dealing was verified on arrival.
		panic(err)
	}

	block := &Block{
		ParentHash: sm.highest.Vote.BlockHash,
		Height:     sm.highestHeight + 1,
		Agg:        agg,
		Decomp:     decomps,
	}
	blockHash := sm.storage.AddBlock(block)

	msg, err := NewMessage(KindProposal, sm.epoch, &Proposal{
		Block: block,
		Sig:   sign.Sign(sm.cfg.SigningKey, proposalSigningBytes(sm.epoch, blockHash)),
	})
	if err != nil {
		panic(err)
	}

	sm.rnd.proposedThisEpoch = true
	sm.rnd.dealings = nil
	sm.rnd.dealingIndices = nil
	sm.log.Info().
		Uint64("epoch", sm.epoch).
		Uint64("height", block.Height).
		Stringer("block", blockHash).
		Msg("proposing")
	sm.broadcast(msg)
}

// onProposal validates the leader's proposal and votes for it.
func (sm *StateMachine) onProposal(from party.ID, m *Message) error {
	if m.Epoch != sm.epoch {
		return errWrongEpoch
	}
	if from != sm.lastLeader {
		return errWrongLeader
	}
	if sm.rnd.proposeTimedOut {
		return errors.New("consensus: proposal after propose timeout")
	}

	var body Proposal
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	if body.Block == nil {
		return errors.New("consensus: empty proposal")
	}
	block := body.Block
	blockHash := block.Hash()

	if !sign.Verify(sm.cfg.VotingKeys[from], proposalSigningBytes(sm.epoch, blockHash), body.Sig) {
		return errors.New("consensus: bad proposal signature")
	}

	if sm.rnd.proposal != nil {
		if blockHash == sm.rnd.proposalHash {
			return nil // duplicate
		}
		// Two validly signed, conflicting proposals from the leader: the
		// leader is equivocating. Do not vote or commit this epoch.
		sm.rnd.equivocated = true
		sm.log.Warn().
			Uint16("leader", uint16(from)).
			Uint64("epoch", sm.epoch).
			Msg("leader equivocation observed")
		return nil
	}

	if err := sm.checkProposalBody(block); err != nil {
		return err
	}

	sm.storage.AddBlock(block)
	sm.rnd.proposal = block
	sm.rnd.proposalHash = blockHash

	vote := NewVote(sm.epoch, blockHash, block.Height, sm.cfg.ID, sm.cfg.SigningKey)
	msg, err := NewMessage(KindVote, sm.epoch, &VoteMsg{Vote: vote})
	if err != nil {
		panic(err)
	}
	sm.broadcast(msg)

	if !sm.rnd.voteTimeoutArmed {
		sm.rnd.voteTimeoutArmed = true
		sm.armAt(6, Event{Kind: EventVoteTimeout, Epoch: sm.epoch, BlockHash: blockHash})
	}
	return nil
}

// checkProposalBody enforces the chain and PVSS invariants on a proposal.
func (sm *StateMachine) checkProposalBody(block *Block) error {
	if block.Agg == nil || len(block.Decomp) != sm.cfg.NumNodes {
		return errors.New("consensus: proposal missing aggregate material")
	}

	// The block must extend our highest certificate or a known block.
	parentHeight := sm.highestHeight
	if block.ParentHash != sm.highest.Vote.BlockHash {
		parent, ok := sm.storage.Block(block.ParentHash)
		if !ok {
			return errors.New("consensus: proposal extends unknown parent")
		}
		parentHeight = parent.Height
	}
	if block.Height != parentHeight+1 {
		return fmt.Errorf("consensus: height %d does not extend parent height %d", block.Height, parentHeight)
	}

	if err := sm.ctx.PVerify(block.Agg); err != nil {
		return err
	}
	own := block.Decomp[sm.cfg.ID]
	if own == nil || own.Idx != int(sm.cfg.ID) {
		return errors.New("consensus: decomposition proof for wrong index")
	}
	return sm.ctx.DecompVerify(block.Agg, own, sm.epoch)
}

// onVoteTimeout sends the synchronous fallback vote if no sync-cert has been
// delivered by 6Δ.
func (sm *StateMachine) onVoteTimeout(ev Event) {
	if ev.Epoch != sm.epoch || sm.rnd.syncCert != nil || sm.rnd.equivocated {
		return
	}
	if sm.rnd.proposal == nil || sm.rnd.proposalHash != ev.BlockHash {
		return
	}
	vote := NewVote(sm.epoch, ev.BlockHash, sm.rnd.proposal.Height, sm.cfg.ID, sm.cfg.SigningKey)
	msg, err := NewMessage(KindVote, sm.epoch, &VoteMsg{Vote: vote})
	if err != nil {
		panic(err)
	}
	sm.log.Debug().Uint64("epoch", sm.epoch).Msg("sending synchronous vote")
	sm.broadcast(msg)
}
