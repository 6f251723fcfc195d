package consensus

import (
	"errors"
	"fmt"

	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/sign"
)

// syncCertSigningBytes is the message a leader's sync-cert signature covers.
func syncCertSigningBytes(epoch uint64, blockHash hash.Digest) []byte {
	d := hash.New("optrand/synccert").
		WriteUint64(epoch).
		WriteBytes(blockHash[:]).
		Sum()
	return d[:]
}

// onVote accumulates votes; when leading and f+1 distinct voters endorse the
// same block, the leader forms and broadcasts the sync-cert.
func (sm *StateMachine) onVote(from party.ID, m *Message) error {
	if m.Epoch != sm.epoch {
		return errWrongEpoch
	}
	var body VoteMsg
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	v := body.Vote
	if v.Epoch != sm.epoch || v.Voter != from {
		return errors.New("consensus: vote sender mismatch")
	}
	if !v.VerifySig(sm.cfg.VotingKeys[from]) {
		return errors.New("consensus: bad vote signature")
	}
	if sm.rnd.equivocated {
		return nil
	}

	cert, ok := sm.rnd.votes[v.BlockHash]
	if !ok {
		cert = sign.NewCertificate(sm.cfg.NumNodes)
		sm.rnd.votes[v.BlockHash] = cert
		sm.rnd.voteSubjects[v.BlockHash] = v
	}
	cert.Add(v.Voter, v.Sig)

	if sm.lastLeader == sm.cfg.ID && !sm.rnd.syncCertIssued && cert.Count() >= sm.cfg.Quorum() {
		sm.proposeSyncCert(sm.rnd.voteSubjects[v.BlockHash], cert.Clone())
	}
	return nil
}

// proposeSyncCert broadcasts the certificate of f+1 votes and loops it back
// through our own event queue.
func (sm *StateMachine) proposeSyncCert(v Vote, cert *sign.Certificate) {
	sm.rnd.syncCertIssued = true
	msg, err := NewMessage(KindSyncCert, sm.epoch, &SyncCertMsg{
		Vote: v,
		Cert: cert,
		Sig:  sign.Sign(sm.cfg.SigningKey, syncCertSigningBytes(sm.epoch, v.BlockHash)),
	})
	if err != nil {
		panic(err)
	}
	sm.log.Info().
		Uint64("epoch", sm.epoch).
		Stringer("block", v.BlockHash).
		Msg("issuing sync-cert")
	sm.broadcast(msg)
}

// onSyncCert validates a sync-cert received directly from the leader and
// triggers delivery plus the 2Δ commit timer.
func (sm *StateMachine) onSyncCert(from party.ID, m *Message) error {
	if from != sm.lastLeader {
		return fmt.Errorf("%w: expected sync-cert from leader %v", errWrongLeader, sm.lastLeader)
	}
	if m.Epoch != sm.epoch {
		return errWrongEpoch
	}
	if sm.rnd.stopSyncCerts {
		return errors.New("consensus: sync-cert past the 7Δ deadline")
	}

	var body SyncCertMsg
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	if body.Vote.Epoch != sm.epoch {
		return errWrongEpoch
	}
	if !sign.Verify(sm.cfg.VotingKeys[from], syncCertSigningBytes(sm.epoch, body.Vote.BlockHash), body.Sig) {
		return errors.New("consensus: bad sync-cert signature")
	}
	cv := &CertifiedVote{Vote: body.Vote, Cert: body.Cert}
	if err := cv.Validate(sm.cfg.Quorum(), sm.cfg.VotingKeys); err != nil {
		return err
	}

	// Echo the certificate to peers through the deliver layer before
	// anything else, so replicas that missed the direct send still commit.
	deliver, err := NewMessage(KindDeliver, sm.epoch, &Deliver{Vote: body.Vote, Cert: body.Cert})
	if err != nil {
		panic(err)
	}
	sm.out.Push(party.Broadcast(), deliver)

	sm.rnd.receivedSyncCert = true
	sm.acceptSyncCert(cv)
	return nil
}

// onDeliver accepts an echoed sync-cert if the direct one never arrived.
func (sm *StateMachine) onDeliver(from party.ID, m *Message) error {
	if sm.rnd.receivedSyncCert || sm.rnd.syncCert != nil {
		return nil
	}
	if m.Epoch != sm.epoch {
		return errWrongEpoch
	}
	if sm.rnd.stopSyncCerts {
		return errors.New("consensus: delivered sync-cert past the 7Δ deadline")
	}

	var body Deliver
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	if body.Vote.Epoch != sm.epoch {
		return errWrongEpoch
	}
	cv := &CertifiedVote{Vote: body.Vote, Cert: body.Cert}
	if err := cv.Validate(sm.cfg.Quorum(), sm.cfg.VotingKeys); err != nil {
		return err
	}
	sm.acceptSyncCert(cv)
	return nil
}

// acceptSyncCert records a validated sync-cert: arm the 2Δ commit timer,
// update the highest certificate, and store it.
func (sm *StateMachine) acceptSyncCert(cv *CertifiedVote) {
	if sm.rnd.syncCert != nil {
		return
	}
	sm.rnd.syncCert = cv
	sm.armIn(2, Event{
		Kind:      EventCommitTimeout,
		Epoch:     sm.epoch,
		BlockHash: cv.Vote.BlockHash,
	})
	sm.updateHighest(cv)
	sm.storage.AddSyncCert(sm.epoch, cv)
}
