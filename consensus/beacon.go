package consensus

import (
	"errors"

	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
)

// issueDecryptionShare decrypts our share of the committed block's aggregate
// and broadcasts it, looping it back so we count ourselves.
func (sm *StateMachine) issueDecryptionShare(block *Block) {
	dec, err := sm.ctx.DecryptShare(sm.random, block.Agg)
	if err != nil {
		// Decryption fails only on a broken randomness source.
		panic(err)
	}
	msg, err := NewMessage(KindDecryptionShare, sm.epoch, &DecryptionShareMsg{Share: dec})
	if err != nil {
		panic(err)
	}
	sm.broadcast(msg)
}

// onDecryptionShare verifies and stores a peer's share; t+1 shares
// reconstruct the epoch's beacon.
func (sm *StateMachine) onDecryptionShare(from party.ID, m *Message) error {
	if m.Epoch != sm.epoch {
		return errWrongEpoch
	}
	block := sm.rnd.proposal
	if block == nil || block.Agg == nil {
		return errors.New("consensus: decryption share without a proposal")
	}
	if sm.rnd.decShares[from] != nil {
		return nil // duplicate
	}

	var body DecryptionShareMsg
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	if body.Share == nil {
		return errors.New("consensus: empty decryption share")
	}
	if err := sm.ctx.VerifyShare(from, body.Share, &block.Agg.Encs[from]); err != nil {
		return err
	}

	sm.rnd.decShares[from] = body.Share
	sm.rnd.decCount++
	sm.maybeReconstruct(block)
	return nil
}

// maybeReconstruct emits the beacon once the block committed and t+1 shares
// are held.
func (sm *StateMachine) maybeReconstruct(block *Block) {
	if sm.rnd.beaconDone || !sm.rnd.committedThisEpoch {
		return
	}
	if sm.rnd.decCount < sm.cfg.Quorum() {
		return
	}
	beacon, err := sm.ctx.Reconstruct(sm.rnd.decShares)
	if err != nil {
		// We counted quorum valid shares; reconstruction cannot run short.
		panic(err)
	}
	sm.rnd.beaconDone = true
	sm.log.Info().Uint64("epoch", sm.epoch).Msg("beacon reconstructed")
	if sm.OnBeacon != nil {
		sm.OnBeacon(sm.epoch, beacon)
	}

	msg, err := NewMessage(KindBeacon, sm.epoch, &BeaconMsg{
		Value: pairing.G1Bytes(&beacon.Value),
	})
	if err != nil {
		panic(err)
	}
	sm.out.Push(party.Broadcast(), msg)
}

// onBeaconMsg adopts a peer's reconstructed beacon after checking it against
// the aggregate's public commitments.
func (sm *StateMachine) onBeaconMsg(from party.ID, m *Message) error {
	if m.Epoch != sm.epoch {
		return errWrongEpoch
	}
	if sm.rnd.beaconDone {
		return nil
	}
	block := sm.rnd.proposal
	if block == nil || block.Agg == nil {
		return errors.New("consensus: beacon without a proposal")
	}

	var body BeaconMsg
	if err := m.DecodeBody(&body); err != nil {
		return err
	}
	value, err := pairing.G1FromBytes(body.Value)
	if err != nil {
		return err
	}
	beacon, err := sm.ctx.BeaconFromValue(value)
	if err != nil {
		return err
	}
	if err := sm.ctx.VerifyBeacon(block.Agg, beacon); err != nil {
		return err
	}

	sm.rnd.beaconDone = true
	sm.log.Info().Uint64("epoch", sm.epoch).Uint16("from", uint16(from)).Msg("beacon adopted")
	if sm.OnBeacon != nil {
		sm.OnBeacon(sm.epoch, beacon)
	}
	return nil
}
