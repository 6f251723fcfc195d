package consensus

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the cross-restart state: the epoch clock, the highest
// certificate, and the committed chain head. Everything else is rebuilt by
// running epochs.
type Snapshot struct {
	Epoch           uint64
	Highest         CertifiedVote
	HighestHeight   uint64
	LastLeaderEpoch uint64
	HeadHeight      uint64
	HeadHash        []byte
}

// Snapshot captures the persistent state.
func (sm *StateMachine) Snapshot() *Snapshot {
	head, height := sm.storage.Head()
	return &Snapshot{
		Epoch:           sm.epoch,
		Highest:         sm.highest.Clone(),
		HighestHeight:   sm.highestHeight,
		LastLeaderEpoch: sm.lastLeaderEpoch,
		HeadHeight:      height,
		HeadHash:        head[:],
	}
}

// Restore applies a snapshot to a freshly constructed machine. Call before
// Start; the machine resumes from the snapshot's epoch.
func (sm *StateMachine) Restore(s *Snapshot) error {
	if err := s.Highest.Validate(sm.cfg.Quorum(), sm.cfg.VotingKeys); err != nil {
		return fmt.Errorf("consensus: restoring snapshot: %w", err)
	}
	sm.epoch = s.Epoch
	sm.highest = s.Highest.Clone()
	sm.highestHeight = s.HighestHeight
	sm.lastLeaderEpoch = s.LastLeaderEpoch
	return nil
}

// Save writes the snapshot with the canonical codec.
func (s *Snapshot) Save(w io.Writer) error {
	data, err := encMode.Marshal(s)
	if err != nil {
		return fmt.Errorf("consensus: encoding snapshot: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// LoadSnapshot reads a snapshot written by Save.
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := new(Snapshot)
	if err := cbor.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("consensus: decoding snapshot: %w", err)
	}
	return s, nil
}
