package consensus

// onCommitTimeout applies the commit rule 2Δ after sync-cert delivery: the
// block commits iff the sync-cert still stands, no equivocation was observed
// in this epoch, and no conflicting higher-epoch certificate was learned.
func (sm *StateMachine) onCommitTimeout(ev Event) {
	if ev.Epoch != sm.epoch || sm.rnd.committedThisEpoch {
		return
	}
	cv := sm.rnd.syncCert
	if cv == nil || cv.Vote.BlockHash != ev.BlockHash {
		return
	}
	if sm.rnd.equivocated {
		sm.log.Warn().Uint64("epoch", sm.epoch).Msg("skipping commit after equivocation")
		return
	}
	if sm.highest.Vote.Epoch > sm.epoch {
		sm.log.Warn().Uint64("epoch", sm.epoch).Msg("skipping commit, higher-epoch certificate known")
		return
	}
	block, ok := sm.storage.Block(ev.BlockHash)
	if !ok {
		// Certified but never received, e.g. the leader equivocated towards
		// us. The certificate still advanced highest; the chain catches up
		// in a later epoch.
		sm.log.Info().Uint64("epoch", sm.epoch).Msg("certified block not held, skipping commit")
		return
	}

	if !sm.storage.MarkCommitted(sm.epoch, ev.BlockHash) {
		return
	}
	sm.rnd.committedThisEpoch = true
	sm.log.Info().
		Uint64("epoch", sm.epoch).
		Uint64("height", block.Height).
		Stringer("block", ev.BlockHash).
		Msg("committed")
	if sm.OnCommit != nil {
		sm.OnCommit(sm.epoch, block)
	}

	sm.issueDecryptionShare(block)
}
