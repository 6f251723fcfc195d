package consensus

import (
	"github.com/luxfi/optrand/pkg/hash"
)

// Storage owns the content-addressed block store, per-epoch sync-certs, and
// the committed chain. It is mutated only by the event loop.
type Storage struct {
	blocks    map[hash.Digest]*Block
	syncCerts map[uint64]*CertifiedVote
	committed map[uint64]hash.Digest
	byHash    map[hash.Digest]bool // committed block hashes

	genesisHash hash.Digest
	headHash    hash.Digest
	headHeight  uint64
}

// NewStorage returns storage seeded with the genesis block.
func NewStorage() *Storage {
	genesis := Genesis()
	gh := genesis.Hash()
	s := &Storage{
		blocks:      map[hash.Digest]*Block{gh: genesis},
		syncCerts:   make(map[uint64]*CertifiedVote),
		committed:   make(map[uint64]hash.Digest),
		byHash:      map[hash.Digest]bool{gh: true},
		genesisHash: gh,
		headHash:    gh,
	}
	return s
}

// GenesisHash returns the hash of the genesis block.
func (s *Storage) GenesisHash() hash.Digest {
	return s.genesisHash
}

// AddBlock stores a block under its hash.
func (s *Storage) AddBlock(b *Block) hash.Digest {
	h := b.Hash()
	s.blocks[h] = b
	return h
}

// Block fetches a block by hash.
func (s *Storage) Block(h hash.Digest) (*Block, bool) {
	b, ok := s.blocks[h]
	return b, ok
}

// HasBlock reports whether a block is known.
func (s *Storage) HasBlock(h hash.Digest) bool {
	_, ok := s.blocks[h]
	return ok
}

// AddSyncCert records the certified vote delivered for an epoch.
func (s *Storage) AddSyncCert(epoch uint64, cv *CertifiedVote) {
	s.syncCerts[epoch] = cv
}

// SyncCert fetches the certified vote for an epoch.
func (s *Storage) SyncCert(epoch uint64) (*CertifiedVote, bool) {
	cv, ok := s.syncCerts[epoch]
	return cv, ok
}

// MarkCommitted records a block as committed in an epoch, along with every
// uncommitted ancestor. It reports whether anything new was committed.
func (s *Storage) MarkCommitted(epoch uint64, h hash.Digest) bool {
	if _, done := s.committed[epoch]; done {
		return false
	}
	b, ok := s.blocks[h]
	if !ok {
		return false
	}
	s.committed[epoch] = h

	// Committing a block implicitly commits its ancestry.
	for cur, cb := h, b; !s.byHash[cur]; {
		s.byHash[cur] = true
		parent, ok := s.blocks[cb.ParentHash]
		if !ok {
			break
		}
		cur, cb = cb.ParentHash, parent
	}

	if b.Height >= s.headHeight {
		s.headHash = h
		s.headHeight = b.Height
	}
	return true
}

// Committed fetches the block hash committed in an epoch.
func (s *Storage) Committed(epoch uint64) (hash.Digest, bool) {
	h, ok := s.committed[epoch]
	return h, ok
}

// IsCommitted reports whether a block hash is on the committed chain.
func (s *Storage) IsCommitted(h hash.Digest) bool {
	return s.byHash[h]
}

// Head returns the highest committed block hash and height.
func (s *Storage) Head() (hash.Digest, uint64) {
	return s.headHash, s.headHeight
}
