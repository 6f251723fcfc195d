package consensus

import (
	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/sign"
)

// Vote endorses one block for one epoch. The signature covers the epoch and
// block hash.
type Vote struct {
	Epoch     uint64
	BlockHash hash.Digest
	Height    uint64
	Voter     party.ID
	Sig       []byte
}

// voteSigningBytes is the message a vote signature covers.
func voteSigningBytes(epoch uint64, blockHash hash.Digest) []byte {
	d := hash.New("optrand/vote").
		WriteUint64(epoch).
		WriteBytes(blockHash[:]).
		Sum()
	return d[:]
}

// NewVote builds and signs a vote.
func NewVote(epoch uint64, blockHash hash.Digest, height uint64, voter party.ID, sk sign.PrivateKey) Vote {
	return Vote{
		Epoch:     epoch,
		BlockHash: blockHash,
		Height:    height,
		Voter:     voter,
		Sig:       sign.Sign(sk, voteSigningBytes(epoch, blockHash)),
	}
}

// VerifySig checks the voter's signature.
func (v *Vote) VerifySig(pk sign.PublicKey) bool {
	return sign.Verify(pk, voteSigningBytes(v.Epoch, v.BlockHash), v.Sig)
}

// HigherThan orders votes lexicographically by (epoch, height).
func (v *Vote) HigherThan(other *Vote) bool {
	if v.Epoch != other.Epoch {
		return v.Epoch > other.Epoch
	}
	return v.Height > other.Height
}

// CertifiedVote pairs a vote with a quorum certificate over it. The zero
// value with an empty vote stands for the genesis certificate.
type CertifiedVote struct {
	Vote Vote
	Cert *sign.Certificate
}

// IsGenesis reports whether this is the implicit genesis certificate.
func (cv *CertifiedVote) IsGenesis() bool {
	return cv.Vote.Epoch == 0 && cv.Vote.Height == 0
}

// Validate checks the certificate against the committee's voting keys.
// The genesis certificate needs no signatures.
func (cv *CertifiedVote) Validate(quorum int, pks []sign.PublicKey) error {
	if cv.IsGenesis() {
		return nil
	}
	return cv.Cert.Verify(voteSigningBytes(cv.Vote.Epoch, cv.Vote.BlockHash), quorum, pks)
}

// Clone deep-copies the certified vote.
func (cv *CertifiedVote) Clone() CertifiedVote {
	return CertifiedVote{Vote: cv.Vote, Cert: cv.Cert.Clone()}
}
