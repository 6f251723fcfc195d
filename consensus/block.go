// Package consensus implements the OptRand epoch state machine: a
// synchronous, Δ-paced BFT protocol that commits at most one block per epoch
// and turns every committed block's PVSS aggregate into a fresh random
// beacon.
package consensus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/pvss"
)

// Block is one epoch's proposal: a parent link, an opaque payload, and the
// PVSS aggregate whose reconstruction becomes the epoch's beacon. The block
// hash covers all five fields.
type Block struct {
	ParentHash hash.Digest
	Height     uint64
	Payload    []byte
	Agg        *pvss.AggregatePVSS
	Decomp     []*pvss.DecompositionProof
}

// Genesis returns the height-0 block every chain starts from. It carries no
// aggregate; epoch 0's proposal extends it.
func Genesis() *Block {
	return &Block{}
}

// Hash returns the block digest.
func (b *Block) Hash() hash.Digest {
	data, err := b.MarshalBinary()
	if err != nil {
		// A block we built or already validated cannot fail to encode.
		panic(err)
	}
	return hash.Sum("optrand/block", data)
}

// MarshalBinary implements encoding.BinaryMarshaler with a canonical layout.
func (b *Block) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(b.ParentHash[:])
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], b.Height)
	buf.Write(h[:])

	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b.Payload)))
	buf.Write(n[:])
	buf.Write(b.Payload)

	if b.Agg == nil {
		binary.BigEndian.PutUint32(n[:], 0)
		buf.Write(n[:])
	} else {
		aggBytes, err := b.Agg.MarshalBinary()
		if err != nil {
			return nil, err
		}
		binary.BigEndian.PutUint32(n[:], uint32(len(aggBytes)))
		buf.Write(n[:])
		buf.Write(aggBytes)
	}

	binary.BigEndian.PutUint32(n[:], uint32(len(b.Decomp)))
	buf.Write(n[:])
	for _, dp := range b.Decomp {
		dpBytes, err := dp.MarshalBinary()
		if err != nil {
			return nil, err
		}
		binary.BigEndian.PutUint32(n[:], uint32(len(dpBytes)))
		buf.Write(n[:])
		buf.Write(dpBytes)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (b *Block) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	if _, err := io.ReadFull(r, b.ParentHash[:]); err != nil {
		return errBlockTruncated
	}
	var h [8]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return errBlockTruncated
	}
	b.Height = binary.BigEndian.Uint64(h[:])

	payload, err := readChunk(r)
	if err != nil {
		return err
	}
	b.Payload = payload

	aggBytes, err := readChunk(r)
	if err != nil {
		return err
	}
	if len(aggBytes) == 0 {
		b.Agg = nil
	} else {
		b.Agg = new(pvss.AggregatePVSS)
		if err := b.Agg.UnmarshalBinary(aggBytes); err != nil {
			return err
		}
	}

	var n [4]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return errBlockTruncated
	}
	count := binary.BigEndian.Uint32(n[:])
	if count > 1<<16 {
		return errBlockTruncated
	}
	b.Decomp = make([]*pvss.DecompositionProof, count)
	for i := range b.Decomp {
		dpBytes, err := readChunk(r)
		if err != nil {
			return err
		}
		b.Decomp[i] = new(pvss.DecompositionProof)
		if err := b.Decomp[i].UnmarshalBinary(dpBytes); err != nil {
			return err
		}
	}
	if r.Len() != 0 {
		return errBlockTruncated
	}
	return nil
}

var errBlockTruncated = errors.New("consensus: truncated block encoding")

func readChunk(r *bytes.Reader) ([]byte, error) {
	var n [4]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, errBlockTruncated
	}
	size := binary.BigEndian.Uint32(n[:])
	if int(size) > r.Len() {
		return nil, errBlockTruncated
	}
	if size == 0 {
		return nil, nil
	}
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errBlockTruncated
	}
	return out, nil
}
