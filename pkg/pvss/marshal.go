package pvss

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/luxfi/optrand/pkg/crypto/dleq"
	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
)

// Binary encodings are canonical: vector counts as 4-byte big-endian
// integers, group elements compressed, scalars 32-byte big-endian. Equal
// objects encode to equal bytes, which the block hash relies on.

func writeCount(buf *bytes.Buffer, n int) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	buf.Write(b[:])
}

func readCount(r *bytes.Reader) (int, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrMalformed
	}
	n := binary.BigEndian.Uint32(b[:])
	if n > 1<<16 {
		return 0, ErrMalformed
	}
	return int(n), nil
}

func writeProof(buf *bytes.Buffer, p *dleq.Proof) {
	buf.Write(pairing.ScalarBytes(&p.Challenge))
	buf.Write(pairing.ScalarBytes(&p.Response))
}

func readProof(r *bytes.Reader) (dleq.Proof, error) {
	var p dleq.Proof
	var err error
	if p.Challenge, err = readScalar(r); err != nil {
		return p, err
	}
	if p.Response, err = readScalar(r); err != nil {
		return p, err
	}
	return p, nil
}

func readScalar(r *bytes.Reader) (pairing.Scalar, error) {
	var b [pairing.ScalarSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return pairing.Scalar{}, ErrMalformed
	}
	s, err := pairing.ScalarFromBytes(b[:])
	if err != nil {
		return pairing.Scalar{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}

func readG1(r *bytes.Reader) (pairing.G1, error) {
	var b [pairing.G1Size]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return pairing.G1{}, ErrMalformed
	}
	p, err := pairing.G1FromBytes(b[:])
	if err != nil {
		return pairing.G1{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

func readG2(r *bytes.Reader) (pairing.G2, error) {
	var b [pairing.G2Size]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return pairing.G2{}, ErrMalformed
	}
	p, err := pairing.G2FromBytes(b[:])
	if err != nil {
		return pairing.G2{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Dealing) MarshalBinary() ([]byte, error) {
	if len(d.Encs) != len(d.Comms) || len(d.Proofs) != len(d.Comms) {
		return nil, ErrMalformed
	}
	buf := new(bytes.Buffer)
	writeCount(buf, len(d.Comms))
	for i := range d.Comms {
		buf.Write(pairing.G2Bytes(&d.Comms[i]))
	}
	for i := range d.Encs {
		buf.Write(pairing.G1Bytes(&d.Encs[i]))
	}
	for i := range d.Proofs {
		writeProof(buf, &d.Proofs[i])
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Dealing) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	n, err := readCount(r)
	if err != nil {
		return err
	}
	d.Comms = make([]pairing.G2, n)
	d.Encs = make([]pairing.G1, n)
	d.Proofs = make([]dleq.Proof, n)
	for i := 0; i < n; i++ {
		if d.Comms[i], err = readG2(r); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		if d.Encs[i], err = readG1(r); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		if d.Proofs[i], err = readProof(r); err != nil {
			return err
		}
	}
	if r.Len() != 0 {
		return ErrMalformed
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a *AggregatePVSS) MarshalBinary() ([]byte, error) {
	if len(a.Encs) != len(a.Comms) {
		return nil, ErrMalformed
	}
	buf := new(bytes.Buffer)
	writeCount(buf, len(a.Comms))
	for i := range a.Comms {
		buf.Write(pairing.G2Bytes(&a.Comms[i]))
	}
	for i := range a.Encs {
		buf.Write(pairing.G1Bytes(&a.Encs[i]))
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (a *AggregatePVSS) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	n, err := readCount(r)
	if err != nil {
		return err
	}
	a.Comms = make([]pairing.G2, n)
	a.Encs = make([]pairing.G1, n)
	for i := 0; i < n; i++ {
		if a.Comms[i], err = readG2(r); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		if a.Encs[i], err = readG1(r); err != nil {
			return err
		}
	}
	if r.Len() != 0 {
		return ErrMalformed
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (dp *DecompositionProof) MarshalBinary() ([]byte, error) {
	m := len(dp.Indices)
	if len(dp.Comms) != m || len(dp.Encs) != m || len(dp.Proofs) != m {
		return nil, ErrMalformed
	}
	buf := new(bytes.Buffer)
	writeCount(buf, dp.Idx)
	writeCount(buf, m)
	for _, idx := range dp.Indices {
		writeCount(buf, int(idx))
	}
	for i := range dp.Comms {
		buf.Write(pairing.G2Bytes(&dp.Comms[i]))
	}
	for i := range dp.Encs {
		buf.Write(pairing.G1Bytes(&dp.Encs[i]))
	}
	for i := range dp.Proofs {
		writeProof(buf, &dp.Proofs[i])
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (dp *DecompositionProof) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	idx, err := readCount(r)
	if err != nil {
		return err
	}
	dp.Idx = idx
	m, err := readCount(r)
	if err != nil {
		return err
	}
	dp.Indices = make([]party.ID, m)
	dp.Comms = make([]pairing.G2, m)
	dp.Encs = make([]pairing.G1, m)
	dp.Proofs = make([]dleq.Proof, m)
	for i := 0; i < m; i++ {
		v, err := readCount(r)
		if err != nil {
			return err
		}
		dp.Indices[i] = party.ID(v)
	}
	for i := 0; i < m; i++ {
		if dp.Comms[i], err = readG2(r); err != nil {
			return err
		}
	}
	for i := 0; i < m; i++ {
		if dp.Encs[i], err = readG1(r); err != nil {
			return err
		}
	}
	for i := 0; i < m; i++ {
		if dp.Proofs[i], err = readProof(r); err != nil {
			return err
		}
	}
	if r.Len() != 0 {
		return ErrMalformed
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Decryption) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(pairing.G1Bytes(&d.Dec))
	writeProof(buf, &d.Proof)
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Decryption) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if d.Dec, err = readG1(r); err != nil {
		return err
	}
	if d.Proof, err = readProof(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return ErrMalformed
	}
	return nil
}

// The beacon travels as its G1 value alone; receivers recompute the secret
// with BeaconFromValue, since the pairing with h2 is deterministic.
