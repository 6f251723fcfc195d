package consensus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/optrand/pkg/party"
	"github.com/luxfi/optrand/pkg/pvss"
	"github.com/luxfi/optrand/pkg/sign"
)

// Kind discriminates protocol messages.
type Kind uint8

const (
	// KindPVSSSharing carries a fresh dealing to the epoch's leader.
	KindPVSSSharing Kind = iota + 1
	// KindStatus reports the sender's highest certified vote to the leader.
	KindStatus
	// KindProposal carries the leader's signed block.
	KindProposal
	// KindVote endorses a proposal.
	KindVote
	// KindSyncCert carries the leader's certificate of f+1 votes.
	KindSyncCert
	// KindDeliver re-broadcasts a received sync-cert to peers.
	KindDeliver
	// KindDecryptionShare carries one replica's decrypted beacon share.
	KindDecryptionShare
	// KindBeacon announces a reconstructed beacon value.
	KindBeacon
)

func (k Kind) String() string {
	switch k {
	case KindPVSSSharing:
		return "PVSSSharing"
	case KindStatus:
		return "Status"
	case KindProposal:
		return "Proposal"
	case KindVote:
		return "Vote"
	case KindSyncCert:
		return "SyncCert"
	case KindDeliver:
		return "Deliver"
	case KindDecryptionShare:
		return "DecryptionShare"
	case KindBeacon:
		return "Beacon"
	default:
		return "Unknown"
	}
}

// Message is the wire envelope: a kind, the sender's epoch, and a
// cbor-encoded body.
type Message struct {
	Kind  Kind
	Epoch uint64
	Body  []byte
}

// PVSSSharing is the body of a KindPVSSSharing message.
type PVSSSharing struct {
	Dealing *pvss.Dealing
}

// Status is the body of a KindStatus message: the sender's view of the
// highest certified vote at the end of the previous epoch.
type Status struct {
	Epoch         uint64
	HighestHeight uint64
	Highest       CertifiedVote
}

// Proposal is the body of a KindProposal message.
type Proposal struct {
	Block *Block
	Sig   []byte
}

// VoteMsg is the body of a KindVote message.
type VoteMsg struct {
	Vote Vote
}

// SyncCertMsg is the body of a KindSyncCert message: a certified vote plus
// the leader's signature over it.
type SyncCertMsg struct {
	Vote Vote
	Cert *sign.Certificate
	Sig  []byte
}

// Deliver is the body of a KindDeliver message, echoing a sync-cert through
// the reliable-broadcast layer.
type Deliver struct {
	Vote Vote
	Cert *sign.Certificate
}

// DecryptionShareMsg is the body of a KindDecryptionShare message.
type DecryptionShareMsg struct {
	Share *pvss.Decryption
}

// BeaconMsg is the body of a KindBeacon message; the value is a compressed
// G1 point.
type BeaconMsg struct {
	Value []byte
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// NewMessage wraps a typed body into an envelope.
func NewMessage(kind Kind, epoch uint64, body any) (*Message, error) {
	data, err := encMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("consensus: encoding %v body: %w", kind, err)
	}
	return &Message{Kind: kind, Epoch: epoch, Body: data}, nil
}

// DecodeBody unmarshals the envelope body into out, which must match the
// message kind.
func (m *Message) DecodeBody(out any) error {
	if err := cbor.Unmarshal(m.Body, out); err != nil {
		return fmt.Errorf("consensus: decoding %v body: %w", m.Kind, err)
	}
	return nil
}

// Encode serializes the envelope.
func (m *Message) Encode() ([]byte, error) {
	return encMode.Marshal(m)
}

// DecodeMessage deserializes an envelope.
func DecodeMessage(data []byte) (*Message, error) {
	m := new(Message)
	if err := cbor.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("consensus: decoding envelope: %w", err)
	}
	return m, nil
}

// WriteFrame writes a 4-byte big-endian length prefix followed by the
// encoded envelope.
func WriteFrame(w io.Writer, m *Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// maxFrameSize bounds a frame read from the network.
const maxFrameSize = 1 << 24

// ReadFrame reads one length-prefixed envelope.
func ReadFrame(r io.Reader) (*Message, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxFrameSize {
		return nil, errors.New("consensus: frame too large")
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return DecodeMessage(data)
}

// OutMsg is an addressed outbound message.
type OutMsg struct {
	To  party.Destination
	Msg *Message
}

// MsgBuf is the bounded outbound buffer between the state machine and the
// transport. When full, the owning loop stops consuming inbound messages
// until the transport drains it.
type MsgBuf struct {
	items []OutMsg
	limit int
}

// NewMsgBuf returns a buffer holding at most limit messages; limit <= 0
// means a generous default.
func NewMsgBuf(limit int) *MsgBuf {
	if limit <= 0 {
		limit = 1024
	}
	return &MsgBuf{limit: limit}
}

// Push appends an outbound message. The limit is soft: a single inbound
// message may legitimately produce several outbound ones, so Push never
// fails; the owning loop checks Full before consuming further inbound
// traffic.
func (b *MsgBuf) Push(to party.Destination, m *Message) {
	b.items = append(b.items, OutMsg{To: to, Msg: m})
}

// Full reports whether the buffer is at capacity.
func (b *MsgBuf) Full() bool {
	return len(b.items) >= b.limit
}

// Len returns the number of buffered messages.
func (b *MsgBuf) Len() int {
	return len(b.items)
}

// Pop removes the oldest outbound message.
func (b *MsgBuf) Pop() (OutMsg, bool) {
	if len(b.items) == 0 {
		return OutMsg{}, false
	}
	m := b.items[0]
	b.items = b.items[1:]
	return m, true
}
