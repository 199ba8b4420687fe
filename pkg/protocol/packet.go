package protocol

import (
	"bytes"
	"errors"
	"io"

	"github.com/kittymc-go/kittymc/internal/kerr"
)

// State is a connection's position in the protocol state machine.
type State int

const (
	StateHandshake State = iota
	StateStatus
	StateLogin
	StatePlay
)

func (s State) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateStatus:
		return "Status"
	case StateLogin:
		return "Login"
	case StatePlay:
		return "Play"
	default:
		return "Unknown"
	}
}

// Packet is the tagged-union contract every decodable or encodable
// packet satisfies: its numeric id and a human name for logging.
type Packet interface {
	ID() int32
	Name() string
}

// Encoder is implemented by every clientbound packet. EncodeFields
// writes the fields portion only (no outer frame, no packet id prefix)
// — the framer adds those via EncodePacket/EncodeFrame.
type Encoder interface {
	Packet
	EncodeFields(w io.Writer)
}

// decodeFunc parses a serverbound packet's field bytes (the frame body
// with the leading packet-id varint already stripped).
type decodeFunc func(data []byte) (Packet, error)

var dispatch = map[State]map[int32]decodeFunc{
	StateHandshake: {
		0x00: decodeHandshake,
	},
	StateStatus: {
		0x00: decodeStatusRequest,
		0x01: decodeStatusPing,
	},
	StateLogin: {
		0x00: decodeLoginStart,
	},
	StatePlay: {
		0x00: decodeTeleportConfirm,
		0x02: decodeChatMessageServerbound,
		0x04: decodeClientSettings,
		0x09: decodePluginMessageServerbound,
		0x0B: decodeKeepAliveServerbound,
		0x0D: decodePlayerPosition,
		0x0E: decodePlayerPositionAndLook,
		0x0F: decodePlayerLook,
		0x14: decodePlayerDigging,
		0x1A: decodeHeldItemChangeServerbound,
		0x1B: decodeCreativeInventoryAction,
		0x1D: decodeAnimationServerbound,
		0x1F: decodePlayerBlockPlacement,
	},
}

// DecodeNext reads one frame off the front of buf (a connection's
// receive buffer) and, if its (state, id) pair is known, decodes it. It
// reports the number of bytes consumed from buf whether or not the id
// was recognized, so the caller can always advance the buffer; pkt is
// nil when the id was not implemented in the given state.
//
// A *kerr.NotEnoughData error means buf holds a partial frame: consumed
// is always 0 and the caller should wait for more bytes before calling
// again. A *kerr.NotImplemented error still reports a nonzero consumed
// (the whole frame's length) so the caller can skip past it and keep
// decoding the rest of the buffer.
func DecodeNext(buf []byte, state State, comp Compression) (consumed int, pkt Packet, err error) {
	r := bytes.NewReader(buf)
	frame, ferr := ReadFrame(r, comp)
	if ferr != nil {
		if errors.Is(ferr, io.EOF) || errors.Is(ferr, io.ErrUnexpectedEOF) {
			return 0, nil, &kerr.NotEnoughData{Have: len(buf), Need: len(buf) + 1}
		}
		return 0, nil, ferr
	}
	consumed = len(buf) - r.Len()

	fn, ok := dispatch[state][frame.ID]
	if !ok {
		return consumed, nil, &kerr.NotImplemented{ID: frame.ID, FrameLen: consumed}
	}

	p, err := fn(frame.Data)
	if err != nil {
		return consumed, nil, err
	}
	return consumed, p, nil
}

// EncodePacket frames a clientbound packet through its Encoder, ready to
// hand to a connection's writer.
func EncodePacket(p Encoder, comp Compression) []byte {
	var fields bytes.Buffer
	p.EncodeFields(&fields)
	return EncodeFrame(p.ID(), fields.Bytes(), comp)
}
