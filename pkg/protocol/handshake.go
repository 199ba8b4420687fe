package protocol

import "bytes"

// NextState is the state a Handshake packet asks the connection to move
// into: Status (server list ping) or Login (join the game).
type NextState int32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

// Handshake is the sole Handshake-state packet. It carries the client's
// declared protocol version and the state it wants to transition to;
// nothing is ever sent back in this state.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

func (Handshake) ID() int32    { return 0x00 }
func (Handshake) Name() string { return "Handshake" }

func decodeHandshake(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	ver, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	addr, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	port, err := ReadUint16(r)
	if err != nil {
		return nil, err
	}
	next, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return &Handshake{
		ProtocolVersion: ver,
		ServerAddress:   addr,
		ServerPort:      port,
		NextState:       NextState(next),
	}, nil
}
