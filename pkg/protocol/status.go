package protocol

import (
	"bytes"
	"io"
)

// StatusRequest (serverbound 0x00) has no fields; it asks for the JSON
// status response used by the server list ping.
type StatusRequest struct{}

func (StatusRequest) ID() int32    { return 0x00 }
func (StatusRequest) Name() string { return "StatusRequest" }

func decodeStatusRequest(data []byte) (Packet, error) {
	return &StatusRequest{}, nil
}

// StatusPing (serverbound 0x01) carries an opaque payload that must be
// echoed back unchanged in a StatusPong.
type StatusPing struct {
	Payload int64
}

func (StatusPing) ID() int32    { return 0x01 }
func (StatusPing) Name() string { return "StatusPing" }

func decodeStatusPing(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	payload, err := ReadInt64(r)
	if err != nil {
		return nil, err
	}
	return &StatusPing{Payload: payload}, nil
}

// StatusResponse (clientbound 0x00) carries the raw JSON status document
// (version, players, description, favicon) shown in the server list.
type StatusResponse struct {
	JSON string
}

func (StatusResponse) ID() int32    { return 0x00 }
func (StatusResponse) Name() string { return "StatusResponse" }

func (p *StatusResponse) EncodeFields(w io.Writer) {
	WriteString(w, p.JSON)
}

// StatusPong (clientbound 0x01) echoes a StatusPing's payload.
type StatusPong struct {
	Payload int64
}

func (StatusPong) ID() int32    { return 0x01 }
func (StatusPong) Name() string { return "StatusPong" }

func (p *StatusPong) EncodeFields(w io.Writer) {
	WriteInt64(w, p.Payload)
}
