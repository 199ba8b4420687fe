package protocol

import (
	"bytes"
	"io"
)

// LoginStart (serverbound 0x00) carries the username the client wants
// to join as. With online-mode auth out of scope, this name alone seeds
// the cracked identity (see the server package's offline UUID derivation).
type LoginStart struct {
	Name string
}

func (LoginStart) ID() int32    { return 0x00 }
func (LoginStart) Name() string { return "LoginStart" }

func decodeLoginStart(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	name, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	return &LoginStart{Name: name}, nil
}

// LoginDisconnect (clientbound 0x00) ends the connection during the
// Login state with a JSON chat-formatted reason.
type LoginDisconnect struct {
	Reason string
}

func (LoginDisconnect) ID() int32    { return 0x00 }
func (LoginDisconnect) Name() string { return "LoginDisconnect" }

func (p *LoginDisconnect) EncodeFields(w io.Writer) {
	WriteString(w, p.Reason)
}

// LoginSuccess (clientbound 0x02) finalizes Login and moves the
// connection to Play. UUID is the dashed-hex string form, matching the
// wire's String encoding for this field (not the raw 16-byte encoding
// used elsewhere in the protocol).
type LoginSuccess struct {
	UUID     string
	Username string
}

func (LoginSuccess) ID() int32    { return 0x02 }
func (LoginSuccess) Name() string { return "LoginSuccess" }

func (p *LoginSuccess) EncodeFields(w io.Writer) {
	WriteString(w, p.UUID)
	WriteString(w, p.Username)
}

// SetCompression (clientbound 0x03) announces the compression threshold
// every subsequent frame on the connection must honor.
type SetCompression struct {
	Threshold int32
}

func (SetCompression) ID() int32    { return 0x03 }
func (SetCompression) Name() string { return "SetCompression" }

func (p *SetCompression) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.Threshold)
}
