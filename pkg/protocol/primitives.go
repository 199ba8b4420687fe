// Package protocol implements the Minecraft 1.12.2 (protocol 340) wire
// codec: primitive types, the length-prefixed/zlib-compressed framer, the
// packet registry and dispatcher, packet definitions, and the entity
// metadata stream.
package protocol

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/kittymc-go/kittymc/internal/kerr"
)

// ProtocolVersion is the protocol number this codec implements.
const ProtocolVersion = 340

// MaxStringLength bounds a decoded string's byte length (4 bytes per
// UTF-8 code point at 32767 code points, matching vanilla's limit).
const MaxStringLength = 32767 * 4

// ReadVarInt reads a little-endian, 7-bit-per-byte, continuation-bit
// variable-length int32. Fails with *kerr.VarDecode if no terminating
// byte appears within 5 bytes.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	var numRead int
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, numRead, err
		}
		result |= uint32(b[0]&0x7F) << (7 * numRead)
		numRead++
		if b[0]&0x80 == 0 {
			break
		}
		if numRead >= 5 {
			return 0, numRead, &kerr.VarDecode{Kind: "varint32"}
		}
	}
	return int32(result), numRead, nil
}

// WriteVarInt writes value as a varint and returns the byte count.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [5]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes value into buf (which must be at least 5 bytes) and
// returns the number of bytes written. The encoding is length-minimal.
func PutVarInt(buf []byte, value int32) int {
	uval := uint32(value)
	n := 0
	for {
		if uval&^uint32(0x7F) == 0 {
			buf[n] = byte(uval)
			return n + 1
		}
		buf[n] = byte(uval&0x7F) | 0x80
		uval >>= 7
		n++
	}
}

// VarIntSize returns the minimal encoded length of value.
func VarIntSize(value int32) int {
	uval := uint32(value)
	size := 1
	for uval&^uint32(0x7F) != 0 {
		uval >>= 7
		size++
	}
	return size
}

// WriteVarIntSplice inserts value's varint encoding into buf at byte
// offset at, shifting the tail right, and returns the new slice. Used to
// back-patch a length prefix after the body has already been measured.
func WriteVarIntSplice(buf []byte, value int32, at int) []byte {
	var enc [5]byte
	n := PutVarInt(enc[:], value)
	out := make([]byte, 0, len(buf)+n)
	out = append(out, buf[:at]...)
	out = append(out, enc[:n]...)
	out = append(out, buf[at:]...)
	return out
}

// ReadVarLong reads a varint-encoded int64. Fails with *kerr.VarDecode
// if no terminating byte appears within 10 bytes.
func ReadVarLong(r io.Reader) (int64, int, error) {
	var result uint64
	var numRead int
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, numRead, err
		}
		result |= uint64(b[0]&0x7F) << (7 * numRead)
		numRead++
		if b[0]&0x80 == 0 {
			break
		}
		if numRead >= 10 {
			return 0, numRead, &kerr.VarDecode{Kind: "varint64"}
		}
	}
	return int64(result), numRead, nil
}

// WriteVarLong writes value as a varint-encoded int64.
func WriteVarLong(w io.Writer, value int64) (int, error) {
	uval := uint64(value)
	var buf [10]byte
	n := 0
	for {
		if uval&^uint64(0x7F) == 0 {
			buf[n] = byte(uval)
			n++
			break
		}
		buf[n] = byte(uval&0x7F) | 0x80
		uval >>= 7
		n++
	}
	return w.Write(buf[:n])
}

// ReadString reads a varint-length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if length < 0 || int(length) > MaxStringLength {
		return "", &kerr.InvalidPacketLength{Length: length}
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return "", &kerr.NotEnoughBytes{Kind: "string", Need: int(length), Have: n}
	}
	if !utf8.Valid(buf) {
		return "", &kerr.StringDecode{Cause: io.ErrUnexpectedEOF}
	}
	return string(buf), nil
}

// WriteString writes a varint-length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) error {
	b := []byte(s)
	if _, err := WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadByteArray reads a varint-length-prefixed byte array.
func ReadByteArray(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, &kerr.InvalidPacketLength{Length: length}
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, &kerr.NotEnoughBytes{Kind: "byte array", Need: int(length), Have: n}
	}
	return buf, nil
}

// WriteByteArray writes a varint-length-prefixed byte array.
func WriteByteArray(w io.Writer, b []byte) error {
	if _, err := WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func ReadInt16(r io.Reader) (int16, error) {
	v, err := ReadUint16(r)
	return int16(v), err
}

func WriteInt16(w io.Writer, v int16) error { return WriteUint16(w, uint16(v)) }

func ReadInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func WriteInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadUint32(r io.Reader) (uint32, error) {
	v, err := ReadInt32(r)
	return uint32(v), err
}

func WriteUint32(w io.Writer, v uint32) error { return WriteInt32(w, int32(v)) }

func ReadInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func WriteInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadUint64(r io.Reader) (uint64, error) {
	v, err := ReadInt64(r)
	return uint64(v), err
}

func WriteUint64(w io.Writer, v uint64) error { return WriteInt64(w, int64(v)) }

func ReadFloat32(r io.Reader) (float32, error) {
	v, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func WriteFloat32(w io.Writer, v float32) error {
	return WriteUint32(w, math.Float32bits(v))
}

func ReadFloat64(r io.Reader) (float64, error) {
	v, err := ReadUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func WriteFloat64(w io.Writer, v float64) error {
	return WriteUint64(w, math.Float64bits(v))
}

func ReadBool(r io.Reader) (bool, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}

func WriteBool(w io.Writer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

func WriteByte(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadUUID reads a 128-bit uuid as two big-endian 64-bit words.
func ReadUUID(r io.Reader) ([16]byte, error) {
	var uuid [16]byte
	_, err := io.ReadFull(r, uuid[:])
	return uuid, err
}

// WriteUUID writes a 128-bit uuid as two big-endian 64-bit words.
func WriteUUID(w io.Writer, uuid [16]byte) error {
	_, err := w.Write(uuid[:])
	return err
}

// ReadPosition decodes the packed block position: bits 63..38 = x
// (26-bit signed), bits 37..26 = y (12-bit signed), bits 25..0 = z
// (26-bit signed), with sign extension from each field's high bit.
func ReadPosition(r io.Reader) (x, y, z int32, err error) {
	val, err := ReadInt64(r)
	if err != nil {
		return 0, 0, 0, err
	}
	x = int32(val >> 38)
	y = int32(val << 26 >> 52) // isolate bits 37..26, sign-extended
	z = int32(val << 38 >> 38) // isolate bits 25..0, sign-extended
	return x, y, z, nil
}

// WritePosition encodes the packed block position per ReadPosition's
// layout.
func WritePosition(w io.Writer, x, y, z int32) error {
	val := (int64(x&0x3FFFFFF) << 38) | (int64(y&0xFFF) << 26) | int64(z&0x3FFFFFF)
	return WriteInt64(w, val)
}

// Angle is the 256-step packed representation of a degree angle used for
// entity yaw/pitch/head-yaw fields.
type Angle byte

// AngleFromDegrees truncates a degree angle to its 256-step encoding.
func AngleFromDegrees(degrees float32) Angle {
	steps := int32(degrees * 256.0 / 360.0)
	return Angle(byte(steps))
}

// Degrees converts the packed angle back to degrees in [0, 360).
func (a Angle) Degrees() float32 {
	return float32(a) * 360.0 / 256.0
}

func ReadAngle(r io.Reader) (Angle, error) {
	b, err := ReadByte(r)
	return Angle(b), err
}

func WriteAngle(w io.Writer, a Angle) error {
	return WriteByte(w, byte(a))
}
