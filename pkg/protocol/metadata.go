package protocol

import (
	"bytes"
	"io"

	"github.com/kittymc-go/kittymc/internal/kerr"
)

// MetadataType enumerates the 14 value kinds (type codes 0-13) an entity
// metadata entry can carry.
type MetadataType int32

const (
	MetaByte        MetadataType = 0
	MetaVarInt      MetadataType = 1
	MetaFloat       MetadataType = 2
	MetaString      MetadataType = 3
	MetaChat        MetadataType = 4
	MetaOptChat     MetadataType = 5
	MetaSlot        MetadataType = 6
	MetaBoolean     MetadataType = 7
	MetaRotation    MetadataType = 8
	MetaPosition    MetadataType = 9
	MetaOptPosition MetadataType = 10
	MetaDirection   MetadataType = 11
	MetaOptUUID     MetadataType = 12
	MetaBlockID     MetadataType = 13
)

// MetadataEntry is one (index, type, value) record in an entity's
// metadata stream. Value holds the Go-native representation matching
// Type: byte, int32, float32, string, [3]float32 (rotation), or
// [3]int32 (position).
type MetadataEntry struct {
	Index byte
	Type  MetadataType
	Value any
}

// metadataEnd is the sentinel byte terminating a metadata stream.
const metadataEnd = 0xFF

// EncodeMetadata serializes a sequence of entries followed by the 0xFF
// terminator vanilla expects on every SpawnPlayer/EntityMetadata packet.
func EncodeMetadata(entries []MetadataEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		WriteByte(&buf, e.Index)
		WriteVarInt(&buf, int32(e.Type))
		encodeMetadataValue(&buf, e.Type, e.Value)
	}
	WriteByte(&buf, metadataEnd)
	return buf.Bytes()
}

func encodeMetadataValue(w io.Writer, t MetadataType, v any) {
	switch t {
	case MetaByte, MetaBoolean:
		WriteByte(w, v.(byte))
	case MetaVarInt, MetaDirection, MetaBlockID:
		WriteVarInt(w, v.(int32))
	case MetaFloat:
		WriteFloat32(w, v.(float32))
	case MetaString, MetaChat:
		WriteString(w, v.(string))
	case MetaOptChat:
		if s, ok := v.(string); ok {
			WriteBool(w, true)
			WriteString(w, s)
		} else {
			WriteBool(w, false)
		}
	case MetaRotation:
		r := v.([3]float32)
		WriteFloat32(w, r[0])
		WriteFloat32(w, r[1])
		WriteFloat32(w, r[2])
	case MetaPosition:
		p := v.([3]int32)
		WritePosition(w, p[0], p[1], p[2])
	case MetaOptPosition:
		if p, ok := v.([3]int32); ok {
			WriteBool(w, true)
			WritePosition(w, p[0], p[1], p[2])
		} else {
			WriteBool(w, false)
		}
	case MetaOptUUID:
		if u, ok := v.([16]byte); ok {
			WriteBool(w, true)
			WriteUUID(w, u)
		} else {
			WriteBool(w, false)
		}
	case MetaSlot:
		// No block-entity/item-NBT model in scope: an empty slot is
		// always written here (present = false).
		WriteBool(w, false)
	}
}

// DecodeMetadata parses a full metadata stream (used only by tests to
// verify round-trips; the server never receives one over the wire).
func DecodeMetadata(data []byte) ([]MetadataEntry, error) {
	r := bytes.NewReader(data)
	var entries []MetadataEntry
	for {
		idx, err := ReadByte(r)
		if err != nil {
			return nil, err
		}
		if idx == metadataEnd {
			return entries, nil
		}
		typ, _, err := ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		val, err := decodeMetadataValue(r, MetadataType(typ))
		if err != nil {
			return nil, err
		}
		entries = append(entries, MetadataEntry{Index: idx, Type: MetadataType(typ), Value: val})
	}
}

func decodeMetadataValue(r io.Reader, t MetadataType) (any, error) {
	switch t {
	case MetaByte, MetaBoolean:
		return ReadByte(r)
	case MetaVarInt, MetaDirection, MetaBlockID:
		v, _, err := ReadVarInt(r)
		return v, err
	case MetaFloat:
		return ReadFloat32(r)
	case MetaString, MetaChat:
		return ReadString(r)
	case MetaOptChat:
		present, err := ReadBool(r)
		if err != nil || !present {
			return nil, err
		}
		return ReadString(r)
	case MetaRotation:
		var rot [3]float32
		for i := range rot {
			v, err := ReadFloat32(r)
			if err != nil {
				return nil, err
			}
			rot[i] = v
		}
		return rot, nil
	case MetaPosition:
		x, y, z, err := ReadPosition(r)
		return [3]int32{x, y, z}, err
	case MetaOptPosition:
		present, err := ReadBool(r)
		if err != nil || !present {
			return nil, err
		}
		x, y, z, err := ReadPosition(r)
		return [3]int32{x, y, z}, err
	case MetaOptUUID:
		present, err := ReadBool(r)
		if err != nil || !present {
			return nil, err
		}
		return ReadUUID(r)
	case MetaSlot:
		present, err := ReadBool(r)
		if err != nil || !present {
			return nil, nil
		}
		return nil, nil
	default:
		return nil, &kerr.VarDecode{Kind: "metadata-type"}
	}
}

// Entity flag bits for the Byte metadata at index 0.
const (
	EntityFlagOnFire     byte = 0x01
	EntityFlagCrouched   byte = 0x02
	EntityFlagSprinting  byte = 0x08
	EntityFlagInvisible  byte = 0x20
	EntityFlagGlowing    byte = 0x40
)

// DefaultEntityMetadata builds the base Entity-layer indices (0-5) every
// entity carries: flags, air, no custom name, visible, not silent, has
// gravity.
func DefaultEntityMetadata() []MetadataEntry {
	return []MetadataEntry{
		{Index: 0, Type: MetaByte, Value: byte(0)},
		{Index: 1, Type: MetaVarInt, Value: int32(300)},
		{Index: 2, Type: MetaOptChat, Value: nil},
		{Index: 3, Type: MetaBoolean, Value: byte(0)},
		{Index: 4, Type: MetaBoolean, Value: byte(0)},
		{Index: 5, Type: MetaBoolean, Value: byte(0)},
	}
}

// DefaultLivingMetadata appends the Living Entity layer (6-9) on top of
// the Entity layer. Index 6 is documented upstream as the hand-state
// bitflags, but health is written into that same index right after,
// so health wins on the wire and the hand-state byte never reaches a
// client. Reproduced as-is rather than fixed.
func DefaultLivingMetadata(health float32) []MetadataEntry {
	m := DefaultEntityMetadata()
	return append(m,
		MetadataEntry{Index: 6, Type: MetaFloat, Value: health},
		MetadataEntry{Index: 7, Type: MetaVarInt, Value: int32(0)},
		MetadataEntry{Index: 8, Type: MetaBoolean, Value: byte(0)},
		MetadataEntry{Index: 9, Type: MetaVarInt, Value: int32(0)},
	)
}

// DefaultPlayerMetadata appends the Player layer (11-14) on top of the
// Living layer: no extra hearts, zero score, visible skin parts, and
// main hand set to right (0).
func DefaultPlayerMetadata(health float32, skinParts byte) []MetadataEntry {
	m := DefaultLivingMetadata(health)
	return append(m,
		MetadataEntry{Index: 11, Type: MetaFloat, Value: float32(0)},
		MetadataEntry{Index: 12, Type: MetaVarInt, Value: int32(0)},
		MetadataEntry{Index: 13, Type: MetaByte, Value: skinParts},
		MetadataEntry{Index: 14, Type: MetaByte, Value: byte(0)},
	)
}
