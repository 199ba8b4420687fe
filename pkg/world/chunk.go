package world

import (
	"bytes"
	"sort"

	"github.com/kittymc-go/kittymc/pkg/protocol"
)

const (
	SectionBlockCount = 16 * 16 * 16
	ChunkHeight       = 256
	SectionsPerChunk  = ChunkHeight / 16
	ChunkSectionSize  = SectionBlockCount
)

// directPaletteBits is the width used once a section's distinct block
// count no longer fits an 8-bit local palette; at that point every
// entry is written as its raw block state id instead of a palette index.
const directPaletteBits = 13

// Chunk is a realized 16x256x16 column: one BlockState per block plus a
// biome id per (x,z) column.
type Chunk struct {
	Sections [SectionsPerChunk][SectionBlockCount]uint16
	Biomes   [256]byte
}

// sectionIndex returns a section's local (y,z,x) linear block index,
// matching the wire order: y outermost, then z, then x.
func sectionIndex(lx, ly, lz int) int {
	return (ly*16+lz)*16 + lx
}

// SerializeSections encodes every non-empty section of a chunk column
// into the wire's bit-packed palette format, returning the section
// bytes and the primary bit mask flagging which of the 16 sections are
// present. Caller appends biome bytes only for a ground-up-continuous
// column.
func SerializeSections(sections *[SectionsPerChunk][SectionBlockCount]uint16, biomes [256]byte) ([]byte, uint16) {
	var buf bytes.Buffer
	var mask uint16

	for sy := 0; sy < SectionsPerChunk; sy++ {
		sec := &sections[sy]
		if sectionIsEmpty(sec) {
			continue
		}
		mask |= 1 << uint(sy)
		encodeSection(&buf, sec)
	}

	return buf.Bytes(), mask
}

func sectionIsEmpty(sec *[SectionBlockCount]uint16) bool {
	for _, v := range sec {
		if v != 0 {
			return false
		}
	}
	return true
}

// encodeSection writes one section's bits-per-block byte, palette (if
// any), and bit-packed data array, per the 1.12.2 pre-global-palette
// section format: an index never straddles a 64-bit word boundary, so
// each word holds floor(64/bitsPerBlock) entries and wastes the rest.
func encodeSection(buf *bytes.Buffer, sec *[SectionBlockCount]uint16) {
	palette, bitsPerBlock, direct := buildPalette(sec)

	protocol.WriteByte(buf, byte(bitsPerBlock))

	indexOf := make(map[uint16]int, len(palette))
	if !direct {
		protocol.WriteVarInt(buf, int32(len(palette)))
		for i, v := range palette {
			protocol.WriteVarInt(buf, int32(v))
			indexOf[v] = i
		}
	}

	entriesPerLong := 64 / bitsPerBlock
	numLongs := (SectionBlockCount + entriesPerLong - 1) / entriesPerLong
	words := make([]int64, numLongs)

	for i, v := range sec {
		var idx uint64
		if direct {
			idx = uint64(v)
		} else {
			idx = uint64(indexOf[v])
		}
		longIdx := i / entriesPerLong
		bitOffset := uint((i % entriesPerLong) * bitsPerBlock)
		words[longIdx] |= int64(idx << bitOffset)
	}

	protocol.WriteVarInt(buf, int32(numLongs))
	for _, w := range words {
		protocol.WriteInt64(buf, w)
	}

	// Light arrays: no dynamic lighting engine (Non-goal). Block light
	// stays at zero (no light-emitting blocks are ever placed); sky
	// light is full, since every column is open to the sky.
	buf.Write(make([]byte, SectionBlockCount/2)) // block light
	buf.Write(bytes.Repeat([]byte{0xFF}, SectionBlockCount/2)) // sky light
}

// buildPalette collects a section's distinct block states sorted by id,
// and picks the bits-per-block width the wire format calls for: 4 bits
// minimum, ceil(log2(n)) for larger sets, clamped to 8; a section with
// more than 256 distinct states falls back to the 13-bit direct
// encoding (no palette array, global ids written straight into data).
func buildPalette(sec *[SectionBlockCount]uint16) (palette []uint16, bitsPerBlock int, direct bool) {
	seen := make(map[uint16]bool)
	for _, v := range sec {
		seen[v] = true
	}
	palette = make([]uint16, 0, len(seen))
	for v := range seen {
		palette = append(palette, v)
	}
	sort.Slice(palette, func(i, j int) bool { return palette[i] < palette[j] })

	natural := ceilLog2(len(palette))
	if natural > 8 {
		return nil, directPaletteBits, true
	}
	if natural < 4 {
		natural = 4
	}
	return palette, natural, false
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	v := n - 1
	for v > 0 {
		bits++
		v >>= 1
	}
	return bits
}

// DecodeSections is SerializeSections' inverse. It exists for round-trip
// tests; the server itself never decodes its own chunk output.
func DecodeSections(data []byte, mask uint16) (*[SectionsPerChunk][SectionBlockCount]uint16, error) {
	var sections [SectionsPerChunk][SectionBlockCount]uint16
	r := bytes.NewReader(data)

	for sy := 0; sy < SectionsPerChunk; sy++ {
		if mask&(1<<uint(sy)) == 0 {
			continue
		}
		bitsPerBlock, err := protocol.ReadByte(r)
		if err != nil {
			return nil, err
		}

		var palette []uint16
		if int(bitsPerBlock) <= 8 {
			n, _, err := protocol.ReadVarInt(r)
			if err != nil {
				return nil, err
			}
			palette = make([]uint16, n)
			for i := range palette {
				v, _, err := protocol.ReadVarInt(r)
				if err != nil {
					return nil, err
				}
				palette[i] = uint16(v)
			}
		}

		numLongs, _, err := protocol.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		words := make([]int64, numLongs)
		for i := range words {
			v, err := protocol.ReadInt64(r)
			if err != nil {
				return nil, err
			}
			words[i] = v
		}

		entriesPerLong := 64 / int(bitsPerBlock)
		mask64 := uint64(1)<<uint(bitsPerBlock) - 1
		for i := 0; i < SectionBlockCount; i++ {
			longIdx := i / entriesPerLong
			bitOffset := uint((i % entriesPerLong) * int(bitsPerBlock))
			idx := (uint64(words[longIdx]) >> bitOffset) & mask64
			if palette != nil {
				sections[sy][i] = palette[idx]
			} else {
				sections[sy][i] = uint16(idx)
			}
		}

		// Skip the two light arrays (they carry no information this
		// decoder needs).
		skip := make([]byte, SectionBlockCount) // block+sky, 2048 each
		if _, err := r.Read(skip); err != nil && r.Len() != 0 {
			return nil, err
		}
	}

	return &sections, nil
}

// FlatWorldBlock returns the default layered-terrain block state for a
// flat world at the given Y level: bedrock at 0, dirt through 3, grass
// at 4, air above.
func FlatWorldBlock(y int32) uint16 {
	if y < 0 || y > 255 {
		return 0
	}
	switch {
	case y == 0:
		return 7 << 4 // bedrock
	case y <= 3:
		return 3 << 4 // dirt
	case y == 4:
		return 2 << 4 // grass
	default:
		return 0 // air
	}
}
