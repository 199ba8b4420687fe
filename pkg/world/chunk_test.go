package world

import (
	"bytes"
	"io"
	"testing"

	"github.com/kittymc-go/kittymc/pkg/protocol"
)

func TestSerializeEmptyChunkHasNoSections(t *testing.T) {
	var sections [SectionsPerChunk][SectionBlockCount]uint16
	var biomes [256]byte
	data, mask := SerializeSections(&sections, biomes)
	if mask != 0 {
		t.Errorf("all-air chunk: want mask 0, got 0x%04x", mask)
	}
	if len(data) != 0 {
		t.Errorf("all-air chunk: want zero section bytes, got %d", len(data))
	}
}

func TestSerializeFlatChunkMasksSectionZeroOnly(t *testing.T) {
	var sections [SectionsPerChunk][SectionBlockCount]uint16
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			sections[0][sectionIndex(i, 0, j)] = FlatWorldBlock(0)
			sections[0][sectionIndex(i, 1, j)] = FlatWorldBlock(1)
			sections[0][sectionIndex(i, 4, j)] = FlatWorldBlock(4)
		}
	}
	var biomes [256]byte
	data, mask := SerializeSections(&sections, biomes)
	if mask != 0x0001 {
		t.Errorf("want mask 0x0001, got 0x%04x", mask)
	}
	if len(data) == 0 {
		t.Error("expected non-empty section bytes for a populated section")
	}
}

func TestChunkEncodeDecodeRoundTrip(t *testing.T) {
	var sections [SectionsPerChunk][SectionBlockCount]uint16
	// Section 0: layered flat terrain (few distinct states -> small palette).
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			for y := 0; y < 5; y++ {
				sections[0][sectionIndex(i, y, j)] = FlatWorldBlock(int32(y))
			}
		}
	}
	// Section 3: many distinct states to force a wider bits-per-block.
	for i := 0; i < SectionBlockCount; i++ {
		sections[3][i] = uint16(i % 300)
	}

	var biomes [256]byte
	for i := range biomes {
		biomes[i] = 1
	}

	data, mask := SerializeSections(&sections, biomes)
	decoded, err := DecodeSections(data, mask)
	if err != nil {
		t.Fatalf("DecodeSections: %v", err)
	}

	if decoded[0] != sections[0] {
		t.Errorf("section 0 round trip mismatch")
	}
	if decoded[3] != sections[3] {
		t.Errorf("section 3 round trip mismatch (wide palette / direct mode)")
	}
	// Untouched sections must stay empty and unmasked.
	if mask&(1<<2) != 0 {
		t.Errorf("expected section 2 unset in mask, got 0x%04x", mask)
	}
}

func TestBuildPaletteBitsPerBlock(t *testing.T) {
	cases := []struct {
		distinct int
		want     int
		direct   bool
	}{
		{1, 4, false},
		{16, 4, false},
		{17, 5, false},
		{256, 8, false},
		{257, directPaletteBits, true},
	}
	for _, c := range cases {
		var sec [SectionBlockCount]uint16
		for i := 0; i < c.distinct; i++ {
			sec[i] = uint16(i)
		}
		_, bits, direct := buildPalette(&sec)
		if bits != c.want || direct != c.direct {
			t.Errorf("distinct=%d: want bits=%d direct=%v, got bits=%d direct=%v", c.distinct, c.want, c.direct, bits, direct)
		}
	}
}

func TestEncodeSectionBlockLightIsZeroSkyLightIsFull(t *testing.T) {
	var sec [SectionBlockCount]uint16
	for i := range sec {
		sec[i] = 5
	}

	var buf bytes.Buffer
	encodeSection(&buf, &sec)
	data := buf.Bytes()

	bitsPerBlock := int(data[0])
	r := bytes.NewReader(data[1:])

	if bitsPerBlock <= 8 {
		paletteLen, _, err := protocol.ReadVarInt(r)
		if err != nil {
			t.Fatalf("palette len: %v", err)
		}
		for i := int32(0); i < paletteLen; i++ {
			if _, _, err := protocol.ReadVarInt(r); err != nil {
				t.Fatalf("palette entry %d: %v", i, err)
			}
		}
	}

	numLongs, _, err := protocol.ReadVarInt(r)
	if err != nil {
		t.Fatalf("numLongs: %v", err)
	}
	if _, err := io.CopyN(io.Discard, r, int64(numLongs)*8); err != nil {
		t.Fatalf("data array: %v", err)
	}

	blockLight := make([]byte, SectionBlockCount/2)
	if _, err := io.ReadFull(r, blockLight); err != nil {
		t.Fatalf("block light: %v", err)
	}
	for i, b := range blockLight {
		if b != 0x00 {
			t.Fatalf("block light byte %d: want 0x00, got 0x%02x", i, b)
		}
	}

	skyLight := make([]byte, SectionBlockCount/2)
	if _, err := io.ReadFull(r, skyLight); err != nil {
		t.Fatalf("sky light: %v", err)
	}
	for i, b := range skyLight {
		if b != 0xFF {
			t.Fatalf("sky light byte %d: want 0xFF, got 0x%02x", i, b)
		}
	}
}

func TestFlatWorldBlockLayers(t *testing.T) {
	if FlatWorldBlock(0)>>4 != 7 {
		t.Error("y=0 should be bedrock (id 7)")
	}
	if FlatWorldBlock(2)>>4 != 3 {
		t.Error("y=2 should be dirt (id 3)")
	}
	if FlatWorldBlock(4)>>4 != 2 {
		t.Error("y=4 should be grass (id 2)")
	}
	if FlatWorldBlock(5) != 0 {
		t.Error("y=5 should be air")
	}
	if FlatWorldBlock(-1) != 0 || FlatWorldBlock(256) != 0 {
		t.Error("out-of-range y should return air")
	}
}
