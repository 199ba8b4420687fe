package world

// Generator fills a chunk column with the fixed flat layered terrain
// (bedrock, dirt, grass, air) spec.md calls for. There is no procedural
// terrain, biome, cave, or structure generation: those are explicitly
// out of scope, and a from-scratch noise-based generator would be a
// different project from what this server promises.
type Generator struct {
	Seed int64
}

// NewGenerator builds a flat-terrain generator. Seed is accepted for
// parity with the wire/world model (a world has a seed) but does not
// currently influence the fixed layering.
func NewGenerator(seed int64) *Generator {
	return &Generator{Seed: seed}
}

// plainsBiome is the single biome id reported for every column.
const plainsBiome byte = 1

// GenerateInternal builds the flat layered terrain for one chunk
// column. Every column generates identically: the x, z arguments exist
// so callers don't need two code paths for realized vs. not-yet-loaded
// chunks.
func (g *Generator) GenerateInternal(chunkX, chunkZ int) ([SectionsPerChunk][SectionBlockCount]uint16, [256]byte) {
	var sections [SectionsPerChunk][SectionBlockCount]uint16
	var biomes [256]byte

	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			for y := int32(0); y <= 4; y++ {
				sections[0][sectionIndex(lx, int(y), lz)] = FlatWorldBlock(y)
			}
			biomes[lz*16+lx] = plainsBiome
		}
	}

	return sections, biomes
}

// GenerateChunkData builds a column and immediately serializes it,
// convenient for the chunk manager's generator workers.
func (g *Generator) GenerateChunkData(chunkX, chunkZ int) ([]byte, uint16) {
	sections, biomes := g.GenerateInternal(chunkX, chunkZ)
	return SerializeSections(&sections, biomes)
}
