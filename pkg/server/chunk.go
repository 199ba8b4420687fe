package server

import (
	"math"
	"sort"

	"github.com/kittymc-go/kittymc/pkg/protocol"
	"github.com/kittymc-go/kittymc/pkg/world"
)

// chunksInXZDisc enumerates chunk positions whose 16x16 XZ footprint
// lies within radiusBlocks of (centerX, centerZ), measured as Euclidean
// distance from the AABB's nearest face (spec.md §4.G).
func chunksInXZDisc(centerX, centerZ float64, radiusBlocks float64) []world.ChunkPos {
	chunkRadius := int32(radiusBlocks/16) + 1
	centerChunkX := int32(math.Floor(centerX / 16))
	centerChunkZ := int32(math.Floor(centerZ / 16))

	var out []world.ChunkPos
	for cx := centerChunkX - chunkRadius; cx <= centerChunkX+chunkRadius; cx++ {
		for cz := centerChunkZ - chunkRadius; cz <= centerChunkZ+chunkRadius; cz++ {
			if aabbDistance(centerX, centerZ, cx, cz) <= radiusBlocks {
				out = append(out, world.ChunkPos{X: cx, Z: cz})
			}
		}
	}
	return out
}

func aabbDistance(px, pz float64, cx, cz int32) float64 {
	minX, maxX := float64(cx)*16, float64(cx)*16+16
	minZ, maxZ := float64(cz)*16, float64(cz)*16+16

	dx := math.Max(math.Max(minX-px, 0), px-maxX)
	dz := math.Max(math.Max(minZ-pz, 0), pz-maxZ)
	return math.Sqrt(dx*dx + dz*dz)
}

// updateChunks is the per-tick chunk-load/unload pass spec.md §4.H
// names: request everything newly in range, send ChunkData as each
// becomes ready, and unload anything that fell out of range. Returns
// whether every chunk in the desired set is currently loaded and sent.
func (s *Server) updateChunks(c *Client, centerX, centerZ float64) bool {
	radius := float64(c.viewDistance) * 16
	desired := chunksInXZDisc(centerX, centerZ, radius)
	desiredSet := make(map[world.ChunkPos]bool, len(desired))

	sort.Slice(desired, func(i, j int) bool {
		di := aabbDistance(centerX, centerZ, desired[i].X, desired[i].Z)
		dj := aabbDistance(centerX, centerZ, desired[j].X, desired[j].Z)
		return di < dj
	})

	allLoaded := true
	for _, pos := range desired {
		desiredSet[pos] = true
		if c.loadedChunks[pos] {
			continue
		}

		chunk, ready := s.chunks.Get(pos)
		if !ready {
			s.chunks.Request(pos, world.PriorityHigh)
			allLoaded = false
			continue
		}

		data, mask := world.SerializeSections(&chunk.Sections, chunk.Biomes)
		pkt := &protocol.ChunkData{
			X: pos.X, Z: pos.Z,
			GroundUpContinuous: true,
			PrimaryBitMask:     int32(mask),
			Data:               data,
			Biomes:             chunk.Biomes[:],
		}
		if err := c.sendPacket(pkt); err != nil {
			return false
		}
		c.loadedChunks[pos] = true
	}

	for pos := range c.loadedChunks {
		if !desiredSet[pos] {
			c.sendPacket(protocol.NewUnloadChunk(pos.X, pos.Z))
			delete(c.loadedChunks, pos)
		}
	}

	return allLoaded
}
