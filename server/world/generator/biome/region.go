package biome

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/voidreach/voxelcore/server/world/chunk"
)

// RegionSize is the region grid spacing in chunks: every 16×16-chunk cell
// resolves to a single biome before jitter.
const RegionSize = 16

// Selector resolves the biome for any block column deterministically from
// (x, z, seed) alone. The sampled coordinate is perturbed by a small hashed
// offset before region lookup so biome borders don't fall on grid-aligned
// lines; the region itself hashes through xxhash.
type Selector struct {
	biomes []Biome
	seed   int64
}

// NewSelector builds a Selector over catalog, keyed by seed.
func NewSelector(catalog []Biome, seed int64) *Selector {
	return &Selector{biomes: catalog, seed: seed}
}

// regionHash mixes (regionX, regionZ, seed) into a single deterministic
// value, used to pick a catalog index.
func regionHash(regionX, regionZ, seed int64) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(regionX))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(regionZ))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(seed))
	return xxhash.Sum64(buf[:])
}

// biomeForRegion returns the catalog entry a whole region hashes to.
func (s *Selector) biomeForRegion(regionX, regionZ int64) Biome {
	h := regionHash(regionX, regionZ, s.seed)
	return s.biomes[h%uint64(len(s.biomes))]
}

// Pick resolves the biome at absolute block column (blockX, blockZ),
// perturbing the sampled coordinate by a small hashed ±1 jitter first so
// biome borders don't fall on a visible 16-chunk grid line.
func (s *Selector) Pick(blockX, blockZ int64) Biome {
	jx, jz := columnJitter(blockX, blockZ, s.seed)
	rx := floorDiv(blockX+jx, RegionSize*chunk.SX)
	rz := floorDiv(blockZ+jz, RegionSize*chunk.SX)
	return s.biomeForRegion(rx, rz)
}

// columnJitter is a cheap multiply-xor hash of (x, z, seed) producing two
// independent values in {-1, 0, 1}.
func columnJitter(x, z, seed int64) (int64, int64) {
	h := x*2345803 ^ z*9236449 ^ seed
	h *= h + 223
	jx := (h >> 20) & 3
	jz := (h >> 22) & 3
	if jx == 3 {
		jx = 1
	}
	if jz == 3 {
		jz = 1
	}
	return jx - 1, jz - 1
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
