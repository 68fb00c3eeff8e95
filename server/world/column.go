package world

import "github.com/voidreach/voxelcore/server/world/chunk"

// heightSamples is the number of 8×8 heightmap samples along one axis of a
// column (SX/8 == 4); each sample carries both height fields.
const heightSamples = SX / 8

// Column is the vertical stack of sub-chunks sharing an (x,z) chunk
// coordinate. A Column is owned exclusively by the World's chunk map; generation and lighting workers operate on a
// Column (or its sub-chunks) they've been handed for the duration of one
// task unit and never retain a reference past that boundary.
type Column struct {
	Pos  ChunkPos
	subs [SubCount]*chunk.SubChunk

	// surfaceHeight is the topmost non-air y per 8x8 sample, used as ray
	// targets (horizon culling).
	surfaceHeight [heightSamples][heightSamples]int
	// groundedHeight is the tallest column rooted at y=0 with no air gap
	// per 8x8 sample, used as occluders. groundedHeight <= surfaceHeight
	// everywhere.
	groundedHeight [heightSamples][heightSamples]int

	// caveEntrancesGenerated guards the once-per-column cave entrance
	// pass. Kept in memory only: entrances are not re-attempted after a
	// reload because their carved output is already persisted.
	caveEntrancesGenerated bool

	// generated is set once the column's block data is final (installed
	// from a generation worker or loaded from disk).
	generated bool
	// version counts edits to the column's blocks or light. Worker jobs
	// capture it at submit time; replies carrying a stale version are
	// discarded, so a light update invalidates any in-flight mesh.
	version uint64
	// relightQueued dedups the background relight queue.
	relightQueued bool
	// heightmapDirty marks columns whose sampled heightmap needs a rebuild
	// after bulk writes that bypass the per-edit maintenance path.
	heightmapDirty bool
}

// Generated reports whether the column's block data is final.
func (c *Column) Generated() bool { return c.generated }

// Version returns the column's current edit version.
func (c *Column) Version() uint64 { return c.version }

// NewColumn allocates a Column with all-empty sub-chunks.
func NewColumn(pos ChunkPos) *Column {
	c := &Column{Pos: pos}
	for i := range c.subs {
		c.subs[i] = chunk.New()
	}
	return c
}

// SubChunk returns the sub-chunk at vertical index i (0..SubCount), or nil
// if i is out of range.
func (c *Column) SubChunk(i int) *chunk.SubChunk {
	if i < 0 || i >= SubCount {
		return nil
	}
	return c.subs[i]
}

// CaveEntrancesGenerated reports whether the once-per-column cave entrance
// pass has already run.
func (c *Column) CaveEntrancesGenerated() bool { return c.caveEntrancesGenerated }

// MarkCaveEntrancesGenerated flags the cave entrance pass as done.
func (c *Column) MarkCaveEntrancesGenerated() { c.caveEntrancesGenerated = true }

// Block returns the block id at column-local (x, y, z), where x,z in
// [0,SX)/[0,SZ) and y spans the whole column height [0, ColH). Out-of-range
// reads return AIR.
func (c *Column) Block(x, y, z int) chunk.ID {
	sub, ly, ok := c.subAt(y)
	if !ok {
		return chunk.AIR
	}
	return c.subs[sub].Block(x, ly, z)
}

// SetBlock writes id at column-local (x,y,z) via the normal (dirty-marking)
// path. Returns false if out of range or the value is unchanged.
func (c *Column) SetBlock(x, y, z int, id chunk.ID) bool {
	sub, ly, ok := c.subAt(y)
	if !ok {
		return false
	}
	changed := c.subs[sub].SetBlock(x, ly, z, id)
	if changed {
		c.updateHeightmapAfterEdit(x, y, z, id)
	}
	return changed
}

// SetBlockDuringGeneration writes id without dirty/mesh bookkeeping, for use
// by the generation pipeline only.
func (c *Column) SetBlockDuringGeneration(x, y, z int, id chunk.ID) bool {
	sub, ly, ok := c.subAt(y)
	if !ok {
		return false
	}
	return c.subs[sub].SetBlockDuringGeneration(x, ly, z, id)
}

// SkyLight returns the sky-light nibble at column-local (x,y,z), 0 when out
// of range.
func (c *Column) SkyLight(x, y, z int) uint8 {
	sub, ly, ok := c.subAt(y)
	if !ok {
		return 0
	}
	return c.subs[sub].SkyLight(x, ly, z)
}

// BlockLight returns the block-light nibble at column-local (x,y,z), 0 when
// out of range.
func (c *Column) BlockLight(x, y, z int) uint8 {
	sub, ly, ok := c.subAt(y)
	if !ok {
		return 0
	}
	return c.subs[sub].BlockLight(x, ly, z)
}

// SetSkyLight writes the sky-light nibble at column-local (x,y,z).
func (c *Column) SetSkyLight(x, y, z int, v uint8) {
	if sub, ly, ok := c.subAt(y); ok {
		c.subs[sub].SetSkyLight(x, ly, z, v)
	}
}

// SetBlockLight writes the block-light nibble at column-local (x,y,z).
func (c *Column) SetBlockLight(x, y, z int, v uint8) {
	if sub, ly, ok := c.subAt(y); ok {
		c.subs[sub].SetBlockLight(x, ly, z, v)
	}
}

func (c *Column) subAt(y int) (sub, local int, ok bool) {
	if y < 0 || y >= ColH {
		return 0, 0, false
	}
	return y / SubH, y % SubH, true
}

// HighestAt scans the whole column and returns the highest y with a
// non-air block at (x,z), or -1 if the column is entirely air. This is a
// direct scan, independent of the sampled heightmap, used to validate
// heightmap coherence and to seed it.
func (c *Column) HighestAt(x, z int) int {
	for sub := SubCount - 1; sub >= 0; sub-- {
		if c.subs[sub].Empty() {
			continue
		}
		if h := c.subs[sub].HighestAt(x, z); h != -1 {
			return sub*SubH + h
		}
	}
	return -1
}

// HighestGroundedAt scans upward from y=0 and returns the highest y such
// that every cell from 0..y is non-air (no gap beneath it), or -1 if (x,0,z)
// itself is air.
func (c *Column) HighestGroundedAt(x, z int) int {
	highest := -1
	for y := 0; y < ColH; y++ {
		if c.Block(x, y, z) == chunk.AIR {
			break
		}
		highest = y
	}
	return highest
}

// RebuildHeightmap recomputes both sampled height fields by direct scan.
// Called once after generation and after any edit that could change a
// column's top surface. The two fields are always recomputed together;
// collapsing one without the other is a bug.
func (c *Column) RebuildHeightmap() {
	for sx := 0; sx < heightSamples; sx++ {
		for sz := 0; sz < heightSamples; sz++ {
			maxSurface, maxGrounded := -1, -1
			for x := sx * 8; x < sx*8+8; x++ {
				for z := sz * 8; z < sz*8+8; z++ {
					if h := c.HighestAt(x, z); h > maxSurface {
						maxSurface = h
					}
					if g := c.HighestGroundedAt(x, z); g > maxGrounded {
						maxGrounded = g
					}
				}
			}
			c.surfaceHeight[sx][sz] = maxSurface
			c.groundedHeight[sx][sz] = maxGrounded
		}
	}
}

// SurfaceHeight returns the sampled surface height (topmost non-air) for the
// 8x8 cell containing column-local (x, z).
func (c *Column) SurfaceHeight(x, z int) int {
	return c.surfaceHeight[x/8][z/8]
}

// GroundedHeight returns the sampled grounded height (tallest gap-free
// column from y=0) for the 8x8 cell containing column-local (x, z).
func (c *Column) GroundedHeight(x, z int) int {
	return c.groundedHeight[x/8][z/8]
}

// updateHeightmapAfterEdit keeps both height fields coherent after a single
// setBlock. A single-cell edit can only affect the sample containing (x,z),
// so this recomputes just that sample rather than the whole column.
func (c *Column) updateHeightmapAfterEdit(x, y, z int, id chunk.ID) {
	sx, sz := x/8, z/8
	bx, bz := sx*8, sz*8
	maxSurface, maxGrounded := -1, -1
	for ix := bx; ix < bx+8; ix++ {
		for iz := bz; iz < bz+8; iz++ {
			if h := c.HighestAt(ix, iz); h > maxSurface {
				maxSurface = h
			}
			if g := c.HighestGroundedAt(ix, iz); g > maxGrounded {
				maxGrounded = g
			}
		}
	}
	c.surfaceHeight[sx][sz] = maxSurface
	c.groundedHeight[sx][sz] = maxGrounded
}
