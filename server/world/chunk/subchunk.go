// Package chunk implements the dense per-sub-chunk block and light
// storage: a fixed 32×32×64 voxel volume stored as flat arrays, with a
// small state machine tracking where the sub-chunk sits in the
// generation → lighting → meshing pipeline.
package chunk

// Dimensions of a single sub-chunk and the column stack above it.
const (
	SX       = 32
	SZ       = 32
	SubH     = 64
	SubCount = 16
	ColH     = SubH * SubCount

	cellCount = SX * SZ * SubH
)

// ID is a block id, mirroring block.ID without importing the block package
// (which would create an import cycle: block has no reason to know about
// chunk, but keeping chunk free of a block dependency keeps the storage
// layer reusable independent of any particular catalog).
type ID = uint16

// AIR is the reserved empty-space id.
const AIR ID = 0

// State is where a SubChunk currently sits in the pipeline.
type State uint8

const (
	StateEmpty State = iota
	StateGenerating
	StateGenerated
	StateMeshing
	StateReady
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateGenerating:
		return "generating"
	case StateGenerated:
		return "generated"
	case StateMeshing:
		return "meshing"
	case StateReady:
		return "ready"
	case StateDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Index computes the Y-major flat array index for a local position,
// idx = y*SX*SZ + z*SX + x. The Y-major layout keeps a horizontal slice at a
// fixed y contiguous, which benefits the column scans used by the skylight
// seed pass and heightmap maintenance.
func Index(x, y, z int) int {
	return y*SX*SZ + z*SX + x
}

// InRange reports whether x, y, z are valid sub-chunk-local coordinates.
func InRange(x, y, z int) bool {
	return x >= 0 && x < SX && y >= 0 && y < SubH && z >= 0 && z < SZ
}

// SubChunk is the 32×32×64 unit of generation, lighting, meshing and
// scheduling. A SubChunk is owned exclusively by its Column; it is never
// shared directly with worker goroutines (those receive copies, or the
// block/light arrays moved out and back).
type SubChunk struct {
	blocks [cellCount]ID
	// light packs two nibbles per cell: high = sky [0,15], low = block [0,15].
	light [cellCount]uint8

	state State
	dirty bool

	// fullyOpaque is computed once at generation time and
	// lets the mesher skip sub-chunks that can have no exposed face without
	// rescanning all 65536 cells every frame.
	fullyOpaque bool

	// blockCount is the number of non-air cells, maintained incrementally
	// by SetBlock/Fill/FillLayer so emptiness checks are O(1).
	blockCount int
}

// New returns an empty (all-air) SubChunk in StateEmpty.
func New() *SubChunk {
	return &SubChunk{}
}

// State returns the sub-chunk's current pipeline state.
func (s *SubChunk) State() State { return s.state }

// SetState transitions the sub-chunk to the given state. Transitioning to
// anything other than StateReady clears the Ready invariant implicitly;
// transitioning to StateDirty is how an edit invalidates meshing/lighting
// (a sub-chunk is never both Ready and Dirty).
func (s *SubChunk) SetState(st State) { s.state = st }

// Dirty reports whether the sub-chunk has pending mesh work.
func (s *SubChunk) Dirty() bool { return s.dirty }

// MarkDirty flags the sub-chunk for remeshing and drops it out of
// StateReady.
func (s *SubChunk) MarkDirty() {
	s.dirty = true
	if s.state == StateReady {
		s.state = StateDirty
	}
}

// ClearDirty marks the sub-chunk's pending mesh work as done.
func (s *SubChunk) ClearDirty() { s.dirty = false }

// FullyOpaque reports the cached fully-opaque flag.
func (s *SubChunk) FullyOpaque() bool { return s.fullyOpaque }

// RecomputeFullyOpaque rescans all 65536 cells and updates the cached flag.
// Called once at generation time; never on the meshing hot path.
func (s *SubChunk) RecomputeFullyOpaque(opaque func(ID) bool) {
	for _, id := range s.blocks {
		if !opaque(id) {
			s.fullyOpaque = false
			return
		}
	}
	s.fullyOpaque = true
}

// Empty reports whether every cell in the sub-chunk is air.
func (s *SubChunk) Empty() bool { return s.blockCount == 0 }

// Block returns the block id at local (x,y,z), or AIR if out of range.
func (s *SubChunk) Block(x, y, z int) ID {
	if !InRange(x, y, z) {
		return AIR
	}
	return s.blocks[Index(x, y, z)]
}

// SetBlock writes id at local (x,y,z). It returns false (and does nothing)
// when the position is out of range or the value is unchanged; otherwise it
// writes the id, updates the block count, and marks the sub-chunk dirty.
func (s *SubChunk) SetBlock(x, y, z int, id ID) bool {
	if !InRange(x, y, z) {
		return false
	}
	i := Index(x, y, z)
	old := s.blocks[i]
	if old == id {
		return false
	}
	if old == AIR && id != AIR {
		s.blockCount++
	} else if old != AIR && id == AIR {
		s.blockCount--
	}
	s.blocks[i] = id
	s.MarkDirty()
	return true
}

// setBlockRaw writes id without affecting dirty/state bookkeeping. Used by
// the generation pipeline, which manages its own state transitions and
// would otherwise re-mark a sub-chunk dirty 65536 times during terrain fill.
func (s *SubChunk) setBlockRaw(x, y, z int, id ID) {
	i := Index(x, y, z)
	old := s.blocks[i]
	if old == AIR && id != AIR {
		s.blockCount++
	} else if old != AIR && id == AIR {
		s.blockCount--
	}
	s.blocks[i] = id
}

// SetBlockDuringGeneration is the bulk-write counterpart to SetBlock used by
// the generation pipeline: it skips the dirty/mesh bookkeeping because a
// sub-chunk under generation has no mesh yet to invalidate.
func (s *SubChunk) SetBlockDuringGeneration(x, y, z int, id ID) bool {
	if !InRange(x, y, z) {
		return false
	}
	s.setBlockRaw(x, y, z, id)
	return true
}

// Fill sets every cell in the sub-chunk to id.
func (s *SubChunk) Fill(id ID) {
	for i := range s.blocks {
		s.blocks[i] = id
	}
	if id == AIR {
		s.blockCount = 0
	} else {
		s.blockCount = cellCount
	}
	s.MarkDirty()
}

// FillLayer sets every cell at the given local y to id.
func (s *SubChunk) FillLayer(y int, id ID) {
	if y < 0 || y >= SubH {
		return
	}
	for z := 0; z < SZ; z++ {
		for x := 0; x < SX; x++ {
			s.SetBlockDuringGeneration(x, y, z, id)
		}
	}
	s.MarkDirty()
}

// SkyLight returns the sky-light nibble (high nibble) at local (x,y,z).
func (s *SubChunk) SkyLight(x, y, z int) uint8 {
	if !InRange(x, y, z) {
		return 0
	}
	return s.light[Index(x, y, z)] >> 4
}

// BlockLight returns the block-light nibble (low nibble) at local (x,y,z).
func (s *SubChunk) BlockLight(x, y, z int) uint8 {
	if !InRange(x, y, z) {
		return 0
	}
	return s.light[Index(x, y, z)] & 0x0F
}

// SetSkyLight writes the sky-light nibble at local (x,y,z), clamped to
// [0,15]. Returns false if out of range.
func (s *SubChunk) SetSkyLight(x, y, z int, level uint8) bool {
	if !InRange(x, y, z) {
		return false
	}
	level = clampNibble(level)
	i := Index(x, y, z)
	s.light[i] = (s.light[i] & 0x0F) | (level << 4)
	return true
}

// SetBlockLight writes the block-light nibble at local (x,y,z), clamped to
// [0,15]. Returns false if out of range.
func (s *SubChunk) SetBlockLight(x, y, z int, level uint8) bool {
	if !InRange(x, y, z) {
		return false
	}
	level = clampNibble(level)
	i := Index(x, y, z)
	s.light[i] = (s.light[i] & 0xF0) | level
	return true
}

func clampNibble(v uint8) uint8 {
	if v > 15 {
		return 15
	}
	return v
}

// HighestAt returns the highest local y with a non-air block at (x,z), or -1
// if the column (within this sub-chunk) is entirely air.
func (s *SubChunk) HighestAt(x, z int) int {
	for y := SubH - 1; y >= 0; y-- {
		if s.Block(x, y, z) != AIR {
			return y
		}
	}
	return -1
}

// Blocks exposes the raw block array for bulk operations (save/load,
// meshing, worker transfer). Callers must not retain the returned slice
// across a mutation of s.
func (s *SubChunk) Blocks() []ID { return s.blocks[:] }

// Light exposes the raw packed light array for bulk operations.
func (s *SubChunk) Light() []uint8 { return s.light[:] }

// LoadBlocks overwrites the block array wholesale (used by persistence load
// and worker result application) and recomputes the block count.
func (s *SubChunk) LoadBlocks(data []ID) {
	n := copy(s.blocks[:], data)
	count := 0
	for _, id := range s.blocks[:n] {
		if id != AIR {
			count++
		}
	}
	s.blockCount = count
	s.MarkDirty()
}

// LoadLight overwrites the packed light array wholesale.
func (s *SubChunk) LoadLight(data []uint8) {
	copy(s.light[:], data)
}
