package world

import (
	"fmt"

	"github.com/voidreach/voxelcore/server/world/chunk"
)

// SX, SZ and SubH are the dimensions of a single sub-chunk. SubCount is the
// number of sub-chunks stacked vertically to form a Column. ColH is the
// total block height of a Column. These re-export chunk's constants so
// callers of package world never need to import chunk just for sizing.
const (
	SX       = chunk.SX
	SZ       = chunk.SZ
	SubH     = chunk.SubH
	SubCount = chunk.SubCount
	ColH     = chunk.ColH
)

// chunkShift is the arithmetic right-shift that converts a world block
// coordinate into a chunk coordinate along X or Z (SX, SZ == 32 == 1<<5).
const chunkShift = 5

// subShift converts a world Y coordinate into a sub-chunk index (SubH == 64
// == 1<<6).
const subShift = 6

// BlockPos is an unbounded world-space block position. All three axes are
// signed 64-bit so the world has no artificial coordinate ceiling.
type BlockPos struct {
	X, Y, Z int64
}

// Add returns p shifted by the given deltas.
func (p BlockPos) Add(dx, dy, dz int64) BlockPos {
	return BlockPos{p.X + dx, p.Y + dy, p.Z + dz}
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// ChunkPos identifies a chunk column by its X/Z address. Chunk coordinates
// are value-equal and therefore usable directly as map keys.
type ChunkPos struct {
	X, Z int64
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("chunk(%d, %d)", p.X, p.Z)
}

// SubChunkPos identifies a single sub-chunk within a column.
type SubChunkPos struct {
	X, Z int64
	Sub  int
}

func (p SubChunkPos) Column() ChunkPos { return ChunkPos{p.X, p.Z} }

// ChunkPosFromBlock converts a world block position into the chunk column
// that contains it. Uses an arithmetic right shift so negative coordinates
// floor correctly (e.g. block x=-1 belongs to chunk x=-1, not chunk x=0).
func ChunkPosFromBlock(p BlockPos) ChunkPos {
	return ChunkPos{p.X >> chunkShift, p.Z >> chunkShift}
}

// SubChunkPosFromBlock converts a world block position into the sub-chunk
// that contains it. Y values outside [0, ColH) resolve to a Sub index
// outside [0, SubCount); callers must range-check when that matters.
func SubChunkPosFromBlock(p BlockPos) SubChunkPos {
	c := ChunkPosFromBlock(p)
	return SubChunkPos{X: c.X, Z: c.Z, Sub: int(p.Y >> subShift)}
}

// LocalBlock converts a world block position into sub-chunk-local
// coordinates in [0, SX), [0, SubH), [0, SZ). Uses positive modulo so
// negative world coordinates map into the correct local cell rather than a
// negative one.
func LocalBlock(p BlockPos) (x, y, z int) {
	x = int(mod(p.X, SX))
	y = int(mod(p.Y, SubH))
	z = int(mod(p.Z, SZ))
	return
}

// mod returns the positive-modulo of a and m (m > 0), unlike Go's native %
// which preserves the sign of a.
func mod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// LocalIndex computes the Y-major flat array index for a local position;
// see chunk.Index.
func LocalIndex(x, y, z int) int { return chunk.Index(x, y, z) }

// InLocalRange reports whether x, y, z are valid sub-chunk-local
// coordinates; see chunk.InRange.
func InLocalRange(x, y, z int) bool { return chunk.InRange(x, y, z) }

// BlockFromChunkLocal reconstructs the world block position of a local cell
// within the given sub-chunk.
func BlockFromChunkLocal(sc SubChunkPos, x, y, z int) BlockPos {
	return BlockPos{
		X: sc.X*SX + int64(x),
		Y: int64(sc.Sub)*SubH + int64(y),
		Z: sc.Z*SZ + int64(z),
	}
}
