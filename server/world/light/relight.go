package light

import (
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
)

// ColumnView is the column-local surface the background relight pass works
// on: x in [0, SX), z in [0, SZ), y spanning the full column height. It is
// satisfied by *world.Column.
type ColumnView interface {
	Block(x, y, z int) block.ID
	SkyLight(x, y, z int) uint8
	BlockLight(x, y, z int) uint8
	SetSkyLight(x, y, z int, v uint8)
	SetBlockLight(x, y, z int, v uint8)
}

// localNode is a column-local BFS entry for the relight scratch pass.
type localNode struct {
	x, y, z int32
	level   uint8
}

// Relighter recomputes a whole column's light from its block data alone,
// independent of whatever the speculative seed pass left behind. It is the
// background correctness task: cave air that inherited 15 from the seed
// pass gets corrected here, because the sky-access rule is applied
// explicitly. Sky=15 only on air cells strictly above the column's highest
// solid block; every other cell starts at 0 and is lit by BFS only.
//
// A Relighter owns large scratch buffers and is therefore reused; it is not
// safe for concurrent use, but each worker goroutine holds its own.
type Relighter struct {
	reg *block.Registry

	sky, blk []uint8
	q        []localNode
}

// NewRelighter returns a Relighter resolving block properties through reg.
func NewRelighter(reg *block.Registry) *Relighter {
	const cells = chunk.SX * chunk.SZ * chunk.ColH
	return &Relighter{
		reg: reg,
		sky: make([]uint8, cells),
		blk: make([]uint8, cells),
	}
}

func localIndex(x, y, z int32) int {
	return int(y)*chunk.SX*chunk.SZ + int(z)*chunk.SX + int(x)
}

// Relight recomputes both channels for cv and writes back only the cells
// that differ, returning the indices of sub-chunks that actually changed;
// the caller re-meshes those and nothing else. Running Relight twice in a
// row therefore returns an empty set the second time.
func (r *Relighter) Relight(cv ColumnView) []int {
	clear(r.sky)
	clear(r.blk)
	r.q = r.q[:0]

	// Sky-access correction + sky seeds.
	for x := int32(0); x < chunk.SX; x++ {
		for z := int32(0); z < chunk.SZ; z++ {
			top := int32(chunk.ColH - 1)
			for y := top; y >= 0; y-- {
				if r.reg.ByID(cv.Block(int(x), int(y), int(z))).IsSolid {
					top = y
					break
				}
				if y == 0 {
					top = -1
				}
			}
			for y := int32(chunk.ColH - 1); y > top; y-- {
				if cv.Block(int(x), int(y), int(z)) == block.AIR {
					r.sky[localIndex(x, y, z)] = MaxLevel
					r.q = append(r.q, localNode{x, y, z, MaxLevel})
				}
			}
		}
	}
	r.flood(cv, r.sky)

	// Block-channel seeds: emitters at their emission level.
	r.q = r.q[:0]
	for y := int32(0); y < chunk.ColH; y++ {
		for z := int32(0); z < chunk.SZ; z++ {
			for x := int32(0); x < chunk.SX; x++ {
				if lvl := r.reg.ByID(cv.Block(int(x), int(y), int(z))).LightLevel; lvl > 0 {
					r.blk[localIndex(x, y, z)] = lvl
					r.q = append(r.q, localNode{x, y, z, lvl})
				}
			}
		}
	}
	r.flood(cv, r.blk)

	return r.applyDiff(cv)
}

// flood runs the column-local BFS over dst from the seeds already in r.q.
func (r *Relighter) flood(cv ColumnView, dst []uint8) {
	head := 0
	for head < len(r.q) {
		n := r.q[head]
		head++
		if n.level <= 1 {
			continue
		}
		for _, d := range localNeighbours {
			nx, ny, nz := n.x+d[0], n.y+d[1], n.z+d[2]
			if nx < 0 || nx >= chunk.SX || nz < 0 || nz >= chunk.SZ || ny < 0 || ny >= chunk.ColH {
				continue
			}
			props := r.reg.ByID(cv.Block(int(nx), int(ny), int(nz)))
			spread := int(n.level) - 1 - int(props.LightBlocking)
			if spread <= 0 {
				continue
			}
			i := localIndex(nx, ny, nz)
			if uint8(spread) <= dst[i] {
				continue
			}
			dst[i] = uint8(spread)
			r.q = append(r.q, localNode{nx, ny, nz, uint8(spread)})
		}
	}
}

var localNeighbours = [6][3]int32{
	{0, 1, 0}, {0, -1, 0}, {0, 0, -1}, {0, 0, 1}, {1, 0, 0}, {-1, 0, 0},
}

// applyDiff writes the recomputed channels back, cell by cell, recording
// which sub-chunks saw at least one change.
func (r *Relighter) applyDiff(cv ColumnView) []int {
	changedSubs := make([]bool, chunk.SubCount)
	for y := 0; y < chunk.ColH; y++ {
		sub := y / chunk.SubH
		for z := 0; z < chunk.SZ; z++ {
			for x := 0; x < chunk.SX; x++ {
				i := localIndex(int32(x), int32(y), int32(z))
				if cv.SkyLight(x, y, z) != r.sky[i] {
					cv.SetSkyLight(x, y, z, r.sky[i])
					changedSubs[sub] = true
				}
				if cv.BlockLight(x, y, z) != r.blk[i] {
					cv.SetBlockLight(x, y, z, r.blk[i])
					changedSubs[sub] = true
				}
			}
		}
	}
	var out []int
	for sub, changed := range changedSubs {
		if changed {
			out = append(out, sub)
		}
	}
	return out
}
