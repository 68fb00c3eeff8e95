package light

import "github.com/voidreach/voxelcore/server/world/chunk"

// FloodColumn runs the horizontal flood-fill step of the seed-pass contract
//: after the generator has written the direct-sky column
// seeds, every lit cell inside the column is enqueued and allowed to spread.
// Cells outside the column's XZ footprint are reached only if their chunk is
// resident, which doubles as a first stitch into already-loaded neighbours.
func (e *Engine) FloodColumn(v View, originX, originZ int64) {
	var blockSeeds []node
	e.q.Reset()
	for x := int64(0); x < chunk.SX; x++ {
		for z := int64(0); z < chunk.SZ; z++ {
			wx, wz := originX+x, originZ+z
			for y := int64(0); y < chunk.ColH; y++ {
				if l := v.Light(Sky, wx, y, wz); l > 1 {
					e.q.Push(node{wx, y, wz, l})
				}
				if l := v.Light(Block, wx, y, wz); l > 1 {
					blockSeeds = append(blockSeeds, node{wx, y, wz, l})
				}
			}
		}
	}
	e.run(v, Sky)
	e.propagate(v, Block, blockSeeds)
}

// PropagateFromBoundary stitches a column's light into its horizontal
// neighbours. The column's four
// outer vertical layers are treated as sources: every boundary cell with a
// level bright enough to spread is enqueued, and the regular BFS carries it
// across the seam, reduced by 1 plus the receiving block's blocking.
// Stitching is idempotent; re-running it against an already-consistent
// neighbourhood changes nothing, so racing edits on two neighbours
// converge.
func (e *Engine) PropagateFromBoundary(v View, originX, originZ int64) {
	for _, ch := range [2]Channel{Sky, Block} {
		e.q.Reset()
		for y := int64(0); y < chunk.ColH; y++ {
			for x := int64(0); x < chunk.SX; x++ {
				e.pushBoundary(v, ch, originX+x, y, originZ)
				e.pushBoundary(v, ch, originX+x, y, originZ+chunk.SZ-1)
			}
			for z := int64(1); z < chunk.SZ-1; z++ {
				e.pushBoundary(v, ch, originX, y, originZ+z)
				e.pushBoundary(v, ch, originX+chunk.SX-1, y, originZ+z)
			}
		}
		e.run(v, ch)
	}
}

func (e *Engine) pushBoundary(v View, ch Channel, x, y, z int64) {
	if l := v.Light(ch, x, y, z); l > 1 {
		e.q.Push(node{x, y, z, l})
	}
}
