package populate

import (
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/noise"
)

// TallGrass scatters Amount or Amount+1 (jittered) tufts of tall grass on top of
// grass blocks across the column.
type TallGrass struct {
	Amount int
}

func (t TallGrass) Populate(g Grid, reg *block.Registry, r *noise.Random) {
	amount := r.Int31n(2) + int32(t.Amount)
	for i := int32(0); i < amount; i++ {
		x := int(r.Range(0, chunk.SX-1))
		z := int(r.Range(0, chunk.SZ-1))
		if y, ok := highestGrassSurface(g, x, z); ok {
			g.SetBlock(x, y, z, block.TallGrass)
		}
	}
}

func highestGrassSurface(g Grid, x, z int) (int, bool) {
	for y := chunk.ColH - 2; y >= 0; y-- {
		if g.Block(x, y, z) == block.Air && g.Block(x, y-1, z) == block.Grass {
			return y, true
		}
	}
	return 0, false
}
