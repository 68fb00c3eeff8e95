package populate

import (
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/noise"
)

// Tree populates BaseAmount or BaseAmount+1 (jittered) trees of Type across the column.
// Populators run synchronously against the column being generated, which
// is never shared until generation completes.
type Tree struct {
	BaseAmount int
	Type       TreeType
}

func (t Tree) Populate(g Grid, reg *block.Registry, r *noise.Random) {
	amount := r.Int31n(2) + int32(t.BaseAmount)
	for i := int32(0); i < amount; i++ {
		x := int(r.Range(0, chunk.SX-1))
		z := int(r.Range(0, chunk.SZ-1))
		if y, ok := highestWorkableSoil(g, reg, x, z); ok {
			t.Type.Grow(g, reg, x, y, z, r)
		}
	}
}

// highestWorkableSoil returns the y one above the highest dirt/grass block
// at (x,z), i.e. where a sapling would plant.
func highestWorkableSoil(g Grid, reg *block.Registry, x, z int) (int, bool) {
	for y := chunk.ColH - 2; y >= 0; y-- {
		b := g.Block(x, y, z)
		if b == block.Dirt || b == block.Grass {
			return y + 1, true
		}
		if b != block.Air {
			return 0, false
		}
	}
	return 0, false
}

// TreeType grows a single tree rooted at (x,y,z).
type TreeType interface {
	Grow(g Grid, reg *block.Registry, x, y, z int, r *noise.Random)
}

// overridable lists the block ids a growing tree is allowed to replace.
func overridable(id block.ID) bool {
	return id == block.Air || id == block.OakLeaves || id == block.BirchLeaves || id == block.SpruceLeaves
}

func trunk(g Grid, x, y, z int, wood block.ID, height int) {
	for dy := 0; dy < height; dy++ {
		if overridable(g.Block(x, y+dy, z)) {
			g.SetBlock(x, y+dy, z, wood)
		}
	}
}

// OakTree is a short round-topped tree.
type OakTree struct{}

func (OakTree) Grow(g Grid, reg *block.Registry, x, y, z int, r *noise.Random) {
	if !canGrow(g, x, y, z, 7) {
		return
	}
	height := int(r.Int31n(3)) + 4
	basicTop(g, x, y, z, r, block.OakLeaves, height)
	trunk(g, x, y, z, block.OakLog, height-1)
}

// BirchTree is like OakTree but taller, with a rare "super birch" variant.
type BirchTree struct {
	Super bool
}

func (b BirchTree) Grow(g Grid, reg *block.Registry, x, y, z int, r *noise.Random) {
	if !canGrow(g, x, y, z, 7) {
		return
	}
	height := int(r.Int31n(3)) + 5
	if b.Super {
		height += 5
	}
	basicTop(g, x, y, z, r, block.BirchLeaves, height)
	trunk(g, x, y, z, block.BirchLog, height-1)
}

// SpruceTree is a tall conical tree.
type SpruceTree struct{}

func (SpruceTree) Grow(g Grid, reg *block.Registry, x, y, z int, r *noise.Random) {
	if !canGrow(g, x, y, z, 10) {
		return
	}
	height := int(r.Int31n(4) + 6)
	topSize := height - int(1+r.Int31n(2))
	lr := 2 + int(r.Int31n(2))

	trunk(g, x, y, z, block.SpruceLog, height-int(r.Int31n(3)))

	radius := int(r.Int31n(2))
	minR, maxR := 0, 1
	for dy := 0; dy <= topSize; dy++ {
		yy := y + height - dy
		for xx := x - radius; xx <= x+radius; xx++ {
			xOff := abs(xx - x)
			for zz := z - radius; zz <= z+radius; zz++ {
				zOff := abs(zz - z)
				if xOff == radius && zOff == radius && radius > 0 {
					continue
				}
				if inBounds(xx, yy, zz) && g.Block(xx, yy, zz) == block.Air {
					g.SetBlock(xx, yy, zz, block.SpruceLeaves)
				}
			}
		}
		if radius >= maxR {
			radius = minR
			minR = 1
			if maxR++; maxR > lr {
				maxR = lr
			}
		} else {
			radius++
		}
	}
}

func basicTop(g Grid, x, y, z int, r *noise.Random, leaves block.ID, height int) {
	for yy := y - 3 + height; yy <= y+height; yy++ {
		yOff := yy - (y + height)
		mid := 1 - yOff/2
		for xx := x - mid; xx <= x+mid; xx++ {
			xOff := abs(xx - x)
			for zz := z - mid; zz <= z+mid; zz++ {
				zOff := abs(zz - z)
				if xOff == mid && zOff == mid && (yOff == 0 || r.Int31n(2) == 0) {
					continue
				}
				if inBounds(xx, yy, zz) && g.Block(xx, yy, zz) == block.Air {
					g.SetBlock(xx, yy, zz, leaves)
				}
			}
		}
	}
}

func canGrow(g Grid, x, y, z, height int) bool {
	radius := 0
	for yy := 0; yy < height+3; yy++ {
		if yy == 1 || yy == height {
			radius++
		}
		for xx := -radius; xx <= radius; xx++ {
			for zz := -radius; zz <= radius; zz++ {
				px, py, pz := x+xx, y+yy, z+zz
				if !inBounds(px, py, pz) || !overridable(g.Block(px, py, pz)) {
					return false
				}
			}
		}
	}
	return true
}

func inBounds(x, y, z int) bool {
	return x >= 0 && x < chunk.SX && z >= 0 && z < chunk.SZ && y >= 0 && y < chunk.ColH
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
