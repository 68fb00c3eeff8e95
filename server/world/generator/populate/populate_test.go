package populate

import (
	"testing"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/noise"
)

// fakeGrid is a flat column-local block store implementing Grid, used to
// exercise populators without a real *world.Column.
type fakeGrid struct {
	cells map[[3]int]block.ID
}

func newFakeGrid() *fakeGrid { return &fakeGrid{cells: make(map[[3]int]block.ID)} }

func (g *fakeGrid) Block(x, y, z int) block.ID {
	if !inBounds(x, y, z) {
		return block.Air
	}
	return g.cells[[3]int{x, y, z}]
}

func (g *fakeGrid) SetBlock(x, y, z int, id block.ID) bool {
	if !inBounds(x, y, z) {
		return false
	}
	key := [3]int{x, y, z}
	if g.cells[key] == id {
		return false
	}
	g.cells[key] = id
	return true
}

func flatGroundGrid(groundY int) *fakeGrid {
	g := newFakeGrid()
	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			for y := 0; y <= groundY; y++ {
				g.SetBlock(x, y, z, block.Stone)
			}
			g.SetBlock(x, groundY, z, block.Grass)
		}
	}
	return g
}

func TestOakTreeGrowsTrunkAboveSoil(t *testing.T) {
	g := flatGroundGrid(10)
	r := noise.NewRandom(1)
	tree := Tree{BaseAmount: 20, Type: OakTree{}}
	tree.Populate(g, nil, r)

	found := false
	for k, id := range g.cells {
		if id == block.OakLog && k[1] > 10 {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected at least one oak log placed above ground")
	}
}

func TestCanGrowRejectsObstructedSite(t *testing.T) {
	g := flatGroundGrid(10)
	g.SetBlock(5, 13, 5, block.Stone)
	if canGrow(g, 5, 11, 5, 7) {
		t.Fatal("expected canGrow to reject a site with an obstruction in its crown")
	}
}

func TestTallGrassOnlyPlacedOnGrass(t *testing.T) {
	g := flatGroundGrid(10)
	r := noise.NewRandom(42)
	tg := TallGrass{Amount: 50}
	tg.Populate(g, nil, r)

	for k, id := range g.cells {
		if id == block.TallGrass {
			below := g.Block(k[0], k[1]-1, k[2])
			if below != block.Grass {
				t.Fatalf("tall grass at %v placed above %v, want grass", k, below)
			}
		}
	}
}

func TestOrePlacementDeterministicInSeed(t *testing.T) {
	ore := Ore{Types: []OreType{
		{Material: block.CoalOre, Replaces: block.Stone, ClusterCount: 8, ClusterSize: 16, MinHeight: 5, MaxHeight: 60},
	}}

	run := func(seed int64) map[[3]int]block.ID {
		g := flatGroundGrid(80)
		ore.Populate(g, nil, noise.NewRandom(seed))
		out := make(map[[3]int]block.ID)
		for k, id := range g.cells {
			if id == block.CoalOre {
				out[k] = id
			}
		}
		return out
	}

	a, b := run(99), run(99)
	if len(a) != len(b) {
		t.Fatalf("same seed produced different ore counts: %d vs %d", len(a), len(b))
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			t.Fatalf("same seed produced different ore layout at %v", k)
		}
	}
}

func TestOreOnlyReplacesConfiguredBlock(t *testing.T) {
	ore := Ore{Types: []OreType{
		{Material: block.IronOre, Replaces: block.Stone, ClusterCount: 6, ClusterSize: 12, MinHeight: 2, MaxHeight: 70},
	}}
	g := flatGroundGrid(80)
	// Pollute the column with a non-stone block that should never turn to ore.
	g.SetBlock(16, 40, 16, block.Dirt)
	ore.Populate(g, nil, noise.NewRandom(7))

	if g.Block(16, 40, 16) == block.IronOre {
		t.Fatal("ore populator replaced a non-stone block")
	}
}
