package generator

import (
	"testing"

	"github.com/voidreach/voxelcore/server/world"
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/generator/biome"
)

func newTestPipeline(seed int64) *Pipeline {
	reg := block.DefaultCatalog(nil)
	return NewPipeline(Config{Seed: seed, SeaLevel: 62}, reg, nil)
}

func TestGenerateColumnDeterministicInSeed(t *testing.T) {
	p1 := newTestPipeline(1)
	p2 := newTestPipeline(1)

	c1 := world.NewColumn(world.ChunkPos{X: 0, Z: 0})
	c2 := world.NewColumn(world.ChunkPos{X: 0, Z: 0})
	p1.GenerateColumn(world.ChunkPos{X: 0, Z: 0}, c1)
	p2.GenerateColumn(world.ChunkPos{X: 0, Z: 0}, c2)

	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			for y := 0; y < world.ColH; y++ {
				if c1.Block(x, y, z) != c2.Block(x, y, z) {
					t.Fatalf("same seed produced different block at (%d,%d,%d): %d vs %d",
						x, y, z, c1.Block(x, y, z), c2.Block(x, y, z))
				}
			}
		}
	}
}

func TestGenerateColumnDiffersAcrossSeeds(t *testing.T) {
	p1 := newTestPipeline(1)
	p2 := newTestPipeline(2)

	c1 := world.NewColumn(world.ChunkPos{X: 3, Z: -2})
	c2 := world.NewColumn(world.ChunkPos{X: 3, Z: -2})
	p1.GenerateColumn(world.ChunkPos{X: 3, Z: -2}, c1)
	p2.GenerateColumn(world.ChunkPos{X: 3, Z: -2}, c2)

	differs := false
	for x := 0; x < world.SX && !differs; x++ {
		for z := 0; z < world.SZ && !differs; z++ {
			if c1.HighestAt(x, z) != c2.HighestAt(x, z) {
				differs = true
			}
		}
	}
	if !differs {
		t.Fatal("expected different seeds to produce different terrain somewhere in the column")
	}
}

func TestGeneratedColumnHasBedrockFloor(t *testing.T) {
	p := newTestPipeline(42)
	c := world.NewColumn(world.ChunkPos{X: 0, Z: 0})
	p.GenerateColumn(world.ChunkPos{X: 0, Z: 0}, c)

	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			if c.Block(x, 0, z) != block.Bedrock {
				t.Fatalf("expected bedrock floor at (%d,0,%d)", x, z)
			}
		}
	}
}

// TestBelowSeaLevelAirBecomesWater exercises fillColumn in isolation, before
// the cave pass runs: once caves carve the column, air pockets below sea
// level are expected (that's what a cave is), so this invariant only holds
// for the terrain-fill + water-fill steps, not the post-cave column.
func TestBelowSeaLevelAirBecomesWater(t *testing.T) {
	p := newTestPipeline(7)
	c := world.NewColumn(world.ChunkPos{X: 0, Z: 0})
	plains := biome.Plains{}

	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			p.fillColumn(c, x, z, plains, 60, 70, 0, 0)
		}
	}

	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			for y := 1; y <= p.seaLevel; y++ {
				if c.Block(x, y, z) == block.Air {
					t.Fatalf("found AIR below sea level at (%d,%d,%d), want water or solid", x, y, z)
				}
			}
		}
	}
}

func TestHeightmapCoherentAfterGeneration(t *testing.T) {
	p := newTestPipeline(5)
	c := world.NewColumn(world.ChunkPos{X: 1, Z: 1})
	p.GenerateColumn(world.ChunkPos{X: 1, Z: 1}, c)

	for x := 0; x < world.SX; x += 8 {
		for z := 0; z < world.SZ; z += 8 {
			if c.GroundedHeight(x, z) > c.SurfaceHeight(x, z) {
				t.Fatalf("groundedHeight > surfaceHeight at (%d,%d): %d > %d",
					x, z, c.GroundedHeight(x, z), c.SurfaceHeight(x, z))
			}
		}
	}
}

func TestSkylightFullAboveSurface(t *testing.T) {
	p := newTestPipeline(11)
	c := world.NewColumn(world.ChunkPos{X: 0, Z: 0})
	p.GenerateColumn(world.ChunkPos{X: 0, Z: 0}, c)

	x, z := 4, 4
	h := c.HighestAt(x, z)
	if h+1 >= world.ColH {
		t.Skip("surface too close to world ceiling for this check")
	}
	sub, ly, _ := subLocal(h + 1)
	sc := c.SubChunk(sub)
	if sc.SkyLight(x, ly, z) != 15 {
		t.Fatalf("expected sky=15 immediately above surface, got %d", sc.SkyLight(x, ly, z))
	}
}
