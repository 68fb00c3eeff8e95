package light

import (
	"testing"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
)

// boxVolume is a bounded in-memory View: blocks and light stored in maps,
// writes outside the bounds rejected like an unloaded chunk would be.
type boxVolume struct {
	minX, minY, minZ int64
	maxX, maxY, maxZ int64
	blocks           map[[3]int64]block.ID
	sky, blk         map[[3]int64]uint8
}

func newBoxVolume(min, max int64) *boxVolume {
	return &boxVolume{
		minX: min, minY: min, minZ: min,
		maxX: max, maxY: max, maxZ: max,
		blocks: make(map[[3]int64]block.ID),
		sky:    make(map[[3]int64]uint8),
		blk:    make(map[[3]int64]uint8),
	}
}

func (v *boxVolume) in(x, y, z int64) bool {
	return x >= v.minX && x <= v.maxX && y >= v.minY && y <= v.maxY && z >= v.minZ && z <= v.maxZ
}

func (v *boxVolume) Block(x, y, z int64) block.ID { return v.blocks[[3]int64{x, y, z}] }

func (v *boxVolume) Light(ch Channel, x, y, z int64) uint8 {
	if ch == Sky {
		return v.sky[[3]int64{x, y, z}]
	}
	return v.blk[[3]int64{x, y, z}]
}

func (v *boxVolume) SetLight(ch Channel, x, y, z int64, val uint8) bool {
	if !v.in(x, y, z) {
		return false
	}
	if ch == Sky {
		v.sky[[3]int64{x, y, z}] = val
	} else {
		v.blk[[3]int64{x, y, z}] = val
	}
	return true
}

func taxicab(x, y, z, ox, oy, oz int64) int64 {
	d := func(a, b int64) int64 {
		if a > b {
			return a - b
		}
		return b - a
	}
	return d(x, ox) + d(y, oy) + d(z, oz)
}

// TestTorchPropagation: a torch (lightLevel 14) in otherwise-open air
// lights every cell at taxicab distance d to max(0, 14-d).
func TestTorchPropagation(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	e := NewEngine(reg, nil)
	v := newBoxVolume(-20, 60)

	const ox, oy, oz = 10, 30, 10
	v.blocks[[3]int64{ox, oy, oz}] = block.Torch
	e.OnBlockChanged(v, ox, oy, oz, block.Air, block.Torch, false)

	for x := int64(0); x <= 20; x++ {
		for y := int64(20); y <= 40; y++ {
			for z := int64(0); z <= 20; z++ {
				d := taxicab(x, y, z, ox, oy, oz)
				want := int64(0)
				if d <= 14 {
					want = 14 - d
				}
				if got := v.Light(Block, x, y, z); int64(got) != want {
					t.Fatalf("blocklight at (%d,%d,%d) d=%d: got %d, want %d", x, y, z, d, got, want)
				}
			}
		}
	}
}

// TestTorchRemoval is scenario 4: mining the torch leaves zero blocklight
// everywhere after the clear-and-recalculate pass.
func TestTorchRemoval(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	e := NewEngine(reg, nil)
	v := newBoxVolume(-20, 60)

	const ox, oy, oz = 10, 30, 10
	v.blocks[[3]int64{ox, oy, oz}] = block.Torch
	e.OnBlockChanged(v, ox, oy, oz, block.Air, block.Torch, false)

	delete(v.blocks, [3]int64{ox, oy, oz})
	e.OnBlockChanged(v, ox, oy, oz, block.Torch, block.Air, false)

	for pos, l := range v.blk {
		if l != 0 {
			t.Fatalf("blocklight at %v still %d after torch removed", pos, l)
		}
	}
}

// TestRemoveKeepsOtherSource verifies the darkening BFS re-seeds from
// surviving sources: with two torches, removing one leaves exactly the
// other's light field.
func TestRemoveKeepsOtherSource(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	e := NewEngine(reg, nil)
	v := newBoxVolume(-20, 60)

	a := [3]int64{5, 30, 10}
	b := [3]int64{15, 30, 10}
	v.blocks[a] = block.Torch
	e.OnBlockChanged(v, a[0], a[1], a[2], block.Air, block.Torch, false)
	v.blocks[b] = block.Torch
	e.OnBlockChanged(v, b[0], b[1], b[2], block.Air, block.Torch, false)

	delete(v.blocks, a)
	e.OnBlockChanged(v, a[0], a[1], a[2], block.Torch, block.Air, false)

	for x := int64(5); x <= 25; x++ {
		d := taxicab(x, 30, 10, b[0], b[1], b[2])
		want := int64(0)
		if d <= 14 {
			want = 14 - d
		}
		if got := v.Light(Block, x, 30, 10); int64(got) != want {
			t.Fatalf("after removing first torch, light at x=%d: got %d, want %d", x, got, want)
		}
	}
}

// TestPlacingOpaqueClearsSkyColumn: covering an open column kills the
// direct-sky 15s underneath.
func TestPlacingOpaqueClearsSkyColumn(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	e := NewEngine(reg, nil)
	v := newBoxVolume(0, 40)

	// Open sky throughout a thin vertical shaft walled in by stone, so no
	// horizontal refill reaches it.
	for y := int64(0); y <= 40; y++ {
		for x := int64(9); x <= 11; x++ {
			for z := int64(9); z <= 11; z++ {
				if x == 10 && z == 10 {
					v.SetLight(Sky, x, y, z, 15)
					continue
				}
				v.blocks[[3]int64{x, y, z}] = block.Stone
			}
		}
	}

	v.blocks[[3]int64{10, 35, 10}] = block.Stone
	e.OnBlockChanged(v, 10, 35, 10, block.Air, block.Stone, true)

	for y := int64(0); y < 35; y++ {
		if got := v.Light(Sky, 10, y, 10); got != 0 {
			t.Fatalf("sky light below new roof at y=%d: got %d, want 0", y, got)
		}
	}
	if got := v.Light(Sky, 10, 36, 10); got != 15 {
		t.Fatalf("sky light above new roof: got %d, want 15", got)
	}
}

// columnFixture is an in-memory ColumnView for relight tests.
type columnFixture struct {
	blocks []block.ID
	sky    []uint8
	blk    []uint8
}

func newColumnFixture() *columnFixture {
	n := chunk.SX * chunk.SZ * chunk.ColH
	return &columnFixture{
		blocks: make([]block.ID, n),
		sky:    make([]uint8, n),
		blk:    make([]uint8, n),
	}
}

func (c *columnFixture) idx(x, y, z int) int { return y*chunk.SX*chunk.SZ + z*chunk.SX + x }

func (c *columnFixture) Block(x, y, z int) block.ID         { return c.blocks[c.idx(x, y, z)] }
func (c *columnFixture) SkyLight(x, y, z int) uint8         { return c.sky[c.idx(x, y, z)] }
func (c *columnFixture) BlockLight(x, y, z int) uint8       { return c.blk[c.idx(x, y, z)] }
func (c *columnFixture) SetSkyLight(x, y, z int, v uint8)   { c.sky[c.idx(x, y, z)] = v }
func (c *columnFixture) SetBlockLight(x, y, z int, v uint8) { c.blk[c.idx(x, y, z)] = v }

// TestRelightSkyAccessCorrection is the heart of the background pass: a
// buried air pocket that speculatively inherited sky=15 is corrected to 0,
// while true open-sky cells keep 15.
func TestRelightSkyAccessCorrection(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	rl := NewRelighter(reg)
	c := newColumnFixture()

	// Solid stone slab from y=10..20 across the whole column, with a
	// sealed air pocket at y=15, (8..10, 8..10).
	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			for y := 10; y <= 20; y++ {
				c.blocks[c.idx(x, y, z)] = block.Stone
			}
		}
	}
	for x := 8; x <= 10; x++ {
		for z := 8; z <= 10; z++ {
			c.blocks[c.idx(x, 15, z)] = block.Air
			// The speculative seed pass wrongly gave the pocket full sky.
			c.sky[c.idx(x, 15, z)] = 15
		}
	}

	changed := rl.Relight(c)
	if len(changed) == 0 {
		t.Fatal("expected the correction pass to change at least one sub-chunk")
	}

	for x := 8; x <= 10; x++ {
		for z := 8; z <= 10; z++ {
			if got := c.SkyLight(x, 15, z); got != 0 {
				t.Fatalf("buried pocket at (%d,15,%d) kept sky=%d, want 0", x, z, got)
			}
		}
	}
	if got := c.SkyLight(5, 30, 5); got != 15 {
		t.Fatalf("open-sky cell above slab: got %d, want 15", got)
	}
	if got := c.SkyLight(5, 5, 5); got != 0 {
		t.Fatalf("air below the opaque slab: got %d, want 0", got)
	}
}

// TestRelightIdempotent: running the pass twice on an already-consistent
// column changes nothing the second time.
func TestRelightIdempotent(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	rl := NewRelighter(reg)
	c := newColumnFixture()

	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			for y := 0; y < 40; y++ {
				c.blocks[c.idx(x, y, z)] = block.Stone
			}
		}
	}
	// A torch in a carved niche.
	c.blocks[c.idx(16, 20, 16)] = block.Air
	c.blocks[c.idx(16, 21, 16)] = block.Torch

	rl.Relight(c)
	if changed := rl.Relight(c); len(changed) != 0 {
		t.Fatalf("second relight changed sub-chunks %v, want none", changed)
	}
}

// TestRelightTunnelDark is scenario 2 reduced to the column-local pass: an
// enclosed horizontal tunnel deep in stone receives no sky light.
func TestRelightTunnelDark(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	rl := NewRelighter(reg)
	c := newColumnFixture()

	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			for y := 0; y < 40; y++ {
				c.blocks[c.idx(x, y, z)] = block.Stone
			}
		}
	}
	for x := 0; x < chunk.SX; x++ {
		c.blocks[c.idx(x, 20, 15)] = block.Air
	}

	rl.Relight(c)
	for x := 0; x < chunk.SX; x++ {
		if got := c.SkyLight(x, 20, 15); got != 0 {
			t.Fatalf("tunnel cell x=%d has sky=%d, want 0 (column-local pass)", x, got)
		}
	}
}

// TestNeighbourLightLaw: on a lit column, every non-emitter air cell below
// full sky light is no brighter than its brightest neighbour minus one.
func TestNeighbourLightLaw(t *testing.T) {
	reg := block.DefaultCatalog(nil)
	rl := NewRelighter(reg)
	c := newColumnFixture()

	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			for y := 0; y < 30; y++ {
				c.blocks[c.idx(x, y, z)] = block.Stone
			}
		}
	}
	// An L-shaped cave reachable from the surface.
	for y := 25; y < 35; y++ {
		c.blocks[c.idx(10, y, 10)] = block.Air
	}
	for x := 10; x < 20; x++ {
		c.blocks[c.idx(x, 25, 10)] = block.Air
	}
	rl.Relight(c)

	dirs := [6][3]int{{0, 1, 0}, {0, -1, 0}, {0, 0, -1}, {0, 0, 1}, {1, 0, 0}, {-1, 0, 0}}
	for x := 1; x < chunk.SX-1; x++ {
		for z := 1; z < chunk.SZ-1; z++ {
			for y := 1; y < chunk.ColH-1; y++ {
				if c.Block(x, y, z) != block.Air {
					continue
				}
				l := int(c.SkyLight(x, y, z))
				if l == 0 || l == 15 {
					continue // 0 needs no support; 15 is a direct-sky source.
				}
				best := 0
				for _, d := range dirs {
					if n := int(c.SkyLight(x+d[0], y+d[1], z+d[2])); n > best {
						best = n
					}
				}
				if l > best-1 {
					t.Fatalf("cell (%d,%d,%d) sky=%d exceeds max(neighbours)-1=%d", x, y, z, l, best-1)
				}
			}
		}
	}
}
