package world

import (
	"testing"
	"time"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/worker"
)

// deadlineDrain waits for at least one worker reply and reconciles it the
// way Update would.
func deadlineDrain(t *testing.T, w *World) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got := false
		w.pool.Drain(func(res worker.Result) {
			got = true
			w.applyResult(res)
		})
		if got {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no worker reply before deadline")
}

// newTestWorld builds a World with the default catalog, no generator and no
// persistence; tests install columns directly.
func newTestWorld(t *testing.T) *World {
	t.Helper()
	w := Config{
		Registry: block.DefaultCatalog(nil),
		Workers:  1,
	}.New()
	t.Cleanup(w.pool.Close)
	return w
}

// installFlatColumn makes a generated column resident with solid stone up
// to (but excluding) height.
func installFlatColumn(w *World, pos ChunkPos, height int) *Column {
	col := NewColumn(pos)
	for x := 0; x < SX; x++ {
		for z := 0; z < SZ; z++ {
			for y := 0; y < height; y++ {
				col.SetBlockDuringGeneration(x, y, z, block.Stone)
			}
		}
	}
	col.generated = true
	col.RebuildHeightmap()
	w.chunks[pos] = col
	return col
}

// memProvider is an in-memory Provider for save/load tests.
type memProvider struct {
	chunks map[SubChunkPos][]byte
	meta   []byte
}

func newMemProvider() *memProvider {
	return &memProvider{chunks: make(map[SubChunkPos][]byte)}
}

func (p *memProvider) LoadSubChunk(pos SubChunkPos) ([]chunk.ID, []uint8, error) {
	data, ok := p.chunks[pos]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return DecodeSubChunk(data)
}

func (p *memProvider) SaveSubChunk(pos SubChunkPos, blocks []chunk.ID, light []uint8) error {
	p.chunks[pos] = EncodeSubChunk(blocks, light)
	return nil
}

func (p *memProvider) SubChunkExists(pos SubChunkPos) (bool, error) {
	_, ok := p.chunks[pos]
	return ok, nil
}

func (p *memProvider) ClearSubChunk(pos SubChunkPos) error {
	delete(p.chunks, pos)
	return nil
}

func (p *memProvider) LoadMetadata() (Metadata, error) {
	if p.meta == nil {
		return Metadata{}, ErrNotFound
	}
	return Metadata{Version: 1}, nil
}

func (p *memProvider) SaveMetadata(Metadata) error {
	p.meta = []byte{1}
	return nil
}

func (p *memProvider) Close() error { return nil }

func TestSetBlockSameIDIsNoOp(t *testing.T) {
	w := newTestWorld(t)
	installFlatColumn(w, ChunkPos{0, 0}, 10)

	pos := BlockPos{5, 20, 5}
	if !w.SetBlock(pos, block.Stone) {
		t.Fatal("first SetBlock must report a change")
	}
	if w.SetBlock(pos, block.Stone) {
		t.Fatal("second SetBlock with the same id must return false")
	}
}

func TestSetBlockUnloadedReturnsFalse(t *testing.T) {
	w := newTestWorld(t)
	if w.SetBlock(BlockPos{1000, 20, 1000}, block.Stone) {
		t.Fatal("SetBlock into an unloaded chunk must return false")
	}
	if w.GetBlock(BlockPos{1000, 20, 1000}) != block.AIR {
		t.Fatal("unloaded reads must return AIR")
	}
}

func TestSetBlockOutOfHeightRange(t *testing.T) {
	w := newTestWorld(t)
	installFlatColumn(w, ChunkPos{0, 0}, 10)
	if w.SetBlock(BlockPos{5, -1, 5}, block.Stone) {
		t.Fatal("negative y must be rejected")
	}
	if w.SetBlock(BlockPos{5, ColH, 5}, block.Stone) {
		t.Fatal("y above the column must be rejected")
	}
	if w.GetBlock(BlockPos{5, -1, 5}) != block.AIR {
		t.Fatal("out-of-range reads must return AIR")
	}
}

func TestSetBlockMarksNeighboursDirtyAtBoundary(t *testing.T) {
	w := newTestWorld(t)
	colA := installFlatColumn(w, ChunkPos{0, 0}, 10)
	colB := installFlatColumn(w, ChunkPos{1, 0}, 10)
	for i := 0; i < SubCount; i++ {
		colA.SubChunk(i).ClearDirty()
		colB.SubChunk(i).ClearDirty()
	}

	// Edit at the x=31 boundary of column (0,0), at a sub-chunk Y seam.
	if !w.SetBlock(BlockPos{31, SubH, 0}, block.Stone) {
		t.Fatal("edit failed")
	}
	if !colA.SubChunk(1).Dirty() {
		t.Fatal("containing sub-chunk not marked dirty")
	}
	if !colA.SubChunk(0).Dirty() {
		t.Fatal("sub-chunk below the Y seam not marked dirty")
	}
	if !colB.SubChunk(1).Dirty() {
		t.Fatal("face-adjacent neighbour column's sub-chunk not marked dirty")
	}
}

// TestTorchPlaceAndMine wires torch placement and mining through the
// world's setBlock entry point rather than the light engine directly.
func TestTorchPlaceAndMine(t *testing.T) {
	w := newTestWorld(t)
	col := installFlatColumn(w, ChunkPos{0, 0}, 0)

	pos := BlockPos{10, 30, 10}
	if !w.SetBlock(pos, block.Torch) {
		t.Fatal("placing the torch failed")
	}
	if got := col.BlockLight(10, 30, 10); got != 14 {
		t.Fatalf("blocklight at the torch: got %d, want 14", got)
	}
	if got := col.BlockLight(10, 30, 15); got != 9 {
		t.Fatalf("blocklight 5 cells away: got %d, want 9", got)
	}

	if !w.SetBlock(pos, block.Air) {
		t.Fatal("mining the torch failed")
	}
	for x := 0; x < SX; x++ {
		for z := 0; z < SZ; z++ {
			for y := 16; y < 45; y++ {
				if got := col.BlockLight(x, y, z); got != 0 {
					t.Fatalf("blocklight at (%d,%d,%d) still %d after mining", x, y, z, got)
				}
			}
		}
	}
}

// TestLiquidIntegration: a water source placed through setBlock reaches the
// liquid engine and falls under gravity on the next liquid tick.
func TestLiquidIntegration(t *testing.T) {
	w := newTestWorld(t)
	installFlatColumn(w, ChunkPos{0, 0}, 10)

	if !w.SetBlock(BlockPos{5, 20, 5}, block.WaterFull) {
		t.Fatal("placing water failed")
	}
	if !w.liquidNext() {
		t.Fatal("liquid engine had no queued work after setBlock")
	}
	if w.GetBlock(BlockPos{5, 20, 5}) != block.AIR {
		t.Fatal("water did not leave the source cell")
	}
	if w.GetBlock(BlockPos{5, 19, 5}) != block.WaterFull {
		t.Fatalf("water did not land below: got %d", w.GetBlock(BlockPos{5, 19, 5}))
	}
}

// TestSaveLoadRoundTrip: unloading persists a column; reloading restores
// block and light arrays byte-equal (the round-trip law).
func TestSaveLoadRoundTrip(t *testing.T) {
	provider := newMemProvider()
	w := Config{
		Registry: block.DefaultCatalog(nil),
		Provider: provider,
		Workers:  1,
	}.New()
	t.Cleanup(w.pool.Close)

	pos := ChunkPos{2, 3}
	col := installFlatColumn(w, pos, 40)
	col.SetBlockDuringGeneration(7, 50, 7, block.Torch)
	col.SetSkyLight(7, 51, 7, 12)
	wantBlocks := append([]chunk.ID(nil), col.SubChunk(0).Blocks()...)
	wantLight := append([]uint8(nil), col.SubChunk(0).Light()...)

	w.UnloadChunk(pos)
	if w.chunks[pos] != nil {
		t.Fatal("column still resident after unload")
	}

	reloaded := w.LoadChunk(pos)
	if !reloaded.generated {
		t.Fatal("reloaded column not marked generated")
	}
	if reloaded.Block(7, 50, 7) != block.Torch {
		t.Fatal("edited block lost in round trip")
	}
	gotBlocks := reloaded.SubChunk(0).Blocks()
	gotLight := reloaded.SubChunk(0).Light()
	for i := range wantBlocks {
		if gotBlocks[i] != wantBlocks[i] {
			t.Fatalf("block %d differs after round trip", i)
		}
		if gotLight[i] != wantLight[i] {
			t.Fatalf("light %d differs after round trip", i)
		}
	}
}

// TestHeightmapMaintainedThroughSetBlock: surface and grounded heights
// stay jointly coherent after single-cell edits.
func TestHeightmapMaintainedThroughSetBlock(t *testing.T) {
	w := newTestWorld(t)
	col := installFlatColumn(w, ChunkPos{0, 0}, 10)

	// A floating block raises surface height but not grounded height.
	w.SetBlock(BlockPos{4, 30, 4}, block.Stone)
	if got := col.SurfaceHeight(4, 4); got != 30 {
		t.Fatalf("surface height: got %d, want 30", got)
	}
	if got := col.GroundedHeight(4, 4); got != 9 {
		t.Fatalf("grounded height: got %d, want 9", got)
	}
	if col.GroundedHeight(4, 4) > col.SurfaceHeight(4, 4) {
		t.Fatal("grounded must never exceed surface")
	}

	// Removing it restores both.
	w.SetBlock(BlockPos{4, 30, 4}, block.Air)
	if got := col.SurfaceHeight(4, 4); got != 9 {
		t.Fatalf("surface height after removal: got %d, want 9", got)
	}
}

// TestUnloadCancelsJobs: stale worker replies for an unloaded column are
// discarded rather than applied.
func TestUnloadCancelsJobs(t *testing.T) {
	w := newTestWorld(t)
	pos := ChunkPos{0, 0}
	installFlatColumn(w, pos, 10)

	id, ok := w.pool.Submit(func() any { return NewColumn(pos) })
	if !ok {
		t.Fatal("submit failed")
	}
	w.jobs[id] = jobRef{kind: jobGenerate, col: pos}
	w.UnloadChunk(pos)

	if _, still := w.jobs[id]; still {
		t.Fatal("job record must be dropped on unload")
	}
	// The reply arrives later and must be ignored without reinstating the
	// column.
	deadlineDrain(t, w)
	if _, resident := w.chunks[pos]; resident {
		t.Fatal("stale generation reply reinstated an unloaded column")
	}
}
