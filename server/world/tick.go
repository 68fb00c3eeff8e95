package world

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/light"
	"github.com/voidreach/voxelcore/server/world/liquid"
	"github.com/voidreach/voxelcore/server/world/mesh"
	"github.com/voidreach/voxelcore/server/world/scheduler"
	"github.com/voidreach/voxelcore/server/world/worker"
)

// Update advances the world by one frame: it drains queued
// transactions and worker replies, refreshes the generation and meshing
// queues around the player, unloads far columns and pumps the scheduler.
func (w *World) Update(delta time.Duration, playerPos mgl64.Vec3) {
	if w.closing {
		return
	}
	w.drainExec()

	w.playerPos = playerPos
	w.playerChunk = ChunkPos{
		int64(math.Floor(playerPos.X())) >> chunkShift,
		int64(math.Floor(playerPos.Z())) >> chunkShift,
	}
	w.playerSub = clampSub(int(math.Floor(playerPos.Y())) >> subShift)

	w.unloadFar()
	w.rebuildQueues()
	w.pool.Drain(w.applyResult)
	w.sched.Frame(delta)
	if delta > 0 {
		w.sched.ReportFrameTime(delta)
	}
}

func clampSub(s int) int {
	if s < 0 {
		return 0
	}
	if s >= SubCount {
		return SubCount - 1
	}
	return s
}

func (w *World) drainExec() {
	for {
		select {
		case req := <-w.exec:
			req.f(w)
			close(req.done)
		default:
			return
		}
	}
}

// RunLoop drives Update at the given ticks per second until ctx is
// cancelled, for embedders without their own frame loop (the debug CLI).
// The player position is whatever the last Update or Exec set.
func (w *World) RunLoop(ctx context.Context, tps int) {
	if tps <= 0 {
		tps = 20
	}
	interval := time.Second / time.Duration(tps)
	tc := time.NewTicker(interval)
	defer tc.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tc.C:
			w.Update(now.Sub(last), w.playerPos)
			last = now
		}
	}
}

// SetPlayerPosition records the observer position used for queue priority
// when the embedder drives RunLoop instead of calling Update directly.
func (w *World) SetPlayerPosition(pos mgl64.Vec3) { w.playerPos = pos }

// PlayerPosition returns the last observed player position.
func (w *World) PlayerPosition() mgl64.Vec3 { return w.playerPos }

// queued generation/meshing entries carry their priority so a single sort
// orders the frame's queue.
type queuedColumn struct {
	pos  ChunkPos
	prio float64
}

type queuedSub struct {
	pos  SubChunkPos
	prio float64
}

// rebuildQueues recomputes the generation and meshing queues as a
// center-first spiral in XZ intersected with a 3D sphere around the
// player's sub-chunk, vertical distance weighted 1.5× so near-eye-level
// work runs first.
func (w *World) rebuildQueues() {
	view := w.conf.ViewDistance
	viewSq := float64(view * view)

	var gens []queuedColumn
	var meshes []queuedSub

	for dx := -view; dx <= view; dx++ {
		for dz := -view; dz <= view; dz++ {
			horizSq := float64(dx*dx + dz*dz)
			if horizSq > viewSq {
				continue
			}
			pos := ChunkPos{w.playerChunk.X + int64(dx), w.playerChunk.Z + int64(dz)}
			col := w.LoadChunk(pos)

			if !col.generated {
				if _, busy := w.inFlight.Get(packChunk(pos)); !busy {
					gens = append(gens, queuedColumn{pos, horizSq})
				}
				continue
			}
			for sub := 0; sub < SubCount; sub++ {
				// Sub-chunks are twice as tall as chunks are wide; vd is
				// the vertical offset in chunk-width units, then weighted.
				vd := 1.5 * float64((sub-w.playerSub)*2)
				prio := horizSq + vd*vd
				if prio > viewSq {
					continue
				}
				sc := col.SubChunk(sub)
				if !sc.Dirty() {
					continue
				}
				meshes = append(meshes, queuedSub{SubChunkPos{X: pos.X, Z: pos.Z, Sub: sub}, prio})
			}
		}
	}

	sort.Slice(gens, func(i, j int) bool { return gens[i].prio < gens[j].prio })
	sort.Slice(meshes, func(i, j int) bool { return meshes[i].prio < meshes[j].prio })

	w.genQueue = w.genQueue[:0]
	for _, g := range gens {
		w.genQueue = append(w.genQueue, SubChunkPos{X: g.pos.X, Z: g.pos.Z})
	}
	w.meshQueue = w.meshQueue[:0]
	for _, m := range meshes {
		w.meshQueue = append(w.meshQueue, m.pos)
	}
}

// unloadFar drops columns beyond the unload radius and the meshes of
// sub-chunks outside the 3D view sphere (partial unload).
func (w *World) unloadFar() {
	unloadSq := int64(w.conf.UnloadDistance * w.conf.UnloadDistance)
	viewSq := float64(w.conf.ViewDistance * w.conf.ViewDistance)

	for pos := range w.chunks {
		dx, dz := pos.X-w.playerChunk.X, pos.Z-w.playerChunk.Z
		if dx*dx+dz*dz > unloadSq {
			w.UnloadChunk(pos)
		}
	}
	for pos := range w.meshes {
		dx, dz := float64(pos.X-w.playerChunk.X), float64(pos.Z-w.playerChunk.Z)
		vd := 1.5 * float64((pos.Sub-w.playerSub)*2)
		if dx*dx+dz*dz+vd*vd > viewSq {
			delete(w.meshes, pos)
		}
	}
}

// registerTasks installs the built-in task set. External
// critical tasks (input & physics) are registered by the embedder through
// RegisterTask.
func (w *World) registerTasks() {
	w.sched.Register("mesh-upload", scheduler.High, w.budgetedTask(w.meshNext))
	w.sched.Register("generation", scheduler.Normal, w.budgetedTask(w.generateNext))
	w.sched.Register("relight", scheduler.Normal, w.budgetedTask(w.relightNext))
	w.sched.Register("liquid", scheduler.Normal, w.budgetedTask(w.liquidNext))
	w.sched.Register("heightmap", scheduler.Normal, w.budgetedTask(w.heightmapNext))
	w.sched.Register("block-tick", scheduler.Low, w.budgetedTask(w.blockTickNext))
}

// budgetedTask wraps a processNext function into a Task that loops until
// the unit reports no more work or the remaining budget is spent, then
// reports its own elapsed time and unit count.
func (w *World) budgetedTask(processNext func() bool) scheduler.Task {
	return scheduler.TaskFunc(func(_, remaining time.Duration) scheduler.Result {
		start := time.Now()
		units := 0
		completed := true
		for {
			if time.Since(start) >= remaining {
				completed = false
				break
			}
			if !processNext() {
				break
			}
			units++
		}
		return scheduler.Result{Completed: completed, Elapsed: time.Since(start), WorkUnits: units}
	})
}

// generateNext submits one queued column to the generation workers.
func (w *World) generateNext() bool {
	for len(w.genQueue) > 0 {
		pos := w.genQueue[0].Column()
		w.genQueue = w.genQueue[1:]

		col := w.chunks[pos]
		if col == nil || col.generated {
			continue
		}
		key := packChunk(pos)
		if _, busy := w.inFlight.Get(key); busy {
			continue
		}
		gen := w.conf.Generator
		reg := w.conf.Registry
		log := w.log
		id, ok := w.pool.Submit(func() any {
			fresh := NewColumn(pos)
			gen.GenerateColumn(pos, fresh)
			// Horizontal flood of the seeded skylight, run here while the
			// column is still worker-owned; cross-column stitching happens
			// on install.
			eng := light.NewEngine(reg, log)
			eng.FloodColumn(columnOnlyView{fresh}, pos.X*SX, pos.Z*SZ)
			return fresh
		})
		if !ok {
			// Pool saturated; the queue is rebuilt next frame.
			return false
		}
		w.inFlight.Put(key, 1)
		w.jobs[id] = jobRef{kind: jobGenerate, col: pos}
		for i := 0; i < SubCount; i++ {
			col.SubChunk(i).SetState(chunk.StateGenerating)
		}
		return true
	}
	return false
}

// meshNext submits one dirty sub-chunk to the meshing workers, or resolves
// it immediately when it needs no geometry.
func (w *World) meshNext() bool {
	for len(w.meshQueue) > 0 {
		pos := w.meshQueue[0]
		w.meshQueue = w.meshQueue[1:]

		col := w.chunks[pos.Column()]
		if col == nil || !col.generated {
			continue
		}
		sc := col.SubChunk(pos.Sub)
		if sc == nil || !sc.Dirty() {
			continue
		}

		if sc.Empty() {
			delete(w.meshes, pos)
			sc.ClearDirty()
			sc.SetState(chunk.StateReady)
			continue
		}

		sample := w.captureSlabs(pos).sample
		if sc.FullyOpaque() && !w.mesher.HasExposedFace(sc.Blocks(), sample) {
			// Fully opaque with no exposed face: nothing to mesh.
			delete(w.meshes, pos)
			sc.ClearDirty()
			sc.SetState(chunk.StateReady)
			continue
		}

		blocks := make([]chunk.ID, len(sc.Blocks()))
		copy(blocks, sc.Blocks())
		lightData := make([]uint8, len(sc.Light()))
		copy(lightData, sc.Light())
		mesher := w.mesher

		id, ok := w.pool.Submit(func() any {
			return mesher.BuildSubChunk(blocks, lightData, sample)
		})
		if !ok {
			return false
		}
		w.jobs[id] = jobRef{kind: jobMesh, col: pos.Column(), sub: pos.Sub, version: col.version}
		sc.ClearDirty()
		sc.SetState(chunk.StateMeshing)
		return true
	}
	return false
}

// relightNext submits one queued column to the background relight workers
// (the correctness pass).
func (w *World) relightNext() bool {
	for len(w.relightQueue) > 0 {
		pos := w.relightQueue[0]
		w.relightQueue = w.relightQueue[1:]

		col := w.chunks[pos]
		if col == nil {
			continue
		}
		col.relightQueued = false
		snap := snapshotColumn(col)
		id, ok := w.pool.Submit(func() any {
			rl := w.relighter.Get().(*light.Relighter)
			defer w.relighter.Put(rl)
			snap.changed = rl.Relight(snap)
			return snap
		})
		if !ok {
			w.queueRelight(col)
			return false
		}
		w.jobs[id] = jobRef{kind: jobRelight, col: pos, version: col.version}
		return true
	}
	return false
}

// liquidNext ticks the eligible liquid column nearest the player and fans
// its batched invalidation out to meshing and the relight queue.
func (w *World) liquidNext() bool {
	res := w.liquid.ProcessNext(liquidWorld{w}, time.Now().UnixMilli(), liquid.ColumnPos{X: w.playerChunk.X, Z: w.playerChunk.Z})
	if !res.Processed {
		return false
	}
	for _, ref := range res.Dirty {
		pos := ChunkPos{ref.Col.X, ref.Col.Z}
		col := w.chunks[pos]
		if col == nil {
			continue
		}
		if sc := col.SubChunk(ref.Sub); sc != nil {
			sc.MarkDirty()
		}
		w.queueRelight(col)
	}
	return true
}

// heightmapNext rebuilds the sampled heightmap of one column flagged by
// bulk writes, keeping the surface and grounded fields jointly coherent.
func (w *World) heightmapNext() bool {
	for _, col := range w.chunks {
		if !col.heightmapDirty {
			continue
		}
		col.RebuildHeightmap()
		col.heightmapDirty = false
		return true
	}
	return false
}

// blockTicksPerColumn is how many random cells one sweep unit samples.
const blockTicksPerColumn = 3

// blockTickNext runs one column's worth of the random block-tick sweep:
// grass dies under opaque cover, dirt regrows grass under open sky.
func (w *World) blockTickNext() bool {
	view := int32(w.conf.ViewDistance)
	dx := int64(w.r.Range(-view, view))
	dz := int64(w.r.Range(-view, view))
	pos := ChunkPos{w.playerChunk.X + dx, w.playerChunk.Z + dz}
	col := w.chunks[pos]
	if col == nil || !col.generated {
		return false
	}
	originX, originZ := pos.X*SX, pos.Z*SZ
	for i := 0; i < blockTicksPerColumn; i++ {
		x := int(w.r.Range(0, SX-1))
		z := int(w.r.Range(0, SZ-1))
		y := col.HighestAt(x, z)
		if y < 0 || y >= ColH-1 {
			continue
		}
		p := BlockPos{originX + int64(x), int64(y), originZ + int64(z)}
		switch col.Block(x, y, z) {
		case block.Grass:
			if w.conf.Registry.ByID(col.Block(x, y+1, z)).IsOpaque {
				w.SetBlock(p, block.Dirt)
			}
		case block.Dirt:
			if col.Block(x, y+1, z) == block.Air && col.SkyLight(x, y+1, z) >= 9 {
				w.SetBlock(p, block.Grass)
			}
		}
	}
	return true
}

// applyResult reconciles one worker reply on the tick thread. Replies with
// no job record are stale (cancelled column, superseded job) and dropped.
func (w *World) applyResult(res worker.Result) {
	ref, ok := w.jobs[res.ID]
	if !ok {
		return
	}
	delete(w.jobs, res.ID)

	if res.Err != nil {
		w.log.Error("world: worker job failed", "kind", ref.kind, "pos", ref.col, "err", res.Err)
		if ref.kind == jobGenerate {
			// Removed from the in-flight set so the column may be
			// re-queued on a later update.
			w.inFlight.Del(packChunk(ref.col))
		}
		return
	}

	switch ref.kind {
	case jobGenerate:
		w.applyGeneration(ref, res.Value.(*Column))
	case jobMesh:
		w.applyMesh(ref, res.Value.(*mesh.Mesh))
	case jobRelight:
		w.applyRelight(ref, res.Value.(*columnSnapshot))
	}
}

func (w *World) applyGeneration(ref jobRef, fresh *Column) {
	w.inFlight.Del(packChunk(ref.col))
	if _, stillLoaded := w.chunks[ref.col]; !stillLoaded {
		return
	}
	fresh.generated = true
	w.chunks[ref.col] = fresh
	for i := 0; i < SubCount; i++ {
		sc := fresh.SubChunk(i)
		sc.SetState(chunk.StateGenerated)
		sc.RecomputeFullyOpaque(func(id chunk.ID) bool { return w.conf.Registry.ByID(id).IsOpaque })
		sc.MarkDirty()
	}
	w.liquid.RebuildIndex(liquidWorld{w}, liquid.ColumnPos{X: ref.col.X, Z: ref.col.Z})
	w.liquid.QueueColumn(liquid.ColumnPos{X: ref.col.X, Z: ref.col.Z})
	w.queueRelight(fresh)
	// Stitch both directions: push this column's seeded light out across
	// its seams, and re-run each loaded neighbour's boundary so their
	// light flows into the newcomer.
	w.lighting.PropagateFromBoundary(worldView{w}, ref.col.X*SX, ref.col.Z*SZ)
	for _, d := range [4][2]int64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		n := ChunkPos{ref.col.X + d[0], ref.col.Z + d[1]}
		if nc := w.chunks[n]; nc != nil && nc.generated {
			w.lighting.PropagateFromBoundary(worldView{w}, n.X*SX, n.Z*SZ)
		}
	}
}

func (w *World) applyMesh(ref jobRef, m *mesh.Mesh) {
	col := w.chunks[ref.col]
	if col == nil {
		return
	}
	sc := col.SubChunk(ref.sub)
	if sc == nil {
		return
	}
	if col.version != ref.version {
		// A block or light edit landed while the job was in flight: the
		// buffers no longer reflect the world and are discarded.
		sc.MarkDirty()
		return
	}
	pos := SubChunkPos{X: ref.col.X, Z: ref.col.Z, Sub: ref.sub}
	if m.Empty() {
		delete(w.meshes, pos)
	} else {
		w.meshes[pos] = m
	}
	if !sc.Dirty() {
		sc.SetState(chunk.StateReady)
	}
}

func (w *World) applyRelight(ref jobRef, snap *columnSnapshot) {
	col := w.chunks[ref.col]
	if col == nil {
		return
	}
	if col.version != ref.version {
		// The column changed under the job; run it again on fresh data.
		w.queueRelight(col)
		return
	}
	if len(snap.changed) == 0 {
		return
	}
	for _, sub := range snap.changed {
		sc := col.SubChunk(sub)
		sc.LoadLight(snap.light[sub])
		sc.MarkDirty()
	}
	col.version++
	w.lighting.PropagateFromBoundary(worldView{w}, ref.col.X*SX, ref.col.Z*SZ)
}

// columnOnlyView is a light.View over one detached column: cells outside
// its footprint read as unloaded, bounding the flood to data the worker
// exclusively owns.
type columnOnlyView struct{ col *Column }

func (v columnOnlyView) local(x, y, z int64) (int, int, int, bool) {
	lx := x - v.col.Pos.X*SX
	lz := z - v.col.Pos.Z*SZ
	if lx < 0 || lx >= SX || lz < 0 || lz >= SZ || y < 0 || y >= ColH {
		return 0, 0, 0, false
	}
	return int(lx), int(y), int(lz), true
}

func (v columnOnlyView) Block(x, y, z int64) block.ID {
	lx, ly, lz, ok := v.local(x, y, z)
	if !ok {
		return block.AIR
	}
	return v.col.Block(lx, ly, lz)
}

func (v columnOnlyView) Light(ch light.Channel, x, y, z int64) uint8 {
	lx, ly, lz, ok := v.local(x, y, z)
	if !ok {
		return 0
	}
	if ch == light.Sky {
		return v.col.SkyLight(lx, ly, lz)
	}
	return v.col.BlockLight(lx, ly, lz)
}

func (v columnOnlyView) SetLight(ch light.Channel, x, y, z int64, val uint8) bool {
	lx, ly, lz, ok := v.local(x, y, z)
	if !ok {
		return false
	}
	if ch == light.Sky {
		v.col.SetSkyLight(lx, ly, lz, val)
	} else {
		v.col.SetBlockLight(lx, ly, lz, val)
	}
	return true
}

// columnSnapshot is the moved-in input and moved-out output of a relight
// job: copies of a column's block and packed light arrays, satisfying
// light.ColumnView. The worker mutates only the copies.
type columnSnapshot struct {
	blocks  [SubCount][]chunk.ID
	light   [SubCount][]uint8
	changed []int
}

func snapshotColumn(col *Column) *columnSnapshot {
	s := &columnSnapshot{}
	for i := 0; i < SubCount; i++ {
		sc := col.SubChunk(i)
		s.blocks[i] = append([]chunk.ID(nil), sc.Blocks()...)
		s.light[i] = append([]uint8(nil), sc.Light()...)
	}
	return s
}

func (s *columnSnapshot) Block(x, y, z int) block.ID {
	return s.blocks[y/SubH][chunk.Index(x, y%SubH, z)]
}

func (s *columnSnapshot) SkyLight(x, y, z int) uint8 {
	return s.light[y/SubH][chunk.Index(x, y%SubH, z)] >> 4
}

func (s *columnSnapshot) BlockLight(x, y, z int) uint8 {
	return s.light[y/SubH][chunk.Index(x, y%SubH, z)] & 0x0F
}

func (s *columnSnapshot) SetSkyLight(x, y, z int, v uint8) {
	i := chunk.Index(x, y%SubH, z)
	s.light[y/SubH][i] = (s.light[y/SubH][i] & 0x0F) | (v << 4)
}

func (s *columnSnapshot) SetBlockLight(x, y, z int, v uint8) {
	i := chunk.Index(x, y%SubH, z)
	s.light[y/SubH][i] = (s.light[y/SubH][i] & 0xF0) | (v & 0x0F)
}

// slabSnapshot carries copies of the six neighbour boundary layers a mesh
// job needs, captured on the tick thread at submit time.
type slabSnapshot struct {
	// up and down are the adjacent horizontal layers, indexed z*SX+x.
	up, down []slabCell
	// north/south are the z-boundary layers, indexed y*SX+x; east/west the
	// x-boundary layers, indexed y*SZ+z. A nil slab means the neighbour
	// sub-chunk is not resident.
	north, south, east, west []slabCell
}

type slabCell struct {
	id    chunk.ID
	light uint8
}

func (w *World) captureSlabs(pos SubChunkPos) *slabSnapshot {
	s := &slabSnapshot{}
	col := w.chunks[pos.Column()]

	if sc := subChunkAt(col, pos.Sub+1); sc != nil {
		s.up = make([]slabCell, SX*SZ)
		for z := 0; z < SZ; z++ {
			for x := 0; x < SX; x++ {
				i := chunk.Index(x, 0, z)
				s.up[z*SX+x] = slabCell{sc.Blocks()[i], sc.Light()[i]}
			}
		}
	}
	if sc := subChunkAt(col, pos.Sub-1); sc != nil {
		s.down = make([]slabCell, SX*SZ)
		for z := 0; z < SZ; z++ {
			for x := 0; x < SX; x++ {
				i := chunk.Index(x, SubH-1, z)
				s.down[z*SX+x] = slabCell{sc.Blocks()[i], sc.Light()[i]}
			}
		}
	}

	s.north = w.captureZSlab(ChunkPos{pos.X, pos.Z - 1}, pos.Sub, SZ-1)
	s.south = w.captureZSlab(ChunkPos{pos.X, pos.Z + 1}, pos.Sub, 0)
	s.west = w.captureXSlab(ChunkPos{pos.X - 1, pos.Z}, pos.Sub, SX-1)
	s.east = w.captureXSlab(ChunkPos{pos.X + 1, pos.Z}, pos.Sub, 0)
	return s
}

func subChunkAt(col *Column, sub int) *chunk.SubChunk {
	if col == nil || sub < 0 || sub >= SubCount {
		return nil
	}
	return col.SubChunk(sub)
}

func (w *World) captureZSlab(colPos ChunkPos, sub, z int) []slabCell {
	sc := subChunkAt(w.chunks[colPos], sub)
	if sc == nil {
		return nil
	}
	out := make([]slabCell, SX*SubH)
	for y := 0; y < SubH; y++ {
		for x := 0; x < SX; x++ {
			i := chunk.Index(x, y, z)
			out[y*SX+x] = slabCell{sc.Blocks()[i], sc.Light()[i]}
		}
	}
	return out
}

func (w *World) captureXSlab(colPos ChunkPos, sub, x int) []slabCell {
	sc := subChunkAt(w.chunks[colPos], sub)
	if sc == nil {
		return nil
	}
	out := make([]slabCell, SZ*SubH)
	for y := 0; y < SubH; y++ {
		for z := 0; z < SZ; z++ {
			i := chunk.Index(x, y, z)
			out[y*SZ+z] = slabCell{sc.Blocks()[i], sc.Light()[i]}
		}
	}
	return out
}

// sample is the mesh.Sampler over the captured slabs. Exactly one axis is
// out of range per call, by the mesher's contract.
func (s *slabSnapshot) sample(x, y, z int) (block.ID, uint8, uint8, bool) {
	var cell slabCell
	var slab []slabCell
	var idx int
	switch {
	case y >= SubH:
		slab, idx = s.up, z*SX+x
	case y < 0:
		slab, idx = s.down, z*SX+x
	case z < 0:
		slab, idx = s.north, y*SX+x
	case z >= SZ:
		slab, idx = s.south, y*SX+x
	case x < 0:
		slab, idx = s.west, y*SZ+z
	default:
		slab, idx = s.east, y*SZ+z
	}
	if slab == nil {
		return block.AIR, 0, 0, false
	}
	cell = slab[idx]
	return cell.id, cell.light >> 4, cell.light & 0x0F, true
}
