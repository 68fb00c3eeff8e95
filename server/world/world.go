// Package world implements the voxel world subsystem: chunked block
// storage, the generation/lighting/meshing pipeline, the liquid automaton,
// the adaptive scheduler that interleaves all of it within a frame budget,
// and the voxel raycast and block-edit entry points.
package world

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/brentp/intintmap"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/light"
	"github.com/voidreach/voxelcore/server/world/liquid"
	"github.com/voidreach/voxelcore/server/world/mesh"
	"github.com/voidreach/voxelcore/server/world/noise"
	"github.com/voidreach/voxelcore/server/world/scheduler"
	"github.com/voidreach/voxelcore/server/world/worker"
)

// Config assembles a World. Registry and Generator are required; everything
// else has a usable default.
type Config struct {
	// Log is the logger for the whole subsystem. If nil, slog.Default().
	Log *slog.Logger
	// Registry is the frozen block catalog shared with every worker.
	Registry *block.Registry
	// Generator fills new columns procedurally.
	Generator Generator
	// Provider is the persistence backend; nil selects NopProvider.
	Provider Provider
	// Seed identifies the world in its saved metadata.
	Seed int64
	// ViewDistance is the horizontal generation radius in chunks.
	ViewDistance int
	// UnloadDistance is the horizontal radius beyond which columns are
	// unloaded; 0 selects 1.5·ViewDistance.
	UnloadDistance int
	// Workers and WorkerQueueSize size the worker pool; zero values are
	// derived from the host CPU count.
	Workers         int
	WorkerQueueSize int
	// LiquidIntervalMs is the per-column liquid rate limit.
	LiquidIntervalMs int64
	// Scheduler carries the frame-budget policy.
	Scheduler scheduler.Config
}

type jobKind uint8

const (
	jobGenerate jobKind = iota
	jobMesh
	jobRelight
)

// jobRef is the tick thread's record of one in-flight worker job. Replies
// whose id has no record are stale (the column was unloaded, or a newer
// edit invalidated the job) and are silently discarded.
type jobRef struct {
	kind    jobKind
	col     ChunkPos
	sub     int
	version uint64
}

// World owns the column map and drives the whole pipeline from the game
// tick thread. Workers never touch the map; they receive moved-in
// snapshots and return results that Update reconciles.
type World struct {
	conf Config
	log  *slog.Logger

	chunks map[ChunkPos]*Column

	// inFlight gates generation so a column never has two in-flight
	// generations, keyed by packed chunk coordinates.
	inFlight *intintmap.Map
	jobs     map[uuid.UUID]jobRef

	genQueue     []SubChunkPos
	meshQueue    []SubChunkPos
	relightQueue []ChunkPos

	meshes map[SubChunkPos]*mesh.Mesh

	lighting  *light.Engine
	relighter sync.Pool
	mesher    *mesh.Mesher
	liquid    *liquid.Engine
	pool      *worker.Pool
	sched     *scheduler.Scheduler

	playerPos   mgl64.Vec3
	playerChunk ChunkPos
	playerSub   int

	// exec is the transaction queue other goroutines (console, embedders)
	// use to run against world state on the tick thread.
	exec chan execRequest

	r *noise.Random

	closing bool
}

type execRequest struct {
	f    func(*World)
	done chan struct{}
}

// New builds a World from the configuration.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Registry == nil {
		panic("world: Config.Registry is required")
	}
	if conf.Provider == nil {
		conf.Provider = NopProvider{}
	}
	if conf.ViewDistance <= 0 {
		conf.ViewDistance = 8
	}
	if conf.UnloadDistance <= 0 {
		conf.UnloadDistance = conf.ViewDistance + conf.ViewDistance/2
	}
	conf.Scheduler.Logger = conf.Log

	w := &World{
		conf:     conf,
		log:      conf.Log,
		chunks:   make(map[ChunkPos]*Column),
		inFlight: intintmap.New(256, 0.6),
		jobs:     make(map[uuid.UUID]jobRef),
		meshes:   make(map[SubChunkPos]*mesh.Mesh),
		lighting: light.NewEngine(conf.Registry, conf.Log),
		mesher:   mesh.NewMesher(conf.Registry, nil),
		liquid:   liquid.NewEngine(conf.Registry, conf.LiquidIntervalMs, conf.Log),
		pool:     worker.NewPool(conf.Workers, conf.WorkerQueueSize, conf.Log),
		sched:    scheduler.New(conf.Scheduler),
		exec:     make(chan execRequest, 256),
		r:        noise.NewRandom(conf.Seed ^ 0x7469636b),
	}
	w.relighter.New = func() any { return light.NewRelighter(conf.Registry) }
	w.registerTasks()
	return w
}

// packChunk folds a chunk position into the in-flight set's int64 key.
func packChunk(pos ChunkPos) int64 {
	return int64(uint64(uint32(pos.X))<<32 | uint64(uint32(pos.Z)))
}

// Exec runs f on the game-tick thread at the start of the next Update and
// returns a channel closed once it has run, so other goroutines (the
// console, embedders) never touch world state directly.
func (w *World) Exec(f func(*World)) <-chan struct{} {
	done := make(chan struct{})
	w.exec <- execRequest{f: f, done: done}
	return done
}

// RegisterTask installs an external task (input & physics, mesh upload
// consumers, ...) on the internal scheduler.
func (w *World) RegisterTask(id string, p scheduler.Priority, t scheduler.Task) {
	w.sched.Register(id, p, t)
}

// Metrics returns the scheduler metrics registry, nil unless enabled in the
// configuration.
func (w *World) Metrics() *scheduler.Metrics { return w.conf.Scheduler.Metrics }

// LoadedColumnCount returns the number of resident columns.
func (w *World) LoadedColumnCount() int { return len(w.chunks) }

// Column returns the resident column at pos, or nil.
func (w *World) Column(pos ChunkPos) *Column { return w.chunks[pos] }

// Mesh returns the last built mesh for a sub-chunk, if any.
func (w *World) Mesh(pos SubChunkPos) (*mesh.Mesh, bool) {
	m, ok := w.meshes[pos]
	return m, ok
}

// GetBlock returns the block id at a world position. Unloaded chunks and
// out-of-range heights read as AIR.
func (w *World) GetBlock(p BlockPos) block.ID {
	if p.Y < 0 || p.Y >= ColH {
		return block.AIR
	}
	col := w.chunks[ChunkPosFromBlock(p)]
	if col == nil {
		return block.AIR
	}
	x, _, z := LocalBlock(p)
	return col.Block(x, int(p.Y), z)
}

// SetBlock is the single write entry point: it updates the
// block, maintains the liquid index and queue, runs the incremental light
// update and marks the affected sub-chunks dirty for meshing. Returns false
// when the position is unloaded, out of range, or the value is unchanged.
func (w *World) SetBlock(p BlockPos, id block.ID) bool {
	if p.Y < 0 || p.Y >= ColH {
		return false
	}
	col := w.chunks[ChunkPosFromBlock(p)]
	if col == nil {
		return false
	}
	x, _, z := LocalBlock(p)
	y := int(p.Y)

	old := col.Block(x, y, z)
	skyAbove := col.HighestAt(x, z) <= y
	if !col.SetBlock(x, y, z, id) {
		return false
	}
	col.version++

	w.liquid.OnBlockChanged(p.X, p.Y, p.Z, id)
	w.lighting.OnBlockChanged(worldView{w}, p.X, p.Y, p.Z, old, id, skyAbove)
	w.markDirtyAround(p)
	return true
}

// QueueColumnForLiquid wakes the liquid automaton up for a column, e.g.
// after an external system floods an area.
func (w *World) QueueColumnForLiquid(pos ChunkPos) {
	w.liquid.QueueColumn(liquid.ColumnPos{X: pos.X, Z: pos.Z})
}

// markDirtyAround marks the sub-chunk containing p dirty for meshing, plus
// any face-adjacent sub-chunks when the cell sits on a boundary layer.
func (w *World) markDirtyAround(p BlockPos) {
	w.markSubDirty(SubChunkPosFromBlock(p))
	x, sy, z := LocalBlock(p)
	if x == 0 {
		w.markSubDirty(SubChunkPosFromBlock(p.Add(-1, 0, 0)))
	}
	if x == SX-1 {
		w.markSubDirty(SubChunkPosFromBlock(p.Add(1, 0, 0)))
	}
	if z == 0 {
		w.markSubDirty(SubChunkPosFromBlock(p.Add(0, 0, -1)))
	}
	if z == SZ-1 {
		w.markSubDirty(SubChunkPosFromBlock(p.Add(0, 0, 1)))
	}
	if sy == 0 && p.Y > 0 {
		w.markSubDirty(SubChunkPosFromBlock(p.Add(0, -1, 0)))
	}
	if sy == SubH-1 && p.Y < ColH-1 {
		w.markSubDirty(SubChunkPosFromBlock(p.Add(0, 1, 0)))
	}
}

func (w *World) markSubDirty(pos SubChunkPos) {
	col := w.chunks[pos.Column()]
	if col == nil {
		return
	}
	if sc := col.SubChunk(pos.Sub); sc != nil {
		sc.MarkDirty()
	}
}

// LoadChunk makes the column at pos resident: from the provider when saved
// data exists, otherwise as an empty column queued for generation. Returns
// the column (possibly still generating).
func (w *World) LoadChunk(pos ChunkPos) *Column {
	if col, ok := w.chunks[pos]; ok {
		return col
	}
	col := NewColumn(pos)
	w.chunks[pos] = col

	loaded, err := w.loadFromProvider(pos, col)
	if err != nil && !errors.Is(err, ErrNotFound) {
		// Persistence failure: log and fall back to procedural output.
		w.log.Error("world: loading column failed, regenerating", "pos", pos, "err", err)
	}
	if loaded {
		col.generated = true
		col.RebuildHeightmap()
		for i := 0; i < SubCount; i++ {
			sc := col.SubChunk(i)
			sc.SetState(chunk.StateGenerated)
			sc.RecomputeFullyOpaque(func(id chunk.ID) bool { return w.conf.Registry.ByID(id).IsOpaque })
			sc.MarkDirty()
		}
		w.liquid.RebuildIndex(liquidWorld{w}, liquid.ColumnPos{X: pos.X, Z: pos.Z})
		w.queueRelight(col)
	}
	return col
}

// loadFromProvider fills col from saved data; returns false when any
// sub-chunk is missing, in which case the column will be generated instead.
func (w *World) loadFromProvider(pos ChunkPos, col *Column) (bool, error) {
	for i := 0; i < SubCount; i++ {
		blocks, lightData, err := w.conf.Provider.LoadSubChunk(SubChunkPos{X: pos.X, Z: pos.Z, Sub: i})
		if err != nil {
			return false, err
		}
		sc := col.SubChunk(i)
		sc.LoadBlocks(blocks)
		if lightData != nil {
			sc.LoadLight(lightData)
		}
	}
	return true, nil
}

// UnloadChunk saves and drops the column at pos, cancelling its in-flight
// work (outputs from already-running jobs are discarded on reply).
func (w *World) UnloadChunk(pos ChunkPos) {
	col, ok := w.chunks[pos]
	if !ok {
		return
	}
	if col.generated {
		w.saveColumn(pos, col)
	}
	for id, ref := range w.jobs {
		if ref.col == pos {
			delete(w.jobs, id)
		}
	}
	w.inFlight.Del(packChunk(pos))
	w.liquid.DropColumn(liquid.ColumnPos{X: pos.X, Z: pos.Z})
	for i := 0; i < SubCount; i++ {
		delete(w.meshes, SubChunkPos{X: pos.X, Z: pos.Z, Sub: i})
	}
	delete(w.chunks, pos)
}

func (w *World) saveColumn(pos ChunkPos, col *Column) {
	for i := 0; i < SubCount; i++ {
		sc := col.SubChunk(i)
		sub := SubChunkPos{X: pos.X, Z: pos.Z, Sub: i}
		if err := w.conf.Provider.SaveSubChunk(sub, sc.Blocks(), sc.Light()); err != nil {
			// Logged and retried on the next snapshot.
			w.log.Error("world: saving sub-chunk failed", "pos", sub, "err", err)
		}
	}
}

// Save persists every generated resident column and the world metadata.
func (w *World) Save(now time.Time) {
	for pos, col := range w.chunks {
		if col.generated {
			w.saveColumn(pos, col)
		}
	}
	meta, err := w.conf.Provider.LoadMetadata()
	if errors.Is(err, ErrNotFound) {
		meta = Metadata{Version: 1, Seed: w.conf.Seed, CreatedAt: now.UnixMilli()}
	} else if err != nil {
		w.log.Error("world: loading metadata failed", "err", err)
		meta = Metadata{Version: 1, Seed: w.conf.Seed, CreatedAt: now.UnixMilli()}
	}
	meta.LastSavedAt = now.UnixMilli()
	meta.PlayerPos = []float64{w.playerPos.X(), w.playerPos.Y(), w.playerPos.Z()}
	if err := w.conf.Provider.SaveMetadata(meta); err != nil {
		w.log.Error("world: saving metadata failed", "err", err)
	}
}

// Close flushes all state, stops the workers and closes the provider.
func (w *World) Close() error {
	w.closing = true
	w.pool.Close()
	w.Save(time.Now())
	return w.conf.Provider.Close()
}

func (w *World) queueRelight(col *Column) {
	if col.relightQueued || !col.generated {
		return
	}
	col.relightQueued = true
	w.relightQueue = append(w.relightQueue, col.Pos)
}

// worldView adapts the world map to light.View. Light writes bump the
// column version (invalidating in-flight meshes) and dirty the containing
// sub-chunk.
type worldView struct{ w *World }

func (v worldView) Block(x, y, z int64) block.ID {
	return v.w.GetBlock(BlockPos{x, y, z})
}

func (v worldView) resolve(x, y, z int64) (*Column, int, int, int) {
	if y < 0 || y >= ColH {
		return nil, 0, 0, 0
	}
	col := v.w.chunks[ChunkPosFromBlock(BlockPos{x, y, z})]
	if col == nil {
		return nil, 0, 0, 0
	}
	lx, _, lz := LocalBlock(BlockPos{x, y, z})
	return col, lx, int(y), lz
}

func (v worldView) Light(ch light.Channel, x, y, z int64) uint8 {
	col, lx, ly, lz := v.resolve(x, y, z)
	if col == nil {
		return 0
	}
	if ch == light.Sky {
		return col.SkyLight(lx, ly, lz)
	}
	return col.BlockLight(lx, ly, lz)
}

func (v worldView) SetLight(ch light.Channel, x, y, z int64, val uint8) bool {
	col, lx, ly, lz := v.resolve(x, y, z)
	if col == nil {
		return false
	}
	if ch == light.Sky {
		col.SetSkyLight(lx, ly, lz, val)
	} else {
		col.SetBlockLight(lx, ly, lz, val)
	}
	col.version++
	if sc := col.SubChunk(ly / SubH); sc != nil {
		sc.MarkDirty()
	}
	return true
}

// liquidWorld adapts the world map to liquid.World. SetLiquid writes
// without the per-cell light/mesh fan-out; the liquid task batches
// invalidation per column tick from the engine's Result.
type liquidWorld struct{ w *World }

func (v liquidWorld) Block(x, y, z int64) block.ID {
	return v.w.GetBlock(BlockPos{x, y, z})
}

func (v liquidWorld) SetLiquid(x, y, z int64, id block.ID) bool {
	if y < 0 || y >= ColH {
		return false
	}
	col := v.w.chunks[ChunkPosFromBlock(BlockPos{x, y, z})]
	if col == nil {
		return false
	}
	lx, _, lz := LocalBlock(BlockPos{x, y, z})
	if col.Block(lx, int(y), lz) == id {
		return false
	}
	col.SetBlockDuringGeneration(lx, int(y), lz, id)
	col.version++
	col.heightmapDirty = true
	return true
}
