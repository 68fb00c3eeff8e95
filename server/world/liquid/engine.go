// Package liquid implements the water-level cellular automaton: a queued,
// rate-limited column processor moving water downward and spreading it
// evenly sideways across the four levels QUARTER..FULL.
package liquid

import (
	"log/slog"

	"github.com/brentp/intintmap"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
)

// World is the voxel surface the engine flows water through. SetLiquid
// writes a block without the per-cell lighting/meshing fan-out of the
// world's public setBlock; the engine batches invalidation to one report
// per column tick and returns the affected sub-chunks in its
// Result instead.
type World interface {
	Block(x, y, z int64) block.ID
	SetLiquid(x, y, z int64, id block.ID) bool
}

// DirtyRef identifies a sub-chunk whose cells changed during a column tick.
type DirtyRef struct {
	Col ColumnPos
	Sub int
}

// Result reports the outcome of one ProcessNext call.
type Result struct {
	// Processed is false when no queued column was eligible this call.
	Processed bool
	Pos       ColumnPos
	// Changed reports whether any cell moved; a changed column re-enqueues
	// itself and its four cardinal neighbours.
	Changed bool
	// Dirty lists the sub-chunks needing lighting/meshing invalidation,
	// batched per tick rather than per cell.
	Dirty []DirtyRef
}

// DefaultUpdateInterval is the minimum milliseconds between two ticks of
// the same column.
const DefaultUpdateInterval = 200

// Engine owns the column queue, the per-column liquid position indices and
// the rate-limit clock. All methods run on the game-tick thread only; the
// index is mutated by the engine itself and by setBlock, never
// concurrently.
type Engine struct {
	reg *block.Registry
	log *slog.Logger

	updateInterval int64

	// queued is the dedup set of pending columns; order preserves FIFO
	// arrival for stable scanning.
	queued *intintmap.Map
	order  []ColumnPos

	// lastProcessed maps a packed column to the timestamp (ms) of its most
	// recent tick, enforcing the per-column rate limit.
	lastProcessed *intintmap.Map

	index map[ColumnPos]*columnIndex
}

// NewEngine returns an Engine. updateIntervalMs <= 0 selects the default
// 200 ms; a nil log selects slog.Default().
func NewEngine(reg *block.Registry, updateIntervalMs int64, log *slog.Logger) *Engine {
	if updateIntervalMs <= 0 {
		updateIntervalMs = DefaultUpdateInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		reg:            reg,
		log:            log,
		updateInterval: updateIntervalMs,
		queued:         intintmap.New(256, 0.6),
		lastProcessed:  intintmap.New(256, 0.6),
		index:          make(map[ColumnPos]*columnIndex),
	}
}

// QueueColumn enqueues a column for liquid processing. Duplicate enqueues
// are dropped by the packed-key set.
func (e *Engine) QueueColumn(pos ColumnPos) {
	key := packColumn(pos)
	if _, ok := e.queued.Get(key); ok {
		return
	}
	e.queued.Put(key, 1)
	e.order = append(e.order, pos)
}

// QueueLen returns the number of columns waiting for a tick.
func (e *Engine) QueueLen() int { return len(e.order) }

// OnBlockChanged maintains the liquid position index after a world edit and
// queues the affected column. Called from the world's setBlock for every
// write, water or not: a removed floor under a water cell must wake the
// column up even though neither id is liquid.
func (e *Engine) OnBlockChanged(x, y, z int64, newID block.ID) {
	pos := ColumnPos{x >> 5, z >> 5}
	lx, lz := int(x-pos.X*chunk.SX), int(z-pos.Z*chunk.SZ)
	if y < 0 || y >= chunk.ColH {
		return
	}
	if _, isWater := block.WaterLevel(newID); isWater {
		ci := e.index[pos]
		if ci == nil {
			ci = newColumnIndex()
			e.index[pos] = ci
		}
		ci.add(lx, int(y), lz)
	} else if ci := e.index[pos]; ci != nil {
		ci.remove(lx, int(y), lz)
	}
	e.QueueColumn(pos)
}

// ProcessNext ticks the eligible queued column nearest to the player in
// chunk space, or reports Processed=false when the queue is empty or every
// entry is still inside its rate-limit window. now is the current wall
// clock in milliseconds; the caller owns the clock so ticks are exactly
// reproducible in tests.
func (e *Engine) ProcessNext(w World, now int64, player ColumnPos) Result {
	best := -1
	var bestDist int64
	for i, pos := range e.order {
		if last, ok := e.lastProcessed.Get(packColumn(pos)); ok && now-last < e.updateInterval {
			continue
		}
		dx, dz := pos.X-player.X, pos.Z-player.Z
		d := dx*dx + dz*dz
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best == -1 {
		return Result{}
	}

	pos := e.order[best]
	e.order = append(e.order[:best], e.order[best+1:]...)
	e.queued.Del(packColumn(pos))
	e.lastProcessed.Put(packColumn(pos), now)

	res := e.processColumn(w, pos)
	if res.Changed {
		e.QueueColumn(pos)
		e.QueueColumn(ColumnPos{pos.X + 1, pos.Z})
		e.QueueColumn(ColumnPos{pos.X - 1, pos.Z})
		e.QueueColumn(ColumnPos{pos.X, pos.Z + 1})
		e.QueueColumn(ColumnPos{pos.X, pos.Z - 1})
	}
	return res
}

// processColumn runs one tick of the cellular rule over a column's liquid
// index, y-descending.
func (e *Engine) processColumn(w World, pos ColumnPos) Result {
	res := Result{Processed: true, Pos: pos}
	ci := e.index[pos]
	if ci == nil || len(ci.cells) == 0 {
		return res
	}
	originX, originZ := pos.X*chunk.SX, pos.Z*chunk.SZ

	dirty := make(map[DirtyRef]struct{})

	for _, key := range ci.sorted() {
		lx, ly, lz := key.xyz()
		wx, wy, wz := originX+int64(lx), int64(ly), originZ+int64(lz)

		level, isWater := block.WaterLevel(w.Block(wx, wy, wz))
		if !isWater {
			// Stale entry: the cell no longer holds water. Drop it
			// silently; the index is rebuilt from block data on reload.
			ci.remove(lx, ly, lz)
			continue
		}

		level = e.flowDown(w, wx, wy, wz, level, dirty, &res)
		if level == 0 {
			continue
		}
		e.spread(w, wx, wy, wz, level, dirty, &res)
	}

	for ref := range dirty {
		res.Dirty = append(res.Dirty, ref)
	}
	return res
}

// flowDown applies the downward rule: the whole level drops into AIR below,
// or tops up partial water below, spilling the remainder back into the
// cell. Returns the level remaining at the original cell.
func (e *Engine) flowDown(w World, x, y, z int64, level block.LiquidLevel, dirty map[DirtyRef]struct{}, res *Result) block.LiquidLevel {
	if y == 0 {
		return level
	}
	below := w.Block(x, y-1, z)
	if below == block.Air {
		e.setWater(w, x, y, z, 0, dirty, res)
		e.setWater(w, x, y-1, z, level, dirty, res)
		return 0
	}
	if belowLevel, ok := block.WaterLevel(below); ok && belowLevel < block.LevelFull {
		space := block.LevelFull - belowLevel
		moved := level
		if moved > space {
			moved = space
		}
		e.setWater(w, x, y-1, z, belowLevel+moved, dirty, res)
		level -= moved
		e.setWater(w, x, y, z, level, dirty, res)
	}
	return level
}

// spreadDirs is the fixed order horizontal targets are filled in when the
// even split leaves a remainder.
var spreadDirs = [4][2]int64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// spread applies the horizontal even-split rule: the cell's
// level plus all accepting neighbours' levels is redistributed as evenly as
// possible, remainder units going to self first, then targets in fixed
// order. No write happens when the split leaves the cell's own level
// unchanged.
func (e *Engine) spread(w World, x, y, z int64, level block.LiquidLevel, dirty map[DirtyRef]struct{}, res *Result) {
	type target struct {
		dx, dz int64
		level  block.LiquidLevel
	}
	var targets []target
	total := int(level)
	for _, d := range spreadDirs {
		id := w.Block(x+d[0], y, z+d[1])
		if id == block.Air {
			targets = append(targets, target{d[0], d[1], 0})
			continue
		}
		if nl, ok := block.WaterLevel(id); ok && nl < level {
			targets = append(targets, target{d[0], d[1], nl})
			total += int(nl)
		}
	}
	if len(targets) == 0 {
		return
	}

	cells := 1 + len(targets)
	baseLevel := total / cells
	remainder := total - baseLevel*cells

	selfLevel := baseLevel
	if remainder > 0 {
		selfLevel++
		remainder--
	}
	if block.LiquidLevel(selfLevel) == level {
		return
	}

	e.setWater(w, x, y, z, block.LiquidLevel(selfLevel), dirty, res)
	for _, t := range targets {
		assigned := baseLevel
		if remainder > 0 {
			assigned++
			remainder--
		}
		if block.LiquidLevel(assigned) != t.level {
			e.setWater(w, x+t.dx, y, z+t.dz, block.LiquidLevel(assigned), dirty, res)
		}
	}
}

// setWater writes a water level (0 = AIR) at a world cell, maintaining the
// owning column's index and the tick's dirty set. Writes into a neighbour
// column land in that column's index and queue it.
func (e *Engine) setWater(w World, x, y, z int64, level block.LiquidLevel, dirty map[DirtyRef]struct{}, res *Result) {
	id := block.WaterBlockID(level)
	if !w.SetLiquid(x, y, z, id) {
		return
	}
	res.Changed = true

	pos := ColumnPos{x >> 5, z >> 5}
	lx, lz := int(x-pos.X*chunk.SX), int(z-pos.Z*chunk.SZ)
	ci := e.index[pos]
	if level == 0 {
		if ci != nil {
			ci.remove(lx, int(y), lz)
		}
	} else {
		if ci == nil {
			ci = newColumnIndex()
			e.index[pos] = ci
		}
		ci.add(lx, int(y), lz)
	}
	if pos != res.Pos {
		e.QueueColumn(pos)
	}
	dirty[DirtyRef{Col: pos, Sub: int(y) / chunk.SubH}] = struct{}{}
}
