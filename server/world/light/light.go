// Package light implements the dual-channel lighting engine: two
// independent 0..15 nibble channels (sky and block) propagated by a
// queue-based BFS over the 6-neighbourhood, with incremental re-light after
// block edits, cross-boundary stitching and a background full-column
// correctness pass.
//
// The engine operates on world-space coordinates through the View interface
// and never holds references to world state across calls; the world map
// stays the single owner of all voxel data.
package light

import (
	"log/slog"

	"github.com/voidreach/voxelcore/server/world/block"
)

// MaxLevel is the brightest light value either channel can hold.
const MaxLevel = 15

// Channel selects one of the two independent light channels.
type Channel uint8

const (
	// Sky is sunlight: sourced at level 15 from cells with direct sky
	// exposure.
	Sky Channel = iota
	// Block is emitted light: sourced from blocks with LightLevel > 0.
	Block
)

func (c Channel) String() string {
	if c == Sky {
		return "sky"
	}
	return "block"
}

// View is the voxel surface the engine reads and writes. Implementations
// return AIR/0 for cells in unloaded chunks and false from SetLight there,
// which bounds every flood-fill to resident data without the engine ever
// touching the chunk map itself.
type View interface {
	Block(x, y, z int64) block.ID
	Light(ch Channel, x, y, z int64) uint8
	// SetLight writes a light value and reports whether the cell is
	// resident. Values are clamped to [0, MaxLevel] by the storage layer.
	SetLight(ch Channel, x, y, z int64, v uint8) bool
}

// neighbours are the six cardinal offsets of the BFS.
var neighbours = [6][3]int64{
	{0, 1, 0}, {0, -1, 0}, {0, 0, -1}, {0, 0, 1}, {1, 0, 0}, {-1, 0, 0},
}

// Engine runs all light propagation. It owns only scratch queues; all voxel
// state lives behind the View passed to each call, so a single Engine is
// reused across every chunk without copying.
type Engine struct {
	reg *block.Registry
	log *slog.Logger

	q      queue
	dark   queue
	reseed []node
}

// NewEngine returns an Engine resolving block properties through reg. If log
// is nil, slog.Default() is used.
func NewEngine(reg *block.Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{reg: reg, log: log}
}

// propagate runs the BFS flood-fill from the given seed cells. Each seed is
// enqueued at the level currently stored in the view (callers write sources
// before propagating). For each popped cell, every neighbour receives
// L' = L - 1 - neighbour.lightBlocking and is enqueued when that improves on
// its stored value. FIFO discipline makes the outcome independent of visit
// order.
func (e *Engine) propagate(v View, ch Channel, seeds []node) {
	e.q.Reset()
	for _, s := range seeds {
		e.q.Push(s)
	}
	e.run(v, ch)
}

// PropagateFrom floods outward from a single seed cell at its stored level.
func (e *Engine) PropagateFrom(v View, ch Channel, x, y, z int64) {
	e.propagate(v, ch, []node{{x, y, z, v.Light(ch, x, y, z)}})
}

func (e *Engine) run(v View, ch Channel) {
	for {
		n, ok := e.q.Pop()
		if !ok {
			return
		}
		if n.level <= 1 {
			continue
		}
		for _, d := range neighbours {
			nx, ny, nz := n.x+d[0], n.y+d[1], n.z+d[2]
			props := e.reg.ByID(v.Block(nx, ny, nz))
			spread := int(n.level) - 1 - int(props.LightBlocking)
			if spread <= 0 {
				continue
			}
			if uint8(spread) <= v.Light(ch, nx, ny, nz) {
				continue
			}
			if !v.SetLight(ch, nx, ny, nz, uint8(spread)) {
				continue
			}
			e.q.Push(node{nx, ny, nz, uint8(spread)})
		}
	}
}

// Remove runs the clear-and-recalculate pass after a light
// source (or lit cell) at (x,y,z) with the given old level disappears. A
// darkening BFS clears every cell whose value could have originated at the
// removed source by level-decrement chain, collecting the frontier cells
// whose value is too bright to have come from it; those act as the re-seed
// set for a standard re-propagation afterwards.
func (e *Engine) Remove(v View, ch Channel, x, y, z int64, oldLevel uint8) {
	if oldLevel == 0 {
		return
	}
	e.dark.Reset()
	e.reseed = e.reseed[:0]

	v.SetLight(ch, x, y, z, 0)
	e.dark.Push(node{x, y, z, oldLevel})

	for {
		n, ok := e.dark.Pop()
		if !ok {
			break
		}
		for _, d := range neighbours {
			nx, ny, nz := n.x+d[0], n.y+d[1], n.z+d[2]
			stored := v.Light(ch, nx, ny, nz)
			if stored == 0 {
				continue
			}
			if stored < n.level {
				// Could only have been lit through the removed chain:
				// darken and keep walking outward.
				if v.SetLight(ch, nx, ny, nz, 0) {
					e.dark.Push(node{nx, ny, nz, stored})
				}
				continue
			}
			// Brighter than the clearing wavefront: another source feeds
			// this cell, so it re-seeds the repair flood.
			e.reseed = append(e.reseed, node{nx, ny, nz, stored})
		}
	}

	// A collected cell may have been darkened afterwards through a
	// different chain; re-read its stored level so the repair flood never
	// spreads a value that no longer exists.
	live := e.reseed[:0]
	for _, n := range e.reseed {
		if l := v.Light(ch, n.x, n.y, n.z); l > 1 {
			live = append(live, node{n.x, n.y, n.z, l})
		}
	}
	e.reseed = live
	e.propagate(v, ch, e.reseed)
}

// PropagateIntoExposed pulls light into a newly exposed air cell from its
// six neighbours on both channels, used when an opaque block is mined.
func (e *Engine) PropagateIntoExposed(v View, x, y, z int64) {
	blocking := int(e.reg.ByID(v.Block(x, y, z)).LightBlocking)
	for _, ch := range [2]Channel{Sky, Block} {
		best := 0
		for _, d := range neighbours {
			if l := int(v.Light(ch, x+d[0], y+d[1], z+d[2])); l > best {
				best = l
			}
		}
		level := best - 1 - blocking
		if level <= 0 {
			continue
		}
		if v.SetLight(ch, x, y, z, uint8(level)) {
			e.PropagateFrom(v, ch, x, y, z)
		}
	}
}

// OnBlockChanged is the single incremental-relight entry point invoked by
// the world's setBlock. oldID and
// newID are the cell's block before and after the edit; skyAbove reports
// whether the cell had direct sky exposure before the edit (sky light 15
// with nothing opaque above), which the caller knows from its heightmap.
func (e *Engine) OnBlockChanged(v View, x, y, z int64, oldID, newID block.ID, skyAbove bool) {
	oldProps, newProps := e.reg.ByID(oldID), e.reg.ByID(newID)

	// Emitter removed (or replaced by a dimmer block): darken its cone.
	if oldProps.LightLevel > newProps.LightLevel {
		e.Remove(v, Block, x, y, z, oldProps.LightLevel)
	}
	// Emitter placed: write the source level and flood outward.
	if newProps.LightLevel > 0 && newProps.LightLevel > v.Light(Block, x, y, z) {
		v.SetLight(Block, x, y, z, newProps.LightLevel)
		e.PropagateFrom(v, Block, x, y, z)
	}

	switch {
	case oldProps.IsOpaque && !newProps.IsOpaque:
		// Opaque block mined: pull light back in from the neighbours and,
		// if the cell is now under open sky, restore the direct-sky column.
		if skyAbove || v.Light(Sky, x, y+1, z) == MaxLevel {
			e.restoreSkyColumn(v, x, y, z)
		}
		e.PropagateIntoExposed(v, x, y, z)

	case !oldProps.IsOpaque && newProps.IsOpaque:
		// Opaque block placed: the cell itself goes dark, and if it had
		// direct sky access, everything under it loses its 15-column.
		oldSky, oldBlk := v.Light(Sky, x, y, z), v.Light(Block, x, y, z)
		hadDirectSky := oldSky == MaxLevel && skyAbove
		v.SetLight(Sky, x, y, z, 0)
		v.SetLight(Block, x, y, z, 0)
		if oldBlk > 0 && newProps.LightLevel == 0 {
			e.Remove(v, Block, x, y, z, oldBlk)
		}
		if hadDirectSky {
			e.clearSkyColumn(v, x, y-1, z)
		} else if oldSky > 0 {
			e.Remove(v, Sky, x, y, z, oldSky)
		}

	case oldProps.LightBlocking != newProps.LightBlocking:
		// Same opacity class but different attenuation (e.g. leaves →
		// glass): cheapest correct repair is remove-then-refill on both
		// channels around the cell.
		if s := v.Light(Sky, x, y, z); s > 0 {
			e.Remove(v, Sky, x, y, z, s)
		}
		if b := v.Light(Block, x, y, z); b > 0 {
			e.Remove(v, Block, x, y, z, b)
		}
		e.PropagateIntoExposed(v, x, y, z)
	}
}

// restoreSkyColumn re-seeds sky=15 downward from (x,y,z) until an opaque
// block, then floods horizontally from every reseeded cell.
func (e *Engine) restoreSkyColumn(v View, x, y, z int64) {
	seeds := make([]node, 0, 16)
	for cy := y; ; cy-- {
		props := e.reg.ByID(v.Block(x, cy, z))
		if props.IsOpaque {
			break
		}
		level := uint8(MaxLevel)
		if props.LightBlocking > 0 {
			// Attenuating but non-opaque cell (water, leaves): the column
			// below it is no longer direct sky.
			if !v.SetLight(Sky, x, cy, z, level) {
				break
			}
			seeds = append(seeds, node{x, cy, z, level})
			break
		}
		if !v.SetLight(Sky, x, cy, z, level) {
			break
		}
		seeds = append(seeds, node{x, cy, z, level})
	}
	e.propagate(v, Sky, seeds)
}

// clearSkyColumn clears direct sky light from (x,y,z) downward, then runs a
// darkening repair for each cleared cell so horizontally-fed light around
// the column survives the clear.
func (e *Engine) clearSkyColumn(v View, x, y, z int64) {
	for cy := y; ; cy-- {
		if v.Light(Sky, x, cy, z) != MaxLevel {
			break
		}
		if e.reg.ByID(v.Block(x, cy, z)).IsOpaque {
			break
		}
		e.Remove(v, Sky, x, cy, z, MaxLevel)
		if v.Light(Sky, x, cy, z) == MaxLevel {
			// The repair flood re-derived a full-strength value, meaning
			// this cell is lit from elsewhere; everything below it is fed
			// through it and needs no further clearing.
			break
		}
	}
}
