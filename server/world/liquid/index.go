package liquid

import (
	"sort"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
)

// ColumnPos addresses a chunk column, mirroring world.ChunkPos without
// importing package world (world imports liquid).
type ColumnPos struct {
	X, Z int64
}

// packColumn folds a column position into a single int64 key for the
// intintmap-backed dedup set. The low 32 bits of each axis are kept, which
// covers ±2^31 chunks, far beyond any reachable play area.
func packColumn(p ColumnPos) int64 {
	return int64(uint64(uint32(p.X))<<32 | uint64(uint32(p.Z)))
}

// cellKey is a column-local cell address: y<<10 | z<<5 | x.
type cellKey int32

func makeCellKey(x, y, z int) cellKey {
	return cellKey(y<<10 | z<<5 | x)
}

func (k cellKey) xyz() (x, y, z int) {
	return int(k) & 31, int(k) >> 10, (int(k) >> 5) & 31
}

// columnIndex is the liquid-position index of one column: the set of cells
// currently holding any water level. It is owned by the engine and mutated
// only on the tick thread.
type columnIndex struct {
	cells map[cellKey]struct{}
}

func newColumnIndex() *columnIndex {
	return &columnIndex{cells: make(map[cellKey]struct{})}
}

func (ci *columnIndex) add(x, y, z int)    { ci.cells[makeCellKey(x, y, z)] = struct{}{} }
func (ci *columnIndex) remove(x, y, z int) { delete(ci.cells, makeCellKey(x, y, z)) }

// sorted returns the index entries ordered y-descending (then z, x
// ascending for determinism), the scan order of the per-column tick.
func (ci *columnIndex) sorted() []cellKey {
	out := make([]cellKey, 0, len(ci.cells))
	for k := range ci.cells {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		_, yi, _ := out[i].xyz()
		_, yj, _ := out[j].xyz()
		if yi != yj {
			return yi > yj
		}
		return out[i] < out[j]
	})
	return out
}

// RebuildIndex rescans a column's block data and replaces its index, used
// after a column is loaded from disk; liquid positions are reconstructed
// from a block scan rather than persisted.
func (e *Engine) RebuildIndex(w World, pos ColumnPos) {
	ci := newColumnIndex()
	originX, originZ := pos.X*chunk.SX, pos.Z*chunk.SZ
	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			for y := 0; y < chunk.ColH; y++ {
				id := w.Block(originX+int64(x), int64(y), originZ+int64(z))
				if _, isWater := block.WaterLevel(id); isWater {
					ci.add(x, y, z)
				}
			}
		}
	}
	if len(ci.cells) == 0 {
		delete(e.index, pos)
		return
	}
	e.index[pos] = ci
}

// DropColumn discards a column's index and queue entries on unload.
func (e *Engine) DropColumn(pos ColumnPos) {
	delete(e.index, pos)
	key := packColumn(pos)
	e.queued.Del(key)
	e.lastProcessed.Del(key)
}
