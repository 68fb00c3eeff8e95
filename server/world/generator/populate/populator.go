// Package populate implements the per-biome decoration passes (trees, tall
// grass, ore veins) that run after terrain fill during generation.
// Populators are pure block writes and must not query anything outside the
// column they are decorating; Grid's coordinate space enforces that by
// construction (column-local only).
package populate

import (
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/noise"
)

// Grid is the column-local read/write surface a Populator is allowed to
// touch: x, z in [0, 32) and y spanning the whole column height. It is
// satisfied by *world.Column without populate needing to import package
// world (which would create an import cycle, since world's Generator
// interface is implemented by package generator, which imports populate).
type Grid interface {
	Block(x, y, z int) block.ID
	SetBlock(x, y, z int, id block.ID) bool
}

// Populator decorates an already-terrain-filled column in place.
type Populator interface {
	Populate(g Grid, reg *block.Registry, r *noise.Random)
}
