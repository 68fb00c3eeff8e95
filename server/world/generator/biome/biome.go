// Package biome defines the biome catalog and region-selection logic used
// by the generation pipeline: the Biome interface, its grassy/sandy/snowy
// base embeds, and the deterministic region selector.
package biome

import (
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/generator/populate"
	"github.com/voidreach/voxelcore/server/world/noise"
)

// Biome ids, stable across saves.
type ID uint8

const (
	IDPlains ID = iota
	IDDesert
	IDForest
	IDBirchForest
	IDTaiga
	IDIcePlains
	IDMountains
	IDSmallMountains
	IDOcean
	IDRiver
	IDSwamp
)

// CaveSettings configures the three cave sub-passes (spaghetti tunnels,
// cheese chambers, surface entrances). All thresholds operate on noise in
// [-1, 1].
type CaveSettings struct {
	Enabled bool

	SpaghettiCenterY    int
	SpaghettiHalfWidth  int
	SpaghettiThreshold  float64

	CheeseMinY, CheeseMaxY int
	CheeseThreshold        float64

	EntranceMinWidth int
}

// Feature is a biome-scoped block-writing pass that runs after terrain fill
// and before decoration populators. Unlike a
// Populator, a Feature samples noise directly rather than placing discrete
// jittered objects.
type Feature interface {
	Apply(g populate.Grid, reg *block.Registry, n *noise.Simplex, originX, originZ int64)
}

// CliffFeature overlays additional stone up to MaxHeight wherever 2D noise
// at (originX+x, originZ+z) exceeds Threshold.
type CliffFeature struct {
	Scale     float64
	Threshold float64
	MaxHeight int
}

func (f CliffFeature) Apply(g populate.Grid, reg *block.Registry, n *noise.Simplex, originX, originZ int64) {
	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			v := n.Noise2D(float64(originX+int64(x))*f.Scale, float64(originZ+int64(z))*f.Scale)
			if v <= f.Threshold {
				continue
			}
			for y := 0; y <= f.MaxHeight; y++ {
				if g.Block(x, y, z) == block.Air {
					g.SetBlock(x, y, z, block.Stone)
				}
			}
		}
	}
}

// Biome is one entry of the world-gen catalog: the terrain recipe, cave
// settings, feature list and decoration populators shared by every column
// whose region hashes to it.
type Biome interface {
	ID() ID
	Elevation() (min, max int)
	Temperature() float64
	Rainfall() float64

	// SurfaceBlock, SubsurfaceBlock, BaseBlock and SubsurfaceDepth are the
	// flat terrain recipe, used whenever GroundCover is empty.
	SurfaceBlock() block.ID
	SubsurfaceBlock() block.ID
	BaseBlock() block.ID
	SubsurfaceDepth() int

	// GroundCover, when non-empty, overrides the flat recipe with an
	// ordered list of blocks applied downward from the surface height
	// (e.g. Ocean's bed of five gravel layers).
	GroundCover() []block.ID

	CaveSettings() CaveSettings
	Features() []Feature
	Populators() []populate.Populator
}

// base supplies the stone-flat default recipe and no decoration, meant to
// be embedded by biomes that only override GroundCover (Ocean, River).
type base struct{}

func (base) SurfaceBlock() block.ID      { return block.Stone }
func (base) SubsurfaceBlock() block.ID   { return block.Stone }
func (base) BaseBlock() block.ID         { return block.Stone }
func (base) SubsurfaceDepth() int        { return 0 }
func (base) GroundCover() []block.ID     { return nil }
func (base) CaveSettings() CaveSettings  { return CaveSettings{} }
func (base) Features() []Feature         { return nil }

// grassy is the flat recipe shared by Plains, Forest, BirchForest,
// Mountains, SmallMountains and Swamp: grass over dirt over stone, caves
// enabled with the default spaghetti/cheese bands (Swamp overrides
// CaveSettings to disable caves).
type grassy struct{ base }

func (grassy) SurfaceBlock() block.ID    { return block.Grass }
func (grassy) SubsurfaceBlock() block.ID { return block.Dirt }
func (grassy) BaseBlock() block.ID       { return block.Stone }
func (grassy) SubsurfaceDepth() int      { return 3 }
func (grassy) CaveSettings() CaveSettings {
	return defaultCaves
}

// sandy is Desert's flat recipe: sand all the way down to the subsurface
// depth, stone below.
type sandy struct{ base }

func (sandy) SurfaceBlock() block.ID    { return block.Sand }
func (sandy) SubsurfaceBlock() block.ID { return block.Sand }
func (sandy) BaseBlock() block.ID       { return block.Stone }
func (sandy) SubsurfaceDepth() int      { return 4 }
func (sandy) CaveSettings() CaveSettings {
	return defaultCaves
}

// snowy is Taiga/IcePlains' flat recipe: a snow cap over dirt over stone.
type snowy struct{ base }

func (snowy) SurfaceBlock() block.ID    { return block.Snow }
func (snowy) SubsurfaceBlock() block.ID { return block.Dirt }
func (snowy) BaseBlock() block.ID       { return block.Stone }
func (snowy) SubsurfaceDepth() int      { return 3 }
func (snowy) CaveSettings() CaveSettings {
	return defaultCaves
}

// defaultCaves is the cave configuration shared by the land biomes. Ocean
// and River opt out by returning the zero CaveSettings from base; Swamp
// returns the zero CaveSettings from its own override.
var defaultCaves = CaveSettings{
	Enabled:            true,
	SpaghettiCenterY:   40,
	SpaghettiHalfWidth: 10,
	SpaghettiThreshold: 0.6,
	CheeseMinY:         8,
	CheeseMaxY:         32,
	CheeseThreshold:    0.75,
	EntranceMinWidth:   2,
}
