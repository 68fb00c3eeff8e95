// Package generator implements the world.Generator interface: per-column
// terrain fill, biome blending, features, caves, decoration and skylight
// seeding. All noise generators are built once in NewPipeline; per-call
// state stays local so a single Pipeline serves every worker goroutine.
package generator

import (
	"log/slog"

	"github.com/voidreach/voxelcore/server/world"
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/generator/biome"
	"github.com/voidreach/voxelcore/server/world/generator/populate"
	"github.com/voidreach/voxelcore/server/world/noise"
)

// smoothRadius sets the biome blend reach: the Gaussian kernel spans
// (2*smoothRadius+1)^2 neighbouring columns.
const smoothRadius = 2

// gaussianKernel weights the biome elevation blend; the centre column
// dominates and diagonal neighbours taper off.
var gaussianKernel = [5][5]float64{
	{1.4715177646858, 2.141045714076, 2.4261226388505, 2.141045714076, 1.4715177646858},
	{2.141045714076, 3.1152031322856, 3.5299876103384, 3.1152031322856, 2.141045714076},
	{2.4261226388505, 3.5299876103384, 4, 3.5299876103384, 2.4261226388505},
	{2.141045714076, 3.1152031322856, 3.5299876103384, 3.1152031322856, 2.141045714076},
	{1.4715177646858, 2.141045714076, 2.4261226388505, 2.141045714076, 1.4715177646858},
}

// Pipeline generates columns deterministically from a seed and position. A
// Pipeline is built once at startup and shared read-only across worker
// goroutines; all per-call state (the seeded *noise.Random driving
// placement) is local to the call.
type Pipeline struct {
	seed int64

	heightNoise   *noise.Simplex
	cliffNoise    *noise.Simplex
	spaghettiA    *noise.Simplex
	spaghettiB    *noise.Simplex
	cheeseNoise   *noise.Simplex
	entranceNoise *noise.Simplex

	selector *biome.Selector
	reg      *block.Registry
	seaLevel int
	log      *slog.Logger
}

// Config holds the tunables a Pipeline needs beyond the seed, all sourced
// from server/config's World section.
type Config struct {
	Seed     int64
	SeaLevel int
	Catalog  []biome.Biome
}

// NewPipeline builds a Pipeline. reg must already be frozen.
func NewPipeline(cfg Config, reg *block.Registry, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = biome.DefaultCatalog()
	}
	r := noise.NewRandom(cfg.Seed)
	p := &Pipeline{
		seed:          cfg.Seed,
		heightNoise:   noise.NewSimplex(r, 4, 0.5, 1.0/96),
		cliffNoise:    noise.NewSimplex(r, 3, 0.5, 1.0/48),
		spaghettiA:    noise.NewSimplex(r, 1, 0.5, 1.0/24),
		spaghettiB:    noise.NewSimplex(r, 1, 0.5, 1.0/24),
		cheeseNoise:   noise.NewSimplex(r, 2, 0.5, 1.0/40),
		entranceNoise: noise.NewSimplex(r, 1, 0.5, 1.0/20),
		selector:      biome.NewSelector(cfg.Catalog, cfg.Seed),
		reg:           reg,
		seaLevel:      cfg.SeaLevel,
		log:           log,
	}
	return p
}

// GenerateColumn implements world.Generator. It is safe to call
// concurrently from multiple worker goroutines: col is exclusively owned
// by the caller for the duration of the call and Pipeline touches no
// mutable state of its own.
func (p *Pipeline) GenerateColumn(pos world.ChunkPos, col *world.Column) {
	originX, originZ := pos.X*world.SX, pos.Z*world.SZ

	var cols [world.SX][world.SZ]biome.Biome
	biomeCache := make(map[[2]int64]biome.Biome, (2*smoothRadius+1)*(2*smoothRadius+1)*4)

	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			b := p.selector.Pick(originX+int64(x), originZ+int64(z))
			cols[x][z] = b

			minSum, maxSum, weightSum := 0.0, 0.0, 0.0
			for sx := -smoothRadius; sx <= smoothRadius; sx++ {
				for sz := -smoothRadius; sz <= smoothRadius; sz++ {
					weight := gaussianKernel[sx+smoothRadius][sz+smoothRadius]

					var adjacent biome.Biome
					if sx == 0 && sz == 0 {
						adjacent = b
					} else {
						key := [2]int64{originX + int64(x) + int64(sx), originZ + int64(z) + int64(sz)}
						if cached, ok := biomeCache[key]; ok {
							adjacent = cached
						} else {
							adjacent = p.selector.Pick(key[0], key[1])
							biomeCache[key] = adjacent
						}
					}

					lo, hi := adjacent.Elevation()
					minSum += float64(lo) * weight
					maxSum += float64(hi) * weight
					weightSum += weight
				}
			}
			minSum /= weightSum
			maxSum /= weightSum

			p.fillColumn(col, x, z, b, minSum, maxSum, originX, originZ)
		}
	}

	center := cols[world.SX/2][world.SZ/2]

	for _, feat := range center.Features() {
		feat.Apply(col, p.reg, p.cliffNoise, originX, originZ)
	}

	if cave := center.CaveSettings(); cave.Enabled {
		p.carveCaves(col, cave, originX, originZ)
		if !col.CaveEntrancesGenerated() {
			p.carveEntrances(col, cave, originX, originZ)
			col.MarkCaveEntrancesGenerated()
		}
	}

	populators := append([]populate.Populator{defaultOres}, center.Populators()...)
	seedMix := int64(0xdeadbeef) ^ (pos.X << 8) ^ pos.Z ^ p.seed
	r := noise.NewRandom(seedMix)
	for _, pop := range populators {
		pop.Populate(col, p.reg, r)
	}

	p.seedSkylight(col)
	col.RebuildHeightmap()
}

// defaultOres is the fixed ore table run for every biome.
var defaultOres = populate.Ore{Types: []populate.OreType{
	{Material: block.CoalOre, Replaces: block.Stone, ClusterCount: 20, ClusterSize: 16, MinHeight: 0, MaxHeight: 128},
	{Material: block.IronOre, Replaces: block.Stone, ClusterCount: 20, ClusterSize: 8, MinHeight: 0, MaxHeight: 64},
	{Material: block.LapisOre, Replaces: block.Stone, ClusterCount: 1, ClusterSize: 6, MinHeight: 0, MaxHeight: 32},
	{Material: block.GoldOre, Replaces: block.Stone, ClusterCount: 2, ClusterSize: 8, MinHeight: 0, MaxHeight: 32},
	{Material: block.DiamondOre, Replaces: block.Stone, ClusterCount: 1, ClusterSize: 7, MinHeight: 0, MaxHeight: 16},
}}

// fillColumn lays down the flat terrain recipe (base, subsurface, surface)
// and floods air below sea level, then applies GroundCover when the biome
// declares one, falling back to the recipe's own surface/subsurface split
// otherwise.
func (p *Pipeline) fillColumn(col *world.Column, x, z int, b biome.Biome, minSum, maxSum float64, originX, originZ int64) {
	amplitude := (maxSum - minSum) / 2
	offset := minSum + amplitude

	n := p.heightNoise.Fractal2D(float64(originX+int64(x)), float64(originZ+int64(z)))
	h := int(offset + amplitude*n)
	if h < 1 {
		h = 1
	}
	if h > world.ColH-2 {
		h = world.ColH - 2
	}

	depth := b.SubsurfaceDepth()
	col.SetBlockDuringGeneration(x, 0, z, block.Bedrock)
	for y := 1; y < h; y++ {
		if y >= h-depth {
			col.SetBlockDuringGeneration(x, y, z, b.SubsurfaceBlock())
		} else {
			col.SetBlockDuringGeneration(x, y, z, b.BaseBlock())
		}
	}
	col.SetBlockDuringGeneration(x, h, z, b.SurfaceBlock())

	for y := h + 1; y <= p.seaLevel; y++ {
		col.SetBlockDuringGeneration(x, y, z, block.WaterFull)
	}

	if cover := b.GroundCover(); len(cover) > 0 {
		p.applyGroundCover(col, x, z, h, cover)
	}
}

// applyGroundCover overlays cover downward from the surface height,
// skipping liquid cells.
func (p *Pipeline) applyGroundCover(col *world.Column, x, z, top int, cover []block.ID) {
	for i, id := range cover {
		y := top - i
		if y < 0 {
			break
		}
		if _, isWater := block.WaterLevel(col.Block(x, y, z)); isWater {
			continue
		}
		col.SetBlockDuringGeneration(x, y, z, id)
	}
}

// seedSkylight runs a top-down scan per column that seeds sky=15 above the
// surface and attenuates by lightBlocking on the way down. This seeds the
// *source* light only; horizontal propagation is the lighting engine's job
// (world/light), run after generation.
func (p *Pipeline) seedSkylight(col *world.Column) {
	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			level := uint8(15)
			for y := world.ColH - 1; y >= 0; y-- {
				id := col.Block(x, y, z)
				props := p.reg.ByID(id)
				if level > props.LightBlocking {
					level -= props.LightBlocking
				} else {
					level = 0
				}
				sub, ly, ok := subLocal(y)
				if ok {
					if sc := col.SubChunk(sub); sc != nil {
						sc.SetSkyLight(x, ly, z, level)
					}
				}
				if level == 0 && props.IsOpaque {
					break
				}
			}
		}
	}
}

func subLocal(y int) (sub, local int, ok bool) {
	if y < 0 || y >= world.ColH {
		return 0, 0, false
	}
	return y / world.SubH, y % world.SubH, true
}
