package generator

import (
	"math"

	"github.com/voidreach/voxelcore/server/world"
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/generator/biome"
)

// carveCaves runs the spaghetti and cheese sub-passes over the whole
// column: narrow ridged-noise tunnels where two layers agree, and large
// rounded voids where a single noise clears its threshold.
func (p *Pipeline) carveCaves(col *world.Column, cave biome.CaveSettings, originX, originZ int64) {
	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			wx, wz := float64(originX+int64(x)), float64(originZ+int64(z))
			for y := 1; y < world.ColH-1; y++ {
				wy := float64(y)

				if abs(y-cave.SpaghettiCenterY) <= cave.SpaghettiHalfWidth {
					a := ridged(p.spaghettiA.Fractal3D(wx, wy, wz))
					b := ridged(p.spaghettiB.Fractal3D(wx, wy, wz))
					if a > cave.SpaghettiThreshold && b > cave.SpaghettiThreshold {
						carveCell(col, x, y, z)
						continue
					}
				}

				if y >= cave.CheeseMinY && y <= cave.CheeseMaxY {
					if p.cheeseNoise.Fractal3D(wx, wy, wz) > cave.CheeseThreshold {
						carveCell(col, x, y, z)
					}
				}
			}
		}
	}
}

// carveEntrances picks one deterministic (x,z) in the column via a surface
// noise scan and carves a vertical shaft from the surface down until it
// meets already-carved air, widened to EntranceMinWidth. Runs at most once
// per column, guarded by the caller via Column.CaveEntrancesGenerated.
func (p *Pipeline) carveEntrances(col *world.Column, cave biome.CaveSettings, originX, originZ int64) {
	bestX, bestZ, bestV := 0, 0, math.Inf(-1)
	for x := 0; x < world.SX; x++ {
		for z := 0; z < world.SZ; z++ {
			v := p.entranceNoise.Fractal2D(float64(originX+int64(x)), float64(originZ+int64(z)))
			if v > bestV {
				bestV, bestX, bestZ = v, x, z
			}
		}
	}

	surface := col.HighestAt(bestX, bestZ)
	if surface < 1 {
		return
	}

	half := cave.EntranceMinWidth / 2
	for y := surface; y > 0; y-- {
		metAir := false
		for dx := -half; dx <= half; dx++ {
			for dz := -half; dz <= half; dz++ {
				x, z := bestX+dx, bestZ+dz
				if x < 0 || x >= world.SX || z < 0 || z >= world.SZ {
					continue
				}
				if col.Block(x, y, z) == block.Air {
					metAir = true
				}
				carveCell(col, x, y, z)
			}
		}
		if metAir {
			break
		}
	}
}

func carveCell(col *world.Column, x, y, z int) {
	if col.Block(x, y, z) == block.Bedrock {
		return
	}
	col.SetBlockDuringGeneration(x, y, z, block.Air)
}

// ridged turns raw simplex noise in [-1,1] into a ridged signal in [0,1]
// peaking at zero-crossings, the standard "spaghetti tunnel" shaping
// function.
func ridged(v float64) float64 {
	return 1 - math.Abs(v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
