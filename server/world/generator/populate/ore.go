package populate

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
	"github.com/voidreach/voxelcore/server/world/noise"
)

// Ore scatters clusters of each configured OreType through the column.
// Each cluster samples an ellipsoid "blob" between two random seed points
// rather than replacing single cells independently, which yields connected
// veins instead of salt-and-pepper scatter.
type Ore struct {
	Types []OreType
}

func (o Ore) Populate(g Grid, reg *block.Registry, r *noise.Random) {
	for _, ore := range o.Types {
		for i := 0; i < ore.ClusterCount; i++ {
			x := int(r.Range(0, chunk.SX-1))
			y := int(r.Range(int32(ore.MinHeight), int32(ore.MaxHeight)))
			z := int(r.Range(0, chunk.SZ-1))
			if g.Block(x, y, z) == ore.Replaces {
				ore.place(g, x, y, z, r)
			}
		}
	}
}

// OreType describes one vein material: what it replaces, how many clusters
// spawn per column, how large each cluster is, and the allowed y-range.
type OreType struct {
	Material, Replaces   block.ID
	ClusterCount         int
	ClusterSize          int
	MinHeight, MaxHeight int
}

func (o OreType) place(g Grid, x, y, z int, r *noise.Random) {
	size := float64(o.ClusterSize)
	vec := mgl64.Vec3{float64(x), float64(y), float64(z)}
	angle := r.Float64() * math.Pi
	offset := mgl64.Vec2{math.Cos(angle), math.Sin(angle)}.Mul(size / 8)

	x1, x2 := vec[0]+8+offset[0], vec[0]+8-offset[0]
	z1, z2 := vec[2]+8+offset[1], vec[2]+8-offset[1]
	y1, y2 := vec[1]+float64(r.Int31n(3))+2, vec[1]+float64(r.Int31n(3))+2

	for i := 0.0; i <= size; i++ {
		seedX := x1 + (x2-x1)*i/size
		seedY := y1 + (y2-y1)*i/size
		seedZ := z1 + (z2-z1)*i/size
		blobR := ((math.Sin(i*(math.Pi/size))+1)*r.Float64()*size/16 + 1) / 2

		startX, endX := int(seedX-blobR), int(seedX+blobR)
		startY, endY := int(seedY-blobR), int(seedY+blobR)
		startZ, endZ := int(seedZ-blobR), int(seedZ+blobR)

		for xx := startX; xx <= endX; xx++ {
			sizeX := (float64(xx) + 0.5 - seedX) / blobR
			sizeX *= sizeX
			if sizeX >= 1 {
				continue
			}
			for yy := startY; yy <= endY; yy++ {
				if yy <= 0 {
					continue
				}
				sizeY := (float64(yy) + 0.5 - seedY) / blobR
				sizeY *= sizeY
				if sizeX+sizeY >= 1 {
					continue
				}
				for zz := startZ; zz <= endZ; zz++ {
					sizeZ := (float64(zz) + 0.5 - seedZ) / blobR
					sizeZ *= sizeZ
					if sizeX+sizeY+sizeZ >= 1 {
						continue
					}
					if inBounds(xx, yy, zz) && g.Block(xx, yy, zz) == o.Replaces {
						g.SetBlock(xx, yy, zz, o.Material)
					}
				}
			}
		}
	}
}
