package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/voidreach/voxelcore/server/world/block"
)

// RaycastHit describes the first solid block a ray intersects.
type RaycastHit struct {
	Pos BlockPos
	// Face is the side of the block the ray entered through.
	Face     block.Face
	Distance float64
	// Point is origin + dir·distance, computed once on hit.
	Point mgl64.Vec3
}

// tDeltaSentinel stands in for 1/0 on axes the ray never moves along.
const tDeltaSentinel = 1e30

// Raycast walks the voxel grid from origin along dir (assumed unit length)
// using integer DDA and returns the first solid block within
// maxDistance, or ok=false. The walk bails when the ray leaves the world's
// vertical range with no way back in, and is bounded by 3·maxDistance cell
// steps in any case.
func (w *World) Raycast(origin, dir mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	x := int64(math.Floor(origin.X()))
	y := int64(math.Floor(origin.Y()))
	z := int64(math.Floor(origin.Z()))

	stepX, tMaxX, tDeltaX := axisSetup(origin.X(), dir.X())
	stepY, tMaxY, tDeltaY := axisSetup(origin.Y(), dir.Y())
	stepZ, tMaxZ, tDeltaZ := axisSetup(origin.Z(), dir.Z())

	// Entry faces: the face hit is the opposite side of the step direction.
	faceX, faceY, faceZ := block.FaceWest, block.FaceDown, block.FaceNorth
	if stepX < 0 {
		faceX = block.FaceEast
	}
	if stepY < 0 {
		faceY = block.FaceUp
	}
	if stepZ < 0 {
		faceZ = block.FaceSouth
	}

	maxSteps := int(3*maxDistance) + 1
	var face block.Face
	var dist float64

	for step := 0; step < maxSteps; step++ {
		if w.solidAt(x, y, z) {
			if step == 0 {
				// Ray starts inside a solid block; report it at zero
				// distance through the vertical entry face.
				face = faceY
				dist = 0
			}
			return RaycastHit{
				Pos:      BlockPos{x, y, z},
				Face:     face,
				Distance: dist,
				Point:    origin.Add(dir.Mul(dist)),
			}, true
		}

		// Advance along the axis whose boundary is nearest.
		switch {
		case tMaxX <= tMaxY && tMaxX <= tMaxZ:
			dist = tMaxX
			x += stepX
			tMaxX += tDeltaX
			face = faceX
		case tMaxY <= tMaxZ:
			dist = tMaxY
			y += stepY
			tMaxY += tDeltaY
			face = faceY
		default:
			dist = tMaxZ
			z += stepZ
			tMaxZ += tDeltaZ
			face = faceZ
		}

		if dist >= maxDistance {
			return RaycastHit{}, false
		}
		if (y < 0 && stepY <= 0) || (y >= ColH && stepY >= 0) {
			// Left the world height range with no way back in.
			return RaycastHit{}, false
		}
	}
	return RaycastHit{}, false
}

// axisSetup precomputes one axis' DDA state: step sign, distance along the
// ray to the first voxel boundary, and distance between successive
// boundaries.
func axisSetup(origin, dir float64) (step int64, tMax, tDelta float64) {
	if dir > 0 {
		step = 1
		tDelta = 1 / dir
		tMax = (math.Floor(origin) + 1 - origin) * tDelta
	} else if dir < 0 {
		step = -1
		tDelta = -1 / dir
		tMax = (origin - math.Floor(origin)) * tDelta
	} else {
		step = 0
		tDelta = tDeltaSentinel
		tMax = tDeltaSentinel
	}
	return step, tMax, tDelta
}

func (w *World) solidAt(x, y, z int64) bool {
	return w.conf.Registry.ByID(w.GetBlock(BlockPos{x, y, z})).IsSolid
}
