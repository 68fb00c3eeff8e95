package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voidreach/voxelcore/server/world/block"
)

// Atlas maps a block id and face to a UV rectangle on the texture atlas.
// The default atlas is a 16×16 tile grid; each block names one tile per
// face role (top, bottom, side), which covers every block in the built-in
// catalog.
type Atlas struct {
	tiles map[block.ID]tileSet
	// tileUV is the size of one tile in UV space (1/16 for the 16x16 grid).
	tileUV float32
}

type tileSet struct {
	top, bottom, side [2]int
}

// UVRect is a tile's texture-space rectangle, min corner and max corner.
type UVRect struct {
	Min, Max mgl32.Vec2
}

// NewAtlas returns the default 16×16 tile atlas for the built-in catalog.
// Blocks without an entry fall back to tile (0,0), which keeps meshing
// total over unknown ids instead of failing.
func NewAtlas() *Atlas {
	a := &Atlas{tiles: make(map[block.ID]tileSet), tileUV: 1.0 / 16}

	uniform := func(id block.ID, tx, ty int) {
		a.tiles[id] = tileSet{top: [2]int{tx, ty}, bottom: [2]int{tx, ty}, side: [2]int{tx, ty}}
	}

	uniform(block.Bedrock, 1, 1)
	uniform(block.Stone, 1, 0)
	uniform(block.Dirt, 2, 0)
	a.tiles[block.Grass] = tileSet{top: [2]int{0, 0}, bottom: [2]int{2, 0}, side: [2]int{3, 0}}
	uniform(block.Sand, 2, 1)
	uniform(block.Gravel, 3, 1)
	uniform(block.Ice, 3, 4)
	a.tiles[block.Snow] = tileSet{top: [2]int{2, 4}, bottom: [2]int{2, 0}, side: [2]int{4, 4}}

	a.tiles[block.OakLog] = tileSet{top: [2]int{5, 1}, bottom: [2]int{5, 1}, side: [2]int{4, 1}}
	uniform(block.OakLeaves, 4, 3)
	a.tiles[block.BirchLog] = tileSet{top: [2]int{5, 1}, bottom: [2]int{5, 1}, side: [2]int{5, 7}}
	uniform(block.BirchLeaves, 4, 3)
	a.tiles[block.SpruceLog] = tileSet{top: [2]int{5, 1}, bottom: [2]int{5, 1}, side: [2]int{4, 7}}
	uniform(block.SpruceLeaves, 5, 3)
	uniform(block.TallGrass, 7, 2)

	uniform(block.CoalOre, 2, 2)
	uniform(block.IronOre, 1, 2)
	uniform(block.GoldOre, 0, 2)
	uniform(block.LapisOre, 0, 10)
	uniform(block.DiamondOre, 2, 3)
	uniform(block.Torch, 0, 5)

	for _, id := range []block.ID{block.WaterQuarter, block.WaterHalf, block.WaterThreeQuarter, block.WaterFull} {
		uniform(id, 13, 12)
	}

	return a
}

// Rect returns the UV rectangle for the given block id and face.
func (a *Atlas) Rect(id block.ID, face block.Face) UVRect {
	ts := a.tiles[id]
	var tile [2]int
	switch face {
	case block.FaceUp:
		tile = ts.top
	case block.FaceDown:
		tile = ts.bottom
	default:
		tile = ts.side
	}
	u0 := float32(tile[0]) * a.tileUV
	v0 := float32(tile[1]) * a.tileUV
	return UVRect{
		Min: mgl32.Vec2{u0, v0},
		Max: mgl32.Vec2{u0 + a.tileUV, v0 + a.tileUV},
	}
}
