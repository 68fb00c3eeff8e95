// Package mesh implements the per-sub-chunk face-exposure meshing stage: a
// visibility pass over the 32×32×64 volume that emits merged
// vertex buffers (positions, normals, UVs, per-vertex light and face shade),
// split into an opaque and a transparent pass so the renderer can draw them
// in order.
package mesh

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/chunk"
)

// Sampler provides block and light data for cells outside the sub-chunk
// being meshed: the six boundary slabs of its neighbours. Coordinates are
// sub-chunk-local and exactly one step out of range on one axis. ok=false
// means the neighbour sub-chunk is not resident; the mesher then treats the
// cell as AIR with full light, so faces at unloaded seams are emitted and
// lit rather than culled.
type Sampler func(x, y, z int) (id block.ID, sky, blk uint8, ok bool)

// Buffers is one draw bucket: parallel per-vertex arrays plus a triangle
// index list, subdivided into material groups for atlas-free renderers.
type Buffers struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	// Light is max(sky, block) sampled at the air cell the face looks into.
	Light []uint8
	// Shade is the fixed per-face brightness factor (top 1.0, bottom 0.5,
	// ±X 0.9, ±Z 0.8), applied to the vertex colour after light.
	Shade   []float32
	Indices []uint32
	Groups  []Group
}

// Group is a contiguous index range drawn with a single material.
type Group struct {
	Material   block.ID
	IndexStart int
	IndexCount int
}

// Empty reports whether the buffer holds no geometry.
func (b *Buffers) Empty() bool { return len(b.Indices) == 0 }

// Mesh is the output of meshing one sub-chunk: two separate buffers so the
// renderer draws opaque first and transparent (water, foliage, ice) after.
type Mesh struct {
	Opaque      Buffers
	Transparent Buffers
}

// Empty reports whether the mesh holds no geometry at all.
func (m *Mesh) Empty() bool { return m.Opaque.Empty() && m.Transparent.Empty() }

// faceShade is the fixed per-face shading factor table.
var faceShade = [6]float32{
	block.FaceUp:    1.0,
	block.FaceDown:  0.5,
	block.FaceNorth: 0.8,
	block.FaceSouth: 0.8,
	block.FaceEast:  0.9,
	block.FaceWest:  0.9,
}

// faceDir is the unit offset each face looks into. North is -Z, East is +X.
var faceDir = [6][3]int{
	block.FaceUp:    {0, 1, 0},
	block.FaceDown:  {0, -1, 0},
	block.FaceNorth: {0, 0, -1},
	block.FaceSouth: {0, 0, 1},
	block.FaceEast:  {1, 0, 0},
	block.FaceWest:  {-1, 0, 0},
}

// faceCorners are the four corner offsets of each face quad on a unit cube,
// wound counter-clockwise as seen from outside the cube.
var faceCorners = [6][4][3]float32{
	block.FaceUp:    {{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}},
	block.FaceDown:  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	block.FaceNorth: {{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	block.FaceSouth: {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	block.FaceEast:  {{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	block.FaceWest:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
}

// Mesher builds sub-chunk meshes. It is stateless apart from the shared
// read-only registry and atlas, so one Mesher serves every worker goroutine.
type Mesher struct {
	reg   *block.Registry
	atlas *Atlas
}

// NewMesher returns a Mesher resolving block properties through reg and UV
// regions through atlas. A nil atlas gets the default 16×16 grid.
func NewMesher(reg *block.Registry, atlas *Atlas) *Mesher {
	if atlas == nil {
		atlas = NewAtlas()
	}
	return &Mesher{reg: reg, atlas: atlas}
}

// builder accumulates one material's quads before final concatenation.
type builder struct {
	Buffers
}

func (b *builder) quad(corners [4]mgl32.Vec3, normal mgl32.Vec3, uv UVRect, light uint8, shade float32) {
	base := uint32(len(b.Positions))
	uvs := [4]mgl32.Vec2{
		{uv.Min[0], uv.Max[1]},
		{uv.Max[0], uv.Max[1]},
		{uv.Max[0], uv.Min[1]},
		{uv.Min[0], uv.Min[1]},
	}
	for i := 0; i < 4; i++ {
		b.Positions = append(b.Positions, corners[i])
		b.Normals = append(b.Normals, normal)
		b.UVs = append(b.UVs, uvs[i])
		b.Light = append(b.Light, light)
		b.Shade = append(b.Shade, shade)
	}
	b.Indices = append(b.Indices, base, base+1, base+2, base, base+2, base+3)
}

// BuildSubChunk meshes one sub-chunk from its raw block and packed light
// arrays (the worker receives copies moved out of the owning column) plus a
// Sampler covering the six neighbour boundary slabs. Positions
// are sub-chunk-local; the renderer offsets by the sub-chunk origin.
func (m *Mesher) BuildSubChunk(blocks []block.ID, light []uint8, sample Sampler) *Mesh {
	opaque := make(map[block.ID]*builder)
	transparent := make(map[block.ID]*builder)

	for y := 0; y < chunk.SubH; y++ {
		for z := 0; z < chunk.SZ; z++ {
			for x := 0; x < chunk.SX; x++ {
				id := blocks[chunk.Index(x, y, z)]
				if id == block.AIR {
					continue
				}
				props := m.reg.ByID(id)

				if props.Archetype == block.ArchetypeCrossFoliage {
					m.cross(bucketFor(transparent, id), id, x, y, z, light)
					continue
				}

				for face := block.FaceUp; face <= block.FaceWest; face++ {
					nID, nLight := m.neighbour(blocks, light, sample, x, y, z, face)
					if !m.reg.ShouldRenderFace(id, nID) {
						continue
					}
					dst := opaque
					if props.Archetype.Transparent() {
						dst = transparent
					}
					m.face(bucketFor(dst, id), props, face, x, y, z, nLight)
				}
			}
		}
	}

	return &Mesh{
		Opaque:      concat(opaque),
		Transparent: concat(transparent),
	}
}

// neighbour resolves the block id and mesh light of the cell the given face
// looks into. Light is max(sky, block) at that cell, or full brightness for
// missing neighbours and cells above the world top.
func (m *Mesher) neighbour(blocks []block.ID, light []uint8, sample Sampler, x, y, z int, face block.Face) (block.ID, uint8) {
	d := faceDir[face]
	nx, ny, nz := x+d[0], y+d[1], z+d[2]
	if chunk.InRange(nx, ny, nz) {
		i := chunk.Index(nx, ny, nz)
		return blocks[i], maxNibble(light[i])
	}
	id, sky, blk, ok := sample(nx, ny, nz)
	if !ok {
		return block.AIR, MaxMeshLight
	}
	if blk > sky {
		return id, blk
	}
	return id, sky
}

// MaxMeshLight is the light value substituted for unloaded neighbours and
// cells above the world ceiling.
const MaxMeshLight = 15

func maxNibble(packed uint8) uint8 {
	sky, blk := packed>>4, packed&0x0F
	if blk > sky {
		return blk
	}
	return sky
}

// face emits one quad of a cube-shaped block. Liquid tops are lowered to
// the block's fill level so partial water reads as partial.
func (m *Mesher) face(b *builder, props block.Properties, face block.Face, x, y, z int, light uint8) {
	fx, fy, fz := float32(x), float32(y), float32(z)
	top := float32(1)
	if props.IsLiquid {
		if lvl, ok := block.WaterLevel(props.ID); ok {
			top = float32(lvl) * 0.25
		}
	}

	var corners [4]mgl32.Vec3
	for i, c := range faceCorners[face] {
		cy := c[1]
		if cy == 1 {
			cy = top
		}
		corners[i] = mgl32.Vec3{fx + c[0], fy + cy, fz + c[2]}
	}
	d := faceDir[face]
	normal := mgl32.Vec3{float32(d[0]), float32(d[1]), float32(d[2])}
	b.quad(corners, normal, m.atlas.Rect(props.ID, face), light, faceShade[face])
}

// cross emits the two diagonal quads of a cross-foliage block (tall grass,
// flowers). Both quads use the side UV region, full face shade and the
// light of the foliage cell itself, since foliage never blocks light.
func (m *Mesher) cross(b *builder, id block.ID, x, y, z int, light []uint8) {
	fx, fy, fz := float32(x), float32(y), float32(z)
	l := maxNibble(light[chunk.Index(x, y, z)])
	uv := m.atlas.Rect(id, block.FaceNorth)

	b.quad([4]mgl32.Vec3{
		{fx, fy, fz}, {fx + 1, fy, fz + 1}, {fx + 1, fy + 1, fz + 1}, {fx, fy + 1, fz},
	}, mgl32.Vec3{0.7071, 0, -0.7071}, uv, l, 1.0)
	b.quad([4]mgl32.Vec3{
		{fx, fy, fz + 1}, {fx + 1, fy, fz}, {fx + 1, fy + 1, fz}, {fx, fy + 1, fz + 1},
	}, mgl32.Vec3{0.7071, 0, 0.7071}, uv, l, 1.0)
}

func bucketFor(dst map[block.ID]*builder, id block.ID) *builder {
	b, ok := dst[id]
	if !ok {
		b = &builder{}
		dst[id] = b
	}
	return b
}

// concat merges per-material builders into one buffer with material groups,
// ordered by ascending block id so output is deterministic.
func concat(buckets map[block.ID]*builder) Buffers {
	ids := make([]block.ID, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out Buffers
	for _, id := range ids {
		b := buckets[id]
		vertBase := uint32(len(out.Positions))
		idxStart := len(out.Indices)
		out.Positions = append(out.Positions, b.Positions...)
		out.Normals = append(out.Normals, b.Normals...)
		out.UVs = append(out.UVs, b.UVs...)
		out.Light = append(out.Light, b.Light...)
		out.Shade = append(out.Shade, b.Shade...)
		for _, idx := range b.Indices {
			out.Indices = append(out.Indices, idx+vertBase)
		}
		out.Groups = append(out.Groups, Group{Material: id, IndexStart: idxStart, IndexCount: len(b.Indices)})
	}
	return out
}

// HasExposedFace reports whether any boundary cell of a fully-opaque
// sub-chunk faces a non-opaque neighbour. Fully-opaque sub-chunks with no
// exposed face are skipped entirely by the meshing task.
func (m *Mesher) HasExposedFace(blocks []block.ID, sample Sampler) bool {
	check := func(x, y, z int, face block.Face) bool {
		d := faceDir[face]
		id, _, _, ok := sample(x+d[0], y+d[1], z+d[2])
		if !ok {
			return true
		}
		return m.reg.ShouldRenderFace(blocks[chunk.Index(x, y, z)], id)
	}
	for x := 0; x < chunk.SX; x++ {
		for z := 0; z < chunk.SZ; z++ {
			if check(x, 0, z, block.FaceDown) || check(x, chunk.SubH-1, z, block.FaceUp) {
				return true
			}
		}
	}
	for x := 0; x < chunk.SX; x++ {
		for y := 0; y < chunk.SubH; y++ {
			if check(x, y, 0, block.FaceNorth) || check(x, y, chunk.SZ-1, block.FaceSouth) {
				return true
			}
		}
	}
	for z := 0; z < chunk.SZ; z++ {
		for y := 0; y < chunk.SubH; y++ {
			if check(0, y, z, block.FaceWest) || check(chunk.SX-1, y, z, block.FaceEast) {
				return true
			}
		}
	}
	return false
}
