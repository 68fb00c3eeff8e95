package block

// Archetype is a tagged variant describing how a block behaves for
// rendering/meshing purposes. A small closed set covers every block in the
// catalog; blocks vary by data, not by type hierarchy.
type Archetype uint8

const (
	// ArchetypeSolidOpaque is a fully opaque cube (stone, dirt, ore...).
	ArchetypeSolidOpaque Archetype = iota
	// ArchetypeTransparentCube is a see-through cube that still occupies
	// the full voxel (ice, leaves).
	ArchetypeTransparentCube
	// ArchetypeCrossFoliage is a non-cube "X" quad pair (tall grass,
	// flowers): never occludes neighbours and has no collision.
	ArchetypeCrossFoliage
	// ArchetypeLiquid is a partial-height flowing fluid block (water at
	// some level 1-4). IsLiquid implies this archetype in all built-in
	// registrations.
	ArchetypeLiquid
	// ArchetypeCustomGeometry covers anything needing bespoke mesh data
	// (stairs, slabs...); the mesher treats it as a full cube for
	// face-exposure purposes and leaves fine geometry to the renderer.
	ArchetypeCustomGeometry
)

// Transparent reports whether the archetype should never hide a
// neighbouring face purely by being itself opaque.
func (a Archetype) Transparent() bool {
	switch a {
	case ArchetypeTransparentCube, ArchetypeCrossFoliage, ArchetypeLiquid:
		return true
	default:
		return false
	}
}
