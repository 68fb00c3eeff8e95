// Package block implements the global block catalog: an immutable,
// build-phase table mapping a numeric block id to its static properties.
// Registration happens once at startup (see Registry.Register); after the
// caller finalises the table with Registry.Freeze, lookups are lock-free and
// the table is safe to share across goroutines without synchronisation.
package block

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
)

// ID is a block's numeric identifier. ID 0 is always AIR.
type ID = uint16

// AIR is the block id that denotes empty space. AIR is never stored in a
// liquid position index and always has zero light blocking.
const AIR ID = 0

// Face identifies one of the six cardinal faces of a block for exposure
// testing during meshing.
type Face uint8

const (
	FaceUp Face = iota
	FaceDown
	FaceNorth
	FaceSouth
	FaceEast
	FaceWest
)

// Opposite returns the face pointing the opposite direction.
func (f Face) Opposite() Face {
	switch f {
	case FaceUp:
		return FaceDown
	case FaceDown:
		return FaceUp
	case FaceNorth:
		return FaceSouth
	case FaceSouth:
		return FaceNorth
	case FaceEast:
		return FaceWest
	default:
		return FaceEast
	}
}

// AABB is an axis-aligned bounding box expressed in block-local unit
// coordinates, used for the optional collision capability.
type AABB struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Properties is the immutable, static catalog entry for a single block id.
// Properties are never mutated after registration; callers that need to
// vary behaviour per-instance (e.g. liquid level) encode that in the block
// id itself (one id per discrete level), as the water blocks do.
type Properties struct {
	ID   ID
	Name string

	// IsOpaque hides the shared face against another opaque block during
	// meshing and fully attenuates light passing through the cell.
	IsOpaque bool
	// IsSolid affects collision (external) and is tracked here so the
	// capability table stays the single source of truth about a block.
	IsSolid bool
	// IsLiquid marks a block as one of the water levels; see Liquid.
	IsLiquid bool
	// Hardness is an opaque scalar handed to external mining logic.
	Hardness float64
	// LightLevel is the block's own light emission in [0, 15].
	LightLevel uint8
	// LightBlocking is how much light is subtracted per cell of travel
	// through this block, in [0, 15]. Opaque blocks are normally 15;
	// transparent blocks like leaves or water are a smaller value.
	LightBlocking uint8
	// Tags is a set of free-form capability markers external systems
	// (drops, collision, tools) key off; the world subsystem never
	// interprets them.
	Tags []string
	// Archetype selects the face-exposure rule used during meshing (see
	// Archetype and ShouldRenderFace).
	Archetype Archetype
	// Collision is the optional bounding box for external physics; nil
	// means no collision (e.g. cross-foliage).
	Collision *AABB
}

// HasTag reports whether p carries the given capability tag.
func (p Properties) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Registry is the build-phase block catalog. Create it with NewRegistry (a
// zero Registry has no name index or logger, and Register panics on it);
// call Freeze once registration is complete to make lookups panic-free for
// unknown ids without further locking.
type Registry struct {
	mu   sync.Mutex
	byID []Properties
	// byName is keyed by the fnv1a hash of the block name rather than the
	// string itself, so name lookups hash once and never retain key
	// copies; the stored id's Properties.Name is checked on lookup to
	// rule out a (theoretical) hash collision.
	byName map[uint32]ID
	frozen bool
	log    *slog.Logger

	warnedUnknown map[ID]struct{}
}

// NewRegistry returns an empty Registry. If log is nil, slog.Default() is
// used for the one-time "double registration" and "unknown id" warnings.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		byName:        make(map[uint32]ID),
		log:           log,
		warnedUnknown: make(map[ID]struct{}),
	}
}

// Register installs p in the catalog under p.ID. Registering the same id
// twice is not an error: it logs a warning and replaces the existing
// entry. Register must not be called after Freeze.
func (r *Registry) Register(p Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("block: Register called after Freeze")
	}
	if int(p.ID) >= len(r.byID) {
		grown := make([]Properties, int(p.ID)+1)
		copy(grown, r.byID)
		r.byID = grown
	}
	if r.byID[p.ID].Name != "" {
		r.log.Warn("block: duplicate registration, replacing", "id", p.ID, "old", r.byID[p.ID].Name, "new", p.Name)
	}
	r.byID[p.ID] = p
	r.byName[fnv1a.HashString32(p.Name)] = p.ID
}

// Freeze marks the registry read-only. After Freeze, ByID/ByName never
// mutate internal state beyond the one-time unknown-id warning dedup and
// are safe for concurrent use without external synchronisation.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// ByID returns the properties registered for id, or the AIR properties (with
// a once-per-id warning) if id was never registered. Lookup is O(1).
func (r *Registry) ByID(id ID) Properties {
	if int(id) < len(r.byID) && r.byID[id].Name != "" {
		return r.byID[id]
	}
	if id != AIR {
		r.mu.Lock()
		if _, warned := r.warnedUnknown[id]; !warned {
			r.warnedUnknown[id] = struct{}{}
			r.log.Warn("block: unknown id, treating as air", "id", id)
		}
		r.mu.Unlock()
	}
	return r.airProperties()
}

// All returns every registered entry, ordered by id. Intended for tooling
// (console completion, debug dumps), not the hot path.
func (r *Registry) All() []Properties {
	out := make([]Properties, 0, len(r.byID))
	for _, p := range r.byID {
		if p.Name != "" {
			out = append(out, p)
		}
	}
	return out
}

// ByName returns the id registered under name and whether it was found.
func (r *Registry) ByName(name string) (ID, bool) {
	id, ok := r.byName[fnv1a.HashString32(name)]
	if !ok || r.byID[id].Name != name {
		return 0, false
	}
	return id, true
}

// MustByName returns the id registered under name, panicking if absent.
// Intended for startup wiring (biome catalogs, generator constants) where a
// missing name is a programming error, not a runtime condition.
func (r *Registry) MustByName(name string) ID {
	id, ok := r.ByName(name)
	if !ok {
		panic(fmt.Sprintf("block: no such registered block %q", name))
	}
	return id
}

func (r *Registry) airProperties() Properties {
	if int(AIR) < len(r.byID) && r.byID[AIR].Name != "" {
		return r.byID[AIR]
	}
	return Properties{ID: AIR, Name: "air", Archetype: ArchetypeTransparentCube}
}

// ShouldRenderFace implements the should-render-face capability:
// opaque-vs-opaque hides the face, transparent-vs-same-id hides the face
// (stacked water has no interior faces), and partial liquids hide against
// any liquid neighbor.
func (r *Registry) ShouldRenderFace(self, neighbor ID) bool {
	s, n := r.ByID(self), r.ByID(neighbor)
	if n.IsOpaque {
		return false
	}
	if s.IsLiquid && n.IsLiquid {
		return false
	}
	if s.Archetype == ArchetypeTransparentCube && self == neighbor {
		return false
	}
	return true
}
