package block

import "log/slog"

// Built-in block ids. 0 (AIR) is reserved by the registry itself.
const (
	Air ID = iota
	Bedrock
	Stone
	Dirt
	Grass
	Sand
	Gravel
	Ice
	Snow
	OakLog
	OakLeaves
	BirchLog
	BirchLeaves
	SpruceLog
	SpruceLeaves
	TallGrass
	CoalOre
	IronOre
	GoldOre
	LapisOre
	DiamondOre
	WaterQuarter
	WaterHalf
	WaterThreeQuarter
	WaterFull
	Torch
)

// LiquidLevel is water's fill level, 0 (AIR/empty) through 4 (FULL).
type LiquidLevel uint8

const (
	LevelEmpty        LiquidLevel = 0
	LevelQuarter      LiquidLevel = 1
	LevelHalf         LiquidLevel = 2
	LevelThreeQuarter LiquidLevel = 3
	LevelFull         LiquidLevel = 4
)

// waterIDByLevel and waterLevelByID implement the total mapping between
// liquid level and block id.
var waterIDByLevel = [5]ID{Air, WaterQuarter, WaterHalf, WaterThreeQuarter, WaterFull}

var waterLevelByID = map[ID]LiquidLevel{
	WaterQuarter:      LevelQuarter,
	WaterHalf:         LevelHalf,
	WaterThreeQuarter: LevelThreeQuarter,
	WaterFull:         LevelFull,
}

// WaterBlockID returns the block id representing the given liquid level.
func WaterBlockID(level LiquidLevel) ID {
	if level > LevelFull {
		level = LevelFull
	}
	return waterIDByLevel[level]
}

// WaterLevel returns the liquid level represented by id and whether id is a
// water block at all.
func WaterLevel(id ID) (LiquidLevel, bool) {
	lvl, ok := waterLevelByID[id]
	return lvl, ok
}

// DefaultCatalog builds and freezes a Registry containing the built-in
// block set used by the generator, lighting and meshing packages.
func DefaultCatalog(log *slog.Logger) *Registry {
	r := NewRegistry(log)

	r.Register(Properties{ID: Air, Name: "air", Archetype: ArchetypeTransparentCube})
	r.Register(Properties{ID: Bedrock, Name: "bedrock", IsOpaque: true, IsSolid: true, Hardness: -1, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube()})
	r.Register(Properties{ID: Stone, Name: "stone", IsOpaque: true, IsSolid: true, Hardness: 1.5, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube()})
	r.Register(Properties{ID: Dirt, Name: "dirt", IsOpaque: true, IsSolid: true, Hardness: 0.5, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube()})
	r.Register(Properties{ID: Grass, Name: "grass", IsOpaque: true, IsSolid: true, Hardness: 0.6, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube()})
	r.Register(Properties{ID: Sand, Name: "sand", IsOpaque: true, IsSolid: true, Hardness: 0.5, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube()})
	r.Register(Properties{ID: Gravel, Name: "gravel", IsOpaque: true, IsSolid: true, Hardness: 0.6, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube()})
	r.Register(Properties{ID: Ice, Name: "ice", IsOpaque: false, IsSolid: true, Hardness: 0.5, LightBlocking: 3, Archetype: ArchetypeTransparentCube, Collision: fullCube()})
	r.Register(Properties{ID: Snow, Name: "snow", IsOpaque: true, IsSolid: true, Hardness: 0.1, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube()})

	r.Register(Properties{ID: OakLog, Name: "oak_log", IsOpaque: true, IsSolid: true, Hardness: 2, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube(), Tags: []string{"log"}})
	r.Register(Properties{ID: OakLeaves, Name: "oak_leaves", IsOpaque: false, IsSolid: true, Hardness: 0.2, LightBlocking: 1, Archetype: ArchetypeTransparentCube, Collision: fullCube(), Tags: []string{"leaves"}})
	r.Register(Properties{ID: BirchLog, Name: "birch_log", IsOpaque: true, IsSolid: true, Hardness: 2, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube(), Tags: []string{"log"}})
	r.Register(Properties{ID: BirchLeaves, Name: "birch_leaves", IsOpaque: false, IsSolid: true, Hardness: 0.2, LightBlocking: 1, Archetype: ArchetypeTransparentCube, Collision: fullCube(), Tags: []string{"leaves"}})
	r.Register(Properties{ID: SpruceLog, Name: "spruce_log", IsOpaque: true, IsSolid: true, Hardness: 2, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube(), Tags: []string{"log"}})
	r.Register(Properties{ID: SpruceLeaves, Name: "spruce_leaves", IsOpaque: false, IsSolid: true, Hardness: 0.2, LightBlocking: 1, Archetype: ArchetypeTransparentCube, Collision: fullCube(), Tags: []string{"leaves"}})

	r.Register(Properties{ID: TallGrass, Name: "tall_grass", IsOpaque: false, IsSolid: false, Hardness: 0, LightBlocking: 0, Archetype: ArchetypeCrossFoliage})

	for id, name := range map[ID]string{CoalOre: "coal_ore", IronOre: "iron_ore", GoldOre: "gold_ore", LapisOre: "lapis_ore", DiamondOre: "diamond_ore"} {
		r.Register(Properties{ID: id, Name: name, IsOpaque: true, IsSolid: true, Hardness: 3, LightBlocking: 15, Archetype: ArchetypeSolidOpaque, Collision: fullCube(), Tags: []string{"ore"}})
	}

	for level := LevelQuarter; level <= LevelFull; level++ {
		id := WaterBlockID(level)
		r.Register(Properties{
			ID: id, Name: waterName(level), IsOpaque: false, IsSolid: false, IsLiquid: true,
			LightBlocking: 2, Archetype: ArchetypeLiquid,
		})
	}

	r.Register(Properties{ID: Torch, Name: "torch", IsOpaque: false, IsSolid: false, Hardness: 0, LightLevel: 14, LightBlocking: 0, Archetype: ArchetypeCustomGeometry})

	r.Freeze()
	return r
}

func waterName(level LiquidLevel) string {
	switch level {
	case LevelQuarter:
		return "water_quarter"
	case LevelHalf:
		return "water_half"
	case LevelThreeQuarter:
		return "water_three_quarter"
	default:
		return "water_full"
	}
}

func fullCube() *AABB {
	return &AABB{0, 0, 0, 1, 1, 1}
}
