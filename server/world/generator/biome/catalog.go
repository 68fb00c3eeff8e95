package biome

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/generator/populate"
)

// Plains is flat grassland with scattered tall grass.
type Plains struct{ grassy }

func (Plains) ID() ID                  { return IDPlains }
func (Plains) Elevation() (int, int)   { return 63, 68 }
func (Plains) Temperature() float64    { return 0.8 }
func (Plains) Rainfall() float64       { return 0.4 }
func (Plains) Populators() []populate.Populator {
	return []populate.Populator{populate.TallGrass{Amount: 12}}
}

// Desert is sand-covered flatland with no decoration.
type Desert struct{ sandy }

func (Desert) ID() ID                { return IDDesert }
func (Desert) Elevation() (int, int) { return 63, 74 }
func (Desert) Temperature() float64  { return 2.0 }
func (Desert) Rainfall() float64     { return 0.0 }
func (Desert) Populators() []populate.Populator { return nil }

// Forest is grassland dotted with oak trees.
type Forest struct{ grassy }

func (Forest) ID() ID                { return IDForest }
func (Forest) Elevation() (int, int) { return 63, 81 }
func (Forest) Temperature() float64  { return 0.7 }
func (Forest) Rainfall() float64     { return 0.8 }
func (Forest) Populators() []populate.Populator {
	return []populate.Populator{
		populate.Tree{Type: populate.OakTree{}, BaseAmount: 5},
		populate.TallGrass{Amount: 3},
	}
}

// BirchForest is grassland dotted with birch trees.
type BirchForest struct{ grassy }

func (BirchForest) ID() ID                { return IDBirchForest }
func (BirchForest) Elevation() (int, int) { return 60, 70 }
func (BirchForest) Temperature() float64  { return 0.6 }
func (BirchForest) Rainfall() float64     { return 0.6 }
func (BirchForest) Populators() []populate.Populator {
	return []populate.Populator{populate.Tree{BaseAmount: 10, Type: populate.BirchTree{}}}
}

// Taiga is a cold, snow-capped conifer forest.
type Taiga struct{ snowy }

func (Taiga) ID() ID                { return IDTaiga }
func (Taiga) Elevation() (int, int) { return 63, 81 }
func (Taiga) Temperature() float64  { return 0.05 }
func (Taiga) Rainfall() float64     { return 0.8 }
func (Taiga) Populators() []populate.Populator {
	return []populate.Populator{
		populate.Tree{Type: populate.SpruceTree{}, BaseAmount: 10},
		populate.TallGrass{Amount: 1},
	}
}

// IcePlains is flat, snow-capped tundra.
type IcePlains struct{ snowy }

func (IcePlains) ID() ID                { return IDIcePlains }
func (IcePlains) Elevation() (int, int) { return 63, 74 }
func (IcePlains) Temperature() float64  { return 0.05 }
func (IcePlains) Rainfall() float64     { return 0.8 }
func (IcePlains) Populators() []populate.Populator {
	return []populate.Populator{populate.TallGrass{Amount: 5}}
}

// Mountains is tall grassy highland with a cliff feature and no
// decoration.
type Mountains struct{ grassy }

func (Mountains) ID() ID                { return IDMountains }
func (Mountains) Elevation() (int, int) { return 63, 127 }
func (Mountains) Temperature() float64  { return 0.4 }
func (Mountains) Rainfall() float64     { return 0.5 }
func (Mountains) Populators() []populate.Populator { return nil }
func (Mountains) Features() []Feature {
	return []Feature{CliffFeature{Scale: 1.0 / 48, Threshold: 0.55, MaxHeight: 127}}
}

// SmallMountains is a lower-relief variant of Mountains with its own id;
// region→biome selection and saved data both key off ids, so two biomes
// must never share one.
type SmallMountains struct{ grassy }

func (SmallMountains) ID() ID                { return IDSmallMountains }
func (SmallMountains) Elevation() (int, int) { return 63, 97 }
func (SmallMountains) Temperature() float64  { return 0.4 }
func (SmallMountains) Rainfall() float64     { return 0.5 }
func (SmallMountains) Populators() []populate.Populator { return nil }
func (SmallMountains) Features() []Feature {
	return []Feature{CliffFeature{Scale: 1.0 / 32, Threshold: 0.6, MaxHeight: 97}}
}

// Ocean fills its whole elevation band with water over a gravel bed.
type Ocean struct{ base }

func (Ocean) ID() ID                { return IDOcean }
func (Ocean) Elevation() (int, int) { return 46, 58 }
func (Ocean) Temperature() float64  { return 0.5 }
func (Ocean) Rainfall() float64     { return 0.5 }
func (Ocean) GroundCover() []block.ID {
	return []block.ID{block.Gravel, block.Gravel, block.Gravel, block.Gravel, block.Gravel}
}
func (Ocean) Populators() []populate.Populator {
	return []populate.Populator{populate.TallGrass{Amount: 5}}
}

// River is a narrow, shallow water channel over a dirt bed.
type River struct{ base }

func (River) ID() ID                { return IDRiver }
func (River) Elevation() (int, int) { return 58, 62 }
func (River) Temperature() float64  { return 0.5 }
func (River) Rainfall() float64     { return 0.7 }
func (River) GroundCover() []block.ID {
	return []block.ID{block.Dirt, block.Dirt, block.Dirt, block.Dirt, block.Dirt}
}
func (River) Populators() []populate.Populator {
	return []populate.Populator{populate.TallGrass{Amount: 5}}
}

// Swamp is a flat, waterlogged grassland with no decoration and caves
// disabled (the water table sits too high to be worth carving).
type Swamp struct{ grassy }

func (Swamp) ID() ID                { return IDSwamp }
func (Swamp) Elevation() (int, int) { return 62, 63 }
func (Swamp) Temperature() float64  { return 0.8 }
func (Swamp) Rainfall() float64     { return 0.9 }
func (Swamp) Populators() []populate.Populator { return nil }
func (Swamp) CaveSettings() CaveSettings       { return CaveSettings{} }

// DefaultCatalog returns the built-in biome set in a stable order; index
// within this slice is what Selector hashes into, so the order here is
// part of the save format and must not be reshuffled casually.
func DefaultCatalog() []Biome {
	return []Biome{
		Plains{}, Desert{}, Forest{}, BirchForest{}, Taiga{}, IcePlains{},
		Mountains{}, SmallMountains{}, Ocean{}, River{}, Swamp{},
	}
}

// Override is one YAML-loadable tuning record, keyed by biome name, for
// the elevation/temperature/rainfall tunables a designer would adjust
// without touching Go code.
type Override struct {
	Name        string  `yaml:"name"`
	MinHeight   *int    `yaml:"min_height"`
	MaxHeight   *int    `yaml:"max_height"`
	Temperature *float64 `yaml:"temperature"`
	Rainfall    *float64 `yaml:"rainfall"`
}

// Overrides is a loaded set of tuning records, looked up by name with For.
// Biome selection and terrain generation do not read it.
type Overrides struct {
	Biomes []Override `yaml:"biomes"`
}

// LoadOverrides parses a biome tuning file.
func LoadOverrides(data []byte) (Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Overrides{}, fmt.Errorf("parse biome overrides: %w", err)
	}
	return o, nil
}

// For looks up the override record for name, if any.
func (o Overrides) For(name string) (Override, bool) {
	for _, rec := range o.Biomes {
		if rec.Name == name {
			return rec, true
		}
	}
	return Override{}, false
}
