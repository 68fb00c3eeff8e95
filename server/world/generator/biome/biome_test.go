package biome

import "testing"

func TestSelectorDeterministicInSeed(t *testing.T) {
	catalog := DefaultCatalog()
	a := NewSelector(catalog, 7)
	b := NewSelector(catalog, 7)

	for x := int64(-200); x < 200; x += 37 {
		for z := int64(-200); z < 200; z += 41 {
			if a.Pick(x, z).ID() != b.Pick(x, z).ID() {
				t.Fatalf("same seed picked different biomes at (%d,%d)", x, z)
			}
		}
	}
}

func TestSelectorDiffersAcrossSeeds(t *testing.T) {
	catalog := DefaultCatalog()
	a := NewSelector(catalog, 1)
	b := NewSelector(catalog, 2)

	differed := false
	for x := int64(0); x < 4000; x += 97 {
		for z := int64(0); z < 4000; z += 101 {
			if a.Pick(x, z).ID() != b.Pick(x, z).ID() {
				differed = true
			}
		}
	}
	if !differed {
		t.Fatal("expected different seeds to disagree on biome somewhere in range")
	}
}

func TestSelectorCoversCatalogAcrossWideRange(t *testing.T) {
	catalog := DefaultCatalog()
	s := NewSelector(catalog, 99)

	seen := make(map[ID]bool)
	for x := int64(0); x < 20000; x += 233 {
		for z := int64(0); z < 20000; z += 251 {
			seen[s.Pick(x, z).ID()] = true
		}
	}
	if len(seen) < len(catalog)/2 {
		t.Fatalf("expected a wide sample to hit most of the catalog, only saw %d/%d", len(seen), len(catalog))
	}
}

func TestBiomeIDsAreDistinct(t *testing.T) {
	seen := make(map[ID]bool)
	for _, b := range DefaultCatalog() {
		if seen[b.ID()] {
			t.Fatalf("duplicate biome id %d", b.ID())
		}
		seen[b.ID()] = true
	}
}

func TestFlatRecipeUsedWhenGroundCoverEmpty(t *testing.T) {
	p := Plains{}
	if len(p.GroundCover()) != 0 {
		t.Fatal("expected Plains to have no ground cover override")
	}
	if p.SurfaceBlock() == 0 {
		t.Fatal("expected a non-air surface block for the flat recipe")
	}
}

func TestGroundCoverOverridesFlatRecipe(t *testing.T) {
	o := Ocean{}
	if len(o.GroundCover()) == 0 {
		t.Fatal("expected Ocean to declare a ground cover override")
	}
}

func TestLoadOverrides(t *testing.T) {
	body := []byte("biomes:\n  - name: plains\n    min_height: 70\n    temperature: 0.5\n")
	o, err := LoadOverrides(body)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	rec, ok := o.For("plains")
	if !ok {
		t.Fatal("plains record not found")
	}
	if rec.MinHeight == nil || *rec.MinHeight != 70 {
		t.Fatalf("min_height: got %v, want 70", rec.MinHeight)
	}
	if rec.MaxHeight != nil {
		t.Fatal("unset max_height must stay nil")
	}
	if _, ok := o.For("desert"); ok {
		t.Fatal("lookup of an absent biome must report not found")
	}
}
