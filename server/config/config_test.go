package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf != DefaultConfig() {
		t.Fatalf("fresh load: got %+v, want defaults", conf)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written out: %v", err)
	}
}

func TestLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("first load: %v", err)
	}
	conf, err := Load(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if conf != DefaultConfig() {
		t.Fatalf("round trip: got %+v, want defaults", conf)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := []byte("[world]\nseed = 42\nview_distance = 4\n\n[liquid]\nupdate_interval_ms = 50\n")
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.World.Seed != 42 || conf.World.ViewDistance != 4 {
		t.Fatalf("world overrides not applied: %+v", conf.World)
	}
	if conf.Liquid.UpdateIntervalMs != 50 {
		t.Fatalf("liquid override not applied: %+v", conf.Liquid)
	}
}
