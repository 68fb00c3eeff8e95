// Package config holds the process-wide tunables of the world subsystem,
// loaded from a TOML file: a DefaultConfig, a file that is written out
// when missing, and a struct handed to the composition root.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Config is the on-disk configuration. Zero values fall back to the
// defaults applied by the consuming constructors.
type Config struct {
	World     World     `toml:"world"`
	Scheduler Scheduler `toml:"scheduler"`
	Liquid    Liquid    `toml:"liquid"`
	Workers   Workers   `toml:"workers"`
}

// World configures generation, loading and persistence.
type World struct {
	// Seed drives every deterministic generation decision.
	Seed int64 `toml:"seed"`
	// SeaLevel is the height up to which generated air is flooded with
	// water.
	SeaLevel int `toml:"sea_level"`
	// ViewDistance is the generation radius in chunks; UnloadDistance
	// (0 = 1.5×ViewDistance) is where columns are dropped.
	ViewDistance   int `toml:"view_distance"`
	UnloadDistance int `toml:"unload_distance"`
	// SavePath is the leveldb directory; empty disables persistence.
	SavePath string `toml:"save_path"`
}

// Scheduler carries the frame-budget policy.
type Scheduler struct {
	BudgetRatio    float64 `toml:"budget_ratio"`
	AdaptationRate float64 `toml:"adaptation_rate"`
	MinBudgetMs    float64 `toml:"min_budget_ms"`
	MaxBudgetMs    float64 `toml:"max_budget_ms"`
	Metrics        bool    `toml:"metrics"`
}

// Liquid configures the water automaton.
type Liquid struct {
	UpdateIntervalMs int64 `toml:"update_interval_ms"`
}

// Workers sizes the worker pool.
type Workers struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

// DefaultConfig returns a configuration with every field at its documented
// default.
func DefaultConfig() Config {
	return Config{
		World: World{
			Seed:         1,
			SeaLevel:     62,
			ViewDistance: 8,
			SavePath:     "world",
		},
		Scheduler: Scheduler{
			BudgetRatio:    0.25,
			AdaptationRate: 0.1,
			MinBudgetMs:    1,
			MaxBudgetMs:    8,
		},
		Liquid:  Liquid{UpdateIntervalMs: 200},
		Workers: Workers{},
	}
}

// Load reads the configuration at path, creating it with defaults when it
// does not exist yet.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		conf := DefaultConfig()
		encoded, err := toml.Marshal(conf)
		if err != nil {
			return conf, fmt.Errorf("config: encoding defaults: %w", err)
		}
		if err := os.WriteFile(path, encoded, 0644); err != nil {
			return conf, fmt.Errorf("config: writing defaults to %q: %w", path, err)
		}
		return conf, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	var conf Config
	if err := toml.Unmarshal(data, &conf); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return conf, nil
}
