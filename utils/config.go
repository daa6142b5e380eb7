package utils

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-sim/model"
)

// Config holds the configuration for the simulator
type Config struct {
	Size                int     `json:"size"`
	Rate                int     `json:"rate"`
	Workers             int     `json:"workers"`
	UseBoundedScan      bool    `json:"use_bounded_scan"`
	MaxGenerations      int     `json:"max_generations"`
	StagnationThreshold int     `json:"stagnation_threshold"`
	RandomDensity       float64 `json:"random_density"`
	Seed                int64   `json:"seed"`
	SnapshotIn          string  `json:"snapshot_in"`
	SnapshotOut         string  `json:"snapshot_out"`
	LoadMode            string  `json:"load_mode"`
	Render              bool    `json:"render"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Size:                model.DefaultSize,
		Rate:                10,
		Workers:             0, // runtime.NumCPU()
		UseBoundedScan:      true,
		MaxGenerations:      0,
		StagnationThreshold: 5,
		RandomDensity:       0.15,
		Seed:                1,
		LoadMode:            "replace",
		Render:              false,
	}
}

// LoadConfig loads configuration from JSON file
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	return config, config.Validate()
}

// Validate rejects settings the grid or the simulation cannot run with
func (c Config) Validate() error {
	if c.Size <= 0 {
		return errors.WithMessagef(model.ErrInvalidArgument, "[Validate] size must be positive, got %d", c.Size)
	}
	if c.Rate <= 0 {
		return errors.WithMessagef(model.ErrInvalidArgument, "[Validate] rate must be positive, got %d", c.Rate)
	}
	if c.RandomDensity < 0 || c.RandomDensity > 1 {
		return errors.WithMessagef(model.ErrInvalidArgument, "[Validate] random_density must be within [0,1], got %v", c.RandomDensity)
	}
	if c.MaxGenerations < 0 || c.StagnationThreshold < 0 {
		return errors.WithMessage(model.ErrInvalidArgument, "[Validate] generation limits must not be negative")
	}
	return nil
}
