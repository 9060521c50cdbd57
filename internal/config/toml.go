// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Pointer fields distinguish
// unset keys from zero values.
type FileConfig struct {
	Simulation SimulationConfig `toml:"simulation"`
	Demo       DemoConfig       `toml:"demo"`
	Analyze    AnalyzeConfig    `toml:"analyze"`
	Readout    ReadoutConfig    `toml:"readout"`
	Output     OutputConfig     `toml:"output"`
	Log        LogConfig        `toml:"log"`
}

// SimulationConfig holds settings shared by every command.
type SimulationConfig struct {
	Shots           *int     `toml:"shots"`
	Basis           *string  `toml:"basis"`
	Decoder         *string  `toml:"decoder"`
	Seed            *uint64  `toml:"seed"`
	Workers         *int     `toml:"workers"`
	Confidence      *float64 `toml:"confidence"`
	MeasurementProb *float64 `toml:"p-meas"`
}

// DemoConfig maps demo settings.
type DemoConfig struct {
	Distance     *int     `toml:"distance"`
	PhysicalProb *float64 `toml:"p"`
}

// AnalyzeConfig maps sweep settings.
type AnalyzeConfig struct {
	Distances []int     `toml:"distances"`
	Probs     []float64 `toml:"probs"`
	PMin      *float64  `toml:"p-min"`
	PMax      *float64  `toml:"p-max"`
	Points    *int      `toml:"points"`
	Spacing   *string   `toml:"spacing"`
}

// ReadoutConfig maps readout sweep settings.
type ReadoutConfig struct {
	Distance         *int      `toml:"distance"`
	PhysicalProb     *float64  `toml:"p"`
	MeasurementProbs []float64 `toml:"p-meas-list"`
}

// OutputConfig maps artifact settings.
type OutputConfig struct {
	Dir   *string `toml:"dir"`
	NoPNG *bool   `toml:"no-png"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level    *string `toml:"level"`
	Format   *string `toml:"format"`
	Progress *bool   `toml:"progress"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
