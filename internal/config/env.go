package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds QECSIM_* overrides. Unset variables leave their field nil.
type EnvConfig struct {
	ConfigPath      *string   `env:"QECSIM_CONFIG"`
	Shots           *int      `env:"QECSIM_SHOTS"`
	Basis           *string   `env:"QECSIM_BASIS"`
	Decoder         *string   `env:"QECSIM_DECODER"`
	Seed            *uint64   `env:"QECSIM_SEED"`
	Workers         *int      `env:"QECSIM_WORKERS"`
	Confidence      *float64  `env:"QECSIM_CONFIDENCE"`
	MeasurementProb *float64  `env:"QECSIM_P_MEAS"`
	Distances       []int     `env:"QECSIM_DISTANCES" envSeparator:","`
	Probs           []float64 `env:"QECSIM_PROBS" envSeparator:","`
	OutDir          *string   `env:"QECSIM_OUT"`
	NoPNG           *bool     `env:"QECSIM_NO_PNG"`
	LogLevel        *string   `env:"QECSIM_LOG_LEVEL"`
	LogFormat       *string   `env:"QECSIM_LOG_FORMAT"`
	Progress        *bool     `env:"QECSIM_PROGRESS"`
}

// ParseEnv loads QECSIM_* variables from the process environment.
func ParseEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Merge overlays environment values on top of the file config.
func (f FileConfig) Merge(e EnvConfig) FileConfig {
	out := f
	overlay(&out.Simulation.Shots, e.Shots)
	overlay(&out.Simulation.Basis, e.Basis)
	overlay(&out.Simulation.Decoder, e.Decoder)
	overlay(&out.Simulation.Seed, e.Seed)
	overlay(&out.Simulation.Workers, e.Workers)
	overlay(&out.Simulation.Confidence, e.Confidence)
	overlay(&out.Simulation.MeasurementProb, e.MeasurementProb)
	overlay(&out.Output.Dir, e.OutDir)
	overlay(&out.Output.NoPNG, e.NoPNG)
	overlay(&out.Log.Level, e.LogLevel)
	overlay(&out.Log.Format, e.LogFormat)
	overlay(&out.Log.Progress, e.Progress)
	if len(e.Distances) > 0 {
		out.Analyze.Distances = e.Distances
	}
	if len(e.Probs) > 0 {
		out.Analyze.Probs = e.Probs
	}
	return out
}

func overlay[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
