package sweep

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/qecsim/internal/code"
	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/noise"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func validateCommon(d int, basis model.Basis, shots int, dec model.DecoderKind) error {
	if _, err := code.New(d, basis); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if shots <= 0 {
		return invalid("shots must be > 0, got %d", shots)
	}
	if dec != "" {
		if _, err := model.ParseDecoderKind(string(dec)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func validateConfidence(c float64) error {
	if c == 0 {
		return nil
	}
	if _, err := zScore(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateDemo checks a demo configuration.
func ValidateDemo(cfg model.DemoConfig) error {
	if err := validateCommon(cfg.Distance, cfg.Basis, cfg.Shots, cfg.Decoder); err != nil {
		return err
	}
	if err := (noise.Params{Physical: cfg.PhysicalProb, Measurement: cfg.MeasurementProb}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateSweep checks a sweep configuration.
func ValidateSweep(cfg model.SweepConfig) error {
	if len(cfg.Distances) == 0 {
		return invalid("at least one distance is required")
	}
	if len(cfg.Probs) == 0 {
		return invalid("at least one physical error probability is required")
	}
	seenD := map[int]bool{}
	for _, d := range cfg.Distances {
		if seenD[d] {
			return invalid("distance %d listed twice", d)
		}
		seenD[d] = true
		if err := validateCommon(d, cfg.Basis, cfg.Shots, cfg.Decoder); err != nil {
			return err
		}
	}
	seenP := map[float64]bool{}
	for _, p := range cfg.Probs {
		if seenP[p] {
			return invalid("probability %g listed twice", p)
		}
		seenP[p] = true
		if err := (noise.Params{Physical: p, Measurement: cfg.MeasurementProb}).Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return validateConfidence(cfg.Confidence)
}

// ValidateReadout checks a readout sweep configuration.
func ValidateReadout(cfg model.ReadoutConfig) error {
	if err := validateCommon(cfg.Distance, cfg.Basis, cfg.Shots, cfg.Decoder); err != nil {
		return err
	}
	if len(cfg.MeasurementProbs) == 0 {
		return invalid("at least one measurement error probability is required")
	}
	for _, pm := range cfg.MeasurementProbs {
		if err := (noise.Params{Physical: cfg.PhysicalProb, Measurement: pm}).Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return validateConfidence(cfg.Confidence)
}
