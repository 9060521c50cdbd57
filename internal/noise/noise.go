// Package noise describes the error model applied to repetition-code shots.
package noise

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProbability is returned for probabilities outside [0,1].
var ErrInvalidProbability = errors.New("probability must be within [0,1]")

// Params holds the physical and readout error probabilities.
type Params struct {
	// Physical is the per-qubit X (bit-flip) or Z (phase-flip) error probability.
	Physical float64
	// Measurement flips each measurement result independently.
	Measurement float64
}

// Validate checks both probabilities.
func (p Params) Validate() error {
	if err := CheckProbability("physical error probability", p.Physical); err != nil {
		return err
	}
	return CheckProbability("measurement error probability", p.Measurement)
}

// CheckProbability returns a descriptive error when v is not a probability.
func CheckProbability(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s is %v", ErrInvalidProbability, name, v)
	}
	return nil
}
