// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
)

// Basis selects which Pauli error a repetition code protects against.
type Basis string

const (
	// BasisBitFlip is the Z-basis code, protecting against X errors.
	BasisBitFlip Basis = "bit-flip"
	// BasisPhaseFlip is the X-basis code, protecting against Z errors.
	BasisPhaseFlip Basis = "phase-flip"
)

// ParseBasis accepts "bit-flip"/"z" and "phase-flip"/"x".
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bit-flip", "bitflip", "z":
		return BasisBitFlip, nil
	case "phase-flip", "phaseflip", "x":
		return BasisPhaseFlip, nil
	default:
		return "", fmt.Errorf("unknown basis %q (expected bit-flip or phase-flip)", s)
	}
}

// Title returns a human label such as "Bit-Flip".
func (b Basis) Title() string {
	if b == BasisPhaseFlip {
		return "Phase-Flip"
	}
	return "Bit-Flip"
}

// Pauli returns the error the basis protects against.
func (b Basis) Pauli() string {
	if b == BasisPhaseFlip {
		return "Z"
	}
	return "X"
}

// DecoderKind selects the decoding strategy.
type DecoderKind string

const (
	DecoderMajority DecoderKind = "majority"
	DecoderSyndrome DecoderKind = "syndrome"
)

// ParseDecoderKind validates a decoder name.
func ParseDecoderKind(s string) (DecoderKind, error) {
	switch DecoderKind(strings.ToLower(strings.TrimSpace(s))) {
	case DecoderMajority:
		return DecoderMajority, nil
	case DecoderSyndrome:
		return DecoderSyndrome, nil
	default:
		return "", fmt.Errorf("unknown decoder %q (expected majority or syndrome)", s)
	}
}

// Layout describes how a shot's measurement record is split: syndrome bits first,
// then data bits.
type Layout struct {
	SyndromeBits int
	DataBits     int
}

// Width returns the number of measurements per shot.
func (l Layout) Width() int {
	return l.SyndromeBits + l.DataBits
}

// Split returns the syndrome and data parts of a shot.
func (l Layout) Split(row []uint8) (syndrome, data []uint8, err error) {
	if len(row) != l.Width() {
		return nil, nil, fmt.Errorf("shot has %d measurements, expected %d", len(row), l.Width())
	}
	return row[:l.SyndromeBits], row[l.SyndromeBits:], nil
}

// DemoConfig defines a single protected vs unprotected comparison.
type DemoConfig struct {
	Distance        int
	Basis           Basis
	PhysicalProb    float64
	MeasurementProb float64
	Shots           int
	Decoder         DecoderKind
	Seed            uint64
}

// SweepConfig defines a distance x probability sweep.
type SweepConfig struct {
	Distances       []int
	Probs           []float64
	MeasurementProb float64
	Basis           Basis
	Shots           int
	Decoder         DecoderKind
	Seed            uint64
	Workers         int
	Confidence      float64
}

// ReadoutConfig defines a readout-error sweep at fixed distance and physical rate.
type ReadoutConfig struct {
	Distance         int
	PhysicalProb     float64
	MeasurementProbs []float64
	Basis            Basis
	Shots            int
	Decoder          DecoderKind
	Seed             uint64
	Workers          int
	Confidence       float64
}

// PointKey identifies a sweep point.
type PointKey struct {
	Distance     int
	PhysicalProb float64
}

func (k PointKey) String() string {
	return fmt.Sprintf("d=%d p=%g", k.Distance, k.PhysicalProb)
}

// SweepPoint holds the aggregated outcome of one (distance, p, p_meas) configuration.
type SweepPoint struct {
	Distance        int
	Basis           Basis
	PhysicalProb    float64
	MeasurementProb float64
	Shots           int

	LogicalErrors int
	LogicalRate   float64
	LogicalStdErr float64

	UnprotectedErrors int
	UnprotectedRate   float64
	UnprotectedStdErr float64

	// AnalyticRate is the majority-vote failure probability ignoring readout noise.
	AnalyticRate float64
	// Confidence interval half-widths for the two rates.
	LogicalHalfWidth     float64
	UnprotectedHalfWidth float64
}

// Key returns the point's sweep key.
func (p SweepPoint) Key() PointKey {
	return PointKey{Distance: p.Distance, PhysicalProb: p.PhysicalProb}
}

// Reduction returns the relative error reduction (u-c)/u, or 0 when u is 0.
func (p SweepPoint) Reduction() float64 {
	if p.UnprotectedRate == 0 {
		return 0
	}
	return (p.UnprotectedRate - p.LogicalRate) / p.UnprotectedRate
}

// Improved reports whether coding beats the baseline beyond sampling noise.
func (p SweepPoint) Improved() bool {
	return p.LogicalRate+p.LogicalHalfWidth < p.UnprotectedRate-p.UnprotectedHalfWidth
}

// Finding is the best-performing probability for one distance.
type Finding struct {
	Distance        int
	BestProb        float64
	Reduction       float64
	LogicalRate     float64
	UnprotectedRate float64
}
