package sweep

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Spacing selects how a probability range is sampled.
type Spacing string

const (
	SpacingLog    Spacing = "log"
	SpacingLinear Spacing = "linear"
)

// DefaultProbs is the physical error sweep used when none is configured.
var DefaultProbs = []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.15, 0.2}

// DefaultMeasurementProbs is the readout error sweep used when none is configured.
var DefaultMeasurementProbs = []float64{0, 0.001, 0.005, 0.01, 0.02, 0.05}

// StdErr returns the standard error sqrt(rate*(1-rate)/n) of a Monte Carlo rate.
func StdErr(rate float64, n int) float64 {
	if n <= 0 {
		return math.NaN()
	}
	return math.Sqrt(rate * (1 - rate) / float64(n))
}

// AnalyticLogicalRate is the probability that more than (d-1)/2 of d independent
// bits flip, i.e. that majority vote fails without readout noise.
func AnalyticLogicalRate(d int, p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return 1
	}
	b := distuv.Binomial{N: float64(d), P: p}
	return 1 - b.CDF(float64((d-1)/2))
}

func zScore(confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("confidence must be within (0,1), got %v", confidence)
	}
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2), nil
}

// ProbRange returns points probabilities between lo and hi inclusive.
func ProbRange(lo, hi float64, points int, spacing Spacing) ([]float64, error) {
	if points < 1 {
		return nil, fmt.Errorf("points must be >= 1, got %d", points)
	}
	if lo < 0 || hi > 1 || lo > hi {
		return nil, fmt.Errorf("invalid probability range [%v, %v]", lo, hi)
	}
	if points == 1 {
		return []float64{lo}, nil
	}
	out := make([]float64, points)
	switch spacing {
	case SpacingLinear:
		floats.Span(out, lo, hi)
	case SpacingLog:
		if lo <= 0 {
			return nil, fmt.Errorf("log spacing needs a positive lower bound, got %v", lo)
		}
		floats.LogSpan(out, lo, hi)
	default:
		return nil, fmt.Errorf("unknown spacing %q (expected log or linear)", spacing)
	}
	return out, nil
}
