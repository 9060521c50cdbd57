// Package decoder infers logical values from repetition-code measurement records.
package decoder

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
)

var (
	// ErrEmptyMeasurements is returned when there is nothing to decode.
	ErrEmptyMeasurements = errors.New("measurement sequence is empty")
	// ErrEvenLength is returned when the data bits cannot form a strict majority.
	ErrEvenLength = errors.New("measurement sequence length must be odd")
	// ErrNonBinary is returned for values other than 0 and 1.
	ErrNonBinary = errors.New("measurement value must be 0 or 1")
	// ErrSyndromeLength is returned when the syndrome does not match the data.
	ErrSyndromeLength = errors.New("syndrome length must be one less than data length")
)

// Decoder maps one shot's syndrome and data measurements to a logical bit.
type Decoder interface {
	Decode(syndrome, data []uint8) (uint8, error)
}

// ForKind returns the decoder for a configured kind.
func ForKind(kind model.DecoderKind) (Decoder, error) {
	switch kind {
	case model.DecoderMajority, "":
		return MajorityVote{}, nil
	case model.DecoderSyndrome:
		return MinWeight{}, nil
	default:
		return nil, fmt.Errorf("unknown decoder %q", kind)
	}
}

// CountErrors decodes every shot and counts those that differ from expected.
func CountErrors(samples stabilizer.Samples, layout model.Layout, expected uint8, dec Decoder) (int, error) {
	if samples.Shots() > 0 && samples.Width() != layout.Width() {
		return 0, fmt.Errorf("samples have %d measurements per shot, layout expects %d", samples.Width(), layout.Width())
	}
	errs := 0
	for i := 0; i < samples.Shots(); i++ {
		syndrome, data, err := layout.Split(samples.Row(i))
		if err != nil {
			return 0, err
		}
		v, err := dec.Decode(syndrome, data)
		if err != nil {
			return 0, fmt.Errorf("failed to decode shot %d: %w", i, err)
		}
		if v != expected {
			errs++
		}
	}
	return errs, nil
}

// LogicalErrorRate returns the fraction of shots decoded to the wrong value.
func LogicalErrorRate(samples stabilizer.Samples, layout model.Layout, expected uint8, dec Decoder) (float64, error) {
	if samples.Shots() == 0 {
		return 0, fmt.Errorf("no shots to decode")
	}
	errs, err := CountErrors(samples, layout, expected, dec)
	if err != nil {
		return 0, err
	}
	return float64(errs) / float64(samples.Shots()), nil
}
