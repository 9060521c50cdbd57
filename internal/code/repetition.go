// Package code builds repetition-code circuits.
package code

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/noise"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
)

// ErrInvalidDistance is returned for even distances or distances below 3.
var ErrInvalidDistance = errors.New("code distance must be odd and >= 3")

// RepetitionCode encodes one logical qubit into Distance physical qubits. Data qubits
// are 0..d-1 and the syndrome ancillas d..2d-2.
type RepetitionCode struct {
	distance int
	basis    model.Basis
}

// New validates the distance and basis.
func New(distance int, basis model.Basis) (RepetitionCode, error) {
	if distance < 3 || distance%2 == 0 {
		return RepetitionCode{}, fmt.Errorf("%w: got %d", ErrInvalidDistance, distance)
	}
	if basis != model.BasisBitFlip && basis != model.BasisPhaseFlip {
		return RepetitionCode{}, fmt.Errorf("unknown basis %q", basis)
	}
	return RepetitionCode{distance: distance, basis: basis}, nil
}

// Distance returns the number of data qubits.
func (c RepetitionCode) Distance() int { return c.distance }

// Basis returns the protected basis.
func (c RepetitionCode) Basis() model.Basis { return c.basis }

// NumAncillas returns the number of syndrome measurements per shot.
func (c RepetitionCode) NumAncillas() int { return c.distance - 1 }

// Correctable returns the number of flips the code always corrects.
func (c RepetitionCode) Correctable() int { return (c.distance - 1) / 2 }

// Layout returns the shape of one shot's measurement record.
func (c RepetitionCode) Layout() model.Layout {
	return model.Layout{SyndromeBits: c.NumAncillas(), DataBits: c.distance}
}

// Circuit returns the encode, noise, syndrome extraction and readout circuit for
// logical 0 (|0>_L for bit-flip, |+>_L for phase-flip).
func (c RepetitionCode) Circuit(params noise.Params) (*stabilizer.Circuit, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	d := c.distance
	data := qubits(0, d)
	b := newBuilder()

	for i := 1; i < d; i++ {
		b.add(stabilizer.OpCX, []int{0, i})
	}
	if c.basis == model.BasisPhaseFlip {
		b.add(stabilizer.OpH, data)
	}

	if params.Physical > 0 {
		b.add(physicalChannel(c.basis), data, params.Physical)
	}

	// Rotate back so Z errors read out as bit flips and the parity checks below
	// measure X-parities of the encoded state.
	if c.basis == model.BasisPhaseFlip {
		b.add(stabilizer.OpH, data)
	}

	for i := 0; i < c.NumAncillas(); i++ {
		ancilla := d + i
		b.add(stabilizer.OpR, []int{ancilla})
		b.add(stabilizer.OpCX, []int{i, ancilla})
		b.add(stabilizer.OpCX, []int{i + 1, ancilla})
		if params.Measurement > 0 {
			b.add(stabilizer.OpXError, []int{ancilla}, params.Measurement)
		}
		b.add(stabilizer.OpM, []int{ancilla})
	}

	if params.Measurement > 0 {
		b.add(stabilizer.OpXError, data, params.Measurement)
	}
	b.add(stabilizer.OpM, data)
	return b.build()
}

// UnprotectedLayout is the record shape of the single-qubit baseline.
var UnprotectedLayout = model.Layout{SyndromeBits: 0, DataBits: 1}

// Unprotected returns the single-qubit baseline circuit under the same noise.
func Unprotected(basis model.Basis, params noise.Params) (*stabilizer.Circuit, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	b := newBuilder()
	q := []int{0}
	if basis == model.BasisPhaseFlip {
		b.add(stabilizer.OpH, q)
	}
	if params.Physical > 0 {
		b.add(physicalChannel(basis), q, params.Physical)
	}
	if basis == model.BasisPhaseFlip {
		b.add(stabilizer.OpH, q)
	}
	if params.Measurement > 0 {
		b.add(stabilizer.OpXError, q, params.Measurement)
	}
	b.add(stabilizer.OpM, q)
	return b.build()
}

func physicalChannel(basis model.Basis) stabilizer.Op {
	if basis == model.BasisPhaseFlip {
		return stabilizer.OpZError
	}
	return stabilizer.OpXError
}

func qubits(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

type builder struct {
	c   *stabilizer.Circuit
	err error
}

func newBuilder() *builder {
	return &builder{c: stabilizer.NewCircuit()}
}

func (b *builder) add(op stabilizer.Op, targets []int, args ...float64) {
	if b.err != nil {
		return
	}
	if err := b.c.Append(op, targets, args...); err != nil {
		b.err = fmt.Errorf("failed to build circuit: %w", err)
	}
}

func (b *builder) build() (*stabilizer.Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.c, nil
}
