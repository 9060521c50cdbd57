package stabilizer

import (
	"context"
	"fmt"
	"math/rand/v2"
)

const laneWidth = 64

// Sampler turns a circuit into a matrix of measurement results.
type Sampler interface {
	Sample(ctx context.Context, c *Circuit, shots int, seed uint64) (Samples, error)
}

// Samples is a row-major shots x measurements matrix of bits.
type Samples struct {
	shots int
	width int
	bits  []uint8
}

// NewSamples allocates an all-zero sample matrix.
func NewSamples(shots, width int) Samples {
	return Samples{shots: shots, width: width, bits: make([]uint8, shots*width)}
}

// SamplesFromRows builds a sample matrix from equal-length rows.
func SamplesFromRows(rows [][]uint8) (Samples, error) {
	if len(rows) == 0 {
		return Samples{}, nil
	}
	width := len(rows[0])
	s := NewSamples(len(rows), width)
	for i, row := range rows {
		if len(row) != width {
			return Samples{}, fmt.Errorf("row %d has %d measurements, expected %d", i, len(row), width)
		}
		copy(s.bits[i*width:], row)
	}
	return s, nil
}

// Shots returns the number of rows.
func (s Samples) Shots() int {
	return s.shots
}

// Width returns the number of measurements per shot.
func (s Samples) Width() int {
	return s.width
}

// Row returns the measurement record for one shot. The slice aliases the matrix.
func (s Samples) Row(shot int) []uint8 {
	return s.bits[shot*s.width : (shot+1)*s.width]
}

// Set writes a single bit.
func (s Samples) Set(shot, m int, v uint8) {
	s.bits[shot*s.width+m] = v & 1
}

// Simulator samples circuits by propagating Pauli frames against a noiseless
// reference record computed with a Tableau. Shots are processed 64 at a time, one
// per bit lane.
type Simulator struct{}

// NewSimulator returns a frame-based sampler.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Sample implements Sampler.
func (s *Simulator) Sample(ctx context.Context, c *Circuit, shots int, seed uint64) (Samples, error) {
	if c == nil {
		return Samples{}, fmt.Errorf("circuit is nil")
	}
	if shots < 0 {
		return Samples{}, fmt.Errorf("shots must be >= 0, got %d", shots)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	reference, err := NewTableau(c.NumQubits()).Run(c, func() uint8 { return 0 })
	if err != nil {
		return Samples{}, fmt.Errorf("failed to compute reference sample: %w", err)
	}

	out := NewSamples(shots, c.NumMeasurements())
	frame := newFrame(c.NumQubits())
	for start := 0; start < shots; start += laneWidth {
		if err := ctx.Err(); err != nil {
			return Samples{}, err
		}
		lanes := shots - start
		if lanes > laneWidth {
			lanes = laneWidth
		}
		record := frame.run(c, rng)
		for m, flips := range record {
			ref := reference[m]
			for lane := 0; lane < lanes; lane++ {
				out.bits[(start+lane)*out.width+m] = ref ^ uint8(flips>>lane&1)
			}
		}
	}
	return out, nil
}

type frame struct {
	x []uint64
	z []uint64
}

func newFrame(n int) *frame {
	return &frame{x: make([]uint64, n), z: make([]uint64, n)}
}

// run propagates one batch of 64 frames and returns, per measurement, a mask of
// lanes whose result is flipped relative to the reference.
func (f *frame) run(c *Circuit, rng *rand.Rand) []uint64 {
	for q := range f.x {
		f.x[q] = 0
		// Z on a |0> preparation is a no-op, so it is free to randomise; this is
		// what makes non-deterministic measurements come out uniformly random.
		f.z[q] = rng.Uint64()
	}
	record := make([]uint64, 0, c.NumMeasurements())
	for _, ins := range c.instructions {
		switch ins.Op {
		case OpH:
			for _, q := range ins.Targets {
				f.x[q], f.z[q] = f.z[q], f.x[q]
			}
		case OpCX:
			for i := 0; i < len(ins.Targets); i += 2 {
				a, b := ins.Targets[i], ins.Targets[i+1]
				f.x[b] ^= f.x[a]
				f.z[a] ^= f.z[b]
			}
		case OpR:
			for _, q := range ins.Targets {
				f.x[q] = 0
				f.z[q] = rng.Uint64()
			}
		case OpM:
			for _, q := range ins.Targets {
				record = append(record, f.x[q])
				f.z[q] = rng.Uint64()
			}
		case OpXError:
			for _, q := range ins.Targets {
				f.x[q] ^= bernoulliMask(rng, ins.Prob)
			}
		case OpZError:
			for _, q := range ins.Targets {
				f.z[q] ^= bernoulliMask(rng, ins.Prob)
			}
		}
	}
	return record
}

// bernoulliMask returns 64 independent bits, each set with probability p.
func bernoulliMask(rng *rand.Rand, p float64) uint64 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return ^uint64(0)
	case p == 0.5:
		return rng.Uint64()
	}
	var mask uint64
	for lane := 0; lane < laneWidth; lane++ {
		if rng.Float64() < p {
			mask |= 1 << lane
		}
	}
	return mask
}
