package noise

import (
	"context"
	"fmt"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
)

// SyntheticSampler is a classical stand-in for the stabilizer simulator. It ignores
// the circuit's gates and produces shots for a repetition code prepared in logical 0:
// each data bit flips with Params.Physical, syndrome bits are adjacent parities of the
// noisy data, and every result then flips with Params.Measurement.
type SyntheticSampler struct {
	Layout model.Layout
	Params Params
}

// Sample implements stabilizer.Sampler.
func (s SyntheticSampler) Sample(ctx context.Context, c *stabilizer.Circuit, shots int, seed uint64) (stabilizer.Samples, error) {
	if err := s.Params.Validate(); err != nil {
		return stabilizer.Samples{}, err
	}
	if c != nil && c.NumMeasurements() != s.Layout.Width() {
		return stabilizer.Samples{}, fmt.Errorf("circuit measures %d results, layout expects %d", c.NumMeasurements(), s.Layout.Width())
	}
	if s.Layout.SyndromeBits != 0 && s.Layout.SyndromeBits != s.Layout.DataBits-1 {
		return stabilizer.Samples{}, fmt.Errorf("layout with %d data bits cannot have %d syndrome bits", s.Layout.DataBits, s.Layout.SyndromeBits)
	}

	inj := NewInjector(seed)
	out := stabilizer.NewSamples(shots, s.Layout.Width())
	for shot := 0; shot < shots; shot++ {
		if shot%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return stabilizer.Samples{}, err
			}
		}
		data := Codeword(s.Layout.DataBits, 0)
		inj.Flip(data, s.Params.Physical)
		var syndrome []uint8
		if s.Layout.SyndromeBits > 0 {
			syndrome = Parities(data)
			inj.Flip(syndrome, s.Params.Measurement)
		}
		inj.Flip(data, s.Params.Measurement)

		for m, v := range syndrome {
			out.Set(shot, m, v)
		}
		for i, v := range data {
			out.Set(shot, s.Layout.SyndromeBits+i, v)
		}
	}
	return out, nil
}
