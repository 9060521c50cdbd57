package noise

import (
	"math/rand/v2"
)

// Injector applies independent bit flips to classical bit slices.
type Injector struct {
	rnd *rand.Rand
}

// NewInjector returns an Injector with a deterministic source for seed.
func NewInjector(seed uint64) *Injector {
	return &Injector{rnd: rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))}
}

// Flip flips every bit independently with probability p and returns the number of
// flips applied.
func (in *Injector) Flip(bits []uint8, p float64) int {
	if p <= 0 {
		return 0
	}
	flips := 0
	for i := range bits {
		if in.rnd.Float64() < p {
			bits[i] ^= 1
			flips++
		}
	}
	return flips
}

// Codeword returns d copies of the logical bit.
func Codeword(d int, logical uint8) []uint8 {
	out := make([]uint8, d)
	for i := range out {
		out[i] = logical & 1
	}
	return out
}

// Parities returns the adjacent parities data[i]^data[i+1].
func Parities(data []uint8) []uint8 {
	if len(data) < 2 {
		return nil
	}
	out := make([]uint8, len(data)-1)
	for i := range out {
		out[i] = data[i] ^ data[i+1]
	}
	return out
}
