package decoder

import "fmt"

// Majority returns the value held by more than half of bits. The length must be odd
// so a strict majority always exists.
func Majority(bits []uint8) (uint8, error) {
	if len(bits) == 0 {
		return 0, ErrEmptyMeasurements
	}
	if len(bits)%2 == 0 {
		return 0, fmt.Errorf("%w: got %d", ErrEvenLength, len(bits))
	}
	ones := 0
	for i, b := range bits {
		if b > 1 {
			return 0, fmt.Errorf("%w: bit %d is %d", ErrNonBinary, i, b)
		}
		ones += int(b)
	}
	if 2*ones > len(bits) {
		return 1, nil
	}
	return 0, nil
}

// MajorityVote decodes by majority over the data bits and ignores the syndrome.
type MajorityVote struct{}

// Decode implements Decoder.
func (MajorityVote) Decode(_ []uint8, data []uint8) (uint8, error) {
	return Majority(data)
}
