package decoder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
)

// MinWeight decodes from the syndrome. Adjacent-parity syndromes on a line are
// explained by exactly two complementary error patterns; the lighter one is removed
// from the data readout before taking the majority. With noiseless syndromes it
// agrees with MajorityVote.
type MinWeight struct{}

// Decode implements Decoder.
func (MinWeight) Decode(syndrome, data []uint8) (uint8, error) {
	if len(data) == 0 {
		return 0, ErrEmptyMeasurements
	}
	if len(data)%2 == 0 {
		return 0, fmt.Errorf("%w: got %d", ErrEvenLength, len(data))
	}
	if len(syndrome) != len(data)-1 {
		return 0, fmt.Errorf("%w: %d syndrome bits for %d data bits", ErrSyndromeLength, len(syndrome), len(data))
	}

	// pattern[0] is 0; the complement is the other candidate.
	pattern := make([]uint8, len(data))
	weight := 0
	for i, s := range syndrome {
		if s > 1 {
			return 0, fmt.Errorf("%w: syndrome bit %d is %d", ErrNonBinary, i, s)
		}
		pattern[i+1] = pattern[i] ^ s
		weight += int(pattern[i+1])
	}
	var complement uint8
	if 2*weight > len(data) {
		complement = 1
	}
	corrected := make([]uint8, len(data))
	for i, b := range data {
		if b > 1 {
			return 0, fmt.Errorf("%w: data bit %d is %d", ErrNonBinary, i, b)
		}
		corrected[i] = b ^ pattern[i] ^ complement
	}
	return Majority(corrected)
}

// SyndromeStats summarises which syndrome patterns occurred across shots.
type SyndromeStats struct {
	Patterns        map[string]int
	Unique          int
	MostCommon      string
	MostCommonCount int
	Total           int
}

// Sorted returns patterns ordered by descending count, then pattern.
func (s SyndromeStats) Sorted() []string {
	keys := make([]string, 0, len(s.Patterns))
	for k := range s.Patterns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.Patterns[keys[i]] == s.Patterns[keys[j]] {
			return keys[i] < keys[j]
		}
		return s.Patterns[keys[i]] > s.Patterns[keys[j]]
	})
	return keys
}

// AnalyzeSyndromes counts syndrome patterns, rendered as bit strings like "0110".
func AnalyzeSyndromes(samples stabilizer.Samples, layout model.Layout) (SyndromeStats, error) {
	stats := SyndromeStats{Patterns: map[string]int{}, Total: samples.Shots()}
	var b strings.Builder
	for i := 0; i < samples.Shots(); i++ {
		syndrome, _, err := layout.Split(samples.Row(i))
		if err != nil {
			return SyndromeStats{}, err
		}
		b.Reset()
		for _, v := range syndrome {
			b.WriteByte('0' + v&1)
		}
		stats.Patterns[b.String()]++
	}
	stats.Unique = len(stats.Patterns)
	if sorted := stats.Sorted(); len(sorted) > 0 {
		stats.MostCommon = sorted[0]
		stats.MostCommonCount = stats.Patterns[sorted[0]]
	}
	return stats, nil
}
