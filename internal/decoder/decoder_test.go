package decoder

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/noise"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
)

var oddDistances = []int{3, 5, 7, 9, 11}

func patternBits(pattern uint, d int) []uint8 {
	out := make([]uint8, d)
	for i := 0; i < d; i++ {
		out[i] = uint8(pattern >> i & 1)
	}
	return out
}

func TestMajorityUniformInputs(t *testing.T) {
	for _, d := range oddDistances {
		v, err := Majority(noise.Codeword(d, 0))
		require.NoError(t, err)
		assert.Equal(t, uint8(0), v, "d=%d zeros", d)

		v, err = Majority(noise.Codeword(d, 1))
		require.NoError(t, err)
		assert.Equal(t, uint8(1), v, "d=%d ones", d)
	}
}

func TestMajorityLawForMinorityFlips(t *testing.T) {
	for _, d := range oddDistances {
		limit := (d - 1) / 2
		for pattern := uint(0); pattern < 1<<d; pattern++ {
			weight := bits.OnesCount(pattern)
			if weight > limit {
				continue
			}
			flipped := patternBits(pattern, d)
			v, err := Majority(flipped)
			require.NoError(t, err)
			require.Equal(t, uint8(0), v, "d=%d pattern=%b from zeros", d, pattern)

			for i := range flipped {
				flipped[i] ^= 1
			}
			v, err = Majority(flipped)
			require.NoError(t, err)
			require.Equal(t, uint8(1), v, "d=%d pattern=%b from ones", d, pattern)
		}
	}
}

func TestMajorityFailsWhenMostBitsFlip(t *testing.T) {
	v, err := Majority([]uint8{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), v)
}

func TestMajorityRejectsMalformedInput(t *testing.T) {
	_, err := Majority(nil)
	assert.ErrorIs(t, err, ErrEmptyMeasurements)
	_, err = Majority([]uint8{0, 1})
	assert.ErrorIs(t, err, ErrEvenLength)
	_, err = Majority([]uint8{0, 2, 1})
	assert.ErrorIs(t, err, ErrNonBinary)
}

func TestMinWeightMatchesMajorityWithCleanSyndrome(t *testing.T) {
	for _, d := range []int{3, 5, 7} {
		for pattern := uint(0); pattern < 1<<d; pattern++ {
			data := patternBits(pattern, d)
			want, err := Majority(data)
			require.NoError(t, err)
			got, err := MinWeight{}.Decode(noise.Parities(data), data)
			require.NoError(t, err)
			require.Equal(t, want, got, "d=%d pattern=%b", d, pattern)
		}
	}
}

func TestMinWeightSurvivesDataReadoutError(t *testing.T) {
	// Qubit 0 flipped before syndrome extraction, then qubit 1 was misread.
	syndrome := []uint8{1, 0}
	data := []uint8{1, 1, 0}

	majority, err := MajorityVote{}.Decode(syndrome, data)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), majority)

	got, err := MinWeight{}.Decode(syndrome, data)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), got)
}

func TestMinWeightRejectsMalformedInput(t *testing.T) {
	_, err := MinWeight{}.Decode([]uint8{0}, []uint8{0, 0, 0})
	assert.ErrorIs(t, err, ErrSyndromeLength)
	_, err = MinWeight{}.Decode(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyMeasurements)
	_, err = MinWeight{}.Decode([]uint8{0, 3}, []uint8{0, 0, 0})
	assert.ErrorIs(t, err, ErrNonBinary)
	_, err = MinWeight{}.Decode([]uint8{0}, []uint8{0, 0})
	assert.ErrorIs(t, err, ErrEvenLength)
}

func TestForKind(t *testing.T) {
	dec, err := ForKind(model.DecoderMajority)
	require.NoError(t, err)
	assert.IsType(t, MajorityVote{}, dec)
	dec, err = ForKind(model.DecoderSyndrome)
	require.NoError(t, err)
	assert.IsType(t, MinWeight{}, dec)
	_, err = ForKind("neural")
	assert.Error(t, err)
}

func TestLogicalErrorRate(t *testing.T) {
	layout := model.Layout{SyndromeBits: 2, DataBits: 3}
	samples, err := stabilizer.SamplesFromRows([][]uint8{
		{0, 0, 0, 0, 0},
		{1, 0, 1, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 1, 1, 1},
	})
	require.NoError(t, err)

	rate, err := LogicalErrorRate(samples, layout, 0, MajorityVote{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rate, 1e-12)

	errs, err := CountErrors(samples, layout, 1, MajorityVote{})
	require.NoError(t, err)
	assert.Equal(t, 2, errs)
}

func TestLogicalErrorRateRejectsLayoutMismatch(t *testing.T) {
	samples, err := stabilizer.SamplesFromRows([][]uint8{{0, 0, 0}})
	require.NoError(t, err)
	_, err = LogicalErrorRate(samples, model.Layout{SyndromeBits: 2, DataBits: 3}, 0, MajorityVote{})
	assert.Error(t, err)
	_, err = LogicalErrorRate(stabilizer.Samples{}, model.Layout{DataBits: 1}, 0, MajorityVote{})
	assert.Error(t, err)
}

func TestAnalyzeSyndromes(t *testing.T) {
	layout := model.Layout{SyndromeBits: 2, DataBits: 3}
	samples, err := stabilizer.SamplesFromRows([][]uint8{
		{0, 0, 0, 0, 0},
		{1, 0, 1, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 1, 0, 0, 1},
	})
	require.NoError(t, err)

	stats, err := AnalyzeSyndromes(samples, layout)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Unique)
	assert.Equal(t, "00", stats.MostCommon)
	assert.Equal(t, 2, stats.MostCommonCount)
	assert.Equal(t, []string{"00", "01", "10"}, stats.Sorted())
}
