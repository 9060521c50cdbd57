package sweep

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRunner(opts ...Option) *Runner {
	return NewRunner(stabilizer.NewSimulator(), zerolog.Nop(), opts...)
}

// sampling tolerance for the difference of two independent rates.
func diffTolerance(a, b model.SweepPoint) float64 {
	return 3*math.Hypot(a.LogicalStdErr, b.LogicalStdErr) + 1e-4
}

func TestEndToEndDistanceFive(t *testing.T) {
	point, err := newTestRunner().Demo(context.Background(), model.DemoConfig{
		Distance:     5,
		Basis:        model.BasisBitFlip,
		PhysicalProb: 0.05,
		Shots:        20000,
		Seed:         1,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.05, point.UnprotectedRate, 5*math.Sqrt(0.05*0.95/20000))
	assert.Less(t, point.LogicalRate, point.UnprotectedRate/2)
	assert.True(t, point.Improved())
	assert.Equal(t, 20000, point.Shots)
	assert.InDelta(t, point.AnalyticRate, point.LogicalRate, 5*math.Sqrt(point.AnalyticRate/20000)+1e-4)
}

func TestMonotonicInDistanceBelowThreshold(t *testing.T) {
	result, err := newTestRunner().Sweep(context.Background(), model.SweepConfig{
		Distances: []int{3, 5, 7},
		Probs:     []float64{0.01, 0.03, 0.05},
		Basis:     model.BasisBitFlip,
		Shots:     20000,
		Seed:      2,
	})
	require.NoError(t, err)
	require.Equal(t, 9, result.Len())

	for _, p := range []float64{0.01, 0.03, 0.05} {
		prev, ok := result.Get(3, p)
		require.True(t, ok)
		for _, d := range []int{5, 7} {
			cur, ok := result.Get(d, p)
			require.True(t, ok)
			assert.LessOrEqual(t, cur.LogicalRate, prev.LogicalRate+diffTolerance(prev, cur), "p=%g d=%d", p, d)
			prev = cur
		}
	}
}

func TestThresholdBehaviourDistanceThree(t *testing.T) {
	probs := []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.45, 0.6, 0.75}
	result, err := newTestRunner().Sweep(context.Background(), model.SweepConfig{
		Distances: []int{3},
		Probs:     probs,
		Basis:     model.BasisBitFlip,
		Shots:     20000,
		Seed:      3,
	})
	require.NoError(t, err)

	for _, p := range probs {
		point, ok := result.Get(3, p)
		require.True(t, ok)
		assert.InDelta(t, p, point.UnprotectedRate, 5*math.Sqrt(p*(1-p)/20000)+1e-4, "p=%g", p)
	}

	for _, p := range []float64{0.01, 0.05, 0.1, 0.2} {
		point, _ := result.Get(3, p)
		assert.Less(t, point.LogicalRate, p, "p=%g", p)
		assert.True(t, point.Improved(), "p=%g", p)
	}
	for _, p := range []float64{0.6, 0.75} {
		point, _ := result.Get(3, p)
		assert.Greater(t, point.LogicalRate, p, "p=%g", p)
		assert.False(t, point.Improved(), "p=%g", p)
	}

	// The advantage shrinks as p approaches the crossover.
	low, _ := result.Get(3, 0.05)
	high, _ := result.Get(3, 0.45)
	assert.Greater(t, low.Reduction(), high.Reduction())

	threshold, ok := result.Threshold(3)
	require.True(t, ok)
	assert.Equal(t, 0.6, threshold)
}

func TestReadoutNoiseDegradesLogicalRate(t *testing.T) {
	points, err := newTestRunner().Readout(context.Background(), model.ReadoutConfig{
		Distance:         5,
		PhysicalProb:     0.05,
		MeasurementProbs: DefaultMeasurementProbs,
		Basis:            model.BasisBitFlip,
		Shots:            20000,
		Seed:             4,
	})
	require.NoError(t, err)
	require.Len(t, points, len(DefaultMeasurementProbs))

	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		assert.GreaterOrEqual(t, cur.LogicalRate, prev.LogicalRate-diffTolerance(prev, cur),
			"p_meas %g -> %g", prev.MeasurementProb, cur.MeasurementProb)
	}
	first, last := points[0], points[len(points)-1]
	assert.Greater(t, last.LogicalRate, first.LogicalRate)
	assert.Greater(t, last.UnprotectedRate, first.UnprotectedRate)
}

func TestPhaseFlipSweepMatchesBitFlip(t *testing.T) {
	cfg := model.SweepConfig{
		Distances: []int{3},
		Probs:     []float64{0.1},
		Shots:     20000,
		Seed:      5,
	}
	runner := newTestRunner()

	cfg.Basis = model.BasisBitFlip
	bit, err := runner.Sweep(context.Background(), cfg)
	require.NoError(t, err)
	cfg.Basis = model.BasisPhaseFlip
	phase, err := runner.Sweep(context.Background(), cfg)
	require.NoError(t, err)

	b, _ := bit.Get(3, 0.1)
	p, _ := phase.Get(3, 0.1)
	assert.InDelta(t, b.LogicalRate, p.LogicalRate, diffTolerance(b, p))
	assert.Equal(t, model.BasisPhaseFlip, p.Basis)
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := model.DemoConfig{
		Distance:        3,
		Basis:           model.BasisBitFlip,
		PhysicalProb:    0.1,
		MeasurementProb: 0.01,
		Shots:           5000,
		Seed:            42,
	}
	one, err := newTestRunner(WithWorkers(1), WithBatchSize(256)).Demo(context.Background(), cfg)
	require.NoError(t, err)
	many, err := newTestRunner(WithWorkers(8), WithBatchSize(256)).Demo(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, one, many)

	cfg.Seed = 43
	other, err := newTestRunner(WithWorkers(8), WithBatchSize(256)).Demo(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, one, other)
}

func TestSyndromeDecoderAgreesWithMajorityWithoutReadoutNoise(t *testing.T) {
	cfg := model.DemoConfig{
		Distance:     5,
		Basis:        model.BasisBitFlip,
		PhysicalProb: 0.1,
		Shots:        5000,
		Seed:         6,
	}
	runner := newTestRunner()
	cfg.Decoder = model.DecoderMajority
	majority, err := runner.Demo(context.Background(), cfg)
	require.NoError(t, err)
	cfg.Decoder = model.DecoderSyndrome
	syndrome, err := runner.Demo(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, majority.LogicalErrors, syndrome.LogicalErrors)
}

type failingSampler struct {
	inner    stabilizer.Sampler
	failWith int
	calls    atomic.Int32
}

var errSamplerBoom = errors.New("sampler exploded")

func (f *failingSampler) Sample(ctx context.Context, c *stabilizer.Circuit, shots int, seed uint64) (stabilizer.Samples, error) {
	f.calls.Add(1)
	if c.NumQubits() == f.failWith {
		return stabilizer.Samples{}, errSamplerBoom
	}
	return f.inner.Sample(ctx, c, shots, seed)
}

func TestSweepIsolatesFailedPoints(t *testing.T) {
	// d=5 uses 9 qubits.
	sampler := &failingSampler{inner: stabilizer.NewSimulator(), failWith: 9}
	runner := NewRunner(sampler, zerolog.Nop())
	var seen []model.PointKey
	runner.progress = func(p Progress) { seen = append(seen, p.Point.Key()) }

	result, err := runner.Sweep(context.Background(), model.SweepConfig{
		Distances: []int{3, 5, 7},
		Probs:     []float64{0.05, 0.1},
		Basis:     model.BasisBitFlip,
		Shots:     500,
		Seed:      7,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errSamplerBoom)
	assert.Contains(t, err.Error(), "d=5 p=0.05")
	assert.Contains(t, err.Error(), "d=5 p=0.1")

	require.NotNil(t, result)
	assert.Equal(t, 4, result.Len())
	assert.Equal(t, []int{3, 7}, result.Distances())
	_, ok := result.Get(5, 0.05)
	assert.False(t, ok)
	assert.Len(t, seen, 4)
}

func TestSweepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRunner().Sweep(ctx, model.SweepConfig{
		Distances: []int{3},
		Probs:     []float64{0.1},
		Basis:     model.BasisBitFlip,
		Shots:     100,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweepValidatesBeforeSimulating(t *testing.T) {
	sampler := &failingSampler{inner: stabilizer.NewSimulator()}
	runner := NewRunner(sampler, zerolog.Nop())
	cases := map[string]model.SweepConfig{
		"even distance":  {Distances: []int{4}, Probs: []float64{0.1}, Basis: model.BasisBitFlip, Shots: 10},
		"no distances":   {Probs: []float64{0.1}, Basis: model.BasisBitFlip, Shots: 10},
		"no probs":       {Distances: []int{3}, Basis: model.BasisBitFlip, Shots: 10},
		"bad prob":       {Distances: []int{3}, Probs: []float64{1.2}, Basis: model.BasisBitFlip, Shots: 10},
		"bad p_meas":     {Distances: []int{3}, Probs: []float64{0.1}, MeasurementProb: -1, Basis: model.BasisBitFlip, Shots: 10},
		"zero shots":     {Distances: []int{3}, Probs: []float64{0.1}, Basis: model.BasisBitFlip},
		"bad basis":      {Distances: []int{3}, Probs: []float64{0.1}, Basis: "y", Shots: 10},
		"bad decoder":    {Distances: []int{3}, Probs: []float64{0.1}, Basis: model.BasisBitFlip, Shots: 10, Decoder: "neural"},
		"dup distance":   {Distances: []int{3, 3}, Probs: []float64{0.1}, Basis: model.BasisBitFlip, Shots: 10},
		"dup prob":       {Distances: []int{3}, Probs: []float64{0.1, 0.1}, Basis: model.BasisBitFlip, Shots: 10},
		"bad confidence": {Distances: []int{3}, Probs: []float64{0.1}, Basis: model.BasisBitFlip, Shots: 10, Confidence: 1.5},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runner.Sweep(context.Background(), cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
	assert.Zero(t, sampler.calls.Load())
}

type shortSampler struct{}

func (shortSampler) Sample(_ context.Context, c *stabilizer.Circuit, shots int, _ uint64) (stabilizer.Samples, error) {
	return stabilizer.NewSamples(shots/2, c.NumMeasurements()), nil
}

func TestRunPointRejectsShortSamples(t *testing.T) {
	runner := NewRunner(shortSampler{}, zerolog.Nop())
	_, err := runner.Demo(context.Background(), model.DemoConfig{
		Distance: 3, Basis: model.BasisBitFlip, PhysicalProb: 0.1, Shots: 100,
	})
	assert.ErrorContains(t, err, "sampler returned 50 shots")
}
