// Package sweep runs repetition-code experiments and aggregates logical error rates.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/qecsim/internal/code"
	"github.com/verte-zerg/qecsim/internal/decoder"
	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/noise"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
)

const (
	defaultBatchSize  = 4096
	defaultConfidence = 0.95

	streamProtected   = 1
	streamUnprotected = 2
)

// Progress is reported after each completed point.
type Progress struct {
	Done  int
	Total int
	Point model.SweepPoint
}

// Runner samples circuits through a Sampler and decodes the results.
type Runner struct {
	sampler   stabilizer.Sampler
	log       zerolog.Logger
	workers   int
	batchSize int
	progress  func(Progress)
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds how many shot batches are sampled concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithBatchSize sets the number of shots per sampler call.
func WithBatchSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithProgress registers a callback invoked after every point.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// NewRunner returns a Runner backed by sampler.
func NewRunner(sampler stabilizer.Sampler, log zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		sampler:   sampler,
		log:       log.With().Str("component", "sweep").Logger(),
		workers:   runtime.NumCPU(),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PointSpec fully describes one experiment.
type PointSpec struct {
	Code       code.RepetitionCode
	Noise      noise.Params
	Shots      int
	Decoder    decoder.Decoder
	Seed       uint64
	Confidence float64
}

// RunPoint simulates the protected code and the unprotected baseline under the same
// noise and returns the aggregated point.
func (r *Runner) RunPoint(ctx context.Context, spec PointSpec) (model.SweepPoint, error) {
	if spec.Shots <= 0 {
		return model.SweepPoint{}, fmt.Errorf("shots must be > 0, got %d", spec.Shots)
	}
	if spec.Decoder == nil {
		return model.SweepPoint{}, fmt.Errorf("decoder is nil")
	}
	confidence := spec.Confidence
	if confidence == 0 {
		confidence = defaultConfidence
	}
	z, err := zScore(confidence)
	if err != nil {
		return model.SweepPoint{}, err
	}

	protected, err := spec.Code.Circuit(spec.Noise)
	if err != nil {
		return model.SweepPoint{}, err
	}
	baseline, err := code.Unprotected(spec.Code.Basis(), spec.Noise)
	if err != nil {
		return model.SweepPoint{}, err
	}

	pointSeed := deriveSeed(spec.Seed, uint64(spec.Code.Distance()), math.Float64bits(spec.Noise.Physical), math.Float64bits(spec.Noise.Measurement))
	logicalErrs, err := r.countErrors(ctx, protected, spec.Code.Layout(), spec.Decoder, spec.Shots, deriveSeed(pointSeed, streamProtected))
	if err != nil {
		return model.SweepPoint{}, fmt.Errorf("failed to simulate protected code: %w", err)
	}
	baselineErrs, err := r.countErrors(ctx, baseline, code.UnprotectedLayout, decoder.MajorityVote{}, spec.Shots, deriveSeed(pointSeed, streamUnprotected))
	if err != nil {
		return model.SweepPoint{}, fmt.Errorf("failed to simulate unprotected qubit: %w", err)
	}

	n := float64(spec.Shots)
	point := model.SweepPoint{
		Distance:          spec.Code.Distance(),
		Basis:             spec.Code.Basis(),
		PhysicalProb:      spec.Noise.Physical,
		MeasurementProb:   spec.Noise.Measurement,
		Shots:             spec.Shots,
		LogicalErrors:     logicalErrs,
		LogicalRate:       float64(logicalErrs) / n,
		UnprotectedErrors: baselineErrs,
		UnprotectedRate:   float64(baselineErrs) / n,
		AnalyticRate:      AnalyticLogicalRate(spec.Code.Distance(), spec.Noise.Physical),
	}
	point.LogicalStdErr = StdErr(point.LogicalRate, spec.Shots)
	point.UnprotectedStdErr = StdErr(point.UnprotectedRate, spec.Shots)
	point.LogicalHalfWidth = z * point.LogicalStdErr
	point.UnprotectedHalfWidth = z * point.UnprotectedStdErr

	r.log.Debug().
		Int("distance", point.Distance).
		Float64("p", point.PhysicalProb).
		Float64("p_meas", point.MeasurementProb).
		Float64("logical_rate", point.LogicalRate).
		Float64("unprotected_rate", point.UnprotectedRate).
		Msg("point complete")
	return point, nil
}

// countErrors splits shots into batches sampled by up to r.workers goroutines. Each
// batch has its own seed so the total does not depend on scheduling.
func (r *Runner) countErrors(ctx context.Context, c *stabilizer.Circuit, layout model.Layout, dec decoder.Decoder, shots int, seed uint64) (int, error) {
	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for batch, start := 0, 0; start < shots; batch, start = batch+1, start+r.batchSize {
		size := r.batchSize
		if start+size > shots {
			size = shots - start
		}
		batchSeed := deriveSeed(seed, uint64(batch))
		g.Go(func() error {
			samples, err := r.sampler.Sample(gctx, c, size, batchSeed)
			if err != nil {
				return err
			}
			if samples.Shots() != size {
				return fmt.Errorf("sampler returned %d shots, requested %d", samples.Shots(), size)
			}
			errs, err := decoder.CountErrors(samples, layout, 0, dec)
			if err != nil {
				return err
			}
			total.Add(int64(errs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(total.Load()), nil
}

// Demo runs a single protected vs unprotected comparison.
func (r *Runner) Demo(ctx context.Context, cfg model.DemoConfig) (model.SweepPoint, error) {
	if err := ValidateDemo(cfg); err != nil {
		return model.SweepPoint{}, err
	}
	c, err := code.New(cfg.Distance, cfg.Basis)
	if err != nil {
		return model.SweepPoint{}, err
	}
	dec, err := decoder.ForKind(cfg.Decoder)
	if err != nil {
		return model.SweepPoint{}, err
	}
	return r.RunPoint(ctx, PointSpec{
		Code:    c,
		Noise:   noise.Params{Physical: cfg.PhysicalProb, Measurement: cfg.MeasurementProb},
		Shots:   cfg.Shots,
		Decoder: dec,
		Seed:    cfg.Seed,
	})
}

// Sweep runs every (distance, p) combination. A failing point is skipped and its
// error returned alongside the points that succeeded; cancellation stops the sweep.
func (r *Runner) Sweep(ctx context.Context, cfg model.SweepConfig) (*Result, error) {
	if err := ValidateSweep(cfg); err != nil {
		return nil, err
	}
	dec, err := decoder.ForKind(cfg.Decoder)
	if err != nil {
		return nil, err
	}

	result := NewResult(cfg)
	total := len(cfg.Distances) * len(cfg.Probs)
	done := 0
	var pointErrs []error
	for _, d := range cfg.Distances {
		c, err := code.New(d, cfg.Basis)
		if err != nil {
			return nil, err
		}
		r.log.Info().Int("distance", d).Str("basis", string(cfg.Basis)).Msg("analyzing repetition code")
		for _, p := range cfg.Probs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			point, err := r.RunPoint(ctx, PointSpec{
				Code:       c,
				Noise:      noise.Params{Physical: p, Measurement: cfg.MeasurementProb},
				Shots:      cfg.Shots,
				Decoder:    dec,
				Seed:       cfg.Seed,
				Confidence: cfg.Confidence,
			})
			done++
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				key := model.PointKey{Distance: d, PhysicalProb: p}
				r.log.Error().Err(err).Str("point", key.String()).Msg("sweep point failed")
				pointErrs = append(pointErrs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			if err := result.Add(point); err != nil {
				pointErrs = append(pointErrs, err)
				continue
			}
			r.report(Progress{Done: done, Total: total, Point: point})
		}
	}
	return result, errors.Join(pointErrs...)
}

// Readout sweeps the measurement error probability at a fixed distance and p.
func (r *Runner) Readout(ctx context.Context, cfg model.ReadoutConfig) ([]model.SweepPoint, error) {
	if err := ValidateReadout(cfg); err != nil {
		return nil, err
	}
	c, err := code.New(cfg.Distance, cfg.Basis)
	if err != nil {
		return nil, err
	}
	dec, err := decoder.ForKind(cfg.Decoder)
	if err != nil {
		return nil, err
	}
	points := make([]model.SweepPoint, 0, len(cfg.MeasurementProbs))
	for i, pm := range cfg.MeasurementProbs {
		point, err := r.RunPoint(ctx, PointSpec{
			Code:       c,
			Noise:      noise.Params{Physical: cfg.PhysicalProb, Measurement: pm},
			Shots:      cfg.Shots,
			Decoder:    dec,
			Seed:       cfg.Seed,
			Confidence: cfg.Confidence,
		})
		if err != nil {
			return points, fmt.Errorf("readout p_meas=%g: %w", pm, err)
		}
		points = append(points, point)
		r.report(Progress{Done: i + 1, Total: len(cfg.MeasurementProbs), Point: point})
	}
	return points, nil
}

func (r *Runner) report(p Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}

// deriveSeed mixes its inputs with splitmix64.
func deriveSeed(parts ...uint64) uint64 {
	var h uint64 = 0x6a09e667f3bcc909
	for _, p := range parts {
		h ^= p
		h += 0x9e3779b97f4a7c15
		z := h
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		h = z ^ (z >> 31)
	}
	return h
}
