package sweep

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/qecsim/internal/model"
)

// ErrDuplicatePoint is returned when a sweep key is recorded twice.
var ErrDuplicatePoint = errors.New("sweep point already recorded")

// Result collects sweep points keyed by (distance, p). Each key is written once.
type Result struct {
	Config model.SweepConfig

	mu     sync.RWMutex
	points map[model.PointKey]model.SweepPoint
}

// NewResult returns an empty result for cfg.
func NewResult(cfg model.SweepConfig) *Result {
	return &Result{Config: cfg, points: make(map[model.PointKey]model.SweepPoint)}
}

// Add records p. Adding an existing key fails and leaves the stored point intact.
func (r *Result) Add(p model.SweepPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := p.Key()
	if _, ok := r.points[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePoint, key)
	}
	r.points[key] = p
	return nil
}

// Get returns the point for (d, p).
func (r *Result) Get(d int, p float64) (model.SweepPoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	point, ok := r.points[model.PointKey{Distance: d, PhysicalProb: p}]
	return point, ok
}

// Len returns the number of recorded points.
func (r *Result) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.points)
}

// Points returns all points ordered by distance, then p.
func (r *Result) Points() []model.SweepPoint {
	r.mu.RLock()
	out := make([]model.SweepPoint, 0, len(r.points))
	for _, p := range r.points {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].PhysicalProb < out[j].PhysicalProb
	})
	return out
}

// Distances returns the distinct distances present, ascending.
func (r *Result) Distances() []int {
	seen := map[int]struct{}{}
	var out []int
	for _, p := range r.Points() {
		if _, ok := seen[p.Distance]; ok {
			continue
		}
		seen[p.Distance] = struct{}{}
		out = append(out, p.Distance)
	}
	return out
}

// ByDistance returns the points for d ordered by p.
func (r *Result) ByDistance(d int) []model.SweepPoint {
	var out []model.SweepPoint
	for _, p := range r.Points() {
		if p.Distance == d {
			out = append(out, p)
		}
	}
	return out
}

// Findings returns, per distance, the p with the largest relative error reduction.
// Points with a zero unprotected rate carry no information and are skipped.
func (r *Result) Findings() []model.Finding {
	var out []model.Finding
	for _, d := range r.Distances() {
		var best *model.SweepPoint
		for _, p := range r.ByDistance(d) {
			if p.UnprotectedRate == 0 {
				continue
			}
			if best == nil || p.Reduction() > best.Reduction() {
				p := p
				best = &p
			}
		}
		if best == nil {
			continue
		}
		out = append(out, model.Finding{
			Distance:        d,
			BestProb:        best.PhysicalProb,
			Reduction:       best.Reduction(),
			LogicalRate:     best.LogicalRate,
			UnprotectedRate: best.UnprotectedRate,
		})
	}
	return out
}

// MeanReduction averages the relative reduction over the points for d that have a
// non-zero unprotected rate.
func (r *Result) MeanReduction(d int) (float64, bool) {
	var xs []float64
	for _, p := range r.ByDistance(d) {
		if p.UnprotectedRate > 0 {
			xs = append(xs, p.Reduction())
		}
	}
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}

// Threshold returns the smallest p for d at which the coded rate is no better than
// the unprotected rate. It reports false when coding helps across the whole sweep.
func (r *Result) Threshold(d int) (float64, bool) {
	for _, p := range r.ByDistance(d) {
		if p.UnprotectedRate > 0 && p.LogicalRate >= p.UnprotectedRate {
			return p.PhysicalProb, true
		}
	}
	return 0, false
}
