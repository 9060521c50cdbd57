// Package chart writes PNG plots of sweep results.
package chart

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/verte-zerg/qecsim/internal/model"
)

// ErrNoPoints is returned when a chart would be empty.
var ErrNoPoints = errors.New("no points to plot")

const (
	defaultWidth  = 8 * vg.Inch
	defaultHeight = 5 * vg.Inch
)

// Size sets the output dimensions. The zero value uses 8x5 inches.
type Size struct {
	Width  vg.Length
	Height vg.Length
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = defaultWidth
	}
	if s.Height <= 0 {
		s.Height = defaultHeight
	}
	return s
}

// ProtectedVsUnprotectedName returns the file name for a per-distance comparison.
func ProtectedVsUnprotectedName(d int, basis model.Basis) string {
	if basis == model.BasisPhaseFlip {
		return fmt.Sprintf("protected_vs_unprotected_d%d_phase_flip.png", d)
	}
	return fmt.Sprintf("protected_vs_unprotected_d%d.png", d)
}

// CodeSizeComparisonName is the file name for the all-distances chart.
const CodeSizeComparisonName = "code_size_comparison.png"

// MeasurementImpactName returns the file name for a readout sweep chart.
func MeasurementImpactName(d int) string {
	return fmt.Sprintf("measurement_error_impact_d%d.png", d)
}

// ProtectedVsUnprotected plots one distance's coded rate, with confidence bars,
// against the unprotected rate and the analytic prediction.
func ProtectedVsUnprotected(path string, points []model.SweepPoint, size Size) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	first := points[0]
	p := newRatePlot(
		fmt.Sprintf("%s Repetition Code d=%d vs Unprotected Qubit", first.Basis.Title(), first.Distance),
		"Physical error probability", allPositive(points, physical))

	floor := rateFloor(points)
	codedXYs := ratePoints(points, physical, coded, floor)
	if err := plotutil.AddLinePoints(p,
		"Unprotected", ratePoints(points, physical, unprotected, floor),
		fmt.Sprintf("Protected (d=%d)", first.Distance), codedXYs,
		"Analytic majority vote", ratePoints(points, physical, analytic, floor),
	); err != nil {
		return fmt.Errorf("failed to add lines: %w", err)
	}
	bars, err := plotter.NewYErrorBars(errorPoints(points, codedXYs, floor))
	if err != nil {
		return fmt.Errorf("failed to build error bars: %w", err)
	}
	p.Add(bars)
	return save(p, path, size)
}

// CodeSizeComparison plots every distance's coded rate on one chart.
func CodeSizeComparison(path string, byDistance map[int][]model.SweepPoint, distances []int, size Size) error {
	var all []model.SweepPoint
	for _, d := range distances {
		all = append(all, byDistance[d]...)
	}
	if len(all) == 0 {
		return ErrNoPoints
	}
	floor := rateFloor(all)
	p := newRatePlot(
		fmt.Sprintf("%s Repetition Code: Effect of Code Distance", all[0].Basis.Title()),
		"Physical error probability", allPositive(all, physical))

	var lines []any
	lines = append(lines, "Unprotected", ratePoints(byDistance[all[0].Distance], physical, unprotected, floor))
	for _, d := range distances {
		if len(byDistance[d]) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("d=%d", d), ratePoints(byDistance[d], physical, coded, floor))
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("failed to add lines: %w", err)
	}
	return save(p, path, size)
}

// MeasurementImpact plots coded and unprotected rates against readout error.
func MeasurementImpact(path string, points []model.SweepPoint, size Size) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	first := points[0]
	floor := rateFloor(points)
	p := newRatePlot(
		fmt.Sprintf("Measurement Error Impact (d=%d, p=%g)", first.Distance, first.PhysicalProb),
		"Measurement error probability", false)
	if err := plotutil.AddLinePoints(p,
		"Unprotected", ratePoints(points, measurement, unprotected, floor),
		fmt.Sprintf("Protected (d=%d)", first.Distance), ratePoints(points, measurement, coded, floor),
	); err != nil {
		return fmt.Errorf("failed to add lines: %w", err)
	}
	return save(p, path, size)
}

func newRatePlot(title, xLabel string, logX bool) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Logical error rate"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	if logX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, path string, size Size) error {
	size = size.orDefault()
	if err := p.Save(size.Width, size.Height, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

type axisFn func(model.SweepPoint) float64

func physical(p model.SweepPoint) float64    { return p.PhysicalProb }
func measurement(p model.SweepPoint) float64 { return p.MeasurementProb }
func coded(p model.SweepPoint) float64       { return p.LogicalRate }
func unprotected(p model.SweepPoint) float64 { return p.UnprotectedRate }
func analytic(p model.SweepPoint) float64    { return p.AnalyticRate }

func allPositive(points []model.SweepPoint, x axisFn) bool {
	for _, p := range points {
		if x(p) <= 0 {
			return false
		}
	}
	return true
}

// rateFloor is the value drawn for zero rates on a log axis: half of one error
// in the largest shot count.
func rateFloor(points []model.SweepPoint) float64 {
	shots := 1
	for _, p := range points {
		shots = max(shots, p.Shots)
	}
	return 1 / (2 * float64(shots))
}

func ratePoints(points []model.SweepPoint, x, y axisFn, floor float64) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i].X = x(p)
		xys[i].Y = math.Max(y(p), floor)
	}
	return xys
}

type rateErrors struct {
	plotter.XYs
	plotter.YErrors
}

// errorPoints attaches confidence half-widths to xys, keeping the lower whisker
// above zero for the log axis.
func errorPoints(points []model.SweepPoint, xys plotter.XYs, floor float64) rateErrors {
	errs := make(plotter.YErrors, len(points))
	for i, p := range points {
		low := math.Min(p.LogicalHalfWidth, xys[i].Y-floor/2)
		errs[i].Low = math.Max(low, 0)
		errs[i].High = p.LogicalHalfWidth
	}
	return rateErrors{XYs: xys, YErrors: errs}
}
