package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/qecsim/internal/decoder"
	"github.com/verte-zerg/qecsim/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RenderOptions sizes terminal plots.
type RenderOptions struct {
	TotalWidth int
	Height     int
	Color      bool
}

func (o RenderOptions) plotWidth() int {
	if o.TotalWidth > 0 {
		return PlotWidthFor(o.TotalWidth)
	}
	return 0
}

// FormatRate prints a rate with enough digits for small values.
func FormatRate(r float64) string {
	if r != 0 && r < 0.001 {
		return fmt.Sprintf("%.2e", r)
	}
	return fmt.Sprintf("%.4f", r)
}

// FormatPercent prints a fraction as a percentage.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSweepConfig prints the sweep parameters.
func RenderSweepConfig(w io.Writer, cfg model.SweepConfig) error {
	probs := make([]string, len(cfg.Probs))
	for i, p := range cfg.Probs {
		probs[i] = fmt.Sprintf("%g", p)
	}
	distances := make([]string, len(cfg.Distances))
	for i, d := range cfg.Distances {
		distances[i] = fmt.Sprintf("%d", d)
	}
	lines := []string{
		fmt.Sprintf("%s Repetition Code Analysis", cfg.Basis.Title()),
		fmt.Sprintf("Distances: %s", strings.Join(distances, ", ")),
		fmt.Sprintf("Physical error probabilities: %s", strings.Join(probs, ", ")),
		fmt.Sprintf("Measurement error probability: %g", cfg.MeasurementProb),
		fmt.Sprintf("Shots per point: %d", cfg.Shots),
		fmt.Sprintf("Decoder: %s", decoderName(cfg.Decoder)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SweepTable lays out one row per point.
func SweepTable(points []model.SweepPoint) Table {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		improved := "no"
		if p.Improved() {
			improved = "yes"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.Distance),
			fmt.Sprintf("%g", p.PhysicalProb),
			fmt.Sprintf("%g", p.MeasurementProb),
			FormatRate(p.LogicalRate),
			FormatRate(p.LogicalHalfWidth),
			FormatRate(p.UnprotectedRate),
			FormatRate(p.AnalyticRate),
			FormatPercent(p.Reduction()),
			improved,
		})
	}
	return Table{
		Headers:    []string{"d", "p", "p_meas", "Coded", "±", "Unprotected", "Analytic", "Reduction", "Improved"},
		Rows:       rows,
		RightAlign: map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true},
	}
}

// RenderSweepCurves plots the coded rate per distance against the unprotected rate.
func RenderSweepCurves(w io.Writer, report Report, opts RenderOptions) error {
	if len(report.Points) == 0 {
		return nil
	}
	var series []Series
	var baseline []float64
	var xLabels []string
	for i, d := range report.Distances {
		points := report.ByDistance(d)
		values := make([]float64, len(points))
		for j, p := range points {
			values[j] = p.LogicalRate
		}
		series = append(series, Series{Name: fmt.Sprintf("d=%d", d), Values: values})
		if i == 0 {
			for _, p := range points {
				baseline = append(baseline, p.UnprotectedRate)
			}
			xLabels = []string{
				fmt.Sprintf("p=%g", points[0].PhysicalProb),
				fmt.Sprintf("p=%g", points[len(points)-1].PhysicalProb),
			}
		}
	}
	series = append(series, Series{Name: "unprotected", Values: baseline})
	return PlotSeries(w, series, PlotOptions{
		Title:      "Logical Error Rate vs Physical Error Rate",
		XLabels:    xLabels,
		Width:      opts.plotWidth(),
		Height:     opts.Height,
		Log:        true,
		ForceColor: opts.Color,
	})
}

// RenderFindings prints the best operating point per distance and the threshold
// estimates.
func RenderFindings(w io.Writer, report Report) error {
	if _, err := fmt.Fprintln(w, "Key Findings"); err != nil {
		return err
	}
	if len(report.Findings) == 0 {
		_, err := fmt.Fprintln(w, "No informative points (unprotected rate was zero everywhere).")
		return err
	}
	for _, f := range report.Findings {
		var trend []float64
		for _, p := range report.ByDistance(f.Distance) {
			trend = append(trend, p.Reduction())
		}
		line := fmt.Sprintf("d=%d: best at p=%g, %s reduction (%s -> %s)  trend [%s]",
			f.Distance, f.BestProb, FormatPercent(f.Reduction),
			FormatRate(f.UnprotectedRate), FormatRate(f.LogicalRate), Sparkline(trend))
		if mean, ok := report.MeanReductions[f.Distance]; ok {
			line += fmt.Sprintf("  mean %s", FormatPercent(mean))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, d := range report.Distances {
		msg := fmt.Sprintf("d=%d: coding helps across the whole sweep", d)
		if p, ok := report.Thresholds[d]; ok {
			msg = fmt.Sprintf("d=%d: coding stops helping at p=%g", d, p)
		}
		if _, err := fmt.Fprintln(w, msg); err != nil {
			return err
		}
	}
	if weak := SelectWeakPoints(report.Points); len(weak) > 0 {
		keys := make([]string, len(weak))
		for i, p := range weak {
			keys[i] = p.Key().String()
		}
		if _, err := fmt.Fprintf(w, "No significant benefit at: %s\n", strings.Join(keys, ", ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderReport prints the full sweep report.
func RenderReport(w io.Writer, report Report, opts RenderOptions) error {
	if err := RenderSweepConfig(w, report.Config); err != nil {
		return err
	}
	if len(report.Points) == 0 {
		_, err := fmt.Fprintln(w, "No sweep points completed.")
		return err
	}
	if err := SweepTable(report.Points).Write(w); err != nil {
		return err
	}
	if err := RenderSweepCurves(w, report, opts); err != nil {
		return err
	}
	return RenderFindings(w, report)
}

// RenderDemo prints a single protected vs unprotected comparison.
func RenderDemo(w io.Writer, p model.SweepPoint, syndromes *decoder.SyndromeStats) error {
	verdict := "FAIL: coding did not reduce the error rate"
	switch {
	case p.Improved():
		verdict = "PASS: coding reduced the logical error rate"
	case p.LogicalRate < p.UnprotectedRate:
		verdict = "INCONCLUSIVE: reduction within sampling noise"
	}
	lines := []string{
		fmt.Sprintf("%s Repetition Code, d=%d", p.Basis.Title(), p.Distance),
		fmt.Sprintf("Physical error probability: %g (%s errors)", p.PhysicalProb, p.Basis.Pauli()),
		fmt.Sprintf("Measurement error probability: %g", p.MeasurementProb),
		fmt.Sprintf("Shots: %d", p.Shots),
		"",
		fmt.Sprintf("Unprotected: %s ± %s (%d errors)", FormatRate(p.UnprotectedRate), FormatRate(p.UnprotectedHalfWidth), p.UnprotectedErrors),
		fmt.Sprintf("Protected:   %s ± %s (%d errors)", FormatRate(p.LogicalRate), FormatRate(p.LogicalHalfWidth), p.LogicalErrors),
		fmt.Sprintf("Analytic:    %s", FormatRate(p.AnalyticRate)),
		fmt.Sprintf("Reduction:   %s", FormatPercent(p.Reduction())),
		verdict,
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if syndromes == nil || syndromes.Total == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Syndromes: %d unique patterns, most common %q (%d/%d)\n",
		syndromes.Unique, syndromes.MostCommon, syndromes.MostCommonCount, syndromes.Total); err != nil {
		return err
	}
	rows := [][]string{}
	for _, pattern := range TopSyndromes(*syndromes, 5) {
		count := syndromes.Patterns[pattern]
		rows = append(rows, []string{pattern, fmt.Sprintf("%d", count), FormatPercent(float64(count) / float64(syndromes.Total))})
	}
	return Table{
		Headers:    []string{"Syndrome", "Count", "Share"},
		Rows:       rows,
		RightAlign: map[int]bool{1: true, 2: true},
	}.Write(w)
}

// RenderReadout prints the readout-noise sweep and its trend.
func RenderReadout(w io.Writer, points []model.SweepPoint, opts RenderOptions) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, "No readout points completed.")
		return err
	}
	first := points[0]
	if _, err := fmt.Fprintf(w, "Measurement Error Impact (d=%d, p=%g)\n", first.Distance, first.PhysicalProb); err != nil {
		return err
	}
	if err := SweepTable(points).Write(w); err != nil {
		return err
	}
	coded := make([]float64, len(points))
	unprotected := make([]float64, len(points))
	for i, p := range points {
		coded[i] = p.LogicalRate
		unprotected[i] = p.UnprotectedRate
	}
	return PlotSeries(w, []Series{
		{Name: fmt.Sprintf("d=%d", first.Distance), Values: coded},
		{Name: "unprotected", Values: unprotected},
	}, PlotOptions{
		Title: "Logical Error Rate vs Measurement Error Rate",
		XLabels: []string{
			fmt.Sprintf("p_meas=%g", first.MeasurementProb),
			fmt.Sprintf("p_meas=%g", points[len(points)-1].MeasurementProb),
		},
		Width:      opts.plotWidth(),
		Height:     opts.Height,
		Log:        true,
		ForceColor: opts.Color,
	})
}

func decoderName(kind model.DecoderKind) string {
	if kind == "" {
		return string(model.DecoderMajority)
	}
	return string(kind)
}
