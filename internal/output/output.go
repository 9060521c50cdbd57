// Package output writes sweep artifacts to the results directory.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/qecsim/internal/chart"
	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/stats"
)

const (
	SweepCSVName   = "sweep.csv"
	ReadoutCSVName = "readout.csv"
	SummaryName    = "summary.yaml"
)

// Options controls which artifacts are written.
type Options struct {
	Dir   string
	NoPNG bool
	// RunID identifies the run in summary.yaml; a random UUID is used when empty.
	RunID string
	Now   func() time.Time
	Log   zerolog.Logger
}

func (o Options) runID() string {
	if o.RunID != "" {
		return o.RunID
	}
	return uuid.NewString()
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// WriteSweep writes sweep.csv, summary.yaml and, unless disabled, the comparison
// charts. It returns the paths written.
func WriteSweep(report stats.Report, opts Options) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results dir: %w", err)
	}
	var written []string

	csvPath := filepath.Join(opts.Dir, SweepCSVName)
	if err := writeAtomic(csvPath, func(w io.Writer) error { return WritePointsCSV(w, report.Points) }); err != nil {
		return written, err
	}
	written = append(written, csvPath)

	if !opts.NoPNG && len(report.Points) > 0 {
		byDistance := make(map[int][]model.SweepPoint, len(report.Distances))
		for _, d := range report.Distances {
			byDistance[d] = report.ByDistance(d)
			path := filepath.Join(opts.Dir, chart.ProtectedVsUnprotectedName(d, report.Config.Basis))
			if err := chart.ProtectedVsUnprotected(path, byDistance[d], chart.Size{}); err != nil {
				return written, err
			}
			written = append(written, path)
			opts.Log.Debug().Str("path", path).Msg("chart written")
		}
		path := filepath.Join(opts.Dir, chart.CodeSizeComparisonName)
		if err := chart.CodeSizeComparison(path, byDistance, report.Distances, chart.Size{}); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	summaryPath := filepath.Join(opts.Dir, SummaryName)
	summary := NewSweepSummary(report, opts.runID(), opts.now())
	summary.Files = relativeNames(append(written, summaryPath))
	if err := writeAtomic(summaryPath, func(w io.Writer) error { return WriteSummary(w, summary) }); err != nil {
		return written, err
	}
	written = append(written, summaryPath)
	opts.Log.Info().Str("dir", opts.Dir).Int("files", len(written)).Msg("results saved")
	return written, nil
}

// WriteReadout writes readout.csv and, unless disabled, the readout chart.
func WriteReadout(points []model.SweepPoint, opts Options) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results dir: %w", err)
	}
	var written []string
	csvPath := filepath.Join(opts.Dir, ReadoutCSVName)
	if err := writeAtomic(csvPath, func(w io.Writer) error { return WritePointsCSV(w, points) }); err != nil {
		return written, err
	}
	written = append(written, csvPath)

	if !opts.NoPNG && len(points) > 0 {
		path := filepath.Join(opts.Dir, chart.MeasurementImpactName(points[0].Distance))
		if err := chart.MeasurementImpact(path, points, chart.Size{}); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	opts.Log.Info().Str("dir", opts.Dir).Int("files", len(written)).Msg("results saved")
	return written, nil
}

// writeAtomic writes through a temp file in the destination directory and renames
// it into place.
func writeAtomic(path string, fill func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := fill(writer); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func relativeNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
