package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/qecsim/internal/model"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func points(d int) []model.SweepPoint {
	var out []model.SweepPoint
	for _, p := range []float64{0.01, 0.05, 0.1} {
		out = append(out, model.SweepPoint{
			Distance:         d,
			Basis:            model.BasisBitFlip,
			PhysicalProb:     p,
			Shots:            1000,
			LogicalRate:      p * p,
			UnprotectedRate:  p,
			AnalyticRate:     p * p,
			LogicalHalfWidth: 0.002,
		})
	}
	// Zero rates must not break the log axis.
	out[0].LogicalRate = 0
	return out
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "protected_vs_unprotected_d5.png", ProtectedVsUnprotectedName(5, model.BasisBitFlip))
	assert.Equal(t, "protected_vs_unprotected_d3_phase_flip.png", ProtectedVsUnprotectedName(3, model.BasisPhaseFlip))
	assert.Equal(t, "measurement_error_impact_d5.png", MeasurementImpactName(5))
}

func TestProtectedVsUnprotectedWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProtectedVsUnprotectedName(3, model.BasisBitFlip))
	require.NoError(t, ProtectedVsUnprotected(path, points(3), Size{}))
	assertPNG(t, path)
}

func TestCodeSizeComparisonWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), CodeSizeComparisonName)
	byDistance := map[int][]model.SweepPoint{3: points(3), 5: points(5)}
	require.NoError(t, CodeSizeComparison(path, byDistance, []int{3, 5}, Size{Width: 300, Height: 200}))
	assertPNG(t, path)
}

func TestMeasurementImpactWritesPNG(t *testing.T) {
	pts := points(5)
	for i := range pts {
		pts[i].PhysicalProb = 0.05
		pts[i].MeasurementProb = float64(i) * 0.01
	}
	path := filepath.Join(t.TempDir(), MeasurementImpactName(5))
	require.NoError(t, MeasurementImpact(path, pts, Size{}))
	assertPNG(t, path)
}

func TestEmptyChartsAreRejected(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, ProtectedVsUnprotected(filepath.Join(dir, "a.png"), nil, Size{}), ErrNoPoints)
	assert.ErrorIs(t, CodeSizeComparison(filepath.Join(dir, "b.png"), nil, []int{3}, Size{}), ErrNoPoints)
	assert.ErrorIs(t, MeasurementImpact(filepath.Join(dir, "c.png"), nil, Size{}), ErrNoPoints)
}
