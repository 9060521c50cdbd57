package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/verte-zerg/qecsim/internal/model"
)

var csvHeader = []string{
	"distance", "basis", "p", "p_meas", "shots",
	"logical_errors", "logical_rate", "logical_stderr", "logical_ci_half_width",
	"unprotected_errors", "unprotected_rate", "unprotected_stderr", "unprotected_ci_half_width",
	"analytic_rate", "reduction", "improved",
}

// WritePointsCSV writes one row per point with a header.
func WritePointsCSV(w io.Writer, points []model.SweepPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{
			strconv.Itoa(p.Distance),
			string(p.Basis),
			formatFloat(p.PhysicalProb),
			formatFloat(p.MeasurementProb),
			strconv.Itoa(p.Shots),
			strconv.Itoa(p.LogicalErrors),
			formatFloat(p.LogicalRate),
			formatFloat(p.LogicalStdErr),
			formatFloat(p.LogicalHalfWidth),
			strconv.Itoa(p.UnprotectedErrors),
			formatFloat(p.UnprotectedRate),
			formatFloat(p.UnprotectedStdErr),
			formatFloat(p.UnprotectedHalfWidth),
			formatFloat(p.AnalyticRate),
			formatFloat(p.Reduction()),
			strconv.FormatBool(p.Improved()),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
