package stats

import (
	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/sweep"
)

// Report contains precomputed data for sweep rendering.
type Report struct {
	Config         model.SweepConfig
	Points         []model.SweepPoint
	Distances      []int
	Findings       []model.Finding
	Thresholds     map[int]float64
	MeanReductions map[int]float64
}

// BuildReport derives the rendered view of a sweep result.
func BuildReport(result *sweep.Result) Report {
	report := Report{
		Config:         result.Config,
		Points:         result.Points(),
		Distances:      result.Distances(),
		Findings:       result.Findings(),
		Thresholds:     map[int]float64{},
		MeanReductions: map[int]float64{},
	}
	for _, d := range report.Distances {
		if p, ok := result.Threshold(d); ok {
			report.Thresholds[d] = p
		}
		if mean, ok := result.MeanReduction(d); ok {
			report.MeanReductions[d] = mean
		}
	}
	return report
}

// ByDistance returns the report's points for d in sweep order.
func (r Report) ByDistance(d int) []model.SweepPoint {
	var out []model.SweepPoint
	for _, p := range r.Points {
		if p.Distance == d {
			out = append(out, p)
		}
	}
	return out
}
