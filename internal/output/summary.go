package output

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/stats"
)

// Summary is the machine-readable record of a sweep written to summary.yaml.
type Summary struct {
	RunID     string           `yaml:"run_id"`
	CreatedAt time.Time        `yaml:"created_at"`
	Config    SummaryConfig    `yaml:"config"`
	Findings  []SummaryFinding `yaml:"findings"`
	// Thresholds maps distance to the first p where coding stopped helping.
	Thresholds    map[int]float64 `yaml:"thresholds,omitempty"`
	TopReductions []SummaryPoint  `yaml:"top_reductions,omitempty"`
	Points        []SummaryPoint  `yaml:"points"`
	Files         []string        `yaml:"files"`
}

// SummaryConfig mirrors the sweep configuration.
type SummaryConfig struct {
	Basis           string    `yaml:"basis"`
	Decoder         string    `yaml:"decoder"`
	Distances       []int     `yaml:"distances,flow"`
	Probs           []float64 `yaml:"probs,flow"`
	MeasurementProb float64   `yaml:"p_meas"`
	Shots           int       `yaml:"shots"`
	Seed            uint64    `yaml:"seed"`
	Confidence      float64   `yaml:"confidence,omitempty"`
}

// SummaryFinding is the best operating point for one distance.
type SummaryFinding struct {
	Distance        int     `yaml:"distance"`
	BestProb        float64 `yaml:"best_p"`
	Reduction       float64 `yaml:"reduction"`
	LogicalRate     float64 `yaml:"logical_rate"`
	UnprotectedRate float64 `yaml:"unprotected_rate"`
}

// SummaryPoint is one sweep point.
type SummaryPoint struct {
	Distance        int     `yaml:"d"`
	PhysicalProb    float64 `yaml:"p"`
	LogicalRate     float64 `yaml:"logical_rate"`
	UnprotectedRate float64 `yaml:"unprotected_rate"`
	AnalyticRate    float64 `yaml:"analytic_rate"`
	Improved        bool    `yaml:"improved"`
}

// NewSweepSummary builds a Summary from a rendered report.
func NewSweepSummary(report stats.Report, runID string, now time.Time) Summary {
	cfg := report.Config
	decoder := string(cfg.Decoder)
	if decoder == "" {
		decoder = string(model.DecoderMajority)
	}
	s := Summary{
		RunID:     runID,
		CreatedAt: now.UTC().Truncate(time.Second),
		Config: SummaryConfig{
			Basis:           string(cfg.Basis),
			Decoder:         decoder,
			Distances:       cfg.Distances,
			Probs:           cfg.Probs,
			MeasurementProb: cfg.MeasurementProb,
			Shots:           cfg.Shots,
			Seed:            cfg.Seed,
			Confidence:      cfg.Confidence,
		},
	}
	for _, f := range report.Findings {
		s.Findings = append(s.Findings, SummaryFinding(f))
	}
	if len(report.Thresholds) > 0 {
		s.Thresholds = report.Thresholds
	}
	for _, p := range stats.TopReductions(report.Points, 3) {
		s.TopReductions = append(s.TopReductions, summaryPoint(p))
	}
	for _, p := range report.Points {
		s.Points = append(s.Points, summaryPoint(p))
	}
	return s
}

func summaryPoint(p model.SweepPoint) SummaryPoint {
	return SummaryPoint{
		Distance:        p.Distance,
		PhysicalProb:    p.PhysicalProb,
		LogicalRate:     p.LogicalRate,
		UnprotectedRate: p.UnprotectedRate,
		AnalyticRate:    p.AnalyticRate,
		Improved:        p.Improved(),
	}
}

// WriteSummary encodes s as YAML.
func WriteSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// ReadSummary decodes a summary written by WriteSummary.
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, err
	}
	return s, nil
}
