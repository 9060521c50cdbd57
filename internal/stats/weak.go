package stats

import (
	"sort"

	"github.com/verte-zerg/qecsim/internal/model"
)

// SelectWeakPoints returns points where coding showed no significant improvement,
// ordered by distance then p.
func SelectWeakPoints(points []model.SweepPoint) []model.SweepPoint {
	var weak []model.SweepPoint
	for _, p := range points {
		if p.UnprotectedRate > 0 && !p.Improved() {
			weak = append(weak, p)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if weak[i].Distance == weak[j].Distance {
			return weak[i].PhysicalProb < weak[j].PhysicalProb
		}
		return weak[i].Distance < weak[j].Distance
	})
	return weak
}
