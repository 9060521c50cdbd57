package stats

import (
	"sort"

	"github.com/verte-zerg/qecsim/internal/decoder"
	"github.com/verte-zerg/qecsim/internal/model"
)

// TopReductions returns the n points with the largest relative error reduction.
func TopReductions(points []model.SweepPoint, n int) []model.SweepPoint {
	if n <= 0 || len(points) == 0 {
		return nil
	}
	items := make([]model.SweepPoint, 0, len(points))
	for _, p := range points {
		if p.UnprotectedRate > 0 {
			items = append(items, p)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Reduction(), items[j].Reduction()
		if ri == rj {
			if items[i].Distance == items[j].Distance {
				return items[i].PhysicalProb < items[j].PhysicalProb
			}
			return items[i].Distance < items[j].Distance
		}
		return ri > rj
	})
	return items[:min(n, len(items))]
}

// TopSyndromes returns the n most frequent syndrome patterns.
func TopSyndromes(s decoder.SyndromeStats, n int) []string {
	if n <= 0 {
		return nil
	}
	sorted := s.Sorted()
	return sorted[:min(n, len(sorted))]
}
