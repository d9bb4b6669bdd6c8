package telemetry

import (
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated cloud statistics for one stats window.
type WindowStats struct {
	WindowEndTick int32   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	// Grid state at window end
	Tiles           int     `csv:"tiles"`
	TotalDensity    float64 `csv:"total_density"`
	TileDensityMean float64 `csv:"tile_density_mean"`
	TileDensityStd  float64 `csv:"tile_density_std"`

	// Events during window
	Recycled        int     `csv:"recycled"`
	Deposits        int     `csv:"deposits"`
	DepositFailures int     `csv:"deposit_failures"`
	Takes           int     `csv:"takes"`
	TakenAmount     float64 `csv:"taken_amount"`
}

// ComputeDensityStats fills the density aggregates from per-tile total
// densities sampled at window end.
func (s *WindowStats) ComputeDensityStats(tileDensities []float64) {
	s.Tiles = len(tileDensities)
	s.TotalDensity = 0
	for _, d := range tileDensities {
		s.TotalDensity += d
	}

	if len(tileDensities) == 0 {
		s.TileDensityMean = 0
		s.TileDensityStd = 0
		return
	}

	s.TileDensityMean = stat.Mean(tileDensities, nil)
	if len(tileDensities) > 1 {
		s.TileDensityStd = stat.StdDev(tileDensities, nil)
	} else {
		s.TileDensityStd = 0
	}
}
