package game

import (
	"log/slog"

	"github.com/pthm-cable/broth/config"
	"github.com/pthm-cable/broth/systems"
	"github.com/pthm-cable/broth/telemetry"
)

// flushTelemetry emits a stats window when one has elapsed.
func (g *Game) flushTelemetry() {
	if g.windowTicks <= 0 || g.tick%g.windowTicks != 0 {
		return
	}

	cfg := config.Cfg()

	stats := telemetry.WindowStats{
		WindowEndTick: g.tick,
		SimTimeSec:    float64(g.tick) * cfg.Physics.DT,
	}
	g.collector.Flush(&stats)
	stats.ComputeDensityStats(g.sampleTileDensities())

	if g.logStats {
		g.logWindowStats(stats)
	}

	if g.output != nil {
		if err := g.output.WriteStats(stats); err != nil {
			slog.Error("failed to write cloud stats", "error", err)
		}
		if err := g.output.WritePerf(g.perf.Records(g.tick)); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// sampleTileDensities collects the total density of every live tile.
func (g *Game) sampleTileDensities() []float64 {
	densities := make([]float64, 0, g.grid.TileCount())
	g.grid.ForEachTile(func(_ systems.TileID, t *systems.CloudTile) {
		densities = append(densities, t.TotalDensity())
	})
	return densities
}
