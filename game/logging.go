package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/broth/telemetry"
)

// logWindowStats logs a flushed stats window as structured output.
func (g *Game) logWindowStats(stats telemetry.WindowStats) {
	slog.Info("cloud_stats",
		"tick", stats.WindowEndTick,
		"sim_time", stats.SimTimeSec,
		"tiles", stats.Tiles,
		"total_density", stats.TotalDensity,
		"tile_density_mean", stats.TileDensityMean,
		"tile_density_std", stats.TileDensityStd,
		"recycled", stats.Recycled,
		"deposits", stats.Deposits,
		"deposit_failures", stats.DepositFailures,
		"takes", stats.Takes,
		"taken_amount", stats.TakenAmount,
	)
	g.logPerfStats()
}

// logCloseError reports an output teardown failure.
func logCloseError(err error) {
	slog.Error("failed to close output", "error", err)
}

// logPerfStats logs the sliding-window timing breakdown.
func (g *Game) logPerfStats() {
	total := g.perf.Total()
	slog.Info("perf",
		"tick", g.tick,
		"total_step", total.Round(time.Microsecond).String(),
		"fluid", g.perf.Avg("fluid").Round(time.Microsecond).String(),
		"recenter", g.perf.Avg("recenter").Round(time.Microsecond).String(),
		"clouds", g.perf.Avg("clouds").Round(time.Microsecond).String(),
	)
}
