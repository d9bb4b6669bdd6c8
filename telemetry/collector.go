// Package telemetry tracks cloud simulation activity and writes
// windowed statistics to CSV.
package telemetry

// Collector accumulates event counts for the current stats window.
type Collector struct {
	recycled        int
	deposits        int
	depositFailures int
	takes           int
	takenAmount     float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRecycled adds recycled tile count from a recenter pass.
func (c *Collector) RecordRecycled(n int) {
	c.recycled += n
}

// RecordDeposit notes one deposit attempt and whether it was placed.
func (c *Collector) RecordDeposit(placed bool) {
	if placed {
		c.deposits++
	} else {
		c.depositFailures++
	}
}

// RecordTake notes one withdraw and the amount removed.
func (c *Collector) RecordTake(amount float64) {
	c.takes++
	c.takenAmount += amount
}

// Flush copies the window's counts into stats and resets the collector.
func (c *Collector) Flush(stats *WindowStats) {
	stats.Recycled = c.recycled
	stats.Deposits = c.deposits
	stats.DepositFailures = c.depositFailures
	stats.Takes = c.takes
	stats.TakenAmount = c.takenAmount
	*c = Collector{}
}
