package telemetry

import (
	"sort"
	"time"
)

// PerfTracker keeps a sliding window of per-system step durations.
type PerfTracker struct {
	samples map[string][]time.Duration
	window  int
}

// NewPerfTracker creates a tracker keeping up to window samples per system.
func NewPerfTracker(window int) *PerfTracker {
	if window <= 0 {
		window = 120
	}
	return &PerfTracker{
		samples: make(map[string][]time.Duration),
		window:  window,
	}
}

// Record adds a duration sample for the named system.
func (p *PerfTracker) Record(name string, d time.Duration) {
	s := append(p.samples[name], d)
	if len(s) > p.window {
		s = s[1:]
	}
	p.samples[name] = s
}

// Avg returns the average duration for the named system.
func (p *PerfTracker) Avg(name string) time.Duration {
	s := p.samples[name]
	if len(s) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total / time.Duration(len(s))
}

// Total returns the sum of all per-system averages.
func (p *PerfTracker) Total() time.Duration {
	var total time.Duration
	for name := range p.samples {
		total += p.Avg(name)
	}
	return total
}

// PerfRecord is one system's timing summary, for CSV output.
type PerfRecord struct {
	WindowEndTick int32   `csv:"window_end"`
	System        string  `csv:"system"`
	AvgMicros     float64 `csv:"avg_us"`
	SharePct      float64 `csv:"share_pct"`
}

// Records summarizes every tracked system, slowest first.
func (p *PerfTracker) Records(windowEnd int32) []PerfRecord {
	total := p.Total()

	records := make([]PerfRecord, 0, len(p.samples))
	for name := range p.samples {
		avg := p.Avg(name)
		share := float64(0)
		if total > 0 {
			share = float64(avg) / float64(total) * 100
		}
		records = append(records, PerfRecord{
			WindowEndTick: windowEnd,
			System:        name,
			AvgMicros:     float64(avg.Microseconds()),
			SharePct:      share,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].AvgMicros > records[j].AvgMicros
	})
	return records
}
