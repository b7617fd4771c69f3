// Package runstats tracks run-wide packet counters that must be safe
// to read concurrently from the optional status API while the flow
// manager itself processes packets single-threaded (spec section 5).
package runstats

import "sync/atomic"

// Stats collects packet-ingestion counters for one capture run. All
// methods are safe for concurrent use.
type Stats struct {
	totalPackets   atomic.Uint64
	skippedPackets atomic.Uint64
}

// New creates an empty Stats.
func New() *Stats {
	return &Stats{}
}

// RecordPacket counts one packet successfully handed to the flow
// manager.
func (s *Stats) RecordPacket() {
	s.totalPackets.Add(1)
}

// RecordSkipped counts one packet dropped per the error taxonomy in
// spec section 7 (malformed frame, out-of-window timestamp, non-IP,
// non-TCP/UDP).
func (s *Stats) RecordSkipped() {
	s.skippedPackets.Add(1)
	s.totalPackets.Add(1)
}

// Snapshot is a point-in-time view of the run's packet counters.
type Snapshot struct {
	TotalPackets   uint64
	SkippedPackets uint64
	SkipPercent    float64
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	total := s.totalPackets.Load()
	skipped := s.skippedPackets.Load()
	skipPct := 0.0
	if total > 0 {
		skipPct = float64(skipped) / float64(total) * 100.0
	}
	return Snapshot{TotalPackets: total, SkippedPackets: skipped, SkipPercent: skipPct}
}
