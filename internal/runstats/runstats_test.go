package runstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Snapshot(t *testing.T) {
	s := New()
	s.RecordPacket()
	s.RecordPacket()
	s.RecordSkipped()

	snap := s.Snapshot()
	assert.Equal(t, uint64(3), snap.TotalPackets)
	assert.Equal(t, uint64(1), snap.SkippedPackets)
	assert.InDelta(t, 33.333, snap.SkipPercent, 0.01)
}

func TestStats_EmptySnapshot(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	assert.Equal(t, uint64(0), snap.TotalPackets)
	assert.InDelta(t, 0.0, snap.SkipPercent, 1e-9)
}
