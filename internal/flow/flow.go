// Package flow holds the per-conversation aggregate state tracked for
// one bidirectional 5-tuple, and its serialization into a detached
// output row.
package flow

import (
	"github.com/jroosing/dnsflowmeter/internal/dnsfeature"
	"github.com/jroosing/dnsflowmeter/internal/flowkey"
	"github.com/jroosing/dnsflowmeter/internal/stats"
)

// Flow is the mutable per-conversation state owned exclusively by the
// flow manager's active-flow table while live. Per spec section 3.
type Flow struct {
	Key   flowkey.Key
	Label string // immutable for the flow's lifetime; empty means "no label"

	StartTime      int64 // ms since epoch
	LastPacketTime int64 // ms since epoch

	FwdCount int64
	BwdCount int64
	FwdBytes int64
	BwdBytes int64

	fwdLength stats.Accumulator
	bwdLength stats.Accumulator

	haveLastFwd bool
	lastFwdTime int64
	fwdIAT      stats.Accumulator

	haveLastBwd bool
	lastBwdTime int64
	bwdIAT      stats.Accumulator

	flowLength stats.Accumulator
	flowIAT    stats.Accumulator

	// DNS is present iff either port in Key is 53 (spec section 3).
	DNS *dnsfeature.State
}

// New creates a flow for the given key, created under the forward
// direction by definition (the manager only ever constructs a Flow
// under fwdKey; see internal/flowmanager).
func New(key flowkey.Key, timestampMs int64, label string) *Flow {
	f := &Flow{
		Key:            key,
		Label:          label,
		StartTime:      timestampMs,
		LastPacketTime: timestampMs,
	}
	if key.IsDNSPort() {
		f.DNS = dnsfeature.New()
	}
	return f
}

// SetDNSPendingLimits overrides the pending-query-table bounds on this
// flow's DNS extractor, if it has one. A no-op for non-DNS flows.
func (f *Flow) SetDNSPendingLimits(maxEntries int, maxAgeMs int64) {
	if f.DNS != nil {
		f.DNS.SetPendingLimits(maxEntries, maxAgeMs)
	}
}

// AddPacket folds one packet into the flow's statistics, per spec
// section 4.4.
func (f *Flow) AddPacket(payload []byte, wireLen int, timestampMs int64, isForward bool) {
	inOrder := timestampMs >= f.LastPacketTime

	if inOrder && (f.FwdCount+f.BwdCount) > 0 {
		f.flowIAT.Add(float64(timestampMs - f.LastPacketTime))
	}
	f.flowLength.Add(float64(wireLen))

	if isForward {
		if f.haveLastFwd && timestampMs >= f.lastFwdTime {
			f.fwdIAT.Add(float64(timestampMs - f.lastFwdTime))
		}
		f.lastFwdTime = timestampMs
		f.haveLastFwd = true
		f.fwdLength.Add(float64(wireLen))
		f.FwdCount++
		f.FwdBytes += int64(wireLen)
	} else {
		if f.haveLastBwd && timestampMs >= f.lastBwdTime {
			f.bwdIAT.Add(float64(timestampMs - f.lastBwdTime))
		}
		f.lastBwdTime = timestampMs
		f.haveLastBwd = true
		f.bwdLength.Add(float64(wireLen))
		f.BwdCount++
		f.BwdBytes += int64(wireLen)
	}

	if inOrder {
		f.LastPacketTime = timestampMs
	}

	if f.DNS != nil {
		f.DNS.Observe(payload, wireLen, timestampMs)
	}
}

// IdleFor reports the observed-timestamp gap since this flow's last
// packet, used by the manager's idle-timeout check.
func (f *Flow) IdleFor(nowMs int64) int64 {
	return nowMs - f.LastPacketTime
}
