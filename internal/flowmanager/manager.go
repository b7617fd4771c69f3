// Package flowmanager ingests decoded packets, classifies direction,
// allocates and evicts flows, and drives export to the configured
// sinks. It is the single-threaded core described in spec section 4.5:
// every method here is called serially from one capture loop.
package flowmanager

import (
	"log/slog"

	"github.com/jroosing/dnsflowmeter/internal/decoder"
	"github.com/jroosing/dnsflowmeter/internal/flow"
	"github.com/jroosing/dnsflowmeter/internal/flowkey"
	"github.com/jroosing/dnsflowmeter/internal/logging"
	"github.com/jroosing/dnsflowmeter/internal/runstats"
	"github.com/jroosing/dnsflowmeter/internal/sink"
)

const (
	// flowTimeoutMs is the default idle-timeout window: a flow with no
	// packets for longer than this is evicted. Overridable via
	// SetLimits, which cmd/dnsflowmeter drives from internal/config.
	flowTimeoutMs = 120_000

	// sweepPacketInterval and sweepTimeMs bound how often the periodic
	// sweep runs, whichever trigger fires first. Also overridable via
	// SetLimits.
	sweepPacketInterval = 5_000
	sweepTimeMs         = 30_000

	// pendingMaxEntries/pendingMaxAgeMs are the default per-flow DNS
	// pending-query-table bounds, also overridable via SetLimits.
	pendingMaxEntries = 10_000
	pendingMaxAgeMs   = 5_000

	// minTimestampMs/maxTimestampMs bound the timestamp sanity window:
	// 2017-01-01T00:00:00Z and 2030-01-01T00:00:00Z, in ms since epoch.
	minTimestampMs = 1_483_228_800_000
	maxTimestampMs = 1_893_456_000_000
)

// Manager owns the active-flow table and drives its lifecycle. It is
// not safe for concurrent use; the capture loop must call Process
// serially (spec section 5).
type Manager struct {
	active map[flowkey.Key]*flow.Flow
	label  string
	sinks  []sink.Sink
	stats  *runstats.Stats
	logger *slog.Logger

	packetCount      int64
	lastTimeoutCheck int64
	lastSeenTime     int64
	dumped           bool

	// Eviction/sweep thresholds and per-flow DNS pending-table bounds,
	// defaulted to the spec's constants and overridable via SetLimits.
	flowTimeoutMs       int64
	sweepPacketInterval int64
	sweepTimeMs         int64
	dnsPendingMax       int
	dnsPendingAgeMs     int64
}

// New creates a Manager that exports to the given sinks and labels
// every emitted row with label (empty means "no label column").
func New(sinks []sink.Sink, label string, stats *runstats.Stats, logger *slog.Logger) *Manager {
	return &Manager{
		active: make(map[flowkey.Key]*flow.Flow),
		label:  label,
		sinks:  sinks,
		stats:  stats,
		logger: logging.WithComponent(logger, "flowmanager"),

		flowTimeoutMs:       flowTimeoutMs,
		sweepPacketInterval: sweepPacketInterval,
		sweepTimeMs:         sweepTimeMs,
		dnsPendingMax:       pendingMaxEntries,
		dnsPendingAgeMs:     pendingMaxAgeMs,
	}
}

// SetLimits overrides the manager's eviction/sweep thresholds and the
// per-flow DNS pending-query-table bounds applied to flows created
// after this call, driven by internal/config. Arguments <= 0 leave the
// existing (default) value in place.
func (m *Manager) SetLimits(idleTimeoutMs, sweepPacketN, sweepMs int64, dnsPendingMax int, dnsPendingAgeMs int64) {
	if idleTimeoutMs > 0 {
		m.flowTimeoutMs = idleTimeoutMs
	}
	if sweepPacketN > 0 {
		m.sweepPacketInterval = sweepPacketN
	}
	if sweepMs > 0 {
		m.sweepTimeMs = sweepMs
	}
	if dnsPendingMax > 0 {
		m.dnsPendingMax = dnsPendingMax
	}
	if dnsPendingAgeMs > 0 {
		m.dnsPendingAgeMs = dnsPendingAgeMs
	}
}

// hasLabel reports whether rows should carry a label column (spec
// section 6: absent iff neither -a nor -b was given).
func (m *Manager) hasLabel() bool {
	return m.label != ""
}

// Process folds one decoded packet into the flow table, per spec
// section 4.5. Packets rejected by the timestamp sanity window or that
// carry an unsupported protocol are silently skipped and counted.
func (m *Manager) Process(pkt decoder.PacketView, timestampMs int64) {
	if timestampMs < minTimestampMs || timestampMs > maxTimestampMs {
		m.logger.Warn("packet timestamp out of window", "timestamp_ms", timestampMs)
		m.recordSkipped()
		return
	}
	if pkt.Proto != flowkey.ProtoTCP && pkt.Proto != flowkey.ProtoUDP {
		m.recordSkipped()
		return
	}

	fwdKey := flowkey.Key{
		SrcIP: pkt.SrcIP, DstIP: pkt.DstIP,
		SrcPort: pkt.SrcPort, DstPort: pkt.DstPort,
		Proto: pkt.Proto,
	}
	bwdKey := fwdKey.Reverse()

	f, key, isForward := m.lookup(fwdKey, bwdKey)

	if f != nil && timestampMs-f.LastPacketTime > m.flowTimeoutMs {
		m.export(key, f)
		delete(m.active, key)
		f = nil
	}

	if f == nil {
		f = flow.New(fwdKey, timestampMs, m.label)
		f.SetDNSPendingLimits(m.dnsPendingMax, m.dnsPendingAgeMs)
		m.active[fwdKey] = f
		key = fwdKey
		isForward = true
	}

	f.AddPacket(pkt.Payload, pkt.WireLen, timestampMs, isForward)
	m.recordPacket()

	m.packetCount++
	if timestampMs > m.lastSeenTime {
		m.lastSeenTime = timestampMs
	}
	m.maybeSweep(timestampMs)
}

// lookup implements the tie-break of spec section 4.2: fwdKey is
// always checked first.
func (m *Manager) lookup(fwdKey, bwdKey flowkey.Key) (f *flow.Flow, key flowkey.Key, isForward bool) {
	if f, ok := m.active[fwdKey]; ok {
		return f, fwdKey, true
	}
	if f, ok := m.active[bwdKey]; ok {
		return f, bwdKey, false
	}
	return nil, fwdKey, true
}

// maybeSweep runs the periodic eviction pass described in spec section
// 4.5: every 5,000 packets or every 30,000 ms of observed timestamp
// advance, whichever comes first.
func (m *Manager) maybeSweep(timestampMs int64) {
	dueByCount := m.packetCount%m.sweepPacketInterval == 0
	dueByTime := timestampMs-m.lastTimeoutCheck >= m.sweepTimeMs
	if !dueByCount && !dueByTime {
		return
	}
	m.lastTimeoutCheck = timestampMs
	m.sweep(timestampMs)
}

// sweep evicts every flow idle for longer than the configured timeout.
func (m *Manager) sweep(timestampMs int64) {
	for key, f := range m.active {
		if f.IdleFor(timestampMs) > m.flowTimeoutMs {
			m.export(key, f)
			delete(m.active, key)
		}
	}
}

func (m *Manager) export(key flowkey.Key, f *flow.Flow) {
	row := f.ToRow()
	for _, s := range m.sinks {
		if err := s.WriteRow(row, m.label); err != nil {
			m.logger.Warn("sink write failed", "err", err, "src", key.SrcIP, "dst", key.DstIP)
		}
	}
}

func (m *Manager) recordPacket() {
	if m.stats != nil {
		m.stats.RecordPacket()
	}
}

func (m *Manager) recordSkipped() {
	if m.stats != nil {
		m.stats.RecordSkipped()
	}
}

// WriteHeaders writes the column header to every sink exactly once,
// before the first row is exported. Call before the capture loop
// starts.
func (m *Manager) WriteHeaders() error {
	for _, s := range m.sinks {
		if err := s.WriteHeader(m.hasLabel()); err != nil {
			return err
		}
	}
	return nil
}

// DumpAll idempotently drains every remaining flow, exports it, and
// flushes all sinks (spec section 4.5). A second call is a no-op.
func (m *Manager) DumpAll() {
	if m.dumped {
		return
	}
	m.dumped = true

	snapshot := m.active
	m.active = make(map[flowkey.Key]*flow.Flow)
	for key, f := range snapshot {
		m.export(key, f)
	}
	for _, s := range m.sinks {
		if err := s.Flush(); err != nil {
			m.logger.Warn("sink flush failed", "err", err)
		}
	}
}

// ActiveFlowCount reports the number of live flows, exposed for the
// optional status API.
func (m *Manager) ActiveFlowCount() int {
	return len(m.active)
}

// RecordDecodeError counts one packet that the decoder could not parse
// (spec section 4.7's malformed-link-layer-or-IP-frame case).
func (m *Manager) RecordDecodeError() {
	m.recordSkipped()
}
