// Package dnsfeature maintains per-flow DNS counters and derives the
// statistical ratios that feed the output feature row for flows whose
// 5-tuple carries port 53.
package dnsfeature

import (
	"github.com/jroosing/dnsflowmeter/internal/dnswire"
	"github.com/jroosing/dnsflowmeter/internal/stats"
)

// Default bounds on the pending-query table: when it grows past
// pendingMaxEntries, entries older than pendingMaxAgeMs are evicted on
// the next insert. Overridable per-flow via SetPendingLimits, which the
// flow manager drives from internal/config.
const (
	pendingMaxEntries = 10_000
	pendingMaxAgeMs   = 5_000
)

// State is the per-flow DNS extractor state described in spec section
// 3 ("DnsExtractorState"), plus the supplemented query-burst tracking
// used to derive dns_query_burst_score.
type State struct {
	queryPackets    int64
	responsePackets int64
	queryBytes      int64
	responseBytes   int64

	totalQDCount int64
	totalANCount int64

	lastOpcode    uint8
	lastQueryType uint16
	typeDist      map[uint16]int64

	anyCount int64
	txtCount int64

	ednsPresent    bool
	maxEDNSUDPSize uint16

	pending map[uint16]int64 // transaction ID -> query timestamp (ms)

	// pendingMaxEntries/pendingMaxAgeMs bound the pending-query table and
	// the distinct-name set; overridable via SetPendingLimits.
	pendingLimit int
	pendingAgeMs int64

	respTimeSum   float64
	respTimeSumSq float64
	respTimeCount int64

	ttlViolations int64

	packetSize stats.Accumulator

	// Supplemented: distinct query names observed, and inter-query-packet
	// arrival times, backing dns_server_fanout and dns_query_burst_score.
	distinctNames   map[string]struct{}
	lastQueryTimeMs int64
	haveLastQuery   bool
	queryIAT        stats.Accumulator
}

// New returns an empty DNS extractor state for a newly created flow,
// with the spec's default pending-query-table bounds (10,000 entries,
// 5,000ms max age).
func New() *State {
	return &State{
		typeDist:      map[uint16]int64{},
		pending:       map[uint16]int64{},
		distinctNames: map[string]struct{}{},
		pendingLimit:  pendingMaxEntries,
		pendingAgeMs:  pendingMaxAgeMs,
	}
}

// SetPendingLimits overrides the pending-query-table bounds for this
// extractor, driven by the flow manager from internal/config. Values
// <= 0 are ignored and leave the existing bound in place.
func (s *State) SetPendingLimits(maxEntries int, maxAgeMs int64) {
	if maxEntries > 0 {
		s.pendingLimit = maxEntries
	}
	if maxAgeMs > 0 {
		s.pendingAgeMs = maxAgeMs
	}
}

// Observe parses one packet's payload as a DNS message and folds it into
// the extractor state. Per spec section 4.3, any structural parse error
// aborts processing of this packet only: no field is mutated.
func (s *State) Observe(payload []byte, wireLen int, timestampMs int64) {
	msg, err := dnswire.ParseMessage(payload)
	if err != nil {
		return
	}

	if msg.Header.QR() {
		s.observeResponse(msg, wireLen, timestampMs)
	} else {
		s.observeQuery(msg, wireLen, timestampMs)
	}

	s.packetSize.Add(float64(wireLen))
	s.lastOpcode = msg.Header.Opcode()
	s.totalQDCount += int64(msg.Header.QDCount)
	s.totalANCount += int64(msg.Header.ANCount)

	if msg.OPT != nil {
		s.ednsPresent = true
		if msg.OPT.UDPPayloadSize > s.maxEDNSUDPSize {
			s.maxEDNSUDPSize = msg.OPT.UDPPayloadSize
		}
	}

	for _, q := range msg.Questions {
		s.typeDist[q.Type]++
		s.lastQueryType = q.Type
		switch dnswire.RecordType(q.Type) {
		case dnswire.TypeAny:
			s.anyCount++
		case dnswire.TypeTXT:
			s.txtCount++
		}
		if len(s.distinctNames) < s.pendingLimit {
			s.distinctNames[q.Name] = struct{}{}
		}
	}
}

func (s *State) observeResponse(msg dnswire.Message, wireLen int, timestampMs int64) {
	s.responsePackets++
	s.responseBytes += int64(wireLen)

	queryTime, ok := s.pending[msg.Header.ID]
	if !ok {
		return
	}
	delete(s.pending, msg.Header.ID)

	elapsed := float64(timestampMs - queryTime)
	if elapsed < 0 {
		return
	}
	s.respTimeSum += elapsed
	s.respTimeSumSq += elapsed * elapsed
	s.respTimeCount++
}

func (s *State) observeQuery(msg dnswire.Message, wireLen int, timestampMs int64) {
	s.queryPackets++
	s.queryBytes += int64(wireLen)

	if s.haveLastQuery && timestampMs >= s.lastQueryTimeMs {
		s.queryIAT.Add(float64(timestampMs - s.lastQueryTimeMs))
	}
	s.lastQueryTimeMs = timestampMs
	s.haveLastQuery = true

	s.markPending(msg.Header.ID, timestampMs)
}

// markPending inserts the outbound query's timestamp keyed by transaction
// ID, evicting stale entries once the table grows past pendingMaxEntries.
// Per the design notes, transaction-ID collisions across distinct remote
// servers within one flow are an accepted approximation: a colliding
// insert simply overwrites the older pending timestamp.
func (s *State) markPending(id uint16, timestampMs int64) {
	s.pending[id] = timestampMs
	if len(s.pending) > s.pendingLimit {
		for k, t := range s.pending {
			if timestampMs-t > s.pendingAgeMs {
				delete(s.pending, k)
			}
		}
	}
}
