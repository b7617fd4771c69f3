package dnsfeature

// amplificationSentinel stands in for an undefined amplification ratio
// (responses observed with zero query bytes) per spec section 4.3.
const amplificationSentinel = 999.0

// Derived holds the DNS-specific feature columns computed at export
// time from a flow's accumulated DNS extractor state.
type Derived struct {
	QR                     int
	TotalQueries           int64
	TotalResponses         int64
	ResponseBytes          int64
	QueriesPerSecond       float64
	AmplificationFactor    float64
	QueryResponseRatio     float64
	AnyQueryRatio          float64
	TxtQueryRatio          float64
	ServerFanout           int64
	ResponseInconsistency  int64
	TTLViolationRate        float64
	MeanAnswersPerQuery    float64
	PacketSizeStddev       float64
	ResponseTimeVariance   float64
	Port53TrafficRatio     float64
	QueryBurstScore        float64
}

// Derived computes the DNS-specific output columns. durationSec must
// already be clamped to >= 1.0 by the caller (the flow record owns flow
// duration, not the extractor); flowTotalBytes is the flow-wide byte
// total used for port_53_traffic_ratio.
func (s *State) Derived(durationSec float64, flowTotalBytes int64) Derived {
	d := Derived{
		TotalQueries:   s.queryPackets,
		TotalResponses: s.responsePackets,
		ResponseBytes:  s.responseBytes,
	}

	if s.responsePackets > 0 {
		d.QR = 1
	}

	if durationSec <= 0 {
		durationSec = 1.0
	}
	d.QueriesPerSecond = float64(s.queryPackets) / durationSec

	switch {
	case s.queryBytes == 0 && s.responseBytes > 0:
		d.AmplificationFactor = amplificationSentinel
	case s.responseBytes == 0:
		d.AmplificationFactor = 0.0
	default:
		d.AmplificationFactor = float64(s.responseBytes) / float64(s.queryBytes)
	}

	if s.responsePackets == 0 {
		d.QueryResponseRatio = float64(s.queryPackets)
	} else {
		d.QueryResponseRatio = float64(s.queryPackets) / float64(s.responsePackets)
	}

	if s.queryPackets > 0 {
		d.AnyQueryRatio = float64(s.anyCount) / float64(s.queryPackets)
		d.TxtQueryRatio = float64(s.txtCount) / float64(s.queryPackets)
	}

	d.ServerFanout = int64(len(s.distinctNames))

	d.ResponseInconsistency = abs64(s.queryPackets - s.responsePackets)

	d.TTLViolationRate = 0.0 // TODO(ttl-violation): populate from TTL comparison across duplicate answers once a baseline TTL source is available.

	if s.responsePackets > 0 {
		d.MeanAnswersPerQuery = float64(s.totalANCount) / float64(s.responsePackets)
	}

	d.PacketSizeStddev = s.packetSize.Stdev()

	d.ResponseTimeVariance = s.responseTimeVariance()

	if flowTotalBytes > 0 {
		d.Port53TrafficRatio = float64(s.queryBytes+s.responseBytes) / float64(flowTotalBytes)
	}

	d.QueryBurstScore = s.queryBurstScore()

	return d
}

// responseTimeVariance implements the literal formula from spec section
// 4.3: (sum(x^2)/N) - (sum(x)/N)^2, clamped to >= 0, 0 when N <= 1. This
// is the naive two-pass-equivalent formula the spec mandates for this
// specific column (distinct from the Welford-based packet_size_stddev).
func (s *State) responseTimeVariance() float64 {
	if s.respTimeCount <= 1 {
		return 0
	}
	n := float64(s.respTimeCount)
	meanOfSquares := s.respTimeSumSq / n
	squareOfMean := (s.respTimeSum / n) * (s.respTimeSum / n)
	v := meanOfSquares - squareOfMean
	if v < 0 {
		return 0
	}
	return v
}

// queryBurstScore is the supplemented dns_query_burst_score: the
// coefficient of variation of inter-query-packet arrival times within
// this flow's DNS stream, 0 when the mean is 0 (including when fewer
// than two queries have been observed).
func (s *State) queryBurstScore() float64 {
	mean := s.queryIAT.Mean()
	if mean == 0 {
		return 0
	}
	return s.queryIAT.Stdev() / mean
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// EDNSPresent reports whether any packet on this flow carried an EDNS
// OPT pseudo-record.
func (s *State) EDNSPresent() bool { return s.ednsPresent }

// MaxEDNSUDPSize returns the largest advertised EDNS UDP payload size
// seen on this flow, or 0 if EDNS was never observed.
func (s *State) MaxEDNSUDPSize() uint16 { return s.maxEDNSUDPSize }

// LastOpcode returns the most recently observed DNS OPCODE.
func (s *State) LastOpcode() uint8 { return s.lastOpcode }

// LastQueryType returns the most recently observed question TYPE.
func (s *State) LastQueryType() uint16 { return s.lastQueryType }

// TypeDistribution returns the query-type distribution map. Callers
// must not mutate the returned map.
func (s *State) TypeDistribution() map[uint16]int64 { return s.typeDist }
