// Package sink defines the output row schema and the writers that
// serialize it: a primary CSV file sink and an optional batched
// Google Sheets sink.
package sink

// Row mirrors spec section 6's fixed output column schema, in column
// declaration order, plus one supplemented column
// (dns_query_burst_score) appended after the spec's fixed schema so the
// original column order is preserved unchanged. The csv struct tags
// drive both CSVSink (via gocsv) and SheetsSink's batched API payload.
//
// Row intentionally has no Label field: a present-but-empty "label"
// column would violate the spec's "no label column when absent"
// invariant (section 6). LabeledRow embeds Row and adds the column for
// runs started with -a or -b.
type Row struct {
	SrcIP    string `csv:"src_ip"`
	DstIP    string `csv:"dst_ip"`
	SrcPort  uint16 `csv:"src_port"`
	DstPort  uint16 `csv:"dst_port"`
	Protocol string `csv:"protocol"`

	DNSAmplificationFactor   float64 `csv:"dns_amplification_factor"`
	QueryResponseRatio       float64 `csv:"query_response_ratio"`
	DNSAnyQueryRatio         float64 `csv:"dns_any_query_ratio"`
	DNSTxtQueryRatio         float64 `csv:"dns_txt_query_ratio"`
	DNSServerFanout          int64   `csv:"dns_server_fanout"`
	DNSResponseInconsistency int64   `csv:"dns_response_inconsistency"`
	TTLViolationRate         float64 `csv:"ttl_violation_rate"`
	DNSQueriesPerSecond      float64 `csv:"dns_queries_per_second"`
	DNSMeanAnswersPerQuery   float64 `csv:"dns_mean_answers_per_query"`
	Port53TrafficRatio       float64 `csv:"port_53_traffic_ratio"`

	FlowBytesPerSec   float64 `csv:"flow_bytes_per_sec"`
	FlowPacketsPerSec float64 `csv:"flow_packets_per_sec"`
	FwdPacketsPerSec  float64 `csv:"fwd_packets_per_sec"`
	BwdPacketsPerSec  float64 `csv:"bwd_packets_per_sec"`

	FlowDuration   int64 `csv:"flow_duration"`
	TotalFwdPackets int64 `csv:"total_fwd_packets"`
	TotalBwdPackets int64 `csv:"total_bwd_packets"`
	TotalFwdBytes   int64 `csv:"total_fwd_bytes"`
	TotalBwdBytes   int64 `csv:"total_bwd_bytes"`

	DNSTotalQueries   int64 `csv:"dns_total_queries"`
	DNSTotalResponses int64 `csv:"dns_total_responses"`
	DNSResponseBytes  int64 `csv:"dns_response_bytes"`

	FlowIATMean float64 `csv:"flow_iat_mean"`
	FlowIATStd  float64 `csv:"flow_iat_std"`
	FlowIATMin  float64 `csv:"flow_iat_min"`
	FlowIATMax  float64 `csv:"flow_iat_max"`
	FwdIATMean  float64 `csv:"fwd_iat_mean"`
	BwdIATMean  float64 `csv:"bwd_iat_mean"`

	FwdPacketLengthMean float64 `csv:"fwd_packet_length_mean"`
	BwdPacketLengthMean float64 `csv:"bwd_packet_length_mean"`
	PacketSizeStd       float64 `csv:"packet_size_std"`
	FlowLengthMin       float64 `csv:"flow_length_min"`
	FlowLengthMax       float64 `csv:"flow_length_max"`

	ResponseTimeVariance float64 `csv:"response_time_variance"`
	AveragePacketSize    float64 `csv:"average_packet_size"`

	// Supplemented (see SPEC_FULL.md): coefficient of variation of
	// inter-query-packet arrival times, a low-risk water-torture signal.
	DNSQueryBurstScore float64 `csv:"dns_query_burst_score"`
}

// LabeledRow is Row plus the optional classification column, used only
// when the run was started with -a or -b.
type LabeledRow struct {
	Row
	Label string `csv:"label"`
}
