package flow

import "github.com/jroosing/dnsflowmeter/internal/sink"

// ToRow detaches this flow's current state into an immutable output
// row (spec section 4.4). Absence of a DNS extractor (non-port-53
// flow) leaves every DNS-specific column at its zero value, keeping the
// schema rectangular per spec.
func (f *Flow) ToRow() sink.Row {
	durationMs := f.LastPacketTime - f.StartTime
	if durationMs < 0 {
		durationMs = 0
	}
	durationSec := float64(durationMs) / 1000.0
	if durationSec < 1.0 {
		durationSec = 1.0
	}

	totalBytes := f.FwdBytes + f.BwdBytes
	totalPackets := f.FwdCount + f.BwdCount

	row := sink.Row{
		SrcIP:    f.Key.SrcIP.String(),
		DstIP:    f.Key.DstIP.String(),
		SrcPort:  f.Key.SrcPort,
		DstPort:  f.Key.DstPort,
		Protocol: f.Key.Proto.String(),

		FlowBytesPerSec:   float64(totalBytes) / durationSec,
		FlowPacketsPerSec: float64(totalPackets) / durationSec,
		FwdPacketsPerSec:  float64(f.FwdCount) / durationSec,
		BwdPacketsPerSec:  float64(f.BwdCount) / durationSec,

		FlowDuration:    durationMs,
		TotalFwdPackets: f.FwdCount,
		TotalBwdPackets: f.BwdCount,
		TotalFwdBytes:   f.FwdBytes,
		TotalBwdBytes:   f.BwdBytes,

		FlowIATMean: f.flowIAT.Mean(),
		FlowIATStd:  f.flowIAT.Stdev(),
		FlowIATMin:  f.flowIAT.Min(),
		FlowIATMax:  f.flowIAT.Max(),
		FwdIATMean:  f.fwdIAT.Mean(),
		BwdIATMean:  f.bwdIAT.Mean(),

		FwdPacketLengthMean: f.fwdLength.Mean(),
		BwdPacketLengthMean: f.bwdLength.Mean(),
		PacketSizeStd:       f.flowLength.Stdev(),
		FlowLengthMin:       f.flowLength.Min(),
		FlowLengthMax:       f.flowLength.Max(),

		AveragePacketSize: f.flowLength.Mean(),
	}

	if f.DNS == nil {
		return row
	}

	d := f.DNS.Derived(durationSec, totalBytes)
	row.DNSAmplificationFactor = d.AmplificationFactor
	row.QueryResponseRatio = d.QueryResponseRatio
	row.DNSAnyQueryRatio = d.AnyQueryRatio
	row.DNSTxtQueryRatio = d.TxtQueryRatio
	row.DNSServerFanout = d.ServerFanout
	row.DNSResponseInconsistency = d.ResponseInconsistency
	row.TTLViolationRate = d.TTLViolationRate
	row.DNSQueriesPerSecond = d.QueriesPerSecond
	row.DNSMeanAnswersPerQuery = d.MeanAnswersPerQuery
	row.Port53TrafficRatio = d.Port53TrafficRatio
	row.DNSTotalQueries = d.TotalQueries
	row.DNSTotalResponses = d.TotalResponses
	row.DNSResponseBytes = d.ResponseBytes
	row.ResponseTimeVariance = d.ResponseTimeVariance
	row.DNSQueryBurstScore = d.QueryBurstScore

	return row
}
