// Command bench drives synthetic packets through a flowmanager.Manager
// in-process, to measure packet-ingestion throughput at a given
// flow-count and DNS-traffic fraction without needing a real capture.
package main

import (
	"flag"
	"fmt"
	"net/netip"
	"sort"
	"time"

	"github.com/jroosing/dnsflowmeter/internal/decoder"
	"github.com/jroosing/dnsflowmeter/internal/flowkey"
	"github.com/jroosing/dnsflowmeter/internal/flowmanager"
	"github.com/jroosing/dnsflowmeter/internal/runstats"
	"github.com/jroosing/dnsflowmeter/internal/sink"
)

// discardSink is a /dev/null sink so the benchmark measures ingestion
// cost only, not output I/O.
type discardSink struct{}

func (discardSink) WriteHeader(hasLabel bool) error        { return nil }
func (discardSink) WriteRow(row sink.Row, label string) error { return nil }
func (discardSink) Flush() error                            { return nil }

func main() {
	var (
		flows          = flag.Int("flows", 1000, "number of distinct 5-tuple flows")
		packetsPerFlow = flag.Int("packets-per-flow", 50, "packets generated per flow")
		dnsFraction    = flag.Float64("dns-fraction", 0.3, "fraction of flows that are DNS (port 53) traffic")
	)
	flag.Parse()

	n := *flows
	if n < 1 {
		n = 1
	}
	ppf := *packetsPerFlow
	if ppf < 1 {
		ppf = 1
	}

	manager := flowmanager.New([]sink.Sink{discardSink{}}, "", runstats.New(), nil)

	lat := make([]float64, 0, n*ppf)
	t0 := time.Now()
	ts := int64(1_700_000_000_000)

	for i := 0; i < n; i++ {
		isDNS := float64(i)/float64(n) < *dnsFraction
		pkt := syntheticPacket(i, isDNS)
		for j := 0; j < ppf; j++ {
			start := time.Now()
			ts += 20
			manager.Process(pkt, ts)
			lat = append(lat, float64(time.Since(start).Nanoseconds())/1000.0)
		}
	}
	manager.DumpAll()
	elapsed := time.Since(t0).Seconds()

	sort.Float64s(lat)
	pps := float64(len(lat)) / elapsed

	fmt.Printf("flows=%d packets_per_flow=%d dns_fraction=%.2f total_packets=%d\n", n, ppf, *dnsFraction, len(lat))
	fmt.Printf("elapsed_s=%.3f packets_per_sec=%.1f\n", elapsed, pps)
	fmt.Printf("latency_us p50=%.3f p95=%.3f p99=%.3f min=%.3f max=%.3f\n",
		percentile(lat, 50), percentile(lat, 95), percentile(lat, 99), lat[0], lat[len(lat)-1])
}

func syntheticPacket(i int, isDNS bool) decoder.PacketView {
	dstPort := uint16(443)
	if isDNS {
		dstPort = 53
	}
	return decoder.PacketView{
		SrcIP:   netip.AddrFrom4([4]byte{10, 0, byte(i >> 8), byte(i)}),
		DstIP:   netip.MustParseAddr("8.8.8.8"),
		SrcPort: uint16(20000 + i%40000),
		DstPort: dstPort,
		Proto:   flowkey.ProtoUDP,
		WireLen: 80,
		Payload: []byte{1, 2, 3, 4},
	}
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(float64(len(sorted))*float64(p)/100.0) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
