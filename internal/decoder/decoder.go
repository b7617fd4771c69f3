// Package decoder wraps gopacket/pcap to turn raw capture frames (from a
// pcap file or a live interface) into the fields the flow manager needs:
// IP addresses, transport ports, protocol, wire length, and payload.
package decoder

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/jroosing/dnsflowmeter/internal/flowkey"
	"github.com/jroosing/dnsflowmeter/internal/helpers"
)

// ErrMalformedPacket wraps any gopacket decode failure or a frame missing
// the layers this package understands (no IP layer, no TCP/UDP layer).
var ErrMalformedPacket = errors.New("malformed packet")

// dnsPort is the well-known port used to recognize DNS payloads.
const dnsPort = 53

// Source yields decoded packets one at a time, from either an offline
// capture file or a live interface.
type Source interface {
	// NextPacket returns the next decoded packet. An error wrapping
	// ErrMalformedPacket concerns that one frame only and capture can
	// continue; any other error (e.g. the source was exhausted or closed)
	// means no further packets will arrive.
	NextPacket() (PacketView, error)
	Close()
}

type handleSource struct {
	handle *pcap.Handle
	source *gopacket.PacketSource
	ch     chan gopacket.Packet
}

// OpenOffline opens a pcap/pcapng file for replay. Packets are decoded in
// file order; no live capture occurs.
func OpenOffline(path string) (Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("open offline capture %q: %w", path, err)
	}
	return newHandleSource(handle), nil
}

// OpenLive attaches to a live interface. snaplen bounds how much of each
// frame is captured; promisc requests promiscuous mode; timeout bounds how
// long a single read blocks waiting for a packet.
func OpenLive(iface string, snaplen int, promisc bool, timeout time.Duration) (Source, error) {
	handle, err := pcap.OpenLive(iface, int32(snaplen), promisc, timeout)
	if err != nil {
		return nil, fmt.Errorf("open live interface %q: %w", iface, err)
	}
	return newHandleSource(handle), nil
}

func newHandleSource(handle *pcap.Handle) *handleSource {
	src := gopacket.NewPacketSource(handle, handle.LinkType())
	src.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	return &handleSource{handle: handle, source: src, ch: src.Packets()}
}

func (h *handleSource) NextPacket() (PacketView, error) {
	packet, ok := <-h.ch
	if !ok {
		return PacketView{}, fmt.Errorf("capture source closed")
	}
	if err := packet.ErrorLayer(); err != nil {
		return PacketView{}, fmt.Errorf("%w: %v", ErrMalformedPacket, err.Error())
	}
	return decodePacket(packet)
}

func (h *handleSource) Close() {
	h.handle.Close()
}

// PacketView is the subset of a decoded packet the flow pipeline needs.
type PacketView struct {
	SrcIP     netip.Addr
	DstIP     netip.Addr
	SrcPort   uint16
	DstPort   uint16
	Proto     flowkey.Protocol
	WireLen   int
	Payload   []byte
	Timestamp time.Time
}

// DNSPayload returns the transport payload when either endpoint uses the
// DNS well-known port, and whether such a payload is present.
func (p PacketView) DNSPayload() ([]byte, bool) {
	if p.SrcPort != dnsPort && p.DstPort != dnsPort {
		return nil, false
	}
	return p.Payload, true
}

func decodePacket(packet gopacket.Packet) (PacketView, error) {
	netLayer := packet.NetworkLayer()
	if netLayer == nil {
		return PacketView{}, fmt.Errorf("%w: no network layer", ErrMalformedPacket)
	}

	var srcIP, dstIP netip.Addr
	var ok bool
	switch l := netLayer.(type) {
	case *layers.IPv4:
		srcIP, ok = netip.AddrFromSlice(l.SrcIP.To4())
		if !ok {
			return PacketView{}, fmt.Errorf("%w: invalid ipv4 source", ErrMalformedPacket)
		}
		dst, ok2 := netip.AddrFromSlice(l.DstIP.To4())
		if !ok2 {
			return PacketView{}, fmt.Errorf("%w: invalid ipv4 destination", ErrMalformedPacket)
		}
		dstIP = dst
	case *layers.IPv6:
		srcIP, ok = netip.AddrFromSlice(l.SrcIP.To16())
		if !ok {
			return PacketView{}, fmt.Errorf("%w: invalid ipv6 source", ErrMalformedPacket)
		}
		dst, ok2 := netip.AddrFromSlice(l.DstIP.To16())
		if !ok2 {
			return PacketView{}, fmt.Errorf("%w: invalid ipv6 destination", ErrMalformedPacket)
		}
		dstIP = dst
	default:
		return PacketView{}, fmt.Errorf("%w: unsupported network layer", ErrMalformedPacket)
	}

	transportLayer := packet.TransportLayer()
	if transportLayer == nil {
		return PacketView{}, fmt.Errorf("%w: no transport layer", ErrMalformedPacket)
	}

	var srcPort, dstPort uint16
	var proto flowkey.Protocol
	var payload []byte
	switch t := transportLayer.(type) {
	case *layers.TCP:
		srcPort = uint16(t.SrcPort)
		dstPort = uint16(t.DstPort)
		proto = flowkey.ProtoTCP
		payload = t.LayerPayload()
	case *layers.UDP:
		srcPort = uint16(t.SrcPort)
		dstPort = uint16(t.DstPort)
		proto = flowkey.ProtoUDP
		payload = t.LayerPayload()
	default:
		return PacketView{}, fmt.Errorf("%w: unsupported transport layer", ErrMalformedPacket)
	}

	wireLen := len(packet.Data())
	if meta := packet.Metadata(); meta != nil && meta.Length > 0 {
		wireLen = meta.Length
	}
	// CaptureInfo.Length comes from the capture driver, not from bytes we
	// validated ourselves; clamp it so a corrupt metadata field can't carry
	// a negative or out-of-range wire length into the flow's byte counters.
	wireLen = int(helpers.ClampIntToUint32(wireLen))

	ts := time.Now()
	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		ts = meta.Timestamp
	}

	return PacketView{
		SrcIP:     srcIP,
		DstIP:     dstIP,
		SrcPort:   srcPort,
		DstPort:   dstPort,
		Proto:     proto,
		WireLen:   wireLen,
		Payload:   payload,
		Timestamp: ts,
	}, nil
}
