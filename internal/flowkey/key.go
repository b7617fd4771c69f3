// Package flowkey defines the canonical 5-tuple identity used to group
// packets into bidirectional flows.
package flowkey

import "net/netip"

// Protocol identifies the transport protocol carried by a flow.
type Protocol uint8

const (
	ProtoUnknown Protocol = iota
	ProtoTCP
	ProtoUDP
)

// String returns a short lowercase name for the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	default:
		return "unknown"
	}
}

// Key is the comparable 5-tuple identity of one direction of a flow. Two
// Key values that are reverses of one another (src/dst swapped) belong to
// the same bidirectional flow.
//
// Key is safe to use as a map key directly, since netip.Addr is itself
// comparable and allocation-free.
type Key struct {
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16
	Proto   Protocol
}

// Reverse returns the key with source and destination swapped, i.e. the
// key that would be observed for a packet traveling the opposite
// direction of the same conversation.
func (k Key) Reverse() Key {
	return Key{
		SrcIP:   k.DstIP,
		DstIP:   k.SrcIP,
		SrcPort: k.DstPort,
		DstPort: k.SrcPort,
		Proto:   k.Proto,
	}
}

// dnsPort is the well-known port used by the DNS protocol (RFC 1035).
const dnsPort = 53

// IsDNSPort reports whether either side of the key uses the DNS
// well-known port, meaning payload on this flow should be probed for
// DNS messages.
func (k Key) IsDNSPort() bool {
	return k.SrcPort == dnsPort || k.DstPort == dnsPort
}
