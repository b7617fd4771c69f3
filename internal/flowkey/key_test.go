package flowkey

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_Reverse(t *testing.T) {
	k := Key{
		SrcIP:   netip.MustParseAddr("10.0.0.1"),
		DstIP:   netip.MustParseAddr("10.0.0.2"),
		SrcPort: 5000,
		DstPort: 53,
		Proto:   ProtoUDP,
	}
	rev := k.Reverse()
	assert.Equal(t, k.SrcIP, rev.DstIP)
	assert.Equal(t, k.DstIP, rev.SrcIP)
	assert.Equal(t, k.SrcPort, rev.DstPort)
	assert.Equal(t, k.DstPort, rev.SrcPort)
	assert.Equal(t, k.Proto, rev.Proto)
	assert.Equal(t, k, rev.Reverse())
}

func TestKey_IsDNSPort(t *testing.T) {
	base := Key{
		SrcIP: netip.MustParseAddr("10.0.0.1"),
		DstIP: netip.MustParseAddr("10.0.0.2"),
		Proto: ProtoUDP,
	}
	dst53 := base
	dst53.SrcPort, dst53.DstPort = 40000, 53
	assert.True(t, dst53.IsDNSPort())

	src53 := base
	src53.SrcPort, src53.DstPort = 53, 40000
	assert.True(t, src53.IsDNSPort())

	neither := base
	neither.SrcPort, neither.DstPort = 8080, 443
	assert.False(t, neither.IsDNSPort())
}

func TestKey_ComparableAsMapKey(t *testing.T) {
	m := map[Key]int{}
	k1 := Key{SrcIP: netip.MustParseAddr("1.1.1.1"), DstIP: netip.MustParseAddr("2.2.2.2"), SrcPort: 1, DstPort: 2, Proto: ProtoTCP}
	k2 := Key{SrcIP: netip.MustParseAddr("1.1.1.1"), DstIP: netip.MustParseAddr("2.2.2.2"), SrcPort: 1, DstPort: 2, Proto: ProtoTCP}
	m[k1] = 42
	assert.Equal(t, 42, m[k2])
}

func TestProtocol_String(t *testing.T) {
	assert.Equal(t, "tcp", ProtoTCP.String())
	assert.Equal(t, "udp", ProtoUDP.String())
	assert.Equal(t, "unknown", ProtoUnknown.String())
}
