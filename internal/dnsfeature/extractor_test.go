package dnsfeature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMessage(id uint16, qr bool, qtype uint16, name string, qdcount, ancount uint16) []byte {
	flags := uint16(0x0100)
	if qr {
		flags = 0x8180
	}
	msg := []byte{
		byte(id >> 8), byte(id),
		byte(flags >> 8), byte(flags),
		byte(qdcount >> 8), byte(qdcount),
		byte(ancount >> 8), byte(ancount),
		0x00, 0x00,
		0x00, 0x00,
	}
	for i := 0; i < int(qdcount); i++ {
		for _, label := range splitLabelsForTest(name) {
			msg = append(msg, byte(len(label)))
			msg = append(msg, label...)
		}
		msg = append(msg, 0)
		msg = append(msg, byte(qtype>>8), byte(qtype), 0x00, 0x01)
	}
	return msg
}

func splitLabelsForTest(name string) []string {
	var labels []string
	start := 0
	for i := 0; i <= len(name); i++ {
		if i == len(name) || name[i] == '.' {
			labels = append(labels, name[start:i])
			start = i + 1
		}
	}
	return labels
}

func TestExtractor_SingleQueryResponse(t *testing.T) {
	s := New()
	query := buildMessage(0x1111, false, 1, "example.com", 1, 0)
	s.Observe(query, 60, 1000)

	response := buildMessage(0x1111, true, 1, "example.com", 1, 1)
	s.Observe(response, 300, 1060)

	d := s.Derived(1.0, 360)
	assert.Equal(t, int64(1), d.TotalQueries)
	assert.Equal(t, int64(1), d.TotalResponses)
	assert.Equal(t, 1, d.QR)
	assert.InDelta(t, 1.0, d.QueryResponseRatio, 1e-9)
	assert.InDelta(t, 5.0, d.AmplificationFactor, 1e-9)
	assert.InDelta(t, 120.0, d.PacketSizeStddev, 1e-9)
}

func TestExtractor_AmplificationSentinel(t *testing.T) {
	s := New()
	// Response only, no matching pending query: query bytes stay 0.
	response := buildMessage(0x2222, true, 1, "example.com", 1, 1)
	s.Observe(response, 3000, 1000)

	d := s.Derived(1.0, 3000)
	assert.InDelta(t, amplificationSentinel, d.AmplificationFactor, 1e-9)
}

func TestExtractor_QueryFloodNoResponses(t *testing.T) {
	s := New()
	for i := 0; i < 1000; i++ {
		q := buildMessage(uint16(i), false, 1, "flood.example.com", 1, 0)
		s.Observe(q, 60, int64(i))
	}
	d := s.Derived(1.0, int64(1000*60))
	assert.Equal(t, int64(1000), d.TotalQueries)
	assert.Equal(t, int64(0), d.TotalResponses)
	assert.InDelta(t, 1000.0, d.QueryResponseRatio, 1e-9)
	assert.InDelta(t, 0.0, d.AmplificationFactor, 1e-9)
	assert.InDelta(t, 1000.0, d.QueriesPerSecond, 1e-9)
}

func TestExtractor_AnyQueryRatio(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		q := buildMessage(uint16(i), false, 255, "burst.example.com", 1, 0)
		s.Observe(q, 60, int64(i*100))
	}
	for i := 0; i < 10; i++ {
		r := buildMessage(uint16(i), true, 255, "burst.example.com", 1, 1)
		s.Observe(r, 3000, int64(i*100+10))
	}
	d := s.Derived(1.0, 10*(60+3000))
	assert.InDelta(t, 1.0, d.AnyQueryRatio, 1e-9)
	assert.InDelta(t, 50.0, d.AmplificationFactor, 1e-9)
	assert.InDelta(t, 1.0, d.QueryResponseRatio, 1e-9)
	assert.Greater(t, d.PacketSizeStddev, 0.0)
}

func TestExtractor_MalformedPayloadIgnored(t *testing.T) {
	s := New()
	s.Observe([]byte{0x01, 0x02}, 60, 1000)
	d := s.Derived(1.0, 60)
	assert.Equal(t, int64(0), d.TotalQueries)
	assert.Equal(t, int64(0), d.TotalResponses)
}

func TestExtractor_PendingTableEviction(t *testing.T) {
	s := New()
	for i := 0; i < pendingMaxEntries+1; i++ {
		q := buildMessage(uint16(i), false, 1, "a.example.com", 1, 0)
		s.Observe(q, 60, int64(i))
	}
	require.LessOrEqual(t, len(s.pending), pendingMaxEntries)
}

func TestExtractor_ResponseTimeVariance(t *testing.T) {
	s := New()
	q1 := buildMessage(1, false, 1, "a.example.com", 1, 0)
	s.Observe(q1, 60, 0)
	r1 := buildMessage(1, true, 1, "a.example.com", 1, 1)
	s.Observe(r1, 200, 100)

	q2 := buildMessage(2, false, 1, "a.example.com", 1, 0)
	s.Observe(q2, 60, 200)
	r2 := buildMessage(2, true, 1, "a.example.com", 1, 1)
	s.Observe(r2, 200, 400)

	d := s.Derived(1.0, 1000)
	assert.GreaterOrEqual(t, d.ResponseTimeVariance, 0.0)
}

func TestExtractor_EDNSDetection(t *testing.T) {
	s := New()
	msg := buildMessage(1, false, 1, "a.example.com", 1, 0)
	// Append an OPT record to the additional section, bump ARCount.
	msg[10], msg[11] = 0x00, 0x01
	opt := []byte{0x00, 0x00, 0x29, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	msg = append(msg, opt...)
	s.Observe(msg, 60, 1000)
	assert.True(t, s.EDNSPresent())
	assert.Equal(t, uint16(0x1000), s.MaxEDNSUDPSize())
}
