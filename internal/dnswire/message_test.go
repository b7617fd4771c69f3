package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildQuery(id uint16, name string, qtype uint16) []byte {
	msg := []byte{
		byte(id >> 8), byte(id),
		0x01, 0x00, // flags: RD set, QR=0
		0x00, 0x01, // QDCount=1
		0x00, 0x00, // ANCount
		0x00, 0x00, // NSCount
		0x00, 0x00, // ARCount
	}
	for _, label := range splitLabels(name) {
		msg = append(msg, byte(len(label)))
		msg = append(msg, label...)
	}
	msg = append(msg, 0)
	msg = append(msg, byte(qtype>>8), byte(qtype), 0x00, 0x01)
	return msg
}

func splitLabels(name string) []string {
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

func TestParseMessage_Query(t *testing.T) {
	msg := buildQuery(0xBEEF, "example.com", 1)
	m, err := ParseMessage(msg)
	require.NoError(t, err)
	assert.False(t, m.Header.QR())
	require.Len(t, m.Questions, 1)
	assert.Equal(t, "example.com", m.Questions[0].Name)
	assert.Equal(t, uint16(1), m.Questions[0].Type)
	assert.Nil(t, m.OPT)
}

func TestParseMessage_TooShort(t *testing.T) {
	_, err := ParseMessage([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrDNSError)
}
