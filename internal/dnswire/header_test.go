package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	msg := []byte{
		0x12, 0x34, // ID
		0x81, 0x80, // Flags (response, no error)
		0x00, 0x01, // QDCount
		0x00, 0x02, // ANCount
		0x00, 0x03, // NSCount
		0x00, 0x04, // ARCount
	}

	off := 0
	h, err := ParseHeader(msg, &off)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x1234), h.ID)
	assert.Equal(t, uint16(1), h.QDCount)
	assert.Equal(t, uint16(2), h.ANCount)
	assert.Equal(t, uint16(3), h.NSCount)
	assert.Equal(t, uint16(4), h.ARCount)
	assert.Equal(t, HeaderSize, off)
	assert.True(t, h.QR())
}

func TestParseHeader_TooShort(t *testing.T) {
	msg := []byte{0x12, 0x34, 0x81, 0x80}
	off := 0
	_, err := ParseHeader(msg, &off)
	assert.ErrorIs(t, err, ErrDNSError)
}

func TestHeader_Opcode(t *testing.T) {
	h := Header{Flags: 0x7800} // all opcode bits set
	assert.Equal(t, uint8(0xF), h.Opcode())
}

func TestHeader_QR_Query(t *testing.T) {
	h := Header{Flags: 0x0100}
	assert.False(t, h.QR())
}
