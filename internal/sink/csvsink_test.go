package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVSink_HeaderAndRowsNoLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := NewCSVSink(path)
	require.NoError(t, err)

	require.NoError(t, s.WriteHeader(false))
	require.NoError(t, s.WriteRow(Row{SrcIP: "1.1.1.1", DstIP: "2.2.2.2", SrcPort: 1000, DstPort: 53, Protocol: "udp"}, ""))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "label")
	assert.Contains(t, lines[1], "1.1.1.1")
}

func TestCSVSink_WithLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := NewCSVSink(path)
	require.NoError(t, err)

	require.NoError(t, s.WriteHeader(true))
	require.NoError(t, s.WriteRow(Row{SrcIP: "1.1.1.1", Protocol: "tcp"}, "ATTACK"))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "label"))
	assert.True(t, strings.HasSuffix(lines[1], "ATTACK"))
}

func TestCSVSink_FlushIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteHeader(false))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Flush())
}
