package statusapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/dnsflowmeter/internal/runstats"
	"github.com/jroosing/dnsflowmeter/internal/statusapi"
)

type fakeFlows struct{ n int }

func (f fakeFlows) ActiveFlowCount() int { return f.n }

func TestStatusAPI_Healthz(t *testing.T) {
	s := statusapi.New("127.0.0.1:0", nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusAPI_Stats(t *testing.T) {
	stats := runstats.New()
	stats.RecordPacket()
	stats.RecordSkipped()

	s := statusapi.New("127.0.0.1:0", stats, fakeFlows{n: 3}, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["active_flows"])
	assert.Equal(t, float64(2), body["total_packets"])
}
