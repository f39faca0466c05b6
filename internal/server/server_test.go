package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch/internal/gateway"
	"netwatch/internal/history"
	"netwatch/internal/metrics"
	"netwatch/internal/models"
	"netwatch/internal/monitor"
)

type tableProber struct{ up map[string]bool }

func (p tableProber) Probe(_ context.Context, target models.Target) models.ProbeResult {
	return models.ProbeResult{
		Target:    target,
		OK:        p.up[target.Address],
		CheckedAt: time.Now().UTC(),
	}
}

func newTestServer(t *testing.T) (*Server, *monitor.Monitor, *history.Recorder) {
	t.Helper()

	prober := tableProber{up: map[string]bool{"192.168.1.1": true, "1.1.1.1": true}}
	locator := gateway.NewLocator(time.Minute, clock.NewMock(), nil).
		WithDiscoverFunc(func() (net.IP, error) { return net.ParseIP("192.168.1.1"), nil })
	sampler := monitor.NewSampler(prober, locator, []models.Target{{Address: "1.1.1.1", Role: models.RolePublic}}, "")
	machine := monitor.NewStateMachine(3, 2)
	recorder := history.NewRecorder(0, 0)

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	mon := monitor.New(5*time.Second, sampler, machine, nil, recorder, collector, clock.NewMock(), nil)
	return New(":0", mon, recorder, reg), mon, recorder
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	s, mon, _ := newTestServer(t)
	mon.RunOnce(context.Background())

	rec := get(t, s, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		State  models.NetworkState      `json:"state"`
		Latest *models.RoundObservation `json:"latest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StateOK, resp.State)
	require.NotNil(t, resp.Latest)
	assert.Equal(t, models.GatewayUp, resp.Latest.Gateway)
	assert.Equal(t, 1, resp.Latest.PublicOK)
}

func TestHistoryEndpointHonorsLimit(t *testing.T) {
	s, mon, _ := newTestServer(t)
	for i := 0; i < 5; i++ {
		mon.RunOnce(context.Background())
	}

	rec := get(t, s, "/api/history?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var rounds []models.RoundObservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rounds))
	assert.Len(t, rounds, 2)
}

func TestTransitionsEndpointEmpty(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := get(t, s, "/api/transitions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUptimeEndpoint(t *testing.T) {
	s, mon, _ := newTestServer(t)
	mon.RunOnce(context.Background())

	rec := get(t, s, "/api/uptime")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary []metrics.TargetUptime
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary, 2) // gateway + one public target
	assert.Equal(t, 100.0, summary[0].UptimePercent)
}

func TestEventsWSStreamsSnapshotThenTransitions(t *testing.T) {
	s, mon, recorder := newTestServer(t)
	mon.RunOnce(context.Background())

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// connecting yields a status snapshot first
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var first eventFrame
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "status", first.Kind)
	require.NotNil(t, first.Status)
	assert.Equal(t, models.StateOK, first.Status.State)
	require.NotNil(t, first.Status.Latest)
	assert.Equal(t, models.GatewayUp, first.Status.Latest.Gateway)

	// a recorded transition is pushed as its own frame
	recorder.RecordTransition(models.Transition{
		From:      models.StateOK,
		To:        models.StateLANDown,
		Reason:    "gateway unreachable for 3 consecutive rounds",
		Timestamp: time.Now().UTC(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var second eventFrame
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "transition", second.Kind)
	require.NotNil(t, second.Transition)
	assert.Equal(t, models.StateLANDown, second.Transition.To)
	assert.Nil(t, second.Status)
}

func TestEventsWSRejectsForeignOrigin(t *testing.T) {
	s, _, _ := newTestServer(t)

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws"
	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if conn != nil {
		conn.Close()
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	require.Error(t, err, "cross-origin upgrade must be refused")
}

func TestMetricsEndpointExposesNetwatchSeries(t *testing.T) {
	s, mon, _ := newTestServer(t)
	mon.RunOnce(context.Background())

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "netwatch_rounds_total 1")
	assert.Contains(t, rec.Body.String(), `netwatch_network_state{state="OK"} 1`)
}
