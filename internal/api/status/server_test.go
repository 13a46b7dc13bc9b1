package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachforge/reachforge-console/internal/events"
	"github.com/reachforge/reachforge-console/internal/models"
	"github.com/reachforge/reachforge-console/internal/notify"
	"github.com/reachforge/reachforge-console/internal/realtime"
)

type fakeConnection struct{ state realtime.Connection }

func (f *fakeConnection) State() realtime.Connection { return f.state }

type fakeTelemetry struct {
	queues   []models.QueueSnapshot
	pipeline []events.PipelineStage
	stats    *models.DashboardStats
}

func (f *fakeTelemetry) Queues() []models.QueueSnapshot   { return f.queues }
func (f *fakeTelemetry) Pipeline() []events.PipelineStage { return f.pipeline }
func (f *fakeTelemetry) Stats() (models.DashboardStats, bool) {
	if f.stats == nil {
		return models.DashboardStats{}, false
	}
	return *f.stats, true
}

type fakeToasts struct{ active []notify.Toast }

func (f *fakeToasts) Active() []notify.Toast { return f.active }

func newStatusServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"*"}
	}
	s := NewServer(opts)
	srv := httptest.NewServer(s.srv.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newStatusServer(t, Options{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "reachforge-console", body["service"])
}

func TestStatusReportsSources(t *testing.T) {
	srv := newStatusServer(t, Options{
		Connection: &fakeConnection{state: realtime.Connection{
			State: realtime.StateConnected, ReconnectAttempt: 2,
		}},
		Telemetry: &fakeTelemetry{
			queues:   []models.QueueSnapshot{{Name: "email", Pending: 7}},
			pipeline: []events.PipelineStage{{Name: "scrape", State: "running"}},
			stats:    &models.DashboardStats{ContactsTotal: 99},
		},
		Toasts: &fakeToasts{active: []notify.Toast{{ID: "t-1"}, {ID: "t-2"}}},
	})

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Connection struct {
			State            string `json:"state"`
			ReconnectAttempt int    `json:"reconnect_attempt"`
		} `json:"connection"`
		Queues      []models.QueueSnapshot `json:"queues"`
		Pipeline    []events.PipelineStage `json:"pipeline"`
		Stats       *models.DashboardStats `json:"stats"`
		ActiveToast int                    `json:"active_toasts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.Equal(t, "connected", payload.Connection.State)
	assert.Equal(t, 2, payload.Connection.ReconnectAttempt)
	require.Len(t, payload.Queues, 1)
	assert.Equal(t, 7, payload.Queues[0].Pending)
	require.NotNil(t, payload.Stats)
	assert.Equal(t, 99, payload.Stats.ContactsTotal)
	assert.Equal(t, 2, payload.ActiveToast)
}

func TestStatusWithNoSourcesReturnsEmptyShapes(t *testing.T) {
	srv := newStatusServer(t, Options{})

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, "[]", string(raw["queues"]), "queues must be [] not null")
	assert.JSONEq(t, "[]", string(raw["pipeline"]))
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	srv := newStatusServer(t, Options{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := newStatusServer(t, Options{})

	resp, err := http.Get(srv.URL + "/debug/anything")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
