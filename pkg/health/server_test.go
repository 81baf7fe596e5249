package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doGet(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointGates(t *testing.T) {
	state := NewState("vm")
	srv := NewServer(state, 0)

	rec := doGet(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	state.SetReady(5, 33)
	rec = doGet(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, 5, snap.CogsLoaded)
	require.NotNil(t, snap.LatencyMS)
	assert.Equal(t, int64(33), *snap.LatencyMS)
}

func TestReadyEndpointIgnoresLatency(t *testing.T) {
	state := NewState("vm")
	srv := NewServer(state, 0)

	rec := doGet(t, srv.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Ready only needs the phase, unlike /health.
	state.SetStatus(StatusReady)
	rec = doGet(t, srv.Handler(), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointServesPrometheus(t *testing.T) {
	srv := NewServer(NewState("vm"), 0)

	rec := doGet(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownMethodRejected(t *testing.T) {
	srv := NewServer(NewState("vm"), 0)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
