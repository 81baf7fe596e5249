package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateLifecycle(t *testing.T) {
	s := NewState("vm")

	snap := s.Snapshot()
	assert.Equal(t, StatusStarting, snap.Status)
	assert.Equal(t, "vm", snap.Instance)
	assert.Nil(t, snap.LatencyMS)
	assert.False(t, s.Healthy())
	assert.False(t, s.Ready())

	s.SetStatus(StatusConnected)
	assert.False(t, s.Ready())

	s.SetReady(7, 42)
	snap = s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, 7, snap.CogsLoaded)
	require.NotNil(t, snap.LatencyMS)
	assert.Equal(t, int64(42), *snap.LatencyMS)
	assert.True(t, s.Healthy())
	assert.True(t, s.Ready())
}

func TestStateDisconnectKeepsLatency(t *testing.T) {
	s := NewState("vm")
	s.SetReady(3, 50)

	s.SetStatus(StatusDisconnected)
	assert.False(t, s.Healthy(), "disconnected must fail the liveness gate")
	assert.False(t, s.Ready())

	snap := s.Snapshot()
	require.NotNil(t, snap.LatencyMS)
	assert.Equal(t, int64(50), *snap.LatencyMS)

	// Resume restores readiness without a fresh ready event.
	s.SetStatus(StatusReady)
	assert.True(t, s.Healthy())
}

func TestStateReadyWithoutLatencyIsUnhealthy(t *testing.T) {
	s := NewState("vm")
	s.SetStatus(StatusReady)
	assert.True(t, s.Ready())
	assert.False(t, s.Healthy(), "liveness also needs an observed latency")

	s.SetLatency(12)
	assert.True(t, s.Healthy())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewState("vm")
	s.SetReady(1, 10)

	snap := s.Snapshot()
	*snap.LatencyMS = 999

	fresh := s.Snapshot()
	assert.Equal(t, int64(10), *fresh.LatencyMS)
}
