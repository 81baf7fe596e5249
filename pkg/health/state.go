// Package health tracks gateway liveness and serves it to the orchestrator.
package health

import (
	"os"
	"sync"
)

// Status values follow the gateway lifecycle.
const (
	StatusStarting     = "starting"
	StatusConnected    = "connected"
	StatusReady        = "ready"
	StatusDisconnected = "disconnected"
)

// Snapshot is the wire shape both endpoints return. latency_ms stays null
// until the first ready event reports a heartbeat.
type Snapshot struct {
	Status     string `json:"status"`
	CogsLoaded int    `json:"cogs_loaded"`
	LatencyMS  *int64 `json:"latency_ms"`
	Hostname   string `json:"hostname"`
	Instance   string `json:"instance"`
}

// State is the mutable health record shared between the gateway event
// handlers and the HTTP server.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewState starts in the "starting" phase with the host and instance recorded.
func NewState(instanceTag string) *State {
	hostname, _ := os.Hostname()
	return &State{snap: Snapshot{
		Status:   StatusStarting,
		Hostname: hostname,
		Instance: instanceTag,
	}}
}

// SetStatus moves the lifecycle phase without touching the other gates.
func (s *State) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = status
}

// SetReady records a successful login: module count, measured latency, and
// the ready phase in one step.
func (s *State) SetReady(cogsLoaded int, latencyMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.CogsLoaded = cogsLoaded
	s.snap.LatencyMS = &latencyMS
	s.snap.Status = StatusReady
}

// SetLatency refreshes the reported heartbeat latency.
func (s *State) SetLatency(latencyMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LatencyMS = &latencyMS
}

// Snapshot returns a copy safe to serialize.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	if s.snap.LatencyMS != nil {
		ms := *s.snap.LatencyMS
		snap.LatencyMS = &ms
	}
	return snap
}

// Healthy reports whether the process should pass a liveness probe: the
// session reached ready and a heartbeat latency has been observed.
func (s *State) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status == StatusReady && s.snap.LatencyMS != nil
}

// Ready reports whether the session is in the ready phase.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status == StatusReady
}
