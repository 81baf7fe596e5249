package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server exposes the health state plus Prometheus metrics over HTTP.
type Server struct {
	state *State
	srv   *http.Server
}

// NewServer builds the router for /health, /ready and /metrics.
func NewServer(state *State, port int) *Server {
	s := &Server{state: state}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until Shutdown. Run it in its own goroutine.
func (s *Server) Start() error {
	log.WithFields(log.Fields{"addr": s.srv.Addr}).Info("Health server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the listener down immediately.
func (s *Server) Close() error {
	return s.srv.Close()
}

// Handler returns the configured router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	code := http.StatusServiceUnavailable
	if s.state.Healthy() {
		code = http.StatusOK
	}
	writeJSON(w, code, s.state.Snapshot())
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	code := http.StatusServiceUnavailable
	if s.state.Ready() {
		code = http.StatusOK
	}
	writeJSON(w, code, s.state.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to write health response")
	}
}
