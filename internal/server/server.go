package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netwatch/internal/history"
	"netwatch/internal/metrics"
	"netwatch/internal/models"
	"netwatch/internal/monitor"
)

// Server exposes the monitor over HTTP: status API, Prometheus metrics,
// and a WebSocket event stream. There is no UI; every endpoint speaks
// JSON (or the Prometheus text format).
type Server struct {
	httpServer   *http.Server
	monitor      *monitor.Monitor
	recorder     *history.Recorder
	gatherer     prometheus.Gatherer
	historyLimit int
	startedAt    time.Time
}

// New creates a configured HTTP server for the monitor.
func New(addr string, mon *monitor.Monitor, recorder *history.Recorder, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer:   &http.Server{Addr: addr, Handler: mux},
		monitor:      mon,
		recorder:     recorder,
		gatherer:     gatherer,
		historyLimit: 200,
		startedAt:    time.Now().UTC(),
	}
	s.registerRoutes(mux)
	return s
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/transitions", s.handleTransitions)
	mux.HandleFunc("/api/uptime", s.handleUptime)
	mux.HandleFunc("/api/events/ws", s.handleEventsWS)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// statusResponse is the payload of /api/status and the WebSocket
// snapshot frames.
type statusResponse struct {
	State       models.NetworkState      `json:"state"`
	Latest      *models.RoundObservation `json:"latest,omitempty"`
	StartedAt   time.Time                `json:"started_at"`
	GeneratedAt time.Time                `json:"generated_at"`
}

func (s *Server) statusSnapshot() statusResponse {
	resp := statusResponse{
		State:       s.monitor.State(),
		StartedAt:   s.startedAt,
		GeneratedAt: time.Now().UTC(),
	}
	if latest, ok := s.recorder.Latest(); ok {
		resp.Latest = &latest
	}
	return resp
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.statusSnapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, s.recorder.Rounds(limit))
}

func (s *Server) handleTransitions(w http.ResponseWriter, _ *http.Request) {
	transitions := s.recorder.Transitions()
	if transitions == nil {
		transitions = []models.Transition{}
	}
	writeJSON(w, http.StatusOK, transitions)
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	summary := metrics.ComputeTargetUptime(s.recorder.Rounds(limit))
	if summary == nil {
		summary = []metrics.TargetUptime{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
