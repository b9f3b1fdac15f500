// Package admin serves the probe's status endpoints during a run.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qos-probe/internal/probe"
	"qos-probe/internal/sample"
)

// Server exposes health, live status and prometheus metrics.
type Server struct {
	ctrl    *probe.Controller
	rec     *sample.Recorder
	started time.Time
}

// Status is the /status response body.
type Status struct {
	Connected   bool      `json:"connected"`
	Received    int       `json:"received"`
	Disconnects int       `json:"disconnects"`
	Samples     int       `json:"samples"`
	StartedAt   time.Time `json:"started_at"`
}

func NewServer(ctrl *probe.Controller, rec *sample.Recorder) *Server {
	return &Server{ctrl: ctrl, rec: rec, started: time.Now()}
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	arrivals, markers := s.rec.Counts()
	st := Status{
		Connected:   s.ctrl.Connected(),
		Received:    arrivals,
		Disconnects: markers,
		Samples:     arrivals + markers,
		StartedAt:   s.started,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}
