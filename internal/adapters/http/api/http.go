// Package api serves the job status, merged cutflows and histograms over
// HTTP while a job runs.
package api

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/okian/cutflow/internal/adapters/histogram"
	"github.com/okian/cutflow/internal/adapters/repository"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	CutflowDependencies
	HistogramDependencies
}

// Server wires HTTP routes for the job API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	cutflowHandler   *CutflowHandler
	histogramHandler *HistogramHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		cutflowHandler:   NewCutflowHandler(deps),
		histogramHandler: NewHistogramHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/cutflow", MetricsMiddleware(s.cutflowHandler.HandleList, "cutflow"))
	mux.HandleFunc("/cutflow/", MetricsMiddleware(s.cutflowHandler.HandleGet, "cutflow"))
	mux.HandleFunc("/histograms/", MetricsMiddleware(s.histogramHandler.HandleGet, "histograms"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, histogram.ErrUnknownHistogram)
}

// writeResult maps a lookup error to a status and writes v otherwise.
func writeResult(w http.ResponseWriter, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
