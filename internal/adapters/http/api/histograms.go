package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/cutflow/internal/adapters/histogram"
)

// HistogramDependencies defines access to the merged histograms.
type HistogramDependencies interface {
	Histograms(ctx context.Context, process string) (*histogram.Registry, error)
}

// HistogramHandler handles histogram requests.
type HistogramHandler struct {
	deps HistogramDependencies
}

// NewHistogramHandler creates a new histogram handler.
func NewHistogramHandler(deps HistogramDependencies) *HistogramHandler {
	return &HistogramHandler{deps: deps}
}

// HandleGet handles GET /histograms/{process} and
// GET /histograms/{process}/{name} requests.
func (h *HistogramHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/histograms/"), "/")
	if parts[0] == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] == "") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	reg, err := h.deps.Histograms(r.Context(), parts[0])
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	if len(parts) == 1 {
		writeJSON(w, http.StatusOK, reg.Summaries())
		return
	}
	s, err := reg.Summary(parts[1])
	writeResult(w, s, err)
}
