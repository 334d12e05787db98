package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/cutflow/internal/adapters/repository"
	"github.com/okian/cutflow/internal/domain/cutflow"
)

// CutflowDependencies defines the read side of the merged results.
type CutflowDependencies interface {
	Summaries(ctx context.Context) []repository.ProcessSummary
	Summary(ctx context.Context, process string) (repository.ProcessSummary, error)
}

// cutflowResponse is a process summary without its histograms.
type cutflowResponse struct {
	Process        string          `json:"process"`
	Analysis       string          `json:"analysis"`
	IsData         bool            `json:"is_data"`
	Partitions     int             `json:"partitions"`
	Events         int64           `json:"events"`
	Selected       int64           `json:"selected"`
	InvalidWeights int64           `json:"invalid_weights"`
	Stages         []cutflow.Stage `json:"stages"`
}

func newCutflowResponse(ps repository.ProcessSummary) cutflowResponse {
	return cutflowResponse{
		Process:        ps.Process,
		Analysis:       ps.Analysis,
		IsData:         ps.IsData,
		Partitions:     ps.Partitions,
		Events:         ps.Events,
		Selected:       ps.Selected,
		InvalidWeights: ps.InvalidWeights,
		Stages:         ps.Cutflow,
	}
}

// CutflowHandler handles cutflow requests.
type CutflowHandler struct {
	deps CutflowDependencies
}

// NewCutflowHandler creates a new cutflow handler.
func NewCutflowHandler(deps CutflowDependencies) *CutflowHandler {
	return &CutflowHandler{deps: deps}
}

// HandleList handles GET /cutflow requests.
func (h *CutflowHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summaries := h.deps.Summaries(r.Context())
	out := make([]cutflowResponse, 0, len(summaries))
	for _, ps := range summaries {
		out = append(out, newCutflowResponse(ps))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /cutflow/{process} requests.
func (h *CutflowHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	process := strings.TrimPrefix(r.URL.Path, "/cutflow/")
	if process == "" || strings.Contains(process, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	ps, err := h.deps.Summary(r.Context(), process)
	writeResult(w, newCutflowResponse(ps), err)
}
