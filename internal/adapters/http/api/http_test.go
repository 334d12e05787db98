package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cutflow/internal/adapters/histogram"
	"github.com/okian/cutflow/internal/adapters/http/api"
	"github.com/okian/cutflow/internal/adapters/repository"
	"github.com/okian/cutflow/internal/domain/analysis"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/model"
)

// results serves a MemStore filled with one partition of ggH.
type results struct {
	*repository.MemStore
}

func (results) GetStats() map[string]any {
	return map[string]any{"state": "running", "partitions": 3}
}

func newResults() results {
	cf := cutflow.New("HZZAnalysis", []string{analysis.StageFourLeptons})
	for i := 0; i < 4; i++ {
		g, err := cf.Start(0.5)
		So(err, ShouldBeNil)
		g.Require(analysis.StageFourLeptons, i%2 == 0)
	}
	cf.Freeze()

	hists := histogram.New()
	h := hists.Register("lep_n", analysis.Binning{Bins: 5, Min: -0.5, Max: 4.5})
	h.Fill(4, 0.5)
	h.Fill(4, 0.5)

	repo := repository.NewMemStore()
	So(repo.Update(context.Background(), repository.PartitionResult{
		Partition:  model.Partition{Process: "ggH", Begin: 0, End: 4},
		Analysis:   "HZZAnalysis",
		Cutflow:    cf,
		Histograms: hists,
		Events:     4,
		Selected:   2,
	}), ShouldBeNil)
	return results{repo}
}

func serve(deps api.Dependencies, method, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer(t *testing.T) {
	Convey("Given a server over merged results", t, func() {
		deps := newResults()

		Convey("When requesting /cutflow", func() {
			rec := serve(deps, http.MethodGet, "/cutflow")

			Convey("Then every process is listed with its stages", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var got []struct {
					Process string          `json:"process"`
					Events  int64           `json:"events"`
					Stages  []cutflow.Stage `json:"stages"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Process, ShouldEqual, "ggH")
				So(got[0].Events, ShouldEqual, int64(4))
				So(got[0].Stages, ShouldHaveLength, 2)
				So(got[0].Stages[0].SumW, ShouldAlmostEqual, 2.0, 1e-12)
				So(got[0].Stages[1].Count, ShouldEqual, int64(2))
			})
		})

		Convey("When requesting one process", func() {
			So(serve(deps, http.MethodGet, "/cutflow/ggH").Code, ShouldEqual, http.StatusOK)
			So(serve(deps, http.MethodGet, "/cutflow/ZZ").Code, ShouldEqual, http.StatusNotFound)
			So(serve(deps, http.MethodGet, "/cutflow/a/b").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When requesting histograms", func() {
			rec := serve(deps, http.MethodGet, "/histograms/ggH")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var list []histogram.Summary
			So(json.Unmarshal(rec.Body.Bytes(), &list), ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(list[0].Name, ShouldEqual, "lep_n")

			rec = serve(deps, http.MethodGet, "/histograms/ggH/lep_n")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var one histogram.Summary
			So(json.Unmarshal(rec.Body.Bytes(), &one), ShouldBeNil)
			So(one.Bins[4].SumW, ShouldAlmostEqual, 1.0, 1e-12)

			So(serve(deps, http.MethodGet, "/histograms/ggH/nope").Code, ShouldEqual, http.StatusNotFound)
			So(serve(deps, http.MethodGet, "/histograms/ZZ").Code, ShouldEqual, http.StatusNotFound)
			So(serve(deps, http.MethodGet, "/histograms/").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When requesting /stats", func() {
			rec := serve(deps, http.MethodGet, "/stats")
			var stats map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["state"], ShouldEqual, "running")
		})

		Convey("When requesting /healthz", func() {
			rec := serve(deps, http.MethodGet, "/healthz")

			Convey("Then the metrics exposition is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(rec.Body.String(), "cutflow_"), ShouldBeTrue)
			})
		})

		Convey("When posting", func() {
			So(serve(deps, http.MethodPost, "/cutflow").Code, ShouldEqual, http.StatusNotFound)
			So(serve(deps, http.MethodPost, "/stats").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
