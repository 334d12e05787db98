package repository_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cutflow/internal/adapters/histogram"
	"github.com/okian/cutflow/internal/adapters/repository"
	"github.com/okian/cutflow/internal/domain/analysis"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/model"
)

var binning = analysis.Binning{Bins: 2, Min: 0, Max: 10}

func partitionResult(process string, id int, weights ...float64) repository.PartitionResult {
	c := cutflow.New("HZZAnalysis", []string{"4 leptons"})
	h := histogram.New()
	hist := h.Register("m", binning)
	for _, w := range weights {
		g, err := c.Start(w)
		So(err, ShouldBeNil)
		if g.Require("4 leptons", w > 1) {
			hist.Fill(2, w)
		}
	}
	return repository.PartitionResult{
		Partition:  model.Partition{ID: id, Process: process, End: int64(len(weights))},
		Analysis:   "HZZAnalysis",
		Cutflow:    c,
		Histograms: h,
		Events:     int64(len(weights)),
	}
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store", t, func() {
		s := repository.NewMemStore()

		Convey("Partitions of one process merge by summation", func() {
			So(s.Update(ctx, partitionResult("ggH", 0, 1, 2)), ShouldBeNil)
			So(s.Update(ctx, partitionResult("ggH", 1, 3)), ShouldBeNil)
			So(s.Update(ctx, partitionResult("ZZ", 0, 4)), ShouldBeNil)

			So(s.Count(ctx), ShouldEqual, 2)
			sum, err := s.Summary(ctx, "ggH")
			So(err, ShouldBeNil)
			So(sum.Partitions, ShouldEqual, 2)
			So(sum.Events, ShouldEqual, int64(3))
			So(sum.Cutflow[0].SumW, ShouldAlmostEqual, 6.0)
			So(sum.Cutflow[1].SumW, ShouldAlmostEqual, 5.0)
			So(sum.Cutflow[1].Count, ShouldEqual, int64(2))
			So(sum.Histograms[0].Bins[0].SumW, ShouldAlmostEqual, 5.0)

			all := s.Summaries(ctx)
			So(len(all), ShouldEqual, 2)
			So(all[0].Process, ShouldEqual, "ZZ")
			So(all[1].Process, ShouldEqual, "ggH")
		})

		Convey("Arrival order does not change the totals", func() {
			other := repository.NewMemStore()
			So(s.Update(ctx, partitionResult("ggH", 0, 1, 2)), ShouldBeNil)
			So(s.Update(ctx, partitionResult("ggH", 1, 3)), ShouldBeNil)
			So(other.Update(ctx, partitionResult("ggH", 1, 3)), ShouldBeNil)
			So(other.Update(ctx, partitionResult("ggH", 0, 1, 2)), ShouldBeNil)
			a, _ := s.Summary(ctx, "ggH")
			b, _ := other.Summary(ctx, "ggH")
			So(a.Cutflow, ShouldResemble, b.Cutflow)
		})

		Convey("Unknown processes are reported", func() {
			_, err := s.Summary(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.Histograms(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("A result without a cutflow is refused", func() {
			So(errors.Is(s.Update(ctx, repository.PartitionResult{}), repository.ErrNoResult), ShouldBeTrue)
		})

		Convey("A different stage list for the same process is refused", func() {
			So(s.Update(ctx, partitionResult("ggH", 0, 1)), ShouldBeNil)
			bad := partitionResult("ggH", 1, 1)
			bad.Cutflow = cutflow.New("ZPrimeAnalysis", []string{"EventCuts"})
			So(errors.Is(s.Update(ctx, bad), cutflow.ErrIncompatible), ShouldBeTrue)
		})

		Convey("A histogram binning mismatch leaves the totals untouched", func() {
			So(s.Update(ctx, partitionResult("ggH", 0, 1, 2)), ShouldBeNil)
			before, err := s.Summary(ctx, "ggH")
			So(err, ShouldBeNil)

			bad := partitionResult("ggH", 1, 3)
			bad.Histograms = histogram.New()
			bad.Histograms.Register("m", analysis.Binning{Bins: 4, Min: 0, Max: 10})
			So(errors.Is(s.Update(ctx, bad), histogram.ErrIncompatibleBinning), ShouldBeTrue)

			after, err := s.Summary(ctx, "ggH")
			So(err, ShouldBeNil)
			So(after.Partitions, ShouldEqual, before.Partitions)
			So(after.Events, ShouldEqual, before.Events)
			So(after.Cutflow, ShouldResemble, before.Cutflow)
			So(after.Histograms, ShouldResemble, before.Histograms)
		})

		Convey("Frozen stores refuse further merges", func() {
			So(s.Update(ctx, partitionResult("ggH", 0, 1)), ShouldBeNil)
			s.Freeze()
			So(errors.Is(s.Update(ctx, partitionResult("ggH", 1, 1)), cutflow.ErrFrozen), ShouldBeTrue)
		})

		Convey("Summaries can leave out histograms", func() {
			lean := repository.NewMemStore(repository.WithHistogramSummaries(false))
			So(lean.Update(ctx, partitionResult("ggH", 0, 2)), ShouldBeNil)
			sum, err := lean.Summary(ctx, "ggH")
			So(err, ShouldBeNil)
			So(sum.Histograms, ShouldBeEmpty)
			reg, err := lean.Histograms(ctx, "ggH")
			So(err, ShouldBeNil)
			So(reg.Names(), ShouldResemble, []string{"m"})
		})
	})
}

func TestJSON(t *testing.T) {
	ctx := context.Background()

	Convey("Given merged summaries", t, func() {
		s := repository.NewMemStore()
		So(s.Update(ctx, partitionResult("ggH", 0, 1, 2)), ShouldBeNil)
		sums := s.Summaries(ctx)

		Convey("They survive a JSON round trip", func() {
			var buf bytes.Buffer
			So(repository.WriteJSON(&buf, sums), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, `"name": "no cut"`)
			back, err := repository.ReadJSON(&buf)
			So(err, ShouldBeNil)
			So(back[0].Cutflow, ShouldResemble, sums[0].Cutflow)
		})

		Convey("One file is written per process", func() {
			dir := t.TempDir()
			paths, err := repository.WriteFiles(dir, sums)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{filepath.Join(dir, "ggH_cutflow.json")})
		})
	})
}
