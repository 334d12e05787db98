package store_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cutflow/internal/adapters/source/inmem"
	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/internal/store"
)

func withLeptons(n int32, pts ...float32) model.Event {
	ev := model.Event{SFPileup: 1, LepN: n}
	for _, pt := range pts {
		ev.LepPt = append(ev.LepPt, pt)
		ev.LepEta = append(ev.LepEta, 0)
		ev.LepPhi = append(ev.LepPhi, 0)
		ev.LepE = append(ev.LepE, pt)
		ev.LepType = append(ev.LepType, 11)
		ev.LepCharge = append(ev.LepCharge, 1)
		ev.LepPtCone30 = append(ev.LepPtCone30, 0)
		ev.LepEtCone20 = append(ev.LepEtCone20, 0)
		ev.LepD0 = append(ev.LepD0, 0)
		ev.LepD0Sig = append(ev.LepD0Sig, 0)
		ev.LepTrigMatched = append(ev.LepTrigMatched, true)
		ev.LepZ0 = append(ev.LepZ0, 0)
		ev.LepIsTightID = append(ev.LepIsTightID, true)
		ev.LepPtSyst = append(ev.LepPtSyst, 0)
	}
	return ev
}

// countingSource counts the count-branch scans made through it.
type countingSource struct {
	store.Source
	scans int
}

func (c *countingSource) MaxCount(ctx context.Context, branch string) (int64, error) {
	c.scans++
	return c.Source.MaxCount(ctx, branch)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	Convey("Given a source missing a required branch", t, func() {
		src := inmem.New([]model.Event{withLeptons(1, 1000)}, inmem.WithoutBranch("lep_z0"))

		Convey("Open fails and names the branch", func() {
			_, err := store.Open(ctx, src)
			So(errors.Is(err, store.ErrMissingBranch), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "lep_z0")
		})
	})

	Convey("Given rows with varying lepton counts", t, func() {
		rows := []model.Event{withLeptons(2, 1, 2), withLeptons(-7, 1, 2, 3, 4, 5, 6, 7)}
		rows[0].JetN = 3

		Convey("Capacity is the largest absolute count", func() {
			s, err := store.Open(ctx, inmem.New(rows))
			So(err, ShouldBeNil)
			So(s.Capacity(model.KindLepton), ShouldEqual, 7)
			So(s.Capacity(model.KindJet), ShouldEqual, 3)
			So(s.Capacity(model.KindTau), ShouldEqual, 0)
			So(s.Entries(), ShouldEqual, 2)
		})

		Convey("Capacity never exceeds the ceiling", func() {
			s, err := store.Open(ctx, inmem.New(rows), store.WithCapacityCeiling(5))
			So(err, ShouldBeNil)
			So(s.Capacity(model.KindLepton), ShouldEqual, 5)

			So(s.LoadEvent(ctx, 1), ShouldBeNil)
			So(len(s.Leptons()), ShouldEqual, 5)
		})

		Convey("Precomputed capacities skip the count scan", func() {
			src := &countingSource{Source: inmem.New(rows)}
			caps, err := store.Capacities(ctx, src, store.WithCapacityCeiling(5))
			So(err, ShouldBeNil)
			So(caps[model.KindLepton], ShouldEqual, 5)
			So(caps[model.KindJet], ShouldEqual, 3)
			So(src.scans, ShouldEqual, len(model.Kinds))

			for range 3 {
				s, err := store.Open(ctx, src, store.WithCapacities(caps))
				So(err, ShouldBeNil)
				So(s.Capacity(model.KindLepton), ShouldEqual, 5)
				So(s.Capacity(model.KindJet), ShouldEqual, 3)
			}
			So(src.scans, ShouldEqual, len(model.Kinds))
		})

		Convey("Precomputed capacities are still capped by the ceiling", func() {
			caps := map[model.Kind]int{model.KindLepton: 50, model.KindJet: -1}
			s, err := store.Open(ctx, inmem.New(rows), store.WithCapacities(caps), store.WithCapacityCeiling(4))
			So(err, ShouldBeNil)
			So(s.Capacity(model.KindLepton), ShouldEqual, 4)
			So(s.Capacity(model.KindJet), ShouldEqual, 0)
			So(s.Capacity(model.KindTau), ShouldEqual, 0)
		})

		Convey("Without scanning every kind gets the ceiling", func() {
			s, err := store.Open(ctx, inmem.New(rows), store.WithCountScan(false))
			So(err, ShouldBeNil)
			So(s.Capacity(model.KindTau), ShouldEqual, store.DefaultCapacityCeiling)
		})
	})
}

func TestCollections(t *testing.T) {
	ctx := context.Background()

	Convey("Given an opened store", t, func() {
		rows := []model.Event{
			withLeptons(2, 50000, 20000),
			withLeptons(1, 30000),
			withLeptons(4, 10000, 10000), // count larger than the arrays
		}
		s, err := store.Open(ctx, inmem.New(rows))
		So(err, ShouldBeNil)
		So(s.Current(), ShouldEqual, -1)

		Convey("Collections follow the loaded entry", func() {
			So(s.LoadEvent(ctx, 0), ShouldBeNil)
			ls := s.Leptons()
			So(len(ls), ShouldEqual, 2)
			So(ls[0].Pt(), ShouldAlmostEqual, 50.0, 1e-9)

			So(s.LoadEvent(ctx, 1), ShouldBeNil)
			So(len(s.Leptons()), ShouldEqual, 1)
			So(s.Leptons()[0].Pt(), ShouldAlmostEqual, 30.0, 1e-9)
			So(s.Current(), ShouldEqual, 1)
		})

		Convey("The advertised count is capped by the buffered arrays", func() {
			So(s.LoadEvent(ctx, 2), ShouldBeNil)
			So(len(s.Leptons()), ShouldEqual, 2)
		})

		Convey("Empty kinds yield empty collections", func() {
			So(s.LoadEvent(ctx, 0), ShouldBeNil)
			So(s.Jets(), ShouldBeEmpty)
			So(s.Photons(), ShouldBeEmpty)
			So(s.FatJets(), ShouldBeEmpty)
			So(s.Taus(), ShouldBeEmpty)
			So(s.EventInfo().IsData(), ShouldBeFalse)
			So(s.EtMiss().Et(), ShouldEqual, 0)
		})

		Convey("Each visits the range in order", func() {
			var seen []int64
			err := s.Each(ctx, 0, 3, func(e int64) error {
				seen = append(seen, e)
				So(s.Event().LepN, ShouldEqual, rows[e].LepN)
				return nil
			})
			So(err, ShouldBeNil)
			So(seen, ShouldResemble, []int64{0, 1, 2})
		})

		Convey("Callback errors stop the loop", func() {
			boom := errors.New("boom")
			calls := 0
			err := s.Each(ctx, 0, 3, func(int64) error { calls++; return boom })
			So(err, ShouldEqual, boom)
			So(calls, ShouldEqual, 1)
		})

		Convey("Out of range entries are refused", func() {
			So(errors.Is(s.LoadEvent(ctx, 3), store.ErrOutOfRange), ShouldBeTrue)
			So(errors.Is(s.Each(ctx, -1, 1, nil), store.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("A cancelled context stops the scan", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(errors.Is(s.Each(cctx, 0, 3, nil), context.Canceled), ShouldBeTrue)
		})
	})
}

func TestFourVectorCacheAcrossEntries(t *testing.T) {
	ctx := context.Background()

	Convey("Given two entries whose first lepton differs only in energy", t, func() {
		a := withLeptons(1, 50000)
		b := withLeptons(1, 50000)
		b.LepE[0] = 60000
		rows := []model.Event{a, b}

		Convey("The cached vector is reused", func() {
			s, err := store.Open(ctx, inmem.New(rows))
			So(err, ShouldBeNil)
			So(s.LoadEvent(ctx, 0), ShouldBeNil)
			first := s.Leptons()[0].TLV()
			So(s.LoadEvent(ctx, 1), ShouldBeNil)
			second := s.Leptons()[0].TLV()
			So(second.E(), ShouldEqual, first.E())
		})

		Convey("Disabling the cache recomputes it", func() {
			s, err := store.Open(ctx, inmem.New(rows), store.WithFourVectorCache(false))
			So(err, ShouldBeNil)
			So(s.LoadEvent(ctx, 0), ShouldBeNil)
			_ = s.Leptons()[0].TLV()
			So(s.LoadEvent(ctx, 1), ShouldBeNil)
			second := s.Leptons()[0].TLV()
			So(second.E(), ShouldAlmostEqual, 60.0, 1e-9)
		})
	})
}
