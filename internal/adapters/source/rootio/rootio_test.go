package rootio_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cutflow/internal/adapters/source/rootio"
	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/internal/domain/physics"
	"github.com/okian/cutflow/internal/store"
)

func event(i int) *model.Event {
	ev := &model.Event{EventNumber: int32(100 + i), RunNumber: 284500, MCWeight: 1, SFPileup: 1, TrigM: true}
	for j := 0; j < i; j++ {
		ev.LepN++
		ev.LepPt = append(ev.LepPt, float32(15000*(i-j)))
		ev.LepEta = append(ev.LepEta, 0.1)
		ev.LepPhi = append(ev.LepPhi, 0.2)
		ev.LepE = append(ev.LepE, float32(16000*(i-j)))
		ev.LepType = append(ev.LepType, 13)
		ev.LepCharge = append(ev.LepCharge, int32(1-2*(j%2)))
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

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tree of four events written by the writer", t, func() {
		path := filepath.Join(t.TempDir(), "events.root")
		w, err := rootio.Create(path, "")
		So(err, ShouldBeNil)
		for i := 0; i < 4; i++ {
			So(w.Write(event(i)), ShouldBeNil)
		}
		So(w.Written(), ShouldEqual, int64(4))
		So(w.Close(), ShouldBeNil)

		src, err := rootio.Open(path, rootio.DefaultTree)
		So(err, ShouldBeNil)
		defer src.Close()

		Convey("Branches and entries are visible", func() {
			So(src.Entries(), ShouldEqual, int64(4))
			So(src.HasBranch("lep_pt"), ShouldBeTrue)
			So(src.HasBranch("lep_pt_syst"), ShouldBeTrue)
			So(src.HasBranch("nope"), ShouldBeFalse)
			m, err := src.MaxCount(ctx, "lep_n")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, int64(3))
		})

		Convey("A store reads the events back", func() {
			s, err := store.Open(ctx, src)
			So(err, ShouldBeNil)
			So(s.Capacity(model.KindLepton), ShouldEqual, 3)

			So(s.LoadEvent(ctx, 3), ShouldBeNil)
			So(s.Event().EventNumber, ShouldEqual, int32(103))
			ls := s.Leptons()
			So(len(ls), ShouldEqual, 3)
			So(ls[0].Pt(), ShouldAlmostEqual, 45.0, 1e-6)
			So(ls[1].Charge(), ShouldEqual, int32(-1))
			So(ls[2].Flavor(), ShouldEqual, physics.Muon)

			var seen []int64
			So(s.Each(ctx, 1, 3, func(e int64) error {
				seen = append(seen, e)
				So(len(s.Leptons()), ShouldEqual, int(e))
				return nil
			}), ShouldBeNil)
			So(seen, ShouldResemble, []int64{1, 2})
		})
	})

	Convey("Given a path that is not a ROOT file", t, func() {
		_, err := rootio.Open(filepath.Join(t.TempDir(), "missing.root"), "")
		So(err, ShouldNotBeNil)
	})
}

func TestWrongTree(t *testing.T) {
	Convey("Given a file without the requested tree", t, func() {
		path := filepath.Join(t.TempDir(), "events.root")
		w, err := rootio.Create(path, "other")
		So(err, ShouldBeNil)
		So(w.Write(event(0)), ShouldBeNil)
		So(w.Close(), ShouldBeNil)

		_, err = rootio.Open(path, "mini")
		So(err, ShouldNotBeNil)
		So(errors.Is(err, rootio.ErrNotATree), ShouldBeFalse)
	})
}
