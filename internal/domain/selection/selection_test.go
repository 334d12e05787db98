package selection_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/internal/domain/physics"
	"github.com/okian/cutflow/internal/domain/selection"
)

func TestSelectAndSort(t *testing.T) {
	even := func(v int) bool { return v%2 == 0 }
	key := func(v int) float64 { return float64(v) }

	Convey("Given an unordered container", t, func() {
		in := []int{4, 7, 2, 8, 3, 6, 6}
		orig := append([]int(nil), in...)
		out := selection.SelectAndSort(in, even, key)

		Convey("Only matching elements are kept, ordered descending", func() {
			So(out, ShouldResemble, []int{8, 6, 6, 4, 2})
		})

		Convey("The input is left untouched", func() {
			So(in, ShouldResemble, orig)
		})

		Convey("Applying it twice is a no-op", func() {
			So(selection.SelectAndSort(out, even, key), ShouldResemble, out)
		})

		Convey("The result is a subsequence of the input under the multiset view", func() {
			counts := map[int]int{}
			for _, v := range in {
				counts[v]++
			}
			for _, v := range out {
				counts[v]--
				So(counts[v], ShouldBeGreaterThanOrEqualTo, 0)
			}
		})
	})

	Convey("An empty container yields an empty result", t, func() {
		out := selection.SelectAndSort([]int{}, selection.All[int], key)
		So(out, ShouldBeEmpty)
	})
}

func leptons(ev *model.Event) []*physics.Lepton {
	out := make([]*physics.Lepton, len(ev.LepPt))
	for i := range out {
		out[i] = physics.NewLepton(ev, i, true)
	}
	return out
}

func TestLeptonSelection(t *testing.T) {
	Convey("Given leptons around the thresholds", t, func() {
		ev := &model.Event{
			LepPt:        []float32{20000, 30000, 40000, 50000, 60000},
			LepEta:       []float32{0, 0, 0, 0, 0},
			LepPhi:       []float32{0, 0, 0, 0, 0},
			LepE:         []float32{20000, 30000, 40000, 50000, 60000},
			LepType:      []int32{11, -13, 11, 15, 13},
			LepCharge:    []int32{1, 1, -1, 1, -1},
			LepIsTightID: []bool{true, true, false, true, true},
			LepPtCone30:  []float32{3000, 3000, 0, 0, 0},
			LepEtCone20:  []float32{0, 0, 0, 0, 0},
		}
		ls := leptons(ev)

		Convey("A cone of 3 over a pt of 20 sits exactly on 0.15 and fails", func() {
			ev.LepPt[0] = 20000
			So(ls[0].PtCone30Rel(), ShouldEqual, 0.15)
			ev.LepPt[0] = 26000
			ev.LepPtCone30[0] = 3900
			So(selection.IsGoodElectron(ls[0]), ShouldBeFalse)
		})

		Convey("Isolated tight leptons above 25 GeV pass", func() {
			So(selection.IsGoodLepton(ls[1]), ShouldBeTrue)
			So(selection.IsGoodLepton(ls[4]), ShouldBeTrue)
		})

		Convey("Loose leptons fail", func() {
			So(selection.IsGoodLepton(ls[2]), ShouldBeFalse)
		})

		Convey("Other flavors fail even when they pass the cuts", func() {
			So(selection.IsGoodMuon(ls[3]), ShouldBeTrue)
			So(selection.IsGoodLepton(ls[3]), ShouldBeFalse)
		})

		Convey("Selection orders the survivors by pt", func() {
			good := selection.SelectAndSort(ls, selection.IsGoodLepton, selection.ByPt[*physics.Lepton])
			So(len(good), ShouldEqual, 2)
			So(good[0].Index(), ShouldEqual, 4)
			So(good[1].Index(), ShouldEqual, 1)
		})
	})
}

func TestJetSelection(t *testing.T) {
	jet := func(pt, eta, jvt float32) *physics.Jet {
		ev := &model.Event{
			JetPt: []float32{pt * 1000}, JetEta: []float32{eta}, JetPhi: []float32{0},
			JetE: []float32{pt * 1000}, JetJVT: []float32{jvt},
		}
		return physics.NewJet(ev, 0, true)
	}

	Convey("Jet quality", t, func() {
		So(selection.IsGoodJet(jet(24, 0, 1)), ShouldBeFalse)
		So(selection.IsGoodJet(jet(25, 0, 1)), ShouldBeTrue)
		So(selection.IsGoodJet(jet(100, 2.6, 1)), ShouldBeFalse)
		So(selection.IsGoodJet(jet(100, 2.5, 0)), ShouldBeTrue)

		Convey("The pileup veto only applies to central jets below 60 GeV", func() {
			So(selection.IsGoodJet(jet(40, 1, 0.5)), ShouldBeFalse)
			So(selection.IsGoodJet(jet(40, 1, 0.6)), ShouldBeTrue)
			So(selection.IsGoodJet(jet(40, 2.45, 0.5)), ShouldBeTrue)
			So(selection.IsGoodJet(jet(70, 1, 0.5)), ShouldBeTrue)
		})
	})
}

func TestOtherObjects(t *testing.T) {
	Convey("Fat jets need pt, centrality and mass", t, func() {
		ev := &model.Event{
			FatJetPt:  []float32{300000, 200000, 300000, 300000},
			FatJetEta: []float32{1, 1, 2.1, 1},
			FatJetPhi: []float32{0, 0, 0, 0},
			FatJetE:   []float32{400000, 400000, 400000, 400000},
			FatJetM:   []float32{80000, 80000, 80000, 30000},
		}
		want := []bool{true, false, false, false}
		for i, w := range want {
			So(selection.IsGoodFatJet(physics.NewFatJet(ev, i, true)), ShouldEqual, w)
		}
	})

	Convey("Taus need pt, centrality and tight identification", t, func() {
		ev := &model.Event{
			TauPt:        []float32{30000, 30000, 20000},
			TauEta:       []float32{0, 0, 0},
			TauPhi:       []float32{0, 0, 0},
			TauE:         []float32{30000, 30000, 20000},
			TauIsTightID: []bool{true, false, true},
		}
		want := []bool{true, false, false}
		for i, w := range want {
			So(selection.IsGoodTau(physics.NewTau(ev, i, true)), ShouldEqual, w)
		}
	})

	Convey("Thresholds are inclusive", t, func() {
		ev := &model.Event{
			FatJetPt:     []float32{250000, 249000, 250000},
			FatJetEta:    []float32{2, 0, 0},
			FatJetPhi:    []float32{0, 0, 0},
			FatJetE:      []float32{400000, 400000, 400000},
			FatJetM:      []float32{40000, 40000, 39000},
			TauPt:        []float32{25000, 24000},
			TauEta:       []float32{2.5, 0},
			TauPhi:       []float32{0, 0},
			TauE:         []float32{25000, 24000},
			TauIsTightID: []bool{true, true},
		}
		for i, w := range []bool{true, false, false} {
			So(selection.IsGoodFatJet(physics.NewFatJet(ev, i, true)), ShouldEqual, w)
		}
		for i, w := range []bool{true, false} {
			So(selection.IsGoodTau(physics.NewTau(ev, i, true)), ShouldEqual, w)
		}
	})

	Convey("Photons need identification, pt and isolation", t, func() {
		ev := &model.Event{
			PhotonPt:        []float32{30000, 30000, 30000},
			PhotonEta:       []float32{0, 0, 0},
			PhotonPhi:       []float32{0, 0, 0},
			PhotonE:         []float32{30000, 30000, 30000},
			PhotonIsTightID: []bool{true, false, true},
			PhotonPtCone30:  []float32{0, 0, 6000},
			PhotonEtCone20:  []float32{0, 0, 0},
		}
		want := []bool{true, false, false}
		for i, w := range want {
			So(selection.IsGoodPhoton(physics.NewPhoton(ev, i, true)), ShouldEqual, w)
		}
	})

	Convey("Any trigger line passes the event cuts", t, func() {
		ev := &model.Event{}
		info := physics.NewEventInfo(ev)
		So(selection.StandardEventCuts(info), ShouldBeFalse)
		ev.TrigDT = true
		So(selection.StandardEventCuts(info), ShouldBeTrue)
	})
}
