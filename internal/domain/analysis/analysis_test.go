package analysis_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cutflow/internal/domain/analysis"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/internal/domain/physics"
)

type fill struct{ x, w float64 }

type recorder struct {
	binning analysis.Binning
	fills   []fill
}

func (r *recorder) Fill(x, w float64) { r.fills = append(r.fills, fill{x, w}) }

type sink map[string]*recorder

func (s sink) Register(name string, b analysis.Binning) analysis.Histogram {
	So(s, ShouldNotContainKey, name)
	r := &recorder{binning: b}
	s[name] = r
	return r
}

// record serves physics views over a single event.
type record struct{ ev *model.Event }

func (r record) EventInfo() *physics.EventInfo { return physics.NewEventInfo(r.ev) }
func (r record) EtMiss() *physics.EtMiss       { return physics.NewEtMiss(r.ev, true) }

func (r record) Leptons() []*physics.Lepton {
	out := make([]*physics.Lepton, r.ev.LepN)
	for i := range out {
		out[i] = physics.NewLepton(r.ev, i, true)
	}
	return out
}

func (r record) Jets() []*physics.Jet {
	out := make([]*physics.Jet, r.ev.JetN)
	for i := range out {
		out[i] = physics.NewJet(r.ev, i, true)
	}
	return out
}

func (r record) Photons() []*physics.Photon { return nil }
func (r record) FatJets() []*physics.FatJet { return nil }
func (r record) Taus() []*physics.Tau       { return nil }

type lep struct {
	pt, phi     float32
	pdg, charge int32
}

func simulated() *model.Event {
	return &model.Event{
		MCWeight: 2, SFPileup: 0.5,
		SFEle: 0.5, SFMu: 1, SFLepTrigger: 1, SFPhoton: 1, SFPhotonTrigger: 1,
		SFTau: 1, SFTauTrigger: 1, SFDiTauTrigger: 1, SFBTag: 0.8,
	}
}

func addLeptons(ev *model.Event, ls ...lep) {
	for _, l := range ls {
		ev.LepN++
		ev.LepPt = append(ev.LepPt, l.pt*1000)
		ev.LepEta = append(ev.LepEta, 0)
		ev.LepPhi = append(ev.LepPhi, l.phi)
		ev.LepE = append(ev.LepE, l.pt*1000)
		ev.LepType = append(ev.LepType, l.pdg)
		ev.LepCharge = append(ev.LepCharge, l.charge)
		ev.LepIsTightID = append(ev.LepIsTightID, true)
		ev.LepPtCone30 = append(ev.LepPtCone30, 0)
		ev.LepEtCone20 = append(ev.LepEtCone20, 0)
		ev.LepZ0 = append(ev.LepZ0, 0.1)
		ev.LepD0 = append(ev.LepD0, 0.01)
		ev.LepPtSyst = append(ev.LepPtSyst, 1000)
	}
}

func TestHZZ(t *testing.T) {
	Convey("Given a booked HZZ analysis", t, func() {
		a, err := analysis.New("HZZ", analysis.Options{})
		So(err, ShouldBeNil)
		s := sink{}
		a.Book(s)
		cf := analysis.NewCounter(a)

		Convey("Every histogram is registered once", func() {
			for _, n := range []string{"invMassZ1", "invMassZ2", "mass_four_lep_ext", "lep_n", "lep_pt", "lep_type", "lep_z0", "lep_d0", "etmiss"} {
				So(s, ShouldContainKey, n)
			}
			So(s["invMassZ1"].binning, ShouldResemble, analysis.Binning{Bins: 30, Min: 50, Max: 106, Title: "Invariant Mass of the Z boson 1", XLabel: "M_{Z1} [GeV]"})
		})

		Convey("A four-lepton event passing every cut", func() {
			ev := simulated()
			addLeptons(ev,
				lep{pt: 11, phi: math.Pi / 2, pdg: 13, charge: 1},
				lep{pt: 50, phi: 0, pdg: 11, charge: 1},
				lep{pt: 8, phi: -math.Pi / 2, pdg: -13, charge: -1},
				lep{pt: 16, phi: math.Pi, pdg: -11, charge: -1},
			)

			selected, err := a.Process(record{ev}, cf)
			So(err, ShouldBeNil)
			So(selected, ShouldBeTrue)

			Convey("advances through all stages with the simulation weight", func() {
				for _, st := range cf.Stages() {
					So(st.Count, ShouldEqual, 1)
					So(st.SumW, ShouldAlmostEqual, 0.5, 1e-9)
				}
			})

			Convey("fills event histograms once and lepton histograms once per lepton", func() {
				So(len(s["invMassZ1"].fills), ShouldEqual, 1)
				So(len(s["invMassZ2"].fills), ShouldEqual, 1)
				So(len(s["mass_four_lep_ext"].fills), ShouldEqual, 1)
				So(s["lep_n"].fills, ShouldResemble, []fill{{4, 0.5}})
				for _, n := range []string{"lep_pt", "lep_eta", "lep_E", "lep_phi", "lep_charge", "lep_type", "lep_ptconerel30", "lep_etconerel20"} {
					So(len(s[n].fills), ShouldEqual, 4)
				}
				pts := make([]float64, 0, 4)
				for _, f := range s["lep_pt"].fills {
					pts = append(pts, math.Round(f.x))
				}
				So(pts, ShouldResemble, []float64{50, 16, 11, 8})
			})

			Convey("leaves the impact parameter histograms empty", func() {
				So(s["lep_z0"].fills, ShouldBeEmpty)
				So(s["etmiss"].fills, ShouldBeEmpty)
			})
		})

		Convey("An event with three good leptons stops at the first stage", func() {
			ev := simulated()
			addLeptons(ev,
				lep{pt: 50, phi: 0, pdg: 11, charge: 1},
				lep{pt: 16, phi: math.Pi, pdg: -11, charge: -1},
				lep{pt: 11, phi: 1, pdg: 13, charge: 1},
				lep{pt: 8, phi: 2, pdg: -13, charge: -1},
			)
			ev.LepPtCone30[3] = 8000 // not isolated

			selected, err := a.Process(record{ev}, cf)
			So(err, ShouldBeNil)
			So(selected, ShouldBeFalse)

			st := cf.Stages()
			So(st[0].Count, ShouldEqual, 1)
			So(st[1].Name, ShouldEqual, analysis.StageFourLeptons)
			So(st[1].Count, ShouldEqual, 0)
			So(s["invMassZ1"].fills, ShouldBeEmpty)
		})

		Convey("Four leptons without a valid pairing fail the candidate stage", func() {
			ev := simulated()
			addLeptons(ev,
				lep{pt: 50, phi: 0, pdg: 11, charge: 1},
				lep{pt: 16, phi: math.Pi, pdg: 11, charge: 1},
				lep{pt: 11, phi: 1, pdg: 11, charge: 1},
				lep{pt: 8, phi: 2, pdg: 11, charge: 1},
			)
			selected, err := a.Process(record{ev}, cf)
			So(err, ShouldBeNil)
			So(selected, ShouldBeFalse)
			st := cf.Stages()
			So(st[3].Count, ShouldEqual, 1)
			So(st[4].Name, ShouldEqual, analysis.StageZZCandidate)
			So(st[4].Count, ShouldEqual, 0)
		})

		Convey("Data events weigh one", func() {
			d, _ := analysis.New("HZZAnalysis", analysis.Options{IsData: true})
			d.Book(sink{})
			dcf := analysis.NewCounter(d)
			ev := simulated()
			_, err := d.Process(record{ev}, dcf)
			So(err, ShouldBeNil)
			So(dcf.Stages()[0].SumW, ShouldEqual, 1)
		})

		Convey("A NaN weight is surfaced", func() {
			ev := simulated()
			ev.MCWeight = float32(math.NaN())
			_, err := a.Process(record{ev}, cf)
			So(errors.Is(err, cutflow.ErrInvalidWeight), ShouldBeTrue)
		})
	})
}

func ttbarEvent() *model.Event {
	ev := simulated()
	ev.TrigE = true
	addLeptons(ev, lep{pt: 40, phi: 0, pdg: -11, charge: 1})
	ev.MetEt = 50000
	ev.MetPhi = math.Pi
	ev.MetEtSyst = 5000
	for i, pt := range []float32{100, 80, 60, 40} {
		ev.JetN++
		ev.JetPt = append(ev.JetPt, pt*1000)
		ev.JetEta = append(ev.JetEta, 0)
		ev.JetPhi = append(ev.JetPhi, float32(i))
		ev.JetE = append(ev.JetE, pt*1100)
		ev.JetJVT = append(ev.JetJVT, 1)
		ev.JetMV2c10 = append(ev.JetMV2c10, 0)
		ev.JetPtSyst = append(ev.JetPtSyst, 2000)
	}
	ev.JetMV2c10[1] = 0.9
	return ev
}

func TestZPrime(t *testing.T) {
	Convey("Given a booked ZPrime analysis", t, func() {
		a, err := analysis.New("ZPrime", analysis.Options{})
		So(err, ShouldBeNil)
		So(a.Name(), ShouldEqual, "ZPrimeAnalysis")
		s := sink{}
		a.Book(s)
		cf := analysis.NewCounter(a)

		Convey("A semileptonic top pair event is selected", func() {
			selected, err := a.Process(record{ttbarEvent()}, cf)
			So(err, ShouldBeNil)
			So(selected, ShouldBeTrue)

			st := cf.Stages()
			So(st[len(st)-1].Name, ShouldEqual, analysis.StageMasses)
			So(st[len(st)-1].SumW, ShouldAlmostEqual, 0.4, 1e-6)

			Convey("and filled into the electron histograms", func() {
				So(len(s["lep_pt_e"].fills), ShouldEqual, 1)
				So(s["lep_pt_mu"].fills, ShouldBeEmpty)
				So(len(s["jet_pt_e"].fills), ShouldEqual, 4)
				So(len(s["TopMass_e"].fills), ShouldEqual, 1)
				So(s["TtMass_e"].fills, ShouldBeEmpty)
			})

			Convey("with transverse mass and systematic variations", func() {
				So(s["WtMass"].fills[0].x, ShouldAlmostEqual, math.Sqrt(2*40*50*2), 1e-4)
				So(s["WtMass_max"].fills[0].x, ShouldBeGreaterThan, s["WtMass"].fills[0].x)
				So(s["WtMass_min"].fills[0].x, ShouldBeLessThan, s["WtMass"].fills[0].x)
				So(s["etmiss_max"].fills[0].x, ShouldAlmostEqual, 55, 1e-6)
				So(s["etmiss_min"].fills[0].x, ShouldAlmostEqual, 45, 1e-6)
				So(len(s["jet_pt_max"].fills), ShouldEqual, 4)
				So(s["n_jets"].fills[0].x, ShouldEqual, 4)
			})
		})

		Convey("An untriggered event stops at the event cuts", func() {
			ev := ttbarEvent()
			ev.TrigE = false
			selected, err := a.Process(record{ev}, cf)
			So(err, ShouldBeNil)
			So(selected, ShouldBeFalse)
			So(cf.Stages()[1].Count, ShouldEqual, 0)
		})

		Convey("Without a b-tag the event stops at the btag stage", func() {
			ev := ttbarEvent()
			ev.JetMV2c10[1] = 0.8
			selected, _ := a.Process(record{ev}, cf)
			So(selected, ShouldBeFalse)
			st := cf.Stages()
			So(st[4].Count, ShouldEqual, 1)
			So(st[5].Count, ShouldEqual, 0)
		})

		Convey("A second good lepton fails the single lepton requirement", func() {
			ev := ttbarEvent()
			addLeptons(ev, lep{pt: 30, phi: 1, pdg: 13, charge: -1})
			selected, _ := a.Process(record{ev}, cf)
			So(selected, ShouldBeFalse)
			So(cf.Stages()[2].Count, ShouldEqual, 0)
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Unknown analyses are reported", t, func() {
		_, err := analysis.New("WWAnalysis", analysis.Options{})
		So(errors.Is(err, analysis.ErrUnknownAnalysis), ShouldBeTrue)
		So(analysis.Names(), ShouldContain, "HZZAnalysis")
	})

	Convey("Standard binnings are exposed by name", t, func() {
		b, ok := analysis.StandardBinning("lep_pt")
		So(ok, ShouldBeTrue)
		So(b.Bins, ShouldBeGreaterThan, 0)
		_, ok = analysis.StandardBinning("unknown")
		So(ok, ShouldBeFalse)
	})
}
