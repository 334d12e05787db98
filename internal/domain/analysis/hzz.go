package analysis

import (
	"github.com/okian/cutflow/internal/domain/candidate"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/physics"
	"github.com/okian/cutflow/internal/domain/selection"
)

// HZZ stage names.
const (
	StageFourLeptons = "4 leptons"
	StageSecondLepPt = "2nd lep_pt > 15 GeV"
	StageThirdLepPt  = "3rd lep_pt > 10 GeV"
	StageZZCandidate = "ZZ candidate"
)

// HZZ selects four isolated leptons forming two Z candidates.
type HZZ struct {
	opts Options

	invMassZ1 Histogram
	invMassZ2 Histogram
	mass4l    Histogram
	lepN      Histogram
	etmiss    Histogram
	leptons   objectHists[*physics.Lepton]
	leptonIP  objectHists[*physics.Lepton]
}

func NewHZZ(o Options) *HZZ {
	return &HZZ{opts: o, leptons: leptonHists(), leptonIP: leptonIPHists()}
}

func (a *HZZ) Name() string { return "HZZAnalysis" }

func (a *HZZ) Stages() []string {
	return []string{StageFourLeptons, StageSecondLepPt, StageThirdLepPt, StageZZCandidate}
}

func (a *HZZ) Book(sink Sink) {
	a.invMassZ1 = sink.Register("invMassZ1", Binning{Bins: 30, Min: 50, Max: 106, Title: "Invariant Mass of the Z boson 1", XLabel: "M_{Z1} [GeV]"})
	a.invMassZ2 = sink.Register("invMassZ2", Binning{Bins: 30, Min: 60, Max: 120, Title: "Invariant Mass of the Z boson 2", XLabel: "M_{Z2} [GeV]"})
	a.mass4l = sink.Register("mass_four_lep_ext", Binning{Bins: 30, Min: 80, Max: 250, Title: "Invariant Mass of the 4-lepton system", XLabel: "M_{4l} [GeV]"})
	a.lepN = registerStandard(sink, "lep_n")
	a.leptons.book(sink)
	// registered, never filled
	a.leptonIP.book(sink)
	a.etmiss = registerStandard(sink, "etmiss")
}

// IsGoodHZZLepton is the isolation-only lepton selection of this analysis.
func IsGoodHZZLepton(l *physics.Lepton) bool {
	return l.EtCone20Rel() < 0.15 && l.PtCone30Rel() < 0.15
}

func (a *HZZ) Process(rec Record, cf *cutflow.Counter) (bool, error) {
	w := eventWeight(rec.EventInfo(), a.opts.IsData)
	g, err := cf.Start(w)
	if err != nil {
		return false, err
	}

	good := selection.SelectAndSort(rec.Leptons(), IsGoodHZZLepton, selection.ByPt[*physics.Lepton])
	if !g.Require(StageFourLeptons, len(good) == 4) {
		return false, nil
	}
	if !g.Require(StageSecondLepPt, good[1].Pt() > 15) {
		return false, nil
	}
	if !g.Require(StageThirdLepPt, good[2].Pt() > 10) {
		return false, nil
	}
	zz, ok, err := candidate.FindZZ(good)
	if err != nil {
		return false, err
	}
	if !g.Require(StageZZCandidate, ok) {
		return false, nil
	}

	a.invMassZ1.Fill(zz.MassZ1, w)
	a.invMassZ2.Fill(zz.MassZ2, w)
	a.mass4l.Fill(zz.Mass4l(), w)
	a.lepN.Fill(float64(len(good)), w)
	a.leptons.fill(good, w)
	return true, nil
}
