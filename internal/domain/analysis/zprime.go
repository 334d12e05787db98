package analysis

import (
	"math"

	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/physics"
	"github.com/okian/cutflow/internal/domain/selection"
)

// ZPrime stage names.
const (
	StageEventCuts = "EventCuts"
	StageOneLepton = "1 high pt Leptons"
	StageEtMiss    = "etmiss"
	StageFourJets  = "4 jets"
	StageBTag      = "btag"
	StageMasses    = "masses"
)

// bTagWorkingPoint is the MV2c10 cut of the 77% efficiency working point.
const bTagWorkingPoint = 0.8244273

// flavorHists are the histograms split by lepton flavor. The top pair
// transverse masses are registered but not filled.
type flavorHists struct {
	lepPt, etmiss, jetPt, topMass, ttMass, tTtMass Histogram
}

func (f *flavorHists) book(sink Sink, suffix string) {
	f.lepPt = sink.Register("lep_pt_"+suffix, Binning{Bins: 24, Min: 30, Max: 270, Title: "Lepton Transverse Momentum", XLabel: "p_{T}^{lep} [GeV]"})
	f.etmiss = sink.Register("etmiss_"+suffix, Binning{Bins: 22, Min: 20, Max: 240, Title: "Missing Transverse Momentum", XLabel: "p_{T,Miss} [GeV]"})
	f.jetPt = sink.Register("jet_pt_"+suffix, Binning{Bins: 48, Min: 20, Max: 500, Title: "Jet Transverse Momentum", XLabel: "p_{T}^{jet} [GeV]"})
	f.ttMass = sink.Register("TtMass_"+suffix, Binning{Bins: 24, Min: 110, Max: 230, Title: "Transverse Mass of the leptonic top Candidate", XLabel: "M_{T,t_{lep}} [GeV]"})
	f.topMass = sink.Register("TopMass_"+suffix, Binning{Bins: 24, Min: 110, Max: 230, Title: "Invariant Mass of the hadronic top Candidate", XLabel: "M_{t_{had}} [GeV]"})
	f.tTtMass = sink.Register("TTtMass_"+suffix, Binning{Bins: 32, Min: 400, Max: 2000, Title: "Transverse Mass of the ttbar Candidate", XLabel: "M_{T,t#bar{t}} [GeV]"})
}

// ZPrime selects semileptonic top pairs: one lepton, missing energy and at
// least four jets with one b-tag.
type ZPrime struct {
	opts Options

	electron, muon flavorHists

	wtMass, wtMassMax, wtMassMin Histogram
	etmiss, etmissMax, etmissMin Histogram
	lepPtMax, lepPtMin           Histogram
	ptconeMax, ptconeMin         Histogram
	etconeMax, etconeMin         Histogram
	nJets                        Histogram
	jetPtMax, jetPtMin           Histogram
	leptons, leptonIP            objectHists[*physics.Lepton]
	jets                         objectHists[*physics.Jet]
}

func NewZPrime(o Options) *ZPrime {
	return &ZPrime{opts: o, leptons: leptonHists(), leptonIP: leptonIPHists(), jets: jetHists()}
}

func (a *ZPrime) Name() string { return "ZPrimeAnalysis" }

func (a *ZPrime) Stages() []string {
	return []string{StageEventCuts, StageOneLepton, StageEtMiss, StageFourJets, StageBTag, StageMasses}
}

func (a *ZPrime) Book(sink Sink) {
	a.electron.book(sink, "e")
	a.muon.book(sink, "mu")

	reg := func(name string, bins int, lo, hi float64, title, xlabel string) Histogram {
		return sink.Register(name, Binning{Bins: bins, Min: lo, Max: hi, Title: title, XLabel: xlabel})
	}
	a.wtMass = registerStandard(sink, "WtMass")
	a.wtMassMax = reg("WtMass_max", 40, 0, 200, "Transverse Mass of the W Candidate Max", "M_{T,W} max [GeV]")
	a.wtMassMin = reg("WtMass_min", 40, 0, 200, "Transverse Mass of the W Candidate Min", "M_{T,W} min [GeV]")

	a.leptons.book(sink)
	a.leptonIP.book(sink)
	a.lepPtMax = reg("lep_pt_max", 40, 0, 200, "Lepton Transverse Momentum Max", "p_{T}^{lep} max [GeV]")
	a.lepPtMin = reg("lep_pt_min", 40, 0, 200, "Lepton Transverse Momentum Min", "p_{T}^{lep} min [GeV]")
	a.ptconeMax = reg("lep_ptconerel30_max", 40, 0, 0.2, "Lepton Relative Transverse Momentum Isolation Max", "ptconerel30^{lep} max")
	a.ptconeMin = reg("lep_ptconerel30_min", 40, 0, 0.2, "Lepton Relative Transverse Momentum Isolation Min", "ptconerel30^{lep} min")
	a.etconeMax = reg("lep_etconerel20_max", 40, -0.05, 0.2, "Lepton Relative Transverse Energy Isolation Max", "etconerel20^{lep} max")
	a.etconeMin = reg("lep_etconerel20_min", 40, -0.05, 0.2, "Lepton Relative Transverse Energy Isolation Min", "etconerel20^{lep} min")

	a.nJets = registerStandard(sink, "n_jets")
	a.jets.book(sink)
	a.jetPtMax = reg("jet_pt_max", 40, 0, 200, "Jet Transverse Momentum Max", "p_{T}^{jet} max [GeV]")
	a.jetPtMin = reg("jet_pt_min", 40, 0, 200, "Jet Transverse Momentum Min", "p_{T}^{jet} min [GeV]")

	a.etmiss = registerStandard(sink, "etmiss")
	a.etmissMax = reg("etmiss_max", 20, 0, 200, "Missing Transverse Momentum Max", "p_{T,Miss} max [GeV]")
	a.etmissMin = reg("etmiss_min", 20, 0, 200, "Missing Transverse Momentum Min", "p_{T,Miss} min [GeV]")
}

func (a *ZPrime) Process(rec Record, cf *cutflow.Counter) (bool, error) {
	info := rec.EventInfo()
	w := eventWeight(info, a.opts.IsData, info.SFBTag())
	g, err := cf.Start(w)
	if err != nil {
		return false, err
	}

	if !g.Require(StageEventCuts, selection.StandardEventCuts(info)) {
		return false, nil
	}

	leptons := selection.SelectAndSort(rec.Leptons(), selection.IsGoodLepton, selection.ByPt[*physics.Lepton])
	if !g.Require(StageOneLepton, len(leptons) == 1 && leptons[0].Pt() > 30) {
		return false, nil
	}

	met := rec.EtMiss()
	if !g.Require(StageEtMiss, met.Et() > 20) {
		return false, nil
	}

	jets := selection.SelectAndSort(rec.Jets(), selection.IsGoodJet, selection.ByPt[*physics.Jet])
	if !g.Require(StageFourJets, len(jets) >= 4) {
		return false, nil
	}

	btags := 0
	for _, j := range jets {
		if j.MV2c10() > bTagWorkingPoint {
			btags++
		}
	}
	if !g.Require(StageBTag, btags >= 1) {
		return false, nil
	}

	lep := leptons[0]
	mTW := physics.WTransverseMass(lep, met)
	if !g.Require(StageMasses, mTW > 30 && mTW+met.Et() > 60) {
		return false, nil
	}

	a.fill(lep, met, jets, mTW, w)
	return true, nil
}

func (a *ZPrime) fill(lep *physics.Lepton, met *physics.EtMiss, jets []*physics.Jet, mTW, w float64) {
	hadTop := physics.Sum(jets[0].TLV(), jets[1].TLV(), jets[2].TLV())
	mjjj := hadTop.M()

	fh := &a.muon
	if lep.Flavor() == physics.Electron {
		fh = &a.electron
	}
	fh.lepPt.Fill(lep.Pt(), w)
	fh.etmiss.Fill(met.Et(), w)
	for _, j := range jets {
		fh.jetPt.Fill(j.Pt(), w)
	}
	fh.topMass.Fill(mjjj, w)

	a.wtMass.Fill(mTW, w)
	rel := math.Sqrt(sq(lep.PtSyst()/lep.Pt())+sq(met.EtSyst()/met.Et())) / 2
	a.wtMassMax.Fill(mTW*(1+rel), w)
	a.wtMassMin.Fill(mTW*(1-rel), w)

	a.etmiss.Fill(met.Et(), w)
	a.etmissMax.Fill(met.EtMax(), w)
	a.etmissMin.Fill(met.EtMin(), w)

	one := []*physics.Lepton{lep}
	a.leptons.fill(one, w)
	a.leptonIP.fill(one, w)
	a.lepPtMax.Fill(lep.PtMax(), w)
	a.lepPtMin.Fill(lep.PtMin(), w)
	a.ptconeMax.Fill(lep.PtCone30RelMax(), w)
	a.ptconeMin.Fill(lep.PtCone30RelMin(), w)
	a.etconeMax.Fill(lep.EtCone20RelMax(), w)
	a.etconeMin.Fill(lep.EtCone20RelMin(), w)

	a.nJets.Fill(float64(len(jets)), w)
	a.jets.fill(jets, w)
	for _, j := range jets {
		a.jetPtMax.Fill(j.PtMax(), w)
		a.jetPtMin.Fill(j.PtMin(), w)
	}
}

func sq(x float64) float64 { return x * x }
