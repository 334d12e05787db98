package physics

import (
	"go-hep.org/x/hep/fmom"

	"github.com/okian/cutflow/internal/domain/model"
)

// Flavor tags the lepton variant.
type Flavor int

const (
	FlavorOther Flavor = iota
	Electron
	Muon
)

// PDG codes of the charged leptons; the sign carries the charge conjugate.
const (
	PDGElectron = 11
	PDGMuon     = 13
)

func (f Flavor) String() string {
	switch f {
	case Electron:
		return "electron"
	case Muon:
		return "muon"
	default:
		return "other"
	}
}

// Lepton is a reconstructed electron or muon.
type Lepton struct {
	ev *model.Event
	i  int
	p4 fourVector
}

// NewLepton returns the view of lepton i of ev. Passing cache=false rebuilds
// the four-vector on every TLV call.
func NewLepton(ev *model.Event, i int, cache bool) *Lepton {
	return &Lepton{ev: ev, i: i, p4: fourVector{disabled: !cache}}
}

func (l *Lepton) Index() int { return l.i }

func (l *Lepton) Pt() float64  { return float64(l.ev.LepPt[l.i]) * GeV }
func (l *Lepton) Eta() float64 { return float64(l.ev.LepEta[l.i]) }
func (l *Lepton) Phi() float64 { return float64(l.ev.LepPhi[l.i]) }
func (l *Lepton) E() float64   { return float64(l.ev.LepE[l.i]) * GeV }

func (l *Lepton) TLV() fmom.PxPyPzE { return l.p4.get(l.Pt(), l.Eta(), l.Phi(), l.E()) }

// PdgID is the signed flavor code as stored (11 electron, 13 muon).
func (l *Lepton) PdgID() int32  { return l.ev.LepType[l.i] }
func (l *Lepton) Charge() int32 { return l.ev.LepCharge[l.i] }

// Flavor dispatches on the absolute flavor code.
func (l *Lepton) Flavor() Flavor {
	switch abs32(l.PdgID()) {
	case PDGElectron:
		return Electron
	case PDGMuon:
		return Muon
	default:
		return FlavorOther
	}
}

func (l *Lepton) IsTight() bool      { return l.ev.LepIsTightID[l.i] }
func (l *Lepton) TrigMatched() bool  { return l.ev.LepTrigMatched[l.i] }
func (l *Lepton) D0() float64        { return float64(l.ev.LepD0[l.i]) }
func (l *Lepton) D0Sig() float64     { return float64(l.ev.LepD0Sig[l.i]) }
func (l *Lepton) Z0() float64        { return float64(l.ev.LepZ0[l.i]) }
func (l *Lepton) PtCone30() float64  { return float64(l.ev.LepPtCone30[l.i]) * GeV }
func (l *Lepton) EtCone20() float64  { return float64(l.ev.LepEtCone20[l.i]) * GeV }
func (l *Lepton) PtSyst() float64    { return l.rawPtSyst() * GeV }
func (l *Lepton) PtMax() float64     { return l.Pt() + l.PtSyst() }
func (l *Lepton) PtMin() float64     { return l.Pt() - l.PtSyst() }
func (l *Lepton) rawPt() float64     { return float64(l.ev.LepPt[l.i]) }
func (l *Lepton) rawPtSyst() float64 { return ptSyst(l.ev, l.ev.LepPtSyst[l.i]) }

// PtCone30Rel is ptcone30/pt. A zero pt yields Inf or NaN.
func (l *Lepton) PtCone30Rel() float64 { return float64(l.ev.LepPtCone30[l.i]) / l.rawPt() }

// EtCone20Rel is etcone20/pt. A zero pt yields Inf or NaN.
func (l *Lepton) EtCone20Rel() float64 { return float64(l.ev.LepEtCone20[l.i]) / l.rawPt() }

// The Max/Min isolation variants normalise by pt shifted down/up by its
// systematic. On data the systematic is zero.
func (l *Lepton) PtCone30RelMax() float64 {
	return float64(l.ev.LepPtCone30[l.i]) / (l.rawPt() - l.rawPtSyst())
}

func (l *Lepton) PtCone30RelMin() float64 {
	return float64(l.ev.LepPtCone30[l.i]) / (l.rawPt() + l.rawPtSyst())
}

func (l *Lepton) EtCone20RelMax() float64 {
	return float64(l.ev.LepEtCone20[l.i]) / (l.rawPt() - l.rawPtSyst())
}

func (l *Lepton) EtCone20RelMin() float64 {
	return float64(l.ev.LepEtCone20[l.i]) / (l.rawPt() + l.rawPtSyst())
}

// ptSyst hides systematics on data, which is marked by a zero pileup factor.
func ptSyst(ev *model.Event, v float32) float64 {
	if ev.SFPileup == 0 {
		return 0
	}
	return float64(v)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
