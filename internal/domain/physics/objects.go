package physics

import (
	"go-hep.org/x/hep/fmom"

	"github.com/okian/cutflow/internal/domain/model"
)

// Photon is a reconstructed photon.
type Photon struct {
	ev *model.Event
	i  int
	p4 fourVector
}

func NewPhoton(ev *model.Event, i int, cache bool) *Photon {
	return &Photon{ev: ev, i: i, p4: fourVector{disabled: !cache}}
}

func (p *Photon) Pt() float64       { return float64(p.ev.PhotonPt[p.i]) * GeV }
func (p *Photon) Eta() float64      { return float64(p.ev.PhotonEta[p.i]) }
func (p *Photon) Phi() float64      { return float64(p.ev.PhotonPhi[p.i]) }
func (p *Photon) E() float64        { return float64(p.ev.PhotonE[p.i]) * GeV }
func (p *Photon) TLV() fmom.PxPyPzE { return p.p4.get(p.Pt(), p.Eta(), p.Phi(), p.E()) }
func (p *Photon) IsTight() bool     { return p.ev.PhotonIsTightID[p.i] }
func (p *Photon) PtSyst() float64   { return ptSyst(p.ev, p.ev.PhotonPtSyst[p.i]) * GeV }

func (p *Photon) rawPt() float64     { return float64(p.ev.PhotonPt[p.i]) }
func (p *Photon) rawPtSyst() float64 { return ptSyst(p.ev, p.ev.PhotonPtSyst[p.i]) }

func (p *Photon) PtCone30Rel() float64 { return float64(p.ev.PhotonPtCone30[p.i]) / p.rawPt() }
func (p *Photon) EtCone20Rel() float64 { return float64(p.ev.PhotonEtCone20[p.i]) / p.rawPt() }

// The Max and Min isolation variants shift pt down and up by its
// systematic. On data they equal the nominal values.

func (p *Photon) PtCone30RelMax() float64 {
	return float64(p.ev.PhotonPtCone30[p.i]) / (p.rawPt() - p.rawPtSyst())
}

func (p *Photon) PtCone30RelMin() float64 {
	return float64(p.ev.PhotonPtCone30[p.i]) / (p.rawPt() + p.rawPtSyst())
}

func (p *Photon) EtCone20RelMax() float64 {
	return float64(p.ev.PhotonEtCone20[p.i]) / (p.rawPt() - p.rawPtSyst())
}

func (p *Photon) EtCone20RelMin() float64 {
	return float64(p.ev.PhotonEtCone20[p.i]) / (p.rawPt() + p.rawPtSyst())
}

// Jet is a small-radius hadronic jet.
type Jet struct {
	ev *model.Event
	i  int
	p4 fourVector
}

func NewJet(ev *model.Event, i int, cache bool) *Jet {
	return &Jet{ev: ev, i: i, p4: fourVector{disabled: !cache}}
}

func (j *Jet) Pt() float64       { return float64(j.ev.JetPt[j.i]) * GeV }
func (j *Jet) Eta() float64      { return float64(j.ev.JetEta[j.i]) }
func (j *Jet) Phi() float64      { return float64(j.ev.JetPhi[j.i]) }
func (j *Jet) E() float64        { return float64(j.ev.JetE[j.i]) * GeV }
func (j *Jet) TLV() fmom.PxPyPzE { return j.p4.get(j.Pt(), j.Eta(), j.Phi(), j.E()) }
func (j *Jet) JVT() float64      { return float64(j.ev.JetJVT[j.i]) }
func (j *Jet) MV2c10() float64   { return float64(j.ev.JetMV2c10[j.i]) }
func (j *Jet) PtSyst() float64   { return ptSyst(j.ev, j.ev.JetPtSyst[j.i]) * GeV }
func (j *Jet) PtMax() float64    { return j.Pt() + j.PtSyst() }
func (j *Jet) PtMin() float64    { return j.Pt() - j.PtSyst() }

// M is the jet mass taken from its four-vector.
func (j *Jet) M() float64 {
	p4 := j.TLV()
	return p4.M()
}

// FatJet is a large-radius jet with substructure variables.
type FatJet struct {
	ev *model.Event
	i  int
	p4 fourVector
}

func NewFatJet(ev *model.Event, i int, cache bool) *FatJet {
	return &FatJet{ev: ev, i: i, p4: fourVector{disabled: !cache}}
}

func (j *FatJet) Pt() float64       { return float64(j.ev.FatJetPt[j.i]) * GeV }
func (j *FatJet) Eta() float64      { return float64(j.ev.FatJetEta[j.i]) }
func (j *FatJet) Phi() float64      { return float64(j.ev.FatJetPhi[j.i]) }
func (j *FatJet) E() float64        { return float64(j.ev.FatJetE[j.i]) * GeV }
func (j *FatJet) TLV() fmom.PxPyPzE { return j.p4.get(j.Pt(), j.Eta(), j.Phi(), j.E()) }
func (j *FatJet) M() float64        { return float64(j.ev.FatJetM[j.i]) * GeV }
func (j *FatJet) D2() float64       { return float64(j.ev.FatJetD2[j.i]) }
func (j *FatJet) Tau32() float64    { return float64(j.ev.FatJetTau32[j.i]) }

// Tau is a hadronically decaying tau lepton.
type Tau struct {
	ev *model.Event
	i  int
	p4 fourVector
}

func NewTau(ev *model.Event, i int, cache bool) *Tau {
	return &Tau{ev: ev, i: i, p4: fourVector{disabled: !cache}}
}

func (t *Tau) Pt() float64       { return float64(t.ev.TauPt[t.i]) * GeV }
func (t *Tau) Eta() float64      { return float64(t.ev.TauEta[t.i]) }
func (t *Tau) Phi() float64      { return float64(t.ev.TauPhi[t.i]) }
func (t *Tau) E() float64        { return float64(t.ev.TauE[t.i]) * GeV }
func (t *Tau) TLV() fmom.PxPyPzE { return t.p4.get(t.Pt(), t.Eta(), t.Phi(), t.E()) }
func (t *Tau) IsTight() bool     { return t.ev.TauIsTightID[t.i] }
func (t *Tau) NTracks() int32    { return t.ev.TauNTracks[t.i] }
func (t *Tau) BDTid() float64    { return float64(t.ev.TauBDTid[t.i]) }
func (t *Tau) PtSyst() float64   { return ptSyst(t.ev, t.ev.TauPtSyst[t.i]) * GeV }

// DiTauM is the event-level di-tau invariant mass.
func (t *Tau) DiTauM() float64 { return float64(t.ev.DiTauM) * GeV }
