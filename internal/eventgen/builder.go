// Package eventgen builds event records by hand and generates synthetic
// samples: H->ZZ*->4l like signal, semileptonic ttbar like events and a
// falling background.
package eventgen

import (
	"math"

	"go-hep.org/x/hep/fmom"

	"github.com/okian/cutflow/internal/domain/model"
)

const mev = 1000

// Simulated returns an empty simulation record with unit weights.
func Simulated() *model.Event {
	return &model.Event{
		RunNumber: 284500, MCWeight: 1, SFPileup: 1,
		SFEle: 1, SFMu: 1, SFPhoton: 1, SFTau: 1, SFBTag: 1,
		SFLepTrigger: 1, SFPhotonTrigger: 1, SFTauTrigger: 1, SFDiTauTrigger: 1,
	}
}

// Data returns an empty collision data record. Data carries no pileup
// scale factor.
func Data() *model.Event {
	ev := Simulated()
	ev.MCWeight = 0
	ev.SFPileup = 0
	return ev
}

// Lepton describes a lepton in GeV.
type Lepton struct {
	P4       fmom.PxPyPzE
	PdgID    int32
	Charge   int32
	Loose    bool    // fails the tight identification
	PtCone30 float64 // GeV
	EtCone20 float64 // GeV
	PtSyst   float64 // GeV
}

// AddLepton appends l to every lepton array of ev.
func AddLepton(ev *model.Event, l Lepton) {
	pt, eta, phi, e := kinematics(&l.P4)
	ev.LepN++
	ev.LepPt = append(ev.LepPt, pt)
	ev.LepEta = append(ev.LepEta, eta)
	ev.LepPhi = append(ev.LepPhi, phi)
	ev.LepE = append(ev.LepE, e)
	ev.LepType = append(ev.LepType, l.PdgID)
	ev.LepCharge = append(ev.LepCharge, l.Charge)
	ev.LepPtCone30 = append(ev.LepPtCone30, float32(l.PtCone30*mev))
	ev.LepEtCone20 = append(ev.LepEtCone20, float32(l.EtCone20*mev))
	ev.LepD0 = append(ev.LepD0, 0.01)
	ev.LepD0Sig = append(ev.LepD0Sig, 0.5)
	ev.LepTrigMatched = append(ev.LepTrigMatched, true)
	ev.LepZ0 = append(ev.LepZ0, 0.05)
	ev.LepIsTightID = append(ev.LepIsTightID, !l.Loose)
	ev.LepPtSyst = append(ev.LepPtSyst, float32(l.PtSyst*mev))
	if abs32(l.PdgID) == 11 {
		ev.TrigE = true
	} else {
		ev.TrigM = true
	}
}

// Jet describes a small-R jet in GeV.
type Jet struct {
	P4     fmom.PxPyPzE
	JVT    float64
	MV2c10 float64
	PtSyst float64
}

// AddJet appends j to every jet array of ev.
func AddJet(ev *model.Event, j Jet) {
	pt, eta, phi, e := kinematics(&j.P4)
	ev.JetN++
	ev.JetPt = append(ev.JetPt, pt)
	ev.JetEta = append(ev.JetEta, eta)
	ev.JetPhi = append(ev.JetPhi, phi)
	ev.JetE = append(ev.JetE, e)
	ev.JetJVT = append(ev.JetJVT, float32(j.JVT))
	ev.JetMV2c10 = append(ev.JetMV2c10, float32(j.MV2c10))
	ev.JetPtSyst = append(ev.JetPtSyst, float32(j.PtSyst*mev))
}

// SetMET sets the missing transverse energy in GeV.
func SetMET(ev *model.Event, et, phi, syst float64) {
	ev.MetEt = float32(et * mev)
	ev.MetPhi = float32(phi)
	ev.MetEtSyst = float32(syst * mev)
}

// PtEtaPhiM builds a four-vector from GeV quantities.
func PtEtaPhiM(pt, eta, phi, m float64) fmom.PxPyPzE {
	px, py, pz := pt*math.Cos(phi), pt*math.Sin(phi), pt*math.Sinh(eta)
	e := math.Sqrt(px*px + py*py + pz*pz + m*m)
	return fmom.NewPxPyPzE(px, py, pz, e)
}

func kinematics(p *fmom.PxPyPzE) (pt, eta, phi, e float32) {
	return float32(p.Pt() * mev), float32(p.Eta()), float32(p.Phi()), float32(p.E() * mev)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
