package physics

import (
	"go-hep.org/x/hep/fmom"

	"github.com/okian/cutflow/internal/domain/model"
)

// EventInfo exposes event-level metadata: identifiers, weights, correction
// factors and trigger decisions.
type EventInfo struct {
	ev *model.Event
}

func NewEventInfo(ev *model.Event) *EventInfo { return &EventInfo{ev: ev} }

func (e *EventInfo) RunNumber() int32   { return e.ev.RunNumber }
func (e *EventInfo) EventNumber() int32 { return e.ev.EventNumber }
func (e *EventInfo) MCWeight() float64  { return float64(e.ev.MCWeight) }

// IsData reports real collision data, which carries no pileup correction.
func (e *EventInfo) IsData() bool { return e.ev.SFPileup == 0 }

func (e *EventInfo) SFPileup() float64        { return float64(e.ev.SFPileup) }
func (e *EventInfo) SFEle() float64           { return float64(e.ev.SFEle) }
func (e *EventInfo) SFMu() float64            { return float64(e.ev.SFMu) }
func (e *EventInfo) SFPhoton() float64        { return float64(e.ev.SFPhoton) }
func (e *EventInfo) SFTau() float64           { return float64(e.ev.SFTau) }
func (e *EventInfo) SFBTag() float64          { return float64(e.ev.SFBTag) }
func (e *EventInfo) SFLepTrigger() float64    { return float64(e.ev.SFLepTrigger) }
func (e *EventInfo) SFPhotonTrigger() float64 { return float64(e.ev.SFPhotonTrigger) }
func (e *EventInfo) SFTauTrigger() float64    { return float64(e.ev.SFTauTrigger) }
func (e *EventInfo) SFDiTauTrigger() float64  { return float64(e.ev.SFDiTauTrigger) }

func (e *EventInfo) TrigE() bool  { return e.ev.TrigE }
func (e *EventInfo) TrigM() bool  { return e.ev.TrigM }
func (e *EventInfo) TrigP() bool  { return e.ev.TrigP }
func (e *EventInfo) TrigT() bool  { return e.ev.TrigT }
func (e *EventInfo) TrigDT() bool { return e.ev.TrigDT }

// EventWeight is the generator weight times the pileup correction.
func (e *EventInfo) EventWeight() float64 { return e.MCWeight() * e.SFPileup() }

// ScaleFactor is the product of the lepton, photon, tau and trigger
// correction factors.
func (e *EventInfo) ScaleFactor() float64 {
	return e.SFEle() * e.SFMu() * e.SFLepTrigger() *
		e.SFPhoton() * e.SFPhotonTrigger() *
		e.SFTau() * e.SFTauTrigger() * e.SFDiTauTrigger()
}

// EtMiss is the missing transverse energy: a magnitude and an azimuth.
type EtMiss struct {
	ev *model.Event
	p4 fourVector
}

func NewEtMiss(ev *model.Event, cache bool) *EtMiss {
	return &EtMiss{ev: ev, p4: fourVector{disabled: !cache}}
}

func (m *EtMiss) Et() float64     { return float64(m.ev.MetEt) * GeV }
func (m *EtMiss) Phi() float64    { return float64(m.ev.MetPhi) }
func (m *EtMiss) EtSyst() float64 { return ptSyst(m.ev, m.ev.MetEtSyst) * GeV }
func (m *EtMiss) EtMax() float64  { return m.Et() + m.EtSyst() }
func (m *EtMiss) EtMin() float64  { return m.Et() - m.EtSyst() }

// TLV places the missing energy in the transverse plane with eta 0 and E = Et.
func (m *EtMiss) TLV() fmom.PxPyPzE { return m.p4.get(m.Et(), 0, m.Phi(), m.Et()) }
