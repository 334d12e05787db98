// Package model contains domain models passed between layers.
package model

// Event is one row of the columnar input: scalar event metadata plus, per
// object kind, a count and parallel per-object arrays. Values keep the units
// of the source dataset (MeV for momenta and energies).
//
// An Event is refreshed in place by the record store for every entry, so
// slices must not be retained across entries.
type Event struct {
	EventNumber int32
	RunNumber   int32
	MCWeight    float32

	TrigE  bool
	TrigM  bool
	TrigP  bool
	TrigT  bool
	TrigDT bool

	SFPileup        float32
	SFEle           float32
	SFMu            float32
	SFPhoton        float32
	SFTau           float32
	SFBTag          float32
	SFLepTrigger    float32
	SFPhotonTrigger float32
	SFTauTrigger    float32
	SFDiTauTrigger  float32

	LepN           int32
	LepPt          []float32
	LepEta         []float32
	LepPhi         []float32
	LepE           []float32
	LepType        []int32
	LepCharge      []int32
	LepPtCone30    []float32
	LepEtCone20    []float32
	LepD0          []float32
	LepD0Sig       []float32
	LepTrigMatched []bool
	LepZ0          []float32
	LepIsTightID   []bool
	LepPtSyst      []float32

	PhotonN         int32
	PhotonPt        []float32
	PhotonEta       []float32
	PhotonPhi       []float32
	PhotonE         []float32
	PhotonPtCone30  []float32
	PhotonEtCone20  []float32
	PhotonIsTightID []bool
	PhotonPtSyst    []float32

	JetN      int32
	JetPt     []float32
	JetEta    []float32
	JetE      []float32
	JetPhi    []float32
	JetJVT    []float32
	JetMV2c10 []float32
	JetPtSyst []float32

	FatJetN     int32
	FatJetPt    []float32
	FatJetEta   []float32
	FatJetE     []float32
	FatJetPhi   []float32
	FatJetM     []float32
	FatJetD2    []float32
	FatJetTau32 []float32

	TauN         int32
	TauPt        []float32
	TauEta       []float32
	TauE         []float32
	TauPhi       []float32
	TauIsTightID []bool
	TauNTracks   []int32
	TauBDTid     []float32
	TauPtSyst    []float32
	DiTauM       float32

	MetEt     float32
	MetPhi    float32
	MetEtSyst float32
}

// Kind identifies a collection of physics objects stored in an Event.
type Kind string

// Object kinds and the branch holding their per-event count.
const (
	KindLepton Kind = "lep"
	KindPhoton Kind = "photon"
	KindJet    Kind = "jet"
	KindFatJet Kind = "fatjet"
	KindTau    Kind = "tau"
)

// Kinds lists the collection kinds in binding order.
var Kinds = []Kind{KindLepton, KindPhoton, KindJet, KindFatJet, KindTau}

// CountBranch returns the name of the branch holding the object count.
func (k Kind) CountBranch() string { return string(k) + "_n" }

// Field binds a source branch to its destination in an Event.
//
// Value is one of *int32, *float32, *bool, *[]int32, *[]float32 or *[]bool.
type Field struct {
	Branch string
	Kind   Kind // empty for event-level scalars
	Value  any
}

// Fields returns the branch bindings for e. The returned pointers alias e.
func (e *Event) Fields() []Field {
	return []Field{
		{Branch: "eventNumber", Value: &e.EventNumber},
		{Branch: "runNumber", Value: &e.RunNumber},
		{Branch: "mcWeight", Value: &e.MCWeight},
		{Branch: "trigE", Value: &e.TrigE},
		{Branch: "trigM", Value: &e.TrigM},
		{Branch: "trigP", Value: &e.TrigP},
		{Branch: "trigT", Value: &e.TrigT},
		{Branch: "trigDT", Value: &e.TrigDT},
		{Branch: "scaleFactor_PILEUP", Value: &e.SFPileup},
		{Branch: "scaleFactor_ELE", Value: &e.SFEle},
		{Branch: "scaleFactor_MUON", Value: &e.SFMu},
		{Branch: "scaleFactor_PHOTON", Value: &e.SFPhoton},
		{Branch: "scaleFactor_TAU", Value: &e.SFTau},
		{Branch: "scaleFactor_BTAG", Value: &e.SFBTag},
		{Branch: "scaleFactor_LepTRIGGER", Value: &e.SFLepTrigger},
		{Branch: "scaleFactor_PhotonTRIGGER", Value: &e.SFPhotonTrigger},
		{Branch: "scaleFactor_TauTRIGGER", Value: &e.SFTauTrigger},
		{Branch: "scaleFactor_DiTauTRIGGER", Value: &e.SFDiTauTrigger},

		{Branch: "lep_n", Kind: KindLepton, Value: &e.LepN},
		{Branch: "lep_pt", Kind: KindLepton, Value: &e.LepPt},
		{Branch: "lep_eta", Kind: KindLepton, Value: &e.LepEta},
		{Branch: "lep_phi", Kind: KindLepton, Value: &e.LepPhi},
		{Branch: "lep_E", Kind: KindLepton, Value: &e.LepE},
		{Branch: "lep_type", Kind: KindLepton, Value: &e.LepType},
		{Branch: "lep_charge", Kind: KindLepton, Value: &e.LepCharge},
		{Branch: "lep_ptcone30", Kind: KindLepton, Value: &e.LepPtCone30},
		{Branch: "lep_etcone20", Kind: KindLepton, Value: &e.LepEtCone20},
		{Branch: "lep_trackd0pvunbiased", Kind: KindLepton, Value: &e.LepD0},
		{Branch: "lep_tracksigd0pvunbiased", Kind: KindLepton, Value: &e.LepD0Sig},
		{Branch: "lep_trigMatched", Kind: KindLepton, Value: &e.LepTrigMatched},
		{Branch: "lep_z0", Kind: KindLepton, Value: &e.LepZ0},
		{Branch: "lep_isTightID", Kind: KindLepton, Value: &e.LepIsTightID},
		{Branch: "lep_pt_syst", Kind: KindLepton, Value: &e.LepPtSyst},

		{Branch: "photon_n", Kind: KindPhoton, Value: &e.PhotonN},
		{Branch: "photon_pt", Kind: KindPhoton, Value: &e.PhotonPt},
		{Branch: "photon_eta", Kind: KindPhoton, Value: &e.PhotonEta},
		{Branch: "photon_phi", Kind: KindPhoton, Value: &e.PhotonPhi},
		{Branch: "photon_E", Kind: KindPhoton, Value: &e.PhotonE},
		{Branch: "photon_ptcone30", Kind: KindPhoton, Value: &e.PhotonPtCone30},
		{Branch: "photon_etcone20", Kind: KindPhoton, Value: &e.PhotonEtCone20},
		{Branch: "photon_isTightID", Kind: KindPhoton, Value: &e.PhotonIsTightID},
		{Branch: "photon_pt_syst", Kind: KindPhoton, Value: &e.PhotonPtSyst},

		{Branch: "jet_n", Kind: KindJet, Value: &e.JetN},
		{Branch: "jet_pt", Kind: KindJet, Value: &e.JetPt},
		{Branch: "jet_eta", Kind: KindJet, Value: &e.JetEta},
		{Branch: "jet_E", Kind: KindJet, Value: &e.JetE},
		{Branch: "jet_phi", Kind: KindJet, Value: &e.JetPhi},
		{Branch: "jet_jvt", Kind: KindJet, Value: &e.JetJVT},
		{Branch: "jet_MV2c10", Kind: KindJet, Value: &e.JetMV2c10},
		{Branch: "jet_pt_syst", Kind: KindJet, Value: &e.JetPtSyst},

		{Branch: "fatjet_n", Kind: KindFatJet, Value: &e.FatJetN},
		{Branch: "fatjet_pt", Kind: KindFatJet, Value: &e.FatJetPt},
		{Branch: "fatjet_eta", Kind: KindFatJet, Value: &e.FatJetEta},
		{Branch: "fatjet_E", Kind: KindFatJet, Value: &e.FatJetE},
		{Branch: "fatjet_phi", Kind: KindFatJet, Value: &e.FatJetPhi},
		{Branch: "fatjet_m", Kind: KindFatJet, Value: &e.FatJetM},
		{Branch: "fatjet_D2", Kind: KindFatJet, Value: &e.FatJetD2},
		{Branch: "fatjet_tau32", Kind: KindFatJet, Value: &e.FatJetTau32},

		{Branch: "tau_n", Kind: KindTau, Value: &e.TauN},
		{Branch: "tau_pt", Kind: KindTau, Value: &e.TauPt},
		{Branch: "tau_eta", Kind: KindTau, Value: &e.TauEta},
		{Branch: "tau_E", Kind: KindTau, Value: &e.TauE},
		{Branch: "tau_phi", Kind: KindTau, Value: &e.TauPhi},
		{Branch: "tau_isTightID", Kind: KindTau, Value: &e.TauIsTightID},
		{Branch: "tau_nTracks", Kind: KindTau, Value: &e.TauNTracks},
		{Branch: "tau_BDTid", Kind: KindTau, Value: &e.TauBDTid},
		{Branch: "tau_pt_syst", Kind: KindTau, Value: &e.TauPtSyst},
		{Branch: "ditau_m", Value: &e.DiTauM},

		{Branch: "met_et", Value: &e.MetEt},
		{Branch: "met_phi", Value: &e.MetPhi},
		{Branch: "met_et_syst", Value: &e.MetEtSyst},
	}
}

// Count returns the advertised number of objects of kind k.
func (e *Event) Count(k Kind) int32 {
	switch k {
	case KindLepton:
		return e.LepN
	case KindPhoton:
		return e.PhotonN
	case KindJet:
		return e.JetN
	case KindFatJet:
		return e.FatJetN
	case KindTau:
		return e.TauN
	default:
		return 0
	}
}
