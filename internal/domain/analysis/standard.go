package analysis

import (
	"github.com/okian/cutflow/internal/domain/physics"
)

// standardBinning is shared by analyses that book a histogram by name only.
var standardBinning = map[string]Binning{
	"lep_n":           {Bins: 10, Min: -0.5, Max: 9.5, Title: "Number of Leptons", XLabel: "# leptons"},
	"lep_pt":          {Bins: 40, Min: 0, Max: 200, Title: "Lepton Transverse Momentum", XLabel: "p_{T}^{lep} [GeV]"},
	"lep_eta":         {Bins: 30, Min: -3, Max: 3, Title: "Lepton Pseudorapidity", XLabel: "#eta^{lep}"},
	"lep_E":           {Bins: 30, Min: 0, Max: 300, Title: "Lepton Energy", XLabel: "E^{lep} [GeV]"},
	"lep_phi":         {Bins: 32, Min: -3.2, Max: 3.2, Title: "Lepton Azimuthal Angle", XLabel: "#phi^{lep}"},
	"lep_charge":      {Bins: 7, Min: -1.75, Max: 1.75, Title: "Lepton Charge", XLabel: "Q^{lep}"},
	"lep_type":        {Bins: 31, Min: -15.5, Max: 15.5, Title: "Lepton Absolute PDG ID", XLabel: "PDG ID^{lep}"},
	"lep_ptconerel30": {Bins: 40, Min: 0, Max: 0.2, Title: "Lepton Relative Transverse Momentum Isolation", XLabel: "ptconerel30^{lep}"},
	"lep_etconerel20": {Bins: 40, Min: -0.05, Max: 0.2, Title: "Lepton Relative Transverse Energy Isolation", XLabel: "etconerel20^{lep}"},
	"lep_z0":          {Bins: 40, Min: -1, Max: 1, Title: "Lepton z0 Impact Parameter", XLabel: "z_{0}^{lep} [mm]"},
	"lep_d0":          {Bins: 40, Min: -0.2, Max: 0.2, Title: "Lepton d0 Impact Parameter", XLabel: "d_{0}^{lep} [mm]"},
	"etmiss":          {Bins: 30, Min: 0, Max: 300, Title: "Missing Transverse Momentum", XLabel: "E_{T,Miss} [GeV]"},
	"WtMass":          {Bins: 40, Min: 0, Max: 200, Title: "Transverse Mass of the W Candidate", XLabel: "M_{T,W} [GeV]"},
	"n_jets":          {Bins: 10, Min: -0.5, Max: 9.5, Title: "Number of Jets", XLabel: "# jets"},
	"jet_pt":          {Bins: 40, Min: 0, Max: 400, Title: "Jet Transverse Momentum", XLabel: "p_{T}^{jet} [GeV]"},
	"jet_jvt":         {Bins: 40, Min: 0, Max: 1, Title: "Jet Vertex Tagger", XLabel: "JVT^{jet}"},
	"jet_eta":         {Bins: 30, Min: -3, Max: 3, Title: "Jet Pseudorapidity", XLabel: "#eta^{jet}"},
	"jet_m":           {Bins: 40, Min: 0, Max: 80, Title: "Jet Mass", XLabel: "m^{jet} [GeV]"},
	"jet_MV2c10":      {Bins: 40, Min: -1, Max: 1, Title: "Jet b-tagging Discriminant", XLabel: "MV2c10^{jet}"},
}

// StandardBinning returns the binning booked for a standard histogram name.
func StandardBinning(name string) (Binning, bool) {
	b, ok := standardBinning[name]
	return b, ok
}

func registerStandard(sink Sink, name string) Histogram {
	b, ok := standardBinning[name]
	if !ok {
		panic("analysis: no standard histogram " + name)
	}
	return sink.Register(name, b)
}

// objectHist fills one value per object.
type objectHist[T any] struct {
	name  string
	value func(T) float64
	h     Histogram
}

// objectHists is a booked set of per-object histograms.
type objectHists[T any] []objectHist[T]

func (hs objectHists[T]) book(sink Sink) {
	for i := range hs {
		hs[i].h = registerStandard(sink, hs[i].name)
	}
}

// fill fills every histogram once per object, in object order.
func (hs objectHists[T]) fill(objs []T, w float64) {
	for _, h := range hs {
		for _, o := range objs {
			h.h.Fill(h.value(o), w)
		}
	}
}

func leptonHists() objectHists[*physics.Lepton] {
	return objectHists[*physics.Lepton]{
		{name: "lep_pt", value: (*physics.Lepton).Pt},
		{name: "lep_eta", value: (*physics.Lepton).Eta},
		{name: "lep_E", value: (*physics.Lepton).E},
		{name: "lep_phi", value: (*physics.Lepton).Phi},
		{name: "lep_charge", value: func(l *physics.Lepton) float64 { return float64(l.Charge()) }},
		{name: "lep_type", value: func(l *physics.Lepton) float64 { return float64(l.PdgID()) }},
		{name: "lep_ptconerel30", value: (*physics.Lepton).PtCone30Rel},
		{name: "lep_etconerel20", value: (*physics.Lepton).EtCone20Rel},
	}
}

func leptonIPHists() objectHists[*physics.Lepton] {
	return objectHists[*physics.Lepton]{
		{name: "lep_z0", value: (*physics.Lepton).Z0},
		{name: "lep_d0", value: (*physics.Lepton).D0},
	}
}

func jetHists() objectHists[*physics.Jet] {
	return objectHists[*physics.Jet]{
		{name: "jet_pt", value: (*physics.Jet).Pt},
		{name: "jet_jvt", value: (*physics.Jet).JVT},
		{name: "jet_eta", value: (*physics.Jet).Eta},
		{name: "jet_m", value: (*physics.Jet).M},
		{name: "jet_MV2c10", value: (*physics.Jet).MV2c10},
	}
}
