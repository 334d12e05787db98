// Package selection holds the object quality cuts shared by analyses and the
// select-then-sort helper used to build ordered object collections.
package selection

import (
	"cmp"
	"math"
	"slices"

	"github.com/okian/cutflow/internal/domain/physics"
)

// SelectAndSort returns the elements of in satisfying keep, ordered by key
// descending. The input is not modified. Order among equal keys is unspecified.
func SelectAndSort[T any](in []T, keep func(T) bool, key func(T) float64) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	})
	return out
}

// ByPt is the usual sort key.
func ByPt[T physics.Particle](p T) float64 { return p.Pt() }

// All keeps every element.
func All[T any](T) bool { return true }

const (
	isolationCut = 0.15
	leptonPtCut  = 25.0
)

// IsGoodElectron requires tight identification, pt above 25 GeV and both
// relative isolations below 0.15.
func IsGoodElectron(l *physics.Lepton) bool {
	return isGoodChargedLepton(l)
}

// IsGoodMuon applies the same thresholds as IsGoodElectron.
func IsGoodMuon(l *physics.Lepton) bool {
	return isGoodChargedLepton(l)
}

func isGoodChargedLepton(l *physics.Lepton) bool {
	return l.IsTight() &&
		l.Pt() > leptonPtCut &&
		l.EtCone20Rel() < isolationCut &&
		l.PtCone30Rel() < isolationCut
}

// IsGoodLepton dispatches on the lepton flavor. Anything other than an
// electron or a muon fails.
func IsGoodLepton(l *physics.Lepton) bool {
	switch l.Flavor() {
	case physics.Electron:
		return IsGoodElectron(l)
	case physics.Muon:
		return IsGoodMuon(l)
	default:
		return false
	}
}

// IsGoodJet rejects soft and forward jets and, in the central moderate-pt
// region, jets failing the pileup tagger.
func IsGoodJet(j *physics.Jet) bool {
	pt, eta := j.Pt(), math.Abs(j.Eta())
	if pt < 25 {
		return false
	}
	if eta > 2.5 {
		return false
	}
	if pt < 60 && eta < 2.4 && j.JVT() < 0.59 {
		return false
	}
	return true
}

// IsGoodFatJet rejects large-radius jets below 250 GeV, beyond |eta| 2 or
// lighter than 40 GeV.
func IsGoodFatJet(j *physics.FatJet) bool {
	if j.Pt() < 250 {
		return false
	}
	if math.Abs(j.Eta()) > 2 {
		return false
	}
	if j.M() < 40 {
		return false
	}
	return true
}

// IsGoodTau rejects soft or forward taus and requires tight identification.
func IsGoodTau(t *physics.Tau) bool {
	if t.Pt() < 25 {
		return false
	}
	if math.Abs(t.Eta()) > 2.5 {
		return false
	}
	return t.IsTight()
}

// IsGoodPhoton requires tight identification, pt above 25 GeV and both
// relative isolations below 0.15.
func IsGoodPhoton(p *physics.Photon) bool {
	return p.IsTight() &&
		p.Pt() > 25 &&
		p.EtCone20Rel() < isolationCut &&
		p.PtCone30Rel() < isolationCut
}

// StandardEventCuts passes events fired by any single-object trigger line.
func StandardEventCuts(info *physics.EventInfo) bool {
	return info.TrigE() || info.TrigM() || info.TrigP() || info.TrigT() || info.TrigDT()
}
