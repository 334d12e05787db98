// Package physics exposes typed, unit-normalised views over the columns of a
// model.Event: leptons, photons, jets, large-radius jets, hadronic taus and
// missing transverse energy.
//
// Objects are views: they read the live event at their index and are only
// meaningful for the event currently loaded in the backing record.
package physics

import (
	"math"

	"go-hep.org/x/hep/fmom"
)

const (
	// GeV converts the dataset's MeV values into GeV.
	GeV = 0.001

	// ZMass is the Z boson reference mass in GeV.
	ZMass = 91.18
)

// Particle is the kinematic capability shared by every object kind.
type Particle interface {
	Pt() float64
	Eta() float64
	Phi() float64
	E() float64
	TLV() fmom.PxPyPzE
}

// fourVector caches the four-momentum of an object. The cached vector is
// rebuilt only when its transverse momentum differs from the live pt, so a
// change limited to eta, phi or energy is not picked up.
type fourVector struct {
	disabled bool
	p4       fmom.PxPyPzE
}

func (v *fourVector) get(pt, eta, phi, e float64) fmom.PxPyPzE {
	if v.disabled {
		return ptEtaPhiE(pt, eta, phi, e)
	}
	if v.p4.Pt() != pt {
		v.p4 = ptEtaPhiE(pt, eta, phi, e)
	}
	return v.p4
}

func ptEtaPhiE(pt, eta, phi, e float64) fmom.PxPyPzE {
	return fmom.NewPxPyPzE(pt*math.Cos(phi), pt*math.Sin(phi), pt*math.Sinh(eta), e)
}

// Sum returns the four-momentum sum of the given vectors.
func Sum(vs ...fmom.PxPyPzE) fmom.PxPyPzE {
	var px, py, pz, e float64
	for i := range vs {
		px += vs[i].Px()
		py += vs[i].Py()
		pz += vs[i].Pz()
		e += vs[i].E()
	}
	return fmom.NewPxPyPzE(px, py, pz, e)
}

// InvariantMass returns the invariant mass of the combined particles.
func InvariantMass(ps ...Particle) float64 {
	vs := make([]fmom.PxPyPzE, len(ps))
	for i, p := range ps {
		vs[i] = p.TLV()
	}
	m := Sum(vs...)
	return m.M()
}

// WTransverseMass is the transverse mass of a lepton and missing-energy
// system: sqrt(2 pt Et (1 - cos dphi)) with dphi wrapped into [-pi, pi].
func WTransverseMass(lep Particle, met *EtMiss) float64 {
	l := lep.TLV()
	m := met.TLV()
	dphi := fmom.DeltaPhi(&l, &m)
	return math.Sqrt(2 * lep.Pt() * met.Et() * (1 - math.Cos(dphi)))
}
