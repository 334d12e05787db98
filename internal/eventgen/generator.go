package eventgen

import (
	"math"
	"math/rand/v2"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/cutflow/internal/domain/model"
)

// Physics constants of the generated samples, GeV.
const (
	zMass  = 91.1876
	zWidth = 2.5
	topPt  = 50.0
)

// Sample is the physics process an event was drawn from.
type Sample int

const (
	SampleBackground Sample = iota
	SampleSignal
	SampleTTbar
)

func (s Sample) String() string {
	switch s {
	case SampleSignal:
		return "signal"
	case SampleTTbar:
		return "ttbar"
	default:
		return "background"
	}
}

// Generator draws reproducible synthetic events.
type Generator struct {
	rng    *rand.Rand
	signal float64
	ttbar  float64
	data   bool
	next   int32

	unit   distuv.Uniform
	zPeak  distuv.Normal
	zPt    distuv.Exponential
	softPt distuv.Exponential
	hardPt distuv.Exponential
}

// Option configures a Generator.
type Option func(*Generator)

// WithMix sets the signal and ttbar fractions. The rest is background.
func WithMix(signal, ttbar float64) Option {
	return func(g *Generator) {
		if signal >= 0 && ttbar >= 0 && signal+ttbar <= 1 {
			g.signal, g.ttbar = signal, ttbar
		}
	}
}

// WithData marks the events as collision data.
func WithData() Option {
	return func(g *Generator) { g.data = true }
}

// New returns a generator seeded with seed.
func New(seed uint64, opts ...Option) *Generator {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	g := &Generator{
		rng:    rand.New(src),
		signal: 0.3,
		ttbar:  0.3,
		unit:   distuv.Uniform{Min: 0, Max: 1, Src: src},
		zPeak:  distuv.Normal{Mu: zMass, Sigma: zWidth, Src: src},
		zPt:    distuv.Exponential{Rate: 1.0 / 20, Src: src},
		softPt: distuv.Exponential{Rate: 1.0 / 15, Src: src},
		hardPt: distuv.Exponential{Rate: 1.0 / topPt, Src: src},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a new event and the sample it was drawn from.
func (g *Generator) Next() (*model.Event, Sample) {
	ev := Simulated()
	if g.data {
		ev = Data()
	}
	ev.EventNumber = g.next
	g.next++

	var s Sample
	switch u := g.unit.Rand(); {
	case u < g.signal:
		s = SampleSignal
		g.fourLeptons(ev)
	case u < g.signal+g.ttbar:
		s = SampleTTbar
		g.semileptonic(ev)
	default:
		s = SampleBackground
		g.background(ev)
	}
	return ev, s
}

func (g *Generator) uniform(lo, hi float64) float64 { return lo + (hi-lo)*g.unit.Rand() }

func (g *Generator) flavor() int32 {
	if g.rng.IntN(2) == 0 {
		return 11
	}
	return 13
}

// fourLeptons adds an on-shell Z and an off-shell Z*, each decaying to an
// opposite-charge same-flavor lepton pair.
func (g *Generator) fourLeptons(ev *model.Event) {
	for _, m := range []float64{g.zPeak.Rand(), g.uniform(15, 55)} {
		z := PtEtaPhiM(g.zPt.Rand(), g.uniform(-1.5, 1.5), g.uniform(-math.Pi, math.Pi), m)
		a, b := g.twoBody(&z, m)
		pdg := g.flavor()
		AddLepton(ev, Lepton{P4: a, PdgID: pdg, Charge: 1, PtSyst: 0.01 * a.Pt()})
		AddLepton(ev, Lepton{P4: b, PdgID: -pdg, Charge: -1, PtSyst: 0.01 * b.Pt()})
	}
	SetMET(ev, g.softPt.Rand(), g.uniform(-math.Pi, math.Pi), 1)
}

// semileptonic adds one hard isolated lepton, missing energy and four or
// five jets, two of them b-tagged.
func (g *Generator) semileptonic(ev *model.Event) {
	pdg := g.flavor()
	l := PtEtaPhiM(30+g.hardPt.Rand(), g.uniform(-2.4, 2.4), g.uniform(-math.Pi, math.Pi), 0)
	AddLepton(ev, Lepton{P4: l, PdgID: pdg, Charge: int32(1 - 2*g.rng.IntN(2)), PtSyst: 0.01 * l.Pt()})

	n := 4 + g.rng.IntN(2)
	for i := 0; i < n; i++ {
		tag := g.uniform(-1, 0.5)
		if i < 2 {
			tag = g.uniform(0.85, 1)
		}
		j := PtEtaPhiM(25+g.hardPt.Rand(), g.uniform(-2.5, 2.5), g.uniform(-math.Pi, math.Pi), g.uniform(5, 15))
		AddJet(ev, Jet{P4: j, JVT: 0.95, MV2c10: tag, PtSyst: 0.02 * j.Pt()})
	}
	SetMET(ev, 20+g.hardPt.Rand(), g.uniform(-math.Pi, math.Pi), 2)
}

// background adds a few soft, partly non-isolated leptons and jets.
func (g *Generator) background(ev *model.Event) {
	for i, n := 0, g.rng.IntN(4); i < n; i++ {
		l := PtEtaPhiM(5+g.softPt.Rand(), g.uniform(-2.5, 2.5), g.uniform(-math.Pi, math.Pi), 0)
		AddLepton(ev, Lepton{
			P4:       l,
			PdgID:    g.flavor(),
			Charge:   int32(1 - 2*g.rng.IntN(2)),
			Loose:    g.rng.IntN(3) == 0,
			PtCone30: 0.3 * l.Pt() * g.unit.Rand(),
			EtCone20: 0.3 * l.Pt() * g.unit.Rand(),
			PtSyst:   0.01 * l.Pt(),
		})
	}
	for i, n := 0, g.rng.IntN(4); i < n; i++ {
		j := PtEtaPhiM(20+g.softPt.Rand(), g.uniform(-3, 3), g.uniform(-math.Pi, math.Pi), g.uniform(2, 10))
		AddJet(ev, Jet{P4: j, JVT: g.unit.Rand(), MV2c10: g.uniform(-1, 1), PtSyst: 0.02 * j.Pt()})
	}
	SetMET(ev, g.softPt.Rand(), g.uniform(-math.Pi, math.Pi), 1)
}

// twoBody decays parent of mass m into two massless daughters, isotropic
// in the parent rest frame.
func (g *Generator) twoBody(parent *fmom.PxPyPzE, m float64) (fmom.PxPyPzE, fmom.PxPyPzE) {
	cosT := g.uniform(-1, 1)
	sinT := math.Sqrt(1 - cosT*cosT)
	phi := g.uniform(-math.Pi, math.Pi)
	half := m / 2
	dx, dy, dz := half*sinT*math.Cos(phi), half*sinT*math.Sin(phi), half*cosT

	e := parent.E()
	bx, by, bz := parent.Px()/e, parent.Py()/e, parent.Pz()/e
	return boost(half, dx, dy, dz, bx, by, bz), boost(half, -dx, -dy, -dz, bx, by, bz)
}

func boost(e, px, py, pz, bx, by, bz float64) fmom.PxPyPzE {
	b2 := bx*bx + by*by + bz*bz
	if b2 == 0 {
		return fmom.NewPxPyPzE(px, py, pz, e)
	}
	gamma := 1 / math.Sqrt(1-b2)
	bp := bx*px + by*py + bz*pz
	k := (gamma-1)*bp/b2 + gamma*e
	return fmom.NewPxPyPzE(px+k*bx, py+k*by, pz+k*bz, gamma*(e+bp))
}
