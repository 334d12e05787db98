// Package analysis defines the event selections run over a record store and
// the histogram contract they fill.
package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/physics"
)

var ErrUnknownAnalysis = errors.New("analysis: unknown analysis")

// Histogram is a fill handle obtained from a Sink.
type Histogram interface {
	Fill(x, w float64)
}

// Binning describes a uniform one-dimensional binning.
type Binning struct {
	Bins   int     `json:"bins"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Title  string  `json:"title,omitempty"`
	XLabel string  `json:"xlabel,omitempty"`
}

// Sink stores histograms by name.
type Sink interface {
	Register(name string, b Binning) Histogram
}

// Record is the per-event view an analysis reads. Collections are valid for
// the current event only.
type Record interface {
	EventInfo() *physics.EventInfo
	EtMiss() *physics.EtMiss
	Leptons() []*physics.Lepton
	Photons() []*physics.Photon
	Jets() []*physics.Jet
	FatJets() []*physics.FatJet
	Taus() []*physics.Tau
}

// Analysis is one event selection.
type Analysis interface {
	Name() string
	// Stages lists the cutflow stages after "no cut" in the order Process
	// requires them.
	Stages() []string
	// Book registers the analysis histograms. It is called once before the
	// first event.
	Book(sink Sink)
	// Process runs the selection on the current record, counting it in cf,
	// and fills histograms when the event is selected. The only error is an
	// invalid event weight.
	Process(rec Record, cf *cutflow.Counter) (selected bool, err error)
}

// Options carries per-run parameters.
type Options struct {
	// IsData marks real collision data: every event weighs 1.
	IsData bool
}

// Factory builds an analysis.
type Factory func(Options) Analysis

var registry = map[string]Factory{
	"HZZAnalysis":    func(o Options) Analysis { return NewHZZ(o) },
	"HZZ":            func(o Options) Analysis { return NewHZZ(o) },
	"ZPrimeAnalysis": func(o Options) Analysis { return NewZPrime(o) },
	"ZPrime":         func(o Options) Analysis { return NewZPrime(o) },
}

// New returns the analysis registered under name.
func New(name string, o Options) (Analysis, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, name)
	}
	return f(o), nil
}

// Names lists the registered analysis names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NewCounter creates a cutflow counter for a.
func NewCounter(a Analysis, opts ...cutflow.Option) *cutflow.Counter {
	return cutflow.New(a.Name(), a.Stages(), opts...)
}

// eventWeight is the simulation weight: generator weight, pileup and the
// object and trigger correction factors, times any extra factors. Data
// events weigh 1.
func eventWeight(info *physics.EventInfo, isData bool, extra ...float64) float64 {
	if isData {
		return 1
	}
	w := info.ScaleFactor() * info.EventWeight()
	for _, f := range extra {
		w *= f
	}
	return w
}
