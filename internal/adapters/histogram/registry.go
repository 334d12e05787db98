// Package histogram stores analysis histograms as hbook 1-D histograms,
// merges them across partitions and renders them.
package histogram

import (
	"fmt"
	"sort"
	"sync"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/floats"

	"github.com/okian/cutflow/internal/domain/analysis"
)

// Registry is an analysis.Sink backed by hbook.
//
// Fills are not synchronised: a registry receiving fills belongs to one
// partition. Merge and the read methods lock, so a merged registry can be
// read while partitions are folded into it.
type Registry struct {
	mu    sync.RWMutex
	hists map[string]*entry
}

type entry struct {
	binning analysis.Binning
	h       *hbook.H1D
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{hists: make(map[string]*entry)}
}

// Register books name with binning b. Registering a name again returns the
// existing histogram; a different binning for the same name panics.
func (r *Registry) Register(name string, b analysis.Binning) analysis.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.hists[name]; ok {
		if e.binning != b {
			panic(fmt.Errorf("%w: %s registered as %+v and %+v", ErrIncompatibleBinning, name, e.binning, b))
		}
		return e.h
	}
	h := hbook.NewH1D(b.Bins, b.Min, b.Max)
	h.Annotation()["name"] = name
	if b.Title != "" {
		h.Annotation()["title"] = b.Title
	}
	r.hists[name] = &entry{binning: b, h: h}
	return h
}

// Names lists the booked histograms in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.hists))
	for n := range r.hists {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len is the number of booked histograms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hists)
}

// H1D returns the hbook histogram and binning of name.
func (r *Registry) H1D(name string) (*hbook.H1D, analysis.Binning, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.hists[name]
	if !ok {
		return nil, analysis.Binning{}, false
	}
	return e.h, e.binning, true
}

// Merge adds every histogram of other into r. Histograms only other knows
// are copied in. Shared names must have identical binnings; on mismatch r is
// left unchanged.
func (r *Registry) Merge(other *Registry) error {
	if other == r {
		return nil
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.compatible(other); err != nil {
		return err
	}
	for name, o := range other.hists {
		e, ok := r.hists[name]
		if !ok {
			e = &entry{binning: o.binning, h: hbook.NewH1D(o.binning.Bins, o.binning.Min, o.binning.Max)}
			r.hists[name] = e
		}
		sum := hbook.AddH1D(e.h, o.h)
		sum.Ann = o.h.Ann
		e.h = sum
	}
	return nil
}

// Compatible reports whether other can be merged into r.
func (r *Registry) Compatible(other *Registry) error {
	if other == r {
		return nil
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.compatible(other)
}

func (r *Registry) compatible(other *Registry) error {
	for name, o := range other.hists {
		if e, ok := r.hists[name]; ok && e.binning != o.binning {
			return fmt.Errorf("%w: %s", ErrIncompatibleBinning, name)
		}
	}
	return nil
}

// Bin is one bin of a Summary.
type Bin struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	SumW    float64 `json:"sumw"`
	SumW2   float64 `json:"sumw2"`
	Entries int64   `json:"entries"`
}

// Summary is the serialisable content of one histogram.
type Summary struct {
	Name      string           `json:"name"`
	Binning   analysis.Binning `json:"binning"`
	Entries   int64            `json:"entries"`
	SumW      float64          `json:"sumw"`
	Integral  float64          `json:"integral"`
	Underflow float64          `json:"underflow"`
	Overflow  float64          `json:"overflow"`
	Bins      []Bin            `json:"bins"`
}

// Summary describes histogram name.
func (r *Registry) Summary(name string) (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.hists[name]
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownHistogram, name)
	}
	return summarize(name, e), nil
}

// Summaries describes every histogram in lexical order.
func (r *Registry) Summaries() []Summary {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(names))
	for _, n := range names {
		if e, ok := r.hists[n]; ok {
			out = append(out, summarize(n, e))
		}
	}
	return out
}

func summarize(name string, e *entry) Summary {
	b := e.binning
	edges := floats.Span(make([]float64, b.Bins+1), b.Min, b.Max)
	bins := make([]Bin, len(e.h.Binning.Bins))
	sumw := make([]float64, len(bins))
	for i, hb := range e.h.Binning.Bins {
		bins[i] = Bin{Low: edges[i], High: edges[i+1], SumW: hb.SumW(), SumW2: hb.SumW2(), Entries: hb.Entries()}
		sumw[i] = hb.SumW()
	}
	return Summary{
		Name:      name,
		Binning:   b,
		Entries:   e.h.Entries(),
		SumW:      e.h.SumW(),
		Integral:  floats.Sum(sumw),
		Underflow: e.h.Binning.Outflows[0].SumW(),
		Overflow:  e.h.Binning.Outflows[1].SumW(),
		Bins:      bins,
	}
}
