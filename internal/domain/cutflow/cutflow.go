// Package cutflow counts weighted events through an ordered list of named
// selection stages.
//
// Stage 0 is always "no cut" and sees every accepted event. An event only
// reaches stage i+1 after passing stage i, so with non-negative weights the
// sums never increase along the list.
package cutflow

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// NoCut names the implicit first stage.
const NoCut = "no cut"

// Stage is a snapshot of one stage's accumulators.
type Stage struct {
	Name  string  `json:"name"`
	SumW  float64 `json:"sumw"`
	SumW2 float64 `json:"sumw2"`
	Count int64   `json:"count"`
}

// Counter accumulates events over the stages of one analysis run.
type Counter struct {
	name          string
	names         []string
	sumW          []float64
	sumW2         []float64
	counts        []int64
	frozen        bool
	allowNegative bool
}

// Option configures a Counter.
type Option func(*Counter)

// WithNegativeWeights controls whether negative weights are accepted.
// They are by default since NLO generators produce them.
func WithNegativeWeights(allow bool) Option {
	return func(c *Counter) { c.allowNegative = allow }
}

// New creates a counter with NoCut followed by stages.
func New(name string, stages []string, opts ...Option) *Counter {
	names := append([]string{NoCut}, stages...)
	c := &Counter{
		name:          name,
		names:         names,
		sumW:          make([]float64, len(names)),
		sumW2:         make([]float64, len(names)),
		counts:        make([]int64, len(names)),
		allowNegative: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Counter) Name() string { return c.name }

// StageNames returns the stage names including NoCut.
func (c *Counter) StageNames() []string { return slices.Clone(c.names) }

// Start validates the event weight and counts it at NoCut.
func (c *Counter) Start(weight float64) (Gate, error) {
	if c.frozen {
		return Gate{}, ErrFrozen
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return Gate{}, fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	if weight < 0 && !c.allowNegative {
		return Gate{}, fmt.Errorf("%w: negative weight %v", ErrInvalidWeight, weight)
	}
	c.fill(0, weight)
	return Gate{c: c, next: 1, weight: weight}, nil
}

func (c *Counter) fill(i int, w float64) {
	c.sumW[i] += w
	c.sumW2[i] += w * w
	c.counts[i]++
}

// Freeze makes the counter read-only. Further Start or Merge calls fail.
func (c *Counter) Freeze() { c.frozen = true }

func (c *Counter) Frozen() bool { return c.frozen }

// Merge adds other's accumulators stage by stage. Both counters must declare
// the same stages in the same order.
func (c *Counter) Merge(other *Counter) error {
	if err := c.Compatible(other); err != nil {
		return err
	}
	floats.Add(c.sumW, other.sumW)
	floats.Add(c.sumW2, other.sumW2)
	for i, n := range other.counts {
		c.counts[i] += n
	}
	return nil
}

// Compatible reports whether other can be merged into c.
func (c *Counter) Compatible(other *Counter) error {
	if c.frozen {
		return ErrFrozen
	}
	if !slices.Equal(c.names, other.names) {
		return fmt.Errorf("%w: %v vs %v", ErrIncompatible, c.names, other.names)
	}
	return nil
}

// Stages returns a snapshot of all stages including NoCut.
func (c *Counter) Stages() []Stage {
	out := make([]Stage, len(c.names))
	for i, n := range c.names {
		out[i] = Stage{Name: n, SumW: c.sumW[i], SumW2: c.sumW2[i], Count: c.counts[i]}
	}
	return out
}

// Gate tracks one event through the stages.
type Gate struct {
	c        *Counter
	next     int
	weight   float64
	rejected bool
}

// Require advances the event through stage when cond holds and rejects it
// for good otherwise. Stages must be required in declaration order; doing
// otherwise is a programming error and panics.
func (g *Gate) Require(stage string, cond bool) bool {
	if g.rejected {
		return false
	}
	if g.c == nil || g.next >= len(g.c.names) || g.c.names[g.next] != stage {
		panic(fmt.Errorf("%w: %q", ErrStageOrder, stage))
	}
	if !cond {
		g.rejected = true
		return false
	}
	g.c.fill(g.next, g.weight)
	g.next++
	return true
}

// Selected reports that the event passed every stage.
func (g *Gate) Selected() bool {
	return !g.rejected && g.c != nil && g.next == len(g.c.names)
}

// Weight is the event weight the gate counts with.
func (g *Gate) Weight() float64 { return g.weight }
