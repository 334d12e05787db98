// Package store is the per-event record cache over a columnar Source.
//
// A Store binds one model.Event to the source and refreshes it in place for
// every entry. Object collections are handed out as views over that event,
// capped at a per-kind capacity fixed when the store is opened.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/internal/domain/physics"
)

// Source is a columnar event input.
type Source interface {
	// HasBranch reports whether the input provides the named branch.
	HasBranch(name string) bool
	// Entries is the number of events in the input.
	Entries() int64
	// MaxCount returns the largest value of an integer count branch.
	MaxCount(ctx context.Context, branch string) (int64, error)
	// Bind registers the destinations refreshed by Scan.
	Bind(fields []model.Field) error
	// Scan refreshes the bound fields for every entry in [begin, end) and
	// calls fn after each refresh.
	Scan(ctx context.Context, begin, end int64, fn func(entry int64) error) error
	Close() error
}

// Store exposes typed objects for the current entry of a Source.
type Store struct {
	src  Source
	opts options
	ev   model.Event

	capacity map[model.Kind]int
	lengths  map[model.Kind][]func() int

	leptons []*physics.Lepton
	photons []*physics.Photon
	jets    []*physics.Jet
	fatJets []*physics.FatJet
	taus    []*physics.Tau
	info    *physics.EventInfo
	met     *physics.EtMiss

	current int64
}

// Open verifies that src carries every branch of model.Event, sizes the
// collections and binds the event buffers.
func Open(ctx context.Context, src Source, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store{
		src:      src,
		opts:     o,
		capacity: make(map[model.Kind]int, len(model.Kinds)),
		lengths:  make(map[model.Kind][]func() int, len(model.Kinds)),
		current:  -1,
	}

	fields := s.ev.Fields()
	var missing []string
	for _, f := range fields {
		if !src.HasBranch(f.Branch) {
			missing = append(missing, f.Branch)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingBranch, strings.Join(missing, ", "))
	}

	switch {
	case o.capacities != nil:
		for _, k := range model.Kinds {
			s.capacity[k] = min(max(o.capacities[k], 0), o.ceiling)
		}
	default:
		caps, err := scanCapacities(ctx, src, o)
		if err != nil {
			return nil, err
		}
		s.capacity = caps
	}

	for _, f := range fields {
		if f.Kind == "" {
			continue
		}
		if n := sliceLen(f.Value); n != nil {
			s.lengths[f.Kind] = append(s.lengths[f.Kind], n)
		}
	}

	if err := src.Bind(fields); err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	s.buildViews()
	return s, nil
}

// Capacities scans the count branches of src once and returns the
// collection bound of every kind. The result can be handed to every Store
// opened over the same input with WithCapacities.
func Capacities(ctx context.Context, src Source, opts ...Option) (map[model.Kind]int, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return scanCapacities(ctx, src, o)
}

func scanCapacities(ctx context.Context, src Source, o options) (map[model.Kind]int, error) {
	caps := make(map[model.Kind]int, len(model.Kinds))
	for _, k := range model.Kinds {
		c := o.ceiling
		if o.scanCount {
			m, err := src.MaxCount(ctx, k.CountBranch())
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", k.CountBranch(), err)
			}
			c = min(int(absInt64(m)), o.ceiling)
		}
		caps[k] = c
	}
	return caps, nil
}

func (s *Store) buildViews() {
	ev, cache := &s.ev, s.opts.cache
	s.leptons = make([]*physics.Lepton, s.capacity[model.KindLepton])
	for i := range s.leptons {
		s.leptons[i] = physics.NewLepton(ev, i, cache)
	}
	s.photons = make([]*physics.Photon, s.capacity[model.KindPhoton])
	for i := range s.photons {
		s.photons[i] = physics.NewPhoton(ev, i, cache)
	}
	s.jets = make([]*physics.Jet, s.capacity[model.KindJet])
	for i := range s.jets {
		s.jets[i] = physics.NewJet(ev, i, cache)
	}
	s.fatJets = make([]*physics.FatJet, s.capacity[model.KindFatJet])
	for i := range s.fatJets {
		s.fatJets[i] = physics.NewFatJet(ev, i, cache)
	}
	s.taus = make([]*physics.Tau, s.capacity[model.KindTau])
	for i := range s.taus {
		s.taus[i] = physics.NewTau(ev, i, cache)
	}
	s.info = physics.NewEventInfo(ev)
	s.met = physics.NewEtMiss(ev, cache)
}

// Entries is the number of events in the source.
func (s *Store) Entries() int64 { return s.src.Entries() }

// Capacity returns the collection bound of kind k.
func (s *Store) Capacity(k model.Kind) int { return s.capacity[k] }

// Current is the loaded entry, -1 before the first load.
func (s *Store) Current() int64 { return s.current }

// Event returns the raw record of the current entry.
func (s *Store) Event() *model.Event { return &s.ev }

// LoadEvent refreshes the buffers with entry i.
func (s *Store) LoadEvent(ctx context.Context, i int64) error {
	return s.Each(ctx, i, i+1, nil)
}

// Each loads the entries of [begin, end) in order and calls fn after each.
func (s *Store) Each(ctx context.Context, begin, end int64, fn func(entry int64) error) error {
	if begin < 0 || end > s.src.Entries() || begin > end {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, begin, end, s.src.Entries())
	}
	return s.src.Scan(ctx, begin, end, func(entry int64) error {
		s.current = entry
		if fn == nil {
			return nil
		}
		return fn(entry)
	})
}

// live is the usable length of kind k: the advertised count capped by the
// capacity and by the length of every buffered array.
func (s *Store) live(k model.Kind) int {
	n := min(int(absInt64(int64(s.ev.Count(k)))), s.capacity[k])
	for _, l := range s.lengths[k] {
		n = min(n, l())
	}
	return n
}

func (s *Store) Leptons() []*physics.Lepton { return s.leptons[:s.live(model.KindLepton)] }
func (s *Store) Photons() []*physics.Photon { return s.photons[:s.live(model.KindPhoton)] }
func (s *Store) Jets() []*physics.Jet       { return s.jets[:s.live(model.KindJet)] }
func (s *Store) FatJets() []*physics.FatJet { return s.fatJets[:s.live(model.KindFatJet)] }
func (s *Store) Taus() []*physics.Tau       { return s.taus[:s.live(model.KindTau)] }

func (s *Store) EventInfo() *physics.EventInfo { return s.info }
func (s *Store) EtMiss() *physics.EtMiss       { return s.met }

// Close closes the underlying source.
func (s *Store) Close() error { return s.src.Close() }

func sliceLen(v any) func() int {
	switch p := v.(type) {
	case *[]float32:
		return func() int { return len(*p) }
	case *[]int32:
		return func() int { return len(*p) }
	case *[]bool:
		return func() int { return len(*p) }
	default:
		return nil
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
