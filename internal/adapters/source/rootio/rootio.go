// Package rootio reads and writes flat ROOT ntuples of model.Event through
// go-hep's groot. Per-object branches are variable length arrays indexed by
// the kind's count branch.
package rootio

import (
	"context"
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/cutflow/internal/domain/model"
)

// DefaultTree is the tree name of the 13 TeV open data ntuples.
const DefaultTree = "mini"

var (
	ErrNotATree          = errors.New("rootio: object is not a tree")
	ErrUnsupportedBranch = errors.New("rootio: unsupported branch type")
)

// Source reads events from one tree of a ROOT file.
type Source struct {
	f     *groot.File
	t     rtree.Tree
	vars  map[string]rtree.ReadVar
	bound []binding
}

// binding reads one branch either straight into its destination or into a
// native buffer converted after every entry.
type binding struct {
	rv      rtree.ReadVar
	convert func()
}

// Open opens the tree of path.
func Open(path, tree string) (*Source, error) {
	if tree == "" {
		tree = DefaultTree
	}
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rootio: open %s: %w", path, err)
	}
	obj, err := f.Get(tree)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rootio: %s: %w", path, err)
	}
	t, ok := obj.(rtree.Tree)
	if !ok {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s:%s", ErrNotATree, path, tree)
	}
	s := &Source{f: f, t: t, vars: make(map[string]rtree.ReadVar)}
	for _, rv := range rtree.NewReadVars(t) {
		s.vars[rv.Name] = rv
	}
	return s, nil
}

func (s *Source) HasBranch(name string) bool {
	_, ok := s.vars[name]
	return ok
}

func (s *Source) Entries() int64 { return s.t.Entries() }

func (s *Source) MaxCount(ctx context.Context, branch string) (int64, error) {
	rv, ok := s.vars[branch]
	if !ok {
		return 0, fmt.Errorf("rootio: no branch %q", branch)
	}
	get, err := integer(rv.Value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", branch, err)
	}
	r, err := rtree.NewReader(s.t, []rtree.ReadVar{rv})
	if err != nil {
		return 0, fmt.Errorf("rootio: reader: %w", err)
	}
	defer r.Close()

	var m int64
	err = r.Read(func(rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := get()
		if v < 0 {
			v = -v
		}
		m = max(m, v)
		return nil
	})
	return m, err
}

func (s *Source) Bind(fields []model.Field) error {
	bound := make([]binding, 0, len(fields))
	for _, f := range fields {
		rv, ok := s.vars[f.Branch]
		if !ok {
			return fmt.Errorf("rootio: no branch %q", f.Branch)
		}
		b, err := bind(rv, f.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Branch, err)
		}
		bound = append(bound, b)
	}
	s.bound = bound
	return nil
}

func (s *Source) Scan(ctx context.Context, begin, end int64, fn func(entry int64) error) error {
	if begin >= end {
		return nil
	}
	rvars := make([]rtree.ReadVar, len(s.bound))
	for i, b := range s.bound {
		rvars[i] = b.rv
	}
	r, err := rtree.NewReader(s.t, rvars, rtree.WithRange(begin, end))
	if err != nil {
		return fmt.Errorf("rootio: reader: %w", err)
	}
	defer r.Close()

	return r.Read(func(rctx rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, b := range s.bound {
			if b.convert != nil {
				b.convert()
			}
		}
		return fn(rctx.Entry)
	})
}

// Close closes the file.
func (s *Source) Close() error { return s.f.Close() }

func bind(rv rtree.ReadVar, dst any) (binding, error) {
	native := rv.Value
	switch d := dst.(type) {
	case *int32:
		if _, same := native.(*int32); same {
			rv.Value = d
			return binding{rv: rv}, nil
		}
		get, err := integer(native)
		if err != nil {
			return binding{}, err
		}
		return binding{rv: rv, convert: func() { *d = int32(get()) }}, nil
	case *float32:
		switch n := native.(type) {
		case *float32:
			rv.Value = d
			return binding{rv: rv}, nil
		case *float64:
			return binding{rv: rv, convert: scalar(n, d)}, nil
		}
	case *bool:
		switch n := native.(type) {
		case *bool:
			rv.Value = d
			return binding{rv: rv}, nil
		case *int32:
			return binding{rv: rv, convert: func() { *d = *n != 0 }}, nil
		case *uint8:
			return binding{rv: rv, convert: func() { *d = *n != 0 }}, nil
		}
	case *[]float32:
		switch n := native.(type) {
		case *[]float32:
			rv.Value = d
			return binding{rv: rv}, nil
		case *[]float64:
			return binding{rv: rv, convert: slice(n, d)}, nil
		}
	case *[]int32:
		switch n := native.(type) {
		case *[]int32:
			rv.Value = d
			return binding{rv: rv}, nil
		case *[]uint32:
			return binding{rv: rv, convert: slice(n, d)}, nil
		case *[]int64:
			return binding{rv: rv, convert: slice(n, d)}, nil
		}
	case *[]bool:
		switch n := native.(type) {
		case *[]bool:
			rv.Value = d
			return binding{rv: rv}, nil
		case *[]int32:
			return binding{rv: rv, convert: func() {
				*d = (*d)[:0]
				for _, v := range *n {
					*d = append(*d, v != 0)
				}
			}}, nil
		}
	}
	return binding{}, fmt.Errorf("%w: %T into %T", ErrUnsupportedBranch, native, dst)
}

type number interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func scalar[S, D number](src *S, dst *D) func() {
	return func() { *dst = D(*src) }
}

func slice[S, D number](src *[]S, dst *[]D) func() {
	return func() {
		*dst = (*dst)[:0]
		for _, v := range *src {
			*dst = append(*dst, D(v))
		}
	}
}

// integer reads any integer scalar as int64. Counts are unsigned in some
// producers.
func integer(v any) (func() int64, error) {
	switch p := v.(type) {
	case *int32:
		return func() int64 { return int64(*p) }, nil
	case *uint32:
		return func() int64 { return int64(*p) }, nil
	case *int64:
		return func() int64 { return *p }, nil
	case *uint64:
		return func() int64 { return int64(*p) }, nil
	case *int16:
		return func() int64 { return int64(*p) }, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedBranch, v)
	}
}
