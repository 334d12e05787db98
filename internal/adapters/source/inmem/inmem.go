// Package inmem is an event source over a slice of records held in memory.
// It backs tests and synthetic runs.
package inmem

import (
	"context"
	"fmt"

	"github.com/okian/cutflow/internal/domain/model"
)

// Source serves rows from memory.
type Source struct {
	rows    []model.Event
	omitted map[string]bool
	dst     []model.Field
	index   map[string]int
}

// Option configures a Source.
type Option func(*Source)

// WithoutBranch hides a branch, as if the input did not provide it.
func WithoutBranch(name string) Option {
	return func(s *Source) { s.omitted[name] = true }
}

// New returns a source over rows. Rows are not copied.
func New(rows []model.Event, opts ...Option) *Source {
	s := &Source{rows: rows, omitted: map[string]bool{}, index: map[string]int{}}
	var probe model.Event
	for i, f := range probe.Fields() {
		s.index[f.Branch] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) HasBranch(name string) bool {
	_, ok := s.index[name]
	return ok && !s.omitted[name]
}

func (s *Source) Entries() int64 { return int64(len(s.rows)) }

func (s *Source) MaxCount(ctx context.Context, branch string) (int64, error) {
	i, ok := s.index[branch]
	if !ok {
		return 0, fmt.Errorf("inmem: unknown branch %q", branch)
	}
	var m int64
	for r := range s.rows {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		p, ok := s.rows[r].Fields()[i].Value.(*int32)
		if !ok {
			return 0, fmt.Errorf("inmem: %q is not a count branch", branch)
		}
		v := int64(*p)
		if v < 0 {
			v = -v
		}
		m = max(m, v)
	}
	return m, nil
}

func (s *Source) Bind(fields []model.Field) error {
	for _, f := range fields {
		if !s.HasBranch(f.Branch) {
			return fmt.Errorf("inmem: unknown branch %q", f.Branch)
		}
	}
	s.dst = fields
	return nil
}

func (s *Source) Scan(ctx context.Context, begin, end int64, fn func(entry int64) error) error {
	for e := begin; e < end; e++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := s.rows[e].Fields()
		for _, d := range s.dst {
			if err := assign(d.Value, src[s.index[d.Branch]].Value); err != nil {
				return fmt.Errorf("inmem: %s: %w", d.Branch, err)
			}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) Close() error { return nil }

// assign copies src into dst. Slices are copied into dst's backing array so
// the rows are never aliased.
func assign(dst, src any) error {
	switch d := dst.(type) {
	case *int32:
		*d = *src.(*int32)
	case *float32:
		*d = *src.(*float32)
	case *bool:
		*d = *src.(*bool)
	case *[]int32:
		*d = append((*d)[:0], *src.(*[]int32)...)
	case *[]float32:
		*d = append((*d)[:0], *src.(*[]float32)...)
	case *[]bool:
		*d = append((*d)[:0], *src.(*[]bool)...)
	default:
		return fmt.Errorf("unsupported destination %T", dst)
	}
	return nil
}
