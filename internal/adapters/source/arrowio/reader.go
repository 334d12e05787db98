package arrowio

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/okian/cutflow/internal/domain/model"
)

// Source reads events from an Arrow IPC file.
type Source struct {
	f       *os.File
	r       *ipc.FileReader
	schema  *arrow.Schema
	starts  []int64 // first entry of every record batch
	entries int64
	fields  []model.Field
}

// Open opens path and indexes its record batches.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("arrowio: open %s: %w", path, err)
	}
	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("arrowio: read %s: %w", path, err)
	}
	s := &Source{f: f, r: r, schema: r.Schema()}
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("arrowio: record %d: %w", i, err)
		}
		s.starts = append(s.starts, s.entries)
		s.entries += rec.NumRows()
	}
	return s, nil
}

func (s *Source) HasBranch(name string) bool {
	return len(s.schema.FieldIndices(name)) > 0
}

func (s *Source) Entries() int64 { return s.entries }

func (s *Source) MaxCount(ctx context.Context, branch string) (int64, error) {
	idx := s.schema.FieldIndices(branch)
	if len(idx) == 0 {
		return 0, fmt.Errorf("arrowio: no column %q", branch)
	}
	var m int64
	for i := 0; i < s.r.NumRecords(); i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rec, err := s.r.Record(i)
		if err != nil {
			return 0, err
		}
		get, err := intColumn(rec.Column(idx[0]))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", branch, err)
		}
		for row := 0; row < int(rec.NumRows()); row++ {
			v := get(row)
			if v < 0 {
				v = -v
			}
			m = max(m, v)
		}
	}
	return m, nil
}

func (s *Source) Bind(fields []model.Field) error {
	for _, f := range fields {
		if !s.HasBranch(f.Branch) {
			return fmt.Errorf("arrowio: no column %q", f.Branch)
		}
	}
	s.fields = fields
	return nil
}

func (s *Source) Scan(ctx context.Context, begin, end int64, fn func(entry int64) error) error {
	if begin >= end {
		return nil
	}
	b := max(sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > begin })-1, 0)
	for e := begin; b < len(s.starts) && e < end; b++ {
		rec, err := s.r.Record(b)
		if err != nil {
			return fmt.Errorf("arrowio: record %d: %w", b, err)
		}
		setters, err := s.setters(rec)
		if err != nil {
			return err
		}
		last := min(end, s.starts[b]+rec.NumRows())
		for ; e < last; e++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := int(e - s.starts[b])
			for _, set := range setters {
				set(row)
			}
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases the reader and the file.
func (s *Source) Close() error {
	if err := s.r.Close(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

func (s *Source) setters(rec arrow.Record) ([]func(row int), error) {
	out := make([]func(int), 0, len(s.fields))
	for _, f := range s.fields {
		col := rec.Column(rec.Schema().FieldIndices(f.Branch)[0])
		set, err := setter(f.Value, col)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Branch, err)
		}
		out = append(out, set)
	}
	return out, nil
}

func setter(dst any, col arrow.Array) (func(int), error) {
	switch d := dst.(type) {
	case *int32:
		get, err := intColumn(col)
		if err != nil {
			return nil, err
		}
		return func(row int) { *d = int32(get(row)) }, nil
	case *float32:
		switch a := col.(type) {
		case *array.Float32:
			return func(row int) { *d = a.Value(row) }, nil
		case *array.Float64:
			return func(row int) { *d = float32(a.Value(row)) }, nil
		}
	case *bool:
		if a, ok := col.(*array.Boolean); ok {
			return func(row int) { *d = a.Value(row) }, nil
		}
	case *[]float32:
		l, ok := col.(*array.List)
		if !ok {
			break
		}
		switch v := l.ListValues().(type) {
		case *array.Float32:
			vals := v.Float32Values()
			return func(row int) {
				beg, end := l.ValueOffsets(row)
				*d = append((*d)[:0], vals[beg:end]...)
			}, nil
		case *array.Float64:
			vals := v.Float64Values()
			return func(row int) {
				beg, end := l.ValueOffsets(row)
				*d = (*d)[:0]
				for _, x := range vals[beg:end] {
					*d = append(*d, float32(x))
				}
			}, nil
		}
	case *[]int32:
		l, ok := col.(*array.List)
		if !ok {
			break
		}
		get, err := intColumn(l.ListValues())
		if err != nil {
			return nil, err
		}
		return func(row int) {
			beg, end := l.ValueOffsets(row)
			*d = (*d)[:0]
			for i := beg; i < end; i++ {
				*d = append(*d, int32(get(int(i))))
			}
		}, nil
	case *[]bool:
		l, ok := col.(*array.List)
		if !ok {
			break
		}
		v, ok := l.ListValues().(*array.Boolean)
		if !ok {
			break
		}
		return func(row int) {
			beg, end := l.ValueOffsets(row)
			*d = (*d)[:0]
			for i := beg; i < end; i++ {
				*d = append(*d, v.Value(int(i)))
			}
		}, nil
	}
	return nil, fmt.Errorf("%w: %s into %T", ErrUnsupportedColumn, col.DataType(), dst)
}

// intColumn reads any 32 or 64 bit integer column as int64. Counts are
// unsigned in some producers.
func intColumn(col arrow.Array) (func(int) int64, error) {
	switch a := col.(type) {
	case *array.Int32:
		return func(i int) int64 { return int64(a.Value(i)) }, nil
	case *array.Uint32:
		return func(i int) int64 { return int64(a.Value(i)) }, nil
	case *array.Int64:
		return func(i int) int64 { return a.Value(i) }, nil
	case *array.Uint64:
		return func(i int) int64 { return int64(a.Value(i)) }, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedColumn, col.DataType())
	}
}
