package arrowio

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/okian/cutflow/internal/domain/model"
)

// DefaultBatchSize is the number of events per record batch.
const DefaultBatchSize = 4096

// Writer appends events to an Arrow IPC file.
type Writer struct {
	schema  *arrow.Schema
	pool    memory.Allocator
	fw      *ipc.FileWriter
	builder *array.RecordBuilder
	batch   int
	pending int
	written int64
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBatchSize sets the number of events per record batch.
func WithBatchSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.batch = n
		}
	}
}

// NewWriter starts an Arrow file on w.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	pool := memory.NewGoAllocator()
	schema := Schema()
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return nil, fmt.Errorf("arrowio: create writer: %w", err)
	}
	aw := &Writer{
		schema:  schema,
		pool:    pool,
		fw:      fw,
		builder: array.NewRecordBuilder(pool, schema),
		batch:   DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(aw)
	}
	return aw, nil
}

// Write appends one event.
func (w *Writer) Write(ev *model.Event) error {
	for i, f := range ev.Fields() {
		if err := appendValue(w.builder.Field(i), f.Value); err != nil {
			return fmt.Errorf("arrowio: %s: %w", f.Branch, err)
		}
	}
	w.pending++
	if w.pending >= w.batch {
		return w.flush()
	}
	return nil
}

// Written is the number of events flushed so far.
func (w *Writer) Written() int64 { return w.written }

func (w *Writer) flush() error {
	if w.pending == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	if err := w.fw.Write(rec); err != nil {
		return fmt.Errorf("arrowio: write batch: %w", err)
	}
	w.written += int64(w.pending)
	w.pending = 0
	return nil
}

// Close flushes pending events and writes the file footer.
func (w *Writer) Close() error {
	if err := w.flush(); err != nil {
		return err
	}
	w.builder.Release()
	return w.fw.Close()
}

func appendValue(b array.Builder, v any) error {
	switch x := v.(type) {
	case *int32:
		b.(*array.Int32Builder).Append(*x)
	case *float32:
		b.(*array.Float32Builder).Append(*x)
	case *bool:
		b.(*array.BooleanBuilder).Append(*x)
	case *[]int32:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		lb.ValueBuilder().(*array.Int32Builder).AppendValues(*x, nil)
	case *[]float32:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		lb.ValueBuilder().(*array.Float32Builder).AppendValues(*x, nil)
	case *[]bool:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		lb.ValueBuilder().(*array.BooleanBuilder).AppendValues(*x, nil)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedColumn, v)
	}
	return nil
}
