package rootio

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/cutflow/internal/domain/model"
)

// Writer fills a flat tree of model.Event.
type Writer struct {
	f       *groot.File
	w       rtree.Writer
	ev      model.Event
	written int64
}

// Create creates path with an empty tree named tree.
func Create(path, tree string) (*Writer, error) {
	if tree == "" {
		tree = DefaultTree
	}
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("rootio: create %s: %w", path, err)
	}
	w := &Writer{f: f}
	var wvars []rtree.WriteVar
	for _, fd := range w.ev.Fields() {
		wv := rtree.WriteVar{Name: fd.Branch, Value: fd.Value}
		if count := fd.Kind.CountBranch(); fd.Kind != "" && fd.Branch != count {
			wv.Count = count
		}
		wvars = append(wvars, wv)
	}
	tw, err := rtree.NewWriter(f, tree, wvars)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rootio: tree %s: %w", tree, err)
	}
	w.w = tw
	return w, nil
}

// Write appends one event. Per-object arrays must be as long as the count.
func (w *Writer) Write(ev *model.Event) error {
	w.ev = *ev
	if _, err := w.w.Write(); err != nil {
		return fmt.Errorf("rootio: write entry %d: %w", w.written, err)
	}
	w.written++
	return nil
}

// Written is the number of entries written.
func (w *Writer) Written() int64 { return w.written }

// Close flushes the tree and closes the file.
func (w *Writer) Close() error {
	if err := w.w.Close(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("rootio: close tree: %w", err)
	}
	return w.f.Close()
}
