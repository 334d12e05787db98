// Package source opens event inputs by file extension.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okian/cutflow/internal/adapters/source/arrowio"
	"github.com/okian/cutflow/internal/adapters/source/rootio"
	"github.com/okian/cutflow/internal/store"
)

var ErrUnsupportedInput = errors.New("source: unsupported input")

// Open opens path as a ROOT tree (.root) or an Arrow IPC file
// (.arrow, .ipc, .feather). tree is ignored for Arrow inputs.
func Open(path, tree string) (store.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".root":
		return rootio.Open(path, tree)
	case ".arrow", ".ipc", ".feather":
		return arrowio.Open(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
	}
}
