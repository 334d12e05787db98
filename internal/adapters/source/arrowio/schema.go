// Package arrowio reads and writes event records as Arrow IPC files: one
// column per branch, per-object branches as list columns.
package arrowio

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/okian/cutflow/internal/domain/model"
)

var ErrUnsupportedColumn = errors.New("arrowio: unsupported column type")

// Schema is the Arrow schema of model.Event.
func Schema() *arrow.Schema {
	var ev model.Event
	fields := ev.Fields()
	out := make([]arrow.Field, 0, len(fields))
	for _, f := range fields {
		dt, err := dataType(f.Value)
		if err != nil {
			panic(err)
		}
		out = append(out, arrow.Field{Name: f.Branch, Type: dt})
	}
	return arrow.NewSchema(out, nil)
}

func dataType(v any) (arrow.DataType, error) {
	switch v.(type) {
	case *int32:
		return arrow.PrimitiveTypes.Int32, nil
	case *float32:
		return arrow.PrimitiveTypes.Float32, nil
	case *bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case *[]int32:
		return arrow.ListOf(arrow.PrimitiveTypes.Int32), nil
	case *[]float32:
		return arrow.ListOf(arrow.PrimitiveTypes.Float32), nil
	case *[]bool:
		return arrow.ListOf(arrow.FixedWidthTypes.Boolean), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedColumn, v)
	}
}
