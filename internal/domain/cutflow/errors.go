package cutflow

import "errors"

var (
	ErrInvalidWeight = errors.New("cutflow: invalid event weight")
	ErrFrozen        = errors.New("cutflow: counter is frozen")
	ErrStageOrder    = errors.New("cutflow: stage out of order")
	ErrIncompatible  = errors.New("cutflow: incompatible stage lists")
)
