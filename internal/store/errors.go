package store

import "errors"

var (
	ErrMissingBranch = errors.New("store: required branch missing")
	ErrOutOfRange    = errors.New("store: entry out of range")
)
