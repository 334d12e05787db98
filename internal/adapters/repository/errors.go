package repository

import "errors"

// Sentinel kinds for results errors.
var (
	ErrNotFound = errors.New("process not found")
	ErrNoResult = errors.New("partition result without cutflow")
)
