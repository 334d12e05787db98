package worker

import "errors"

// ErrStopped is returned by Run when Shutdown stopped the worker before the
// queue was drained.
var ErrStopped = errors.New("worker: stopped before the queue was drained")
