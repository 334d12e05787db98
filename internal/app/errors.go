package service

import "errors"

var (
	// ErrAlreadyRun is returned when Run is called on a used Service.
	ErrAlreadyRun = errors.New("service: job already run")
	// ErrStopped is returned by Run when Stop ended the job early. No outputs
	// are written for a stopped job.
	ErrStopped = errors.New("service: job stopped")
)
