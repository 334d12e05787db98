// Package worker runs analyses over queued partitions.
package worker

import (
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/store"
	"github.com/okian/cutflow/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithOpener replaces the input opener.
func WithOpener(open Opener) ProcessorOption {
	return func(p *Processor) {
		if open != nil {
			p.open = open
		}
	}
}

// WithTree sets the ROOT tree name.
func WithTree(tree string) ProcessorOption {
	return func(p *Processor) {
		if tree != "" {
			p.tree = tree
		}
	}
}

// WithStoreOptions passes options to every record store.
func WithStoreOptions(opts ...store.Option) ProcessorOption {
	return func(p *Processor) {
		p.storeOpts = append(p.storeOpts, opts...)
	}
}

// WithCutflowOptions passes options to every cutflow counter.
func WithCutflowOptions(opts ...cutflow.Option) ProcessorOption {
	return func(p *Processor) {
		p.cutflowOpts = append(p.cutflowOpts, opts...)
	}
}

// WithInvalidWeightPolicy sets what happens to events with an invalid weight.
func WithInvalidWeightPolicy(policy InvalidWeightPolicy) ProcessorOption {
	return func(p *Processor) {
		if policy != "" {
			p.policy = policy
		}
	}
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(logger logger.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}
