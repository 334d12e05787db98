// Package repository keeps the merged analysis results per process and
// persists them as JSON files or SQLite rows.
package repository

import (
	"context"
	"time"

	"github.com/okian/cutflow/internal/adapters/histogram"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/model"
)

// PartitionResult is what one worker produced for one partition.
type PartitionResult struct {
	Partition      model.Partition
	Analysis       string
	Cutflow        *cutflow.Counter
	Histograms     *histogram.Registry
	Events         int64
	Selected       int64
	InvalidWeights int64
	Duration       time.Duration
}

// ProcessSummary is the merged state of one process.
type ProcessSummary struct {
	Process        string              `json:"process"`
	Analysis       string              `json:"analysis"`
	IsData         bool                `json:"is_data"`
	Partitions     int                 `json:"partitions"`
	Events         int64               `json:"events"`
	Selected       int64               `json:"selected"`
	InvalidWeights int64               `json:"invalid_weights"`
	Cutflow        []cutflow.Stage     `json:"cutflow"`
	Histograms     []histogram.Summary `json:"histograms,omitempty"`
}

// Store accumulates partition results.
type Store interface {
	// Update folds r into the totals of its process.
	Update(ctx context.Context, r PartitionResult) error

	// Summary returns the merged state of process.
	// Returns ErrNotFound if nothing was merged for it.
	Summary(ctx context.Context, process string) (ProcessSummary, error)

	// Summaries returns every process ordered by name.
	Summaries(ctx context.Context) []ProcessSummary

	// Histograms returns the merged histograms of process.
	Histograms(ctx context.Context, process string) (*histogram.Registry, error)

	// Count returns the number of processes seen.
	Count(ctx context.Context) int
}
