package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/cutflow/internal/adapters/histogram"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/pkg/metrics"
)

// MemStore is the in-memory Store. Results merge by summation, so the order
// in which partitions arrive does not matter.
type MemStore struct {
	mu             sync.RWMutex
	processes      map[string]*processState
	withHistograms bool
}

type processState struct {
	analysis       string
	isData         bool
	partitions     int
	events         int64
	selected       int64
	invalidWeights int64
	cutflow        *cutflow.Counter
	histograms     *histogram.Registry
}

// NewMemStore creates an empty store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		processes:      make(map[string]*processState),
		withHistograms: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update folds r into the totals of its process.
func (s *MemStore) Update(ctx context.Context, r PartitionResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()
	if r.Cutflow == nil {
		return ErrNoResult
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := r.Partition.Process
	st, ok := s.processes[name]
	if !ok {
		st = &processState{
			analysis:   r.Analysis,
			isData:     r.Partition.IsData,
			cutflow:    cutflow.New(r.Cutflow.Name(), r.Cutflow.StageNames()[1:]),
			histograms: histogram.New(),
		}
	}
	// Both merges are checked first so a refused result leaves st untouched.
	if err := st.cutflow.Compatible(r.Cutflow); err != nil {
		return fmt.Errorf("merge cutflow of %s: %w", r.Partition, err)
	}
	if r.Histograms != nil {
		if err := st.histograms.Compatible(r.Histograms); err != nil {
			return fmt.Errorf("merge histograms of %s: %w", r.Partition, err)
		}
	}
	if err := st.cutflow.Merge(r.Cutflow); err != nil {
		return fmt.Errorf("merge cutflow of %s: %w", r.Partition, err)
	}
	if r.Histograms != nil {
		if err := st.histograms.Merge(r.Histograms); err != nil {
			return fmt.Errorf("merge histograms of %s: %w", r.Partition, err)
		}
	}
	st.partitions++
	st.events += r.Events
	st.selected += r.Selected
	st.invalidWeights += r.InvalidWeights
	s.processes[name] = st

	for _, stage := range st.cutflow.Stages() {
		metrics.UpdateCutflowStage(name, stage.Name, stage.SumW, stage.Count)
	}
	metrics.UpdateRepositoryProcesses(len(s.processes))
	return nil
}

// Freeze closes every process counter for further merges.
func (s *MemStore) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.processes {
		st.cutflow.Freeze()
	}
}

// Summary returns the merged state of process.
func (s *MemStore) Summary(ctx context.Context, process string) (ProcessSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.processes[process]
	if !ok {
		return ProcessSummary{}, fmt.Errorf("%w: %s", ErrNotFound, process)
	}
	return s.summary(process, st), nil
}

// Summaries returns every process ordered by name.
func (s *MemStore) Summaries(ctx context.Context) []ProcessSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.processes))
	for n := range s.processes {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]ProcessSummary, 0, len(names))
	for _, n := range names {
		out = append(out, s.summary(n, s.processes[n]))
	}
	return out
}

func (s *MemStore) summary(name string, st *processState) ProcessSummary {
	ps := ProcessSummary{
		Process:        name,
		Analysis:       st.analysis,
		IsData:         st.isData,
		Partitions:     st.partitions,
		Events:         st.events,
		Selected:       st.selected,
		InvalidWeights: st.invalidWeights,
		Cutflow:        st.cutflow.Stages(),
	}
	if s.withHistograms {
		ps.Histograms = st.histograms.Summaries()
	}
	return ps
}

// Histograms returns the merged histograms of process.
func (s *MemStore) Histograms(ctx context.Context, process string) (*histogram.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.processes[process]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, process)
	}
	return st.histograms, nil
}

// Count returns the number of processes seen.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}
