// Package service runs one analysis job: it plans partitions over the
// configured inputs, drives the worker pool and writes the merged results.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/cutflow/internal/adapters/histogram"
	"github.com/okian/cutflow/internal/adapters/mq/queue"
	"github.com/okian/cutflow/internal/adapters/mq/worker"
	"github.com/okian/cutflow/internal/adapters/repository"
	"github.com/okian/cutflow/internal/adapters/source"
	"github.com/okian/cutflow/internal/config"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/internal/store"
	"github.com/okian/cutflow/pkg/logger"
	"github.com/okian/cutflow/pkg/metrics"
)

// State is the lifecycle of a job.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Report describes a finished job.
type Report struct {
	RunID      uuid.UUID                   `json:"run_id"`
	Analysis   string                      `json:"analysis"`
	Partitions int                         `json:"partitions"`
	Events     int64                       `json:"events"`
	Duration   time.Duration               `json:"duration"`
	Files      []string                    `json:"files,omitempty"`
	Processes  []repository.ProcessSummary `json:"processes"`
}

// Service implements the job and the read side used by the HTTP API.
type Service struct {
	mu sync.RWMutex

	cfg   *config.Config
	open  worker.Opener
	runID uuid.UUID

	// Core components
	results *repository.MemStore
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	// State
	state     State
	planned   int
	stopping  bool
	startedAt time.Time
	err       error

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithOpener replaces how inputs are opened.
func WithOpener(open worker.Opener) Option {
	return func(s *Service) {
		if open != nil {
			s.open = open
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunID fixes the run identifier.
func WithRunID(id uuid.UUID) Option {
	return func(s *Service) { s.runID = id }
}

// New constructs a Service for cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:     cfg,
		open:    source.Open,
		runID:   uuid.New(),
		results: repository.NewMemStore(),
		state:   StateIdle,
		logger:  logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunID identifies this job in the outputs.
func (s *Service) RunID() uuid.UUID { return s.runID }

// Plan splits every process into partitions of at most chunk_size entries.
// A process reads entries × fraction entries, capped by max_events.
func (s *Service) Plan(ctx context.Context) ([]model.Partition, error) {
	var parts []model.Partition
	for _, name := range s.cfg.ProcessNames() {
		path := s.cfg.Processes[name]
		entries, caps, err := s.inspect(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", name, err)
		}
		n := int64(float64(entries) * s.cfg.Fraction)
		if s.cfg.MaxEvents > 0 {
			n = min(n, s.cfg.MaxEvents)
		}
		isData := s.cfg.IsData(name)
		for b := int64(0); b < n; b += s.cfg.ChunkSize {
			parts = append(parts, model.Partition{
				ID:       len(parts),
				Process:  name,
				Path:     path,
				IsData:   isData,
				Begin:    b,
				End:      min(b+s.cfg.ChunkSize, n),
				Capacity: caps,
			})
		}
		s.logger.Info(ctx, "process planned",
			logger.String("process", name),
			logger.Int64("entries", entries),
			logger.Int64("reading", n),
			logger.Bool("data", isData),
		)
	}
	return parts, nil
}

// inspect opens the input once to read its size and collection bounds.
func (s *Service) inspect(ctx context.Context, path string) (int64, map[model.Kind]int, error) {
	src, err := s.open(path, s.cfg.TreeName)
	if err != nil {
		return 0, nil, err
	}
	defer src.Close()
	caps, err := store.Capacities(ctx, src, store.WithCapacityCeiling(s.cfg.MaxObjects))
	if err != nil {
		return 0, nil, err
	}
	return src.Entries(), caps, nil
}

func (s *Service) processor() (*worker.Processor, error) {
	policy := worker.PolicyFail
	if s.cfg.OnInvalidWeight == string(worker.PolicySkip) {
		policy = worker.PolicySkip
	}
	return worker.NewProcessor(s.cfg.Analysis,
		worker.WithOpener(s.open),
		worker.WithTree(s.cfg.TreeName),
		worker.WithStoreOptions(
			store.WithCapacityCeiling(s.cfg.MaxObjects),
			store.WithFourVectorCache(s.cfg.FourVectorCache),
		),
		worker.WithCutflowOptions(cutflow.WithNegativeWeights(s.cfg.AllowNegativeWeights)),
		worker.WithInvalidWeightPolicy(policy),
	)
}

// Run executes the job once and writes its outputs.
func (s *Service) Run(ctx context.Context) (Report, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return Report{}, ErrAlreadyRun
	}
	s.state = StateRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	report, err := s.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err
		metrics.RecordErrorByComponent("service", "job_failed")
		s.logger.Error(ctx, "job failed", logger.String("run_id", s.runID.String()), logger.Error(err))
		return report, err
	}
	s.state = StateDone
	s.logger.Info(ctx, "job finished",
		logger.String("run_id", s.runID.String()),
		logger.Int("partitions", report.Partitions),
		logger.Int64("events", report.Events),
		logger.Duration("took", report.Duration),
	)
	return report, nil
}

func (s *Service) run(ctx context.Context) (Report, error) {
	report := Report{RunID: s.runID, Analysis: s.cfg.Analysis}

	proc, err := s.processor()
	if err != nil {
		return report, err
	}
	parts, err := s.Plan(ctx)
	if err != nil {
		return report, err
	}
	if s.isStopping() {
		return report, ErrStopped
	}
	metrics.UpdatePartitionsPlanned(len(parts))

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	pool := worker.NewPool(s.cfg.WorkerCount, q, proc, s.results)
	s.mu.Lock()
	s.planned = len(parts)
	s.queue = q
	s.pool = pool
	s.mu.Unlock()

	s.logger.Info(ctx, "job started",
		logger.String("run_id", s.runID.String()),
		logger.String("analysis", s.cfg.Analysis),
		logger.Int("partitions", len(parts)),
		logger.Int("workers", pool.Size()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer q.Close()
		for _, p := range parts {
			if err := q.Put(gctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error { return pool.Run(gctx) })
	err = g.Wait()
	if s.isStopping() {
		// A stopped job never publishes partial totals.
		report.Events = pool.Events()
		return report, ErrStopped
	}
	if err != nil {
		return report, err
	}

	s.results.Freeze()
	report.Partitions = len(parts)
	report.Events = pool.Events()
	report.Processes = s.results.Summaries(ctx)

	files, err := s.writeOutputs(ctx, report.Processes)
	report.Files = files
	report.Duration = time.Since(s.startedAt)
	if err != nil {
		return report, err
	}
	if err := s.record(ctx, report.Processes); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) writeOutputs(ctx context.Context, summaries []repository.ProcessSummary) ([]string, error) {
	if s.cfg.OutputDir == "" {
		return nil, nil
	}
	files, err := repository.WriteFiles(s.cfg.OutputDir, summaries)
	if err != nil {
		return files, err
	}
	if !s.cfg.RenderPlots {
		return files, nil
	}
	for _, ps := range summaries {
		hists, err := s.results.Histograms(ctx, ps.Process)
		if err != nil {
			return files, err
		}
		pngs, err := hists.Render(s.cfg.OutputDir, ps.Process+"_")
		files = append(files, pngs...)
		if err != nil {
			return files, fmt.Errorf("render %s: %w", ps.Process, err)
		}
	}
	return files, nil
}

func (s *Service) record(ctx context.Context, summaries []repository.ProcessSummary) error {
	if s.cfg.ResultsDB == "" {
		return nil
	}
	db, err := repository.OpenSQLite(ctx, s.cfg.ResultsDB)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveRun(ctx, repository.Run{
		ID:         s.runID,
		Analysis:   s.cfg.Analysis,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
	}, summaries)
}

// Stop ends a running job after the partitions being processed. The job
// then fails with ErrStopped and writes no outputs. Stop on a finished job
// does nothing.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateDone || s.state == StateFailed {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	pool := s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping job", logger.String("run_id", s.runID.String()))
	if pool == nil {
		return nil
	}
	return pool.Shutdown(ctx)
}

func (s *Service) isStopping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopping
}

// Summaries returns the merged results so far, ordered by process.
func (s *Service) Summaries(ctx context.Context) []repository.ProcessSummary {
	return s.results.Summaries(ctx)
}

// Summary returns the merged results of one process.
func (s *Service) Summary(ctx context.Context, process string) (repository.ProcessSummary, error) {
	return s.results.Summary(ctx, process)
}

// Histograms returns the merged histograms of one process.
func (s *Service) Histograms(ctx context.Context, process string) (*histogram.Registry, error) {
	return s.results.Histograms(ctx, process)
}

// GetStats returns job statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"run_id":     s.runID.String(),
		"analysis":   s.cfg.Analysis,
		"state":      string(s.state),
		"partitions": s.planned,
		"processes":  s.results.Count(ctx),
		"stopping":   s.stopping,
	}
	if s.pool != nil {
		stats["workers"] = s.pool.Size()
		stats["events"] = s.pool.Events()
	}
	if s.queue != nil {
		stats["queue_length"] = s.queue.Len(ctx)
	}
	if !s.startedAt.IsZero() {
		stats["elapsed_seconds"] = time.Since(s.startedAt).Seconds()
	}
	if s.err != nil {
		stats["error"] = s.err.Error()
	}
	return stats
}
