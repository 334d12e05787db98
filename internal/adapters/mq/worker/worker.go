package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cutflow/internal/adapters/mq/queue"
	"github.com/okian/cutflow/internal/adapters/repository"
	"github.com/okian/cutflow/pkg/logger"
	"github.com/okian/cutflow/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
)

// Partition abstracts what workers read off the queue.
type Partition = queue.Partition

// Updater folds a partition result into the job totals.
type Updater interface {
	Update(ctx context.Context, r repository.PartitionResult) error
}

// PartitionProcessor turns a partition into a result.
type PartitionProcessor interface {
	Process(ctx context.Context, p Partition) (repository.PartitionResult, error)
}

// Queue defines how workers receive partitions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Partition
}

// Worker processes partitions until the queue is drained.
type Worker interface {
	// Run processes partitions until the queue closes, ctx is canceled or a
	// partition fails.
	Run(ctx context.Context) error

	// Shutdown stops the worker after its current partition.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor PartitionProcessor
	updater   Updater
	name      string

	events *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, processor PartitionProcessor, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: processor,
		updater:   updater,
		name:      "worker",
		events:    new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) error {
	defer close(w.done)

	parts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-w.shutdown:
			return ErrStopped
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdown:
			return ErrStopped
		case p, ok := <-parts:
			if !ok {
				// Dequeue also closes on cancellation.
				return ctx.Err()
			}
			if err := w.processPartition(ctx, p); err != nil {
				return err
			}
		}
	}
}

// Shutdown stops the worker after its current partition. Run then returns
// ErrStopped unless the queue was already drained.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	return w.wait(ctx)
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) processPartition(ctx context.Context, p Partition) error {
	metrics.IncWorkerBusy()
	defer metrics.DecWorkerBusy()

	w.logger.Info(ctx, "partition started",
		logger.String("partition", p.String()),
		logger.String("path", p.Path),
	)

	res, err := w.processor.Process(ctx, p)
	w.events.Add(res.Events)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordPartitionError("process")
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Error(ctx, "partition failed",
			logger.String("partition", p.String()),
			logger.Error(err),
		)
		return err
	}

	if err := w.updater.Update(ctx, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordPartitionError("merge")
		metrics.RecordErrorByComponent("worker", "merge_error")
		w.logger.Error(ctx, "merge failed",
			logger.String("partition", p.String()),
			logger.Error(err),
		)
		return fmt.Errorf("merge %s: %w", p, err)
	}

	metrics.RecordPartitionProcessed(float64(res.Duration.Milliseconds()))
	w.logger.Info(ctx, "partition finished",
		logger.String("partition", p.String()),
		logger.Int64("events", res.Events),
		logger.Int64("selected", res.Selected),
		logger.Int64("invalid_weights", res.InvalidWeights),
		logger.Duration("took", res.Duration),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	events    atomic.Int64
	lastCount int64
	lastTime  time.Time

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses one worker
// per CPU.
func NewPool(workerCount int, q Queue, processor PartitionProcessor, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		lastTime: time.Now(),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, processor, updater, WithName("worker-"+strconv.Itoa(i)))
		w.events = &pool.events
		pool.workers[i] = w
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerEventsPerSecond(0.0)

	return pool
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Events is the number of events read by all workers so far.
func (p *Pool) Events() int64 { return p.events.Load() }

// Run starts every worker and waits for them. The first failing worker
// cancels the others and its error is returned.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error { return w.Run(gctx) })
	}

	stop := make(chan struct{})
	updaterDone := make(chan struct{})
	go func() {
		defer close(updaterDone)
		p.startMetricsUpdater(stop)
	}()

	err := g.Wait()
	close(stop)
	<-updaterDone
	p.updateMetrics()
	return err
}

func (p *Pool) startMetricsUpdater(stop <-chan struct{}) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	count := p.events.Load()
	if dt := now.Sub(p.lastTime).Seconds(); dt > 0 {
		metrics.UpdateWorkerEventsPerSecond(float64(count-p.lastCount) / dt)
	}
	p.lastCount = count
	p.lastTime = now
}

// Shutdown stops every worker after its current partition and closes the
// queue. Partitions left on the queue are not processed and Run returns
// ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, w := range p.workers {
		w.stop()
	}
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		wctx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
		if err := w.wait(wctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
		cancel()
	}
	return nil
}
