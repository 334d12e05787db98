package worker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/okian/cutflow/internal/adapters/histogram"
	"github.com/okian/cutflow/internal/adapters/repository"
	"github.com/okian/cutflow/internal/adapters/source"
	"github.com/okian/cutflow/internal/domain/analysis"
	"github.com/okian/cutflow/internal/domain/cutflow"
	"github.com/okian/cutflow/internal/store"
	"github.com/okian/cutflow/pkg/logger"
	"github.com/okian/cutflow/pkg/metrics"
)

// InvalidWeightPolicy decides the fate of events whose weight is refused.
type InvalidWeightPolicy string

const (
	// PolicyFail aborts the partition.
	PolicyFail InvalidWeightPolicy = "fail"
	// PolicySkip logs and counts the event and moves on.
	PolicySkip InvalidWeightPolicy = "skip"
)

// Opener opens the input behind a partition.
type Opener func(path, tree string) (store.Source, error)

// Processor runs one analysis over one partition at a time. Every call owns
// its source, store, counter and histograms.
type Processor struct {
	analysis    string
	open        Opener
	tree        string
	storeOpts   []store.Option
	cutflowOpts []cutflow.Option
	policy      InvalidWeightPolicy
	logger      logger.Logger
}

// NewProcessor returns a processor for the named analysis.
func NewProcessor(analysisName string, opts ...ProcessorOption) (*Processor, error) {
	if _, err := analysis.New(analysisName, analysis.Options{}); err != nil {
		return nil, err
	}
	p := &Processor{
		analysis: analysisName,
		open:     source.Open,
		policy:   PolicyFail,
		logger:   logger.Get().Named("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process reads the entries of part and returns its cutflow and histograms.
func (p *Processor) Process(ctx context.Context, part Partition) (repository.PartitionResult, error) {
	start := time.Now()
	res := repository.PartitionResult{Partition: part, Analysis: p.analysis}

	src, err := p.open(part.Path, p.tree)
	if err != nil {
		return res, fmt.Errorf("open %s: %w", part, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			p.logger.Warn(ctx, "close input", logger.String("partition", part.String()), logger.Error(cerr))
		}
	}()

	storeOpts := p.storeOpts
	if part.Capacity != nil {
		storeOpts = append(slices.Clip(storeOpts), store.WithCapacities(part.Capacity))
	}
	st, err := store.Open(ctx, src, storeOpts...)
	if err != nil {
		return res, fmt.Errorf("store %s: %w", part, err)
	}

	a, err := analysis.New(p.analysis, analysis.Options{IsData: part.IsData})
	if err != nil {
		return res, err
	}
	cf := analysis.NewCounter(a, p.cutflowOpts...)
	hists := histogram.New()
	a.Book(hists)

	err = st.Each(ctx, part.Begin, part.End, func(entry int64) error {
		res.Events++
		selected, err := a.Process(st, cf)
		switch {
		case err == nil:
		case errors.Is(err, cutflow.ErrInvalidWeight) && p.policy == PolicySkip:
			res.InvalidWeights++
			metrics.RecordInvalidWeight(part.Process)
			p.logger.Debug(ctx, "skipping event",
				logger.String("process", part.Process),
				logger.Int64("entry", entry),
				logger.Error(err),
			)
			return nil
		default:
			return fmt.Errorf("entry %d: %w", entry, err)
		}
		if selected {
			res.Selected++
		}
		return nil
	})
	metrics.RecordEventsRead(part.Process, res.Events)
	metrics.RecordEventsSelected(part.Process, res.Selected)
	if err != nil {
		return res, fmt.Errorf("process %s: %w", part, err)
	}

	cf.Freeze()
	res.Cutflow = cf
	res.Histograms = hists
	res.Duration = time.Since(start)
	return res, nil
}
