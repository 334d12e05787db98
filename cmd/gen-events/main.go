package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/cutflow/internal/adapters/source/arrowio"
	"github.com/okian/cutflow/internal/adapters/source/rootio"
	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/internal/eventgen"
	"github.com/okian/cutflow/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumEvents = 10000
	defaultSeed      = 1
	defaultSignal    = 0.3
	defaultTTbar     = 0.3
)

type eventWriter interface {
	Write(ev *model.Event) error
	Close() error
}

func main() {
	var (
		out     = flag.String("out", "events.arrow", "Output file; .root writes a ROOT tree, anything else Arrow IPC")
		n       = flag.Int("events", defaultNumEvents, "Number of events to generate")
		seed    = flag.Uint64("seed", defaultSeed, "Random seed")
		signal  = flag.Float64("signal", defaultSignal, "Fraction of four-lepton signal events")
		ttbar   = flag.Float64("ttbar", defaultTTbar, "Fraction of semileptonic ttbar events")
		data    = flag.Bool("data", false, "Write collision data records")
		tree    = flag.String("tree", rootio.DefaultTree, "Tree name for ROOT output")
		batchSz = flag.Int("batch", arrowio.DefaultBatchSize, "Events per Arrow record batch")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("gen-events")
	ctx := context.Background()

	opts := []eventgen.Option{eventgen.WithMix(*signal, *ttbar)}
	if *data {
		opts = append(opts, eventgen.WithData())
	}
	counts, err := generate(*out, *tree, *batchSz, *n, eventgen.New(*seed, opts...))
	if err != nil {
		log.Error(ctx, "generation failed", logger.String("out", *out), logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "events written",
		logger.String("out", *out),
		logger.Int("events", *n),
		logger.Int("signal", counts[eventgen.SampleSignal]),
		logger.Int("ttbar", counts[eventgen.SampleTTbar]),
		logger.Int("background", counts[eventgen.SampleBackground]),
	)
}

func generate(path, tree string, batch, n int, g *eventgen.Generator) (map[eventgen.Sample]int, error) {
	w, err := create(path, tree, batch)
	if err != nil {
		return nil, err
	}
	counts := make(map[eventgen.Sample]int)
	for i := 0; i < n; i++ {
		ev, s := g.Next()
		if err := w.Write(ev); err != nil {
			_ = w.Close()
			return nil, err
		}
		counts[s]++
	}
	return counts, w.Close()
}

func create(path, tree string, batch int) (eventWriter, error) {
	if strings.EqualFold(filepath.Ext(path), ".root") {
		return rootio.Create(path, tree)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w, err := arrowio.NewWriter(f, arrowio.WithBatchSize(batch))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &arrowFile{Writer: w, f: f}, nil
}

// arrowFile closes the file after the Arrow footer.
type arrowFile struct {
	*arrowio.Writer
	f *os.File
}

func (a *arrowFile) Close() error {
	if err := a.Writer.Close(); err != nil {
		_ = a.f.Close()
		return err
	}
	return a.f.Close()
}
