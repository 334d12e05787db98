// Package config defines the job configuration and how it is loaded.
package config

import (
	"sort"
	"strings"
)

// Config contains the job configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Analysis names the registered analysis to run, e.g. "HZZAnalysis".
	Analysis string `koanf:"analysis" validate:"required,analysis"`

	// Processes maps process names to input files.
	Processes map[string]string `koanf:"processes" validate:"required,min=1,dive,keys,required,endkeys,required"`

	// DataPrefix marks processes whose name starts with it as collision data.
	DataPrefix string `koanf:"data_prefix"`

	// TreeName is the tree read from ROOT inputs.
	TreeName string `koanf:"tree_name" validate:"required"`

	// Fraction of every input to read.
	Fraction float64 `koanf:"fraction" validate:"gt=0,lte=1"`

	// MaxEvents caps the entries read per process. Zero means no cap.
	MaxEvents int64 `koanf:"max_events" validate:"gte=0"`

	// ChunkSize is the number of entries per partition.
	ChunkSize int64 `koanf:"chunk_size" validate:"gt=0"`

	// WorkerCount sets the number of workers. Zero uses one per CPU.
	WorkerCount int `koanf:"worker_count" validate:"gte=0"`

	// QueueSize bounds the partition queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// MaxObjects bounds every per-event object collection.
	MaxObjects int `koanf:"max_objects" validate:"gt=0"`

	// FourVectorCache toggles the per-object four-vector cache.
	FourVectorCache bool `koanf:"four_vector_cache"`

	// AllowNegativeWeights accepts negative event weights.
	AllowNegativeWeights bool `koanf:"allow_negative_weights"`

	// OnInvalidWeight is "fail" or "skip".
	OnInvalidWeight string `koanf:"on_invalid_weight" validate:"oneof=fail skip"`

	// OutputDir receives the JSON cutflows and plots. Empty disables file output.
	OutputDir string `koanf:"output_dir"`

	// RenderPlots writes one PNG per histogram into OutputDir.
	RenderPlots bool `koanf:"render_plots"`

	// ResultsDB is an SQLite file the run is recorded in. Empty disables it.
	ResultsDB string `koanf:"results_db"`

	// MetricsAddr serves metrics and job status over HTTP while the job
	// runs, e.g. ":9080". Empty disables the server.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Analysis:             "HZZAnalysis",
		Processes:            map[string]string{},
		DataPrefix:           "data",
		TreeName:             "mini",
		Fraction:             1,
		ChunkSize:            100_000,
		QueueSize:            1024,
		MaxObjects:           20,
		FourVectorCache:      true,
		AllowNegativeWeights: true,
		OnInvalidWeight:      "fail",
		OutputDir:            "results",
	}
}

// IsData reports whether process is collision data.
func (c *Config) IsData(process string) bool {
	return c.DataPrefix != "" && strings.HasPrefix(process, c.DataPrefix)
}

// ProcessNames returns the configured process names in order.
func (c *Config) ProcessNames() []string {
	names := make([]string, 0, len(c.Processes))
	for n := range c.Processes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
