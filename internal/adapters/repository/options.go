package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithHistogramSummaries controls whether summaries carry histogram bins.
func WithHistogramSummaries(enabled bool) Option {
	return func(s *MemStore) {
		s.withHistograms = enabled
	}
}
