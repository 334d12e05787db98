package store

import "github.com/okian/cutflow/internal/domain/model"

// DefaultCapacityCeiling bounds every object collection.
const DefaultCapacityCeiling = 20

type options struct {
	ceiling   int
	cache     bool
	scanCount bool

	capacities map[model.Kind]int
}

func defaultOptions() options {
	return options{ceiling: DefaultCapacityCeiling, cache: true, scanCount: true}
}

// Option configures a Store.
type Option func(*options)

// WithCapacityCeiling sets the upper bound of every collection.
func WithCapacityCeiling(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.ceiling = n
		}
	}
}

// WithFourVectorCache toggles the per-object four-vector cache. When off,
// every TLV call recomputes the vector.
func WithFourVectorCache(enabled bool) Option {
	return func(o *options) { o.cache = enabled }
}

// WithCountScan toggles scanning the count branches at Open. When off every
// kind gets the ceiling as capacity.
func WithCountScan(enabled bool) Option {
	return func(o *options) { o.scanCount = enabled }
}

// WithCapacities fixes the collection bounds, usually computed once per input
// with Capacities. Open then skips the count scan. Bounds are still capped by
// the ceiling and kinds missing from caps get zero.
func WithCapacities(caps map[model.Kind]int) Option {
	return func(o *options) { o.capacities = caps }
}
