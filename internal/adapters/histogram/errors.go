package histogram

import "errors"

var (
	ErrIncompatibleBinning = errors.New("histogram: incompatible binning")
	ErrUnknownHistogram    = errors.New("histogram: unknown histogram")
)
