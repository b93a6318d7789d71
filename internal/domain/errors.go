package domain

import "errors"

// Error taxonomy for the processing core. Callers wrap these with context and
// test for them with errors.Is.
var (
	// ErrConfiguration reports a malformed or unsupported grid token,
	// resolution or projection family.
	ErrConfiguration = errors.New("configuration error")

	// ErrRegionUnsupported reports geographic bounds that fall outside every
	// supported projection family, or that fit more than one family.
	ErrRegionUnsupported = errors.New("region unsupported")

	// ErrUnsmoothableSeries reports a time series too short to filter.
	ErrUnsmoothableSeries = errors.New("unsmoothable series")

	// ErrPartitionSize reports a worker count larger than the spatial extent
	// available for partitioning.
	ErrPartitionSize = errors.New("partition size error")

	// ErrShapeMismatch reports cubes whose shapes cannot be combined.
	ErrShapeMismatch = errors.New("shape mismatch")
)
