package store

import "go.ngs.io/swe-api/internal/adapter/store/tb"

// CubeStore is the interface for loading and saving gridded cubes.
type CubeStore interface {
	// LoadSeries loads files in order and joins them along time.
	LoadSeries(paths []string, opts tb.LoadOptions) (*tb.Product, error)

	// Write saves a product to path.
	Write(path string, p *tb.Product) error
}
