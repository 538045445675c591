package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/theirongolddev/salesdash/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Dataset  *Dataset
	File     source.DiscoveredFile
	Elapsed  time.Duration
	CacheHit bool
	// CacheErr is set when the cache could not be read or written. The
	// dataset is still valid; it was parsed from the source.
	CacheErr error
}

// Load parses the CSV at path into a Dataset. Any malformed row fails the
// whole load and no partial dataset is returned.
func Load(path string, opts source.ParseOptions) (*Dataset, error) {
	res, err := source.ParseFile(path, opts)
	if err != nil {
		return nil, err
	}
	return newDataset(res.Columns, res.Rows), nil
}

// LoadReader is Load for an already-open source.
func LoadReader(r io.Reader, opts source.ParseOptions) (*Dataset, error) {
	res, err := source.ParseReader(r, opts)
	if err != nil {
		return nil, err
	}
	return newDataset(res.Columns, res.Rows), nil
}

// LoadFile loads path without the cache and records its fingerprint.
func LoadFile(path string, opts source.ParseOptions) (*LoadResult, error) {
	start := time.Now()

	fp, err := source.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	ds, err := Load(fp.Path, opts)
	if err != nil {
		return nil, err
	}

	return &LoadResult{
		Dataset: ds,
		File:    fp,
		Elapsed: time.Since(start),
	}, nil
}
