package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/store"
)

// LoadWithCache returns the dataset for path, reusing the cached parse when
// the file's mtime, size and the parse settings are unchanged. Cache read or
// write failures fall back to a fresh parse and are reported in CacheErr.
func LoadWithCache(path string, opts source.ParseOptions, cache *store.Cache) (*LoadResult, error) {
	start := time.Now()

	fp, err := source.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	want := store.Fingerprint{
		MtimeNs:   fp.MtimeNs,
		SizeBytes: fp.SizeBytes,
		Settings:  SettingsKey(opts),
	}
	result := &LoadResult{File: fp}

	tracked, ok, err := cache.GetTracked(fp.Path)
	switch {
	case err != nil:
		result.CacheErr = fmt.Errorf("reading cache: %w", err)
	case ok && tracked.Fingerprint == want:
		rows, err := cache.LoadDataset(fp.Path)
		if err == nil && len(rows) == tracked.RowCount {
			result.Dataset = newDataset(tracked.Columns, rows)
			result.CacheHit = true
			result.Elapsed = time.Since(start)
			return result, nil
		}
		if err != nil {
			result.CacheErr = fmt.Errorf("loading cached rows: %w", err)
		}
	}

	res, err := source.ParseFile(fp.Path, opts)
	if err != nil {
		return nil, err
	}
	result.Dataset = newDataset(res.Columns, res.Rows)

	if err := cache.SaveDataset(fp.Path, want, res.Columns, res.Rows); err != nil && result.CacheErr == nil {
		result.CacheErr = fmt.Errorf("writing cache: %w", err)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// LoadCached loads path through the cache database at CachePath. When the
// cache cannot be opened the file is parsed directly and the open error is
// reported in CacheErr.
func LoadCached(path string, opts source.ParseOptions) (*LoadResult, error) {
	cache, err := store.Open(CachePath())
	if err != nil {
		res, loadErr := LoadFile(path, opts)
		if loadErr != nil {
			return nil, loadErr
		}
		res.CacheErr = fmt.Errorf("opening cache: %w", err)
		return res, nil
	}
	defer func() { _ = cache.Close() }()
	return LoadWithCache(path, opts, cache)
}

// LoadAuto picks LoadCached or LoadFile.
func LoadAuto(path string, opts source.ParseOptions, useCache bool) (*LoadResult, error) {
	if useCache {
		return LoadCached(path, opts)
	}
	return LoadFile(path, opts)
}

// SettingsKey hashes the parse settings that derived values depend on.
func SettingsKey(opts source.ParseOptions) string {
	opts = opts.WithDefaults()
	h := sha256.New()
	h.Write([]byte(strings.Join(opts.DateLayouts, "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(opts.MonthLayout))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "salesdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "salesdash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "datasets.db")
}
