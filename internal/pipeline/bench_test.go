package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/store"
)

// writeBenchFile generates a CSV with n rows spread over 12 months,
// 10 categories and 200 businesses.
func writeBenchFile(b *testing.B, n int) string {
	b.Helper()
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "2024-%02d-%02d,Category-%d,Business-%d,Location-%d,%d,\"%d,%03d.50\"\n",
			i%12+1, i%28+1, i%10, i%200, i%30, i%17+1, i%3+1, i%1000)
	}
	path := filepath.Join(b.TempDir(), "bench.csv")
	require.NoError(b, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func BenchmarkLoad(b *testing.B) {
	path := writeBenchFile(b, 20000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ds, err := Load(path, source.DefaultParseOptions())
		require.NoError(b, err)
		_ = ds
	}
}

func BenchmarkAggregate(b *testing.B) {
	path := writeBenchFile(b, 20000)
	ds, err := Load(path, source.DefaultParseOptions())
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		view, err := Aggregate(ds, "month", "category")
		require.NoError(b, err)
		_ = view
	}
}

func BenchmarkFilter(b *testing.B) {
	path := writeBenchFile(b, 20000)
	ds, err := Load(path, source.DefaultParseOptions())
	require.NoError(b, err)
	preds := map[string]string{"category": "Category-3", "month": "2024-04"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := Filter(ds, preds)
		require.NoError(b, err)
		_ = out
	}
}

func BenchmarkLoadWithCache(b *testing.B) {
	path := writeBenchFile(b, 20000)

	cache, err := store.Open(filepath.Join(b.TempDir(), "datasets.db"))
	require.NoError(b, err)
	defer func() { _ = cache.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := LoadWithCache(path, source.DefaultParseOptions(), cache)
		require.NoError(b, err)
		_ = res
	}
}
