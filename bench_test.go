package linesort_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/lanrat/linesort"
	"github.com/lanrat/linesort/generate"
)

// Benchmark configurations
var benchmarkChunkSizes = []int{1000, 10000, 100000}

func BenchmarkSort(b *testing.B) {
	dir := b.TempDir()
	input := filepath.Join(dir, "input.txt")
	res, err := generate.GenerateFile(context.Background(), input, generate.Options{Size: 8 << 20, Seed: 1})
	if err != nil {
		b.Fatal(err)
	}

	for _, chunkSize := range benchmarkChunkSizes {
		b.Run(fmt.Sprintf("chunk_%d", chunkSize), func(b *testing.B) {
			s, err := linesort.New(&linesort.Config{ChunkSize: chunkSize})
			if err != nil {
				b.Fatal(err)
			}
			output := filepath.Join(dir, "sorted.txt")
			tempDir := filepath.Join(dir, "temp")
			b.SetBytes(res.Bytes)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := s.Sort(context.Background(), input, output, tempDir); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompare(b *testing.B) {
	x := linesort.ParseLine("30432. Something something something")
	y := linesort.ParseLine("415. Something something something")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = linesort.Compare(x, y)
	}
}
