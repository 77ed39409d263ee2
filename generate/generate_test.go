package generate_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanrat/linesort"
	"github.com/lanrat/linesort/generate"
)

func TestGenerateRespectsSize(t *testing.T) {
	for _, workers := range []int{1, 4} {
		var buf bytes.Buffer
		res, err := generate.Generate(context.Background(), &buf, generate.Options{
			Size:           10_000,
			Workers:        workers,
			FlushThreshold: 512,
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, int64(buf.Len()), int64(10_000))
		assert.Equal(t, int64(buf.Len()), res.Bytes)
		// the longest line is 37 bytes, so the budget is close to full
		assert.Greater(t, buf.Len(), 10_000-37*workers)

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		assert.Equal(t, res.Lines, int64(len(lines)))
		for _, line := range lines {
			rec := linesort.ParseLine(line)
			require.True(t, rec.Keyed, "generated line %q is not keyed", line)
			assert.GreaterOrEqual(t, rec.ID, int64(1))
			assert.Less(t, rec.ID, int64(100_000))
			assert.Contains(t, generate.DefaultPhrases, rec.Text)
		}
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	opts := generate.Options{Size: 4096, Workers: 1, Seed: 99, Phrases: []string{"a", "b"}, MaxID: 10}
	var a, b bytes.Buffer
	_, err := generate.Generate(context.Background(), &a, opts)
	require.NoError(t, err)
	_, err = generate.Generate(context.Background(), &b, opts)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestGenerateZeroSize(t *testing.T) {
	var buf bytes.Buffer
	res, err := generate.Generate(context.Background(), &buf, generate.Options{})
	require.NoError(t, err)
	assert.Zero(t, buf.Len())
	assert.Zero(t, res.Lines)
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	_, err := generate.Generate(ctx, &buf, generate.Options{Size: 1 << 20})
	assert.ErrorIs(t, err, context.Canceled)
}

type errWriter struct{}

var errWrite = errors.New("disk full")

func (errWriter) Write(p []byte) (int, error) {
	return 0, errWrite
}

func TestGenerateWriteError(t *testing.T) {
	_, err := generate.Generate(context.Background(), errWriter{}, generate.Options{Size: 1 << 16, FlushThreshold: 64})
	assert.ErrorIs(t, err, errWrite)
}

func TestGenerateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.txt")
	res, err := generate.GenerateFile(context.Background(), path, generate.Options{Size: 32 * 1024})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, res.Bytes, info.Size())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var count int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, res.Lines, count)
}
