// Package generate writes files of random `<integer>. <text>` lines for exercising the sorter.
package generate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lanrat/linesort"
)

// DefaultPhrases is the text pool lines are drawn from. The small pool makes equal
// texts common so the numeric tie-break is exercised.
var DefaultPhrases = []string{
	"Apple",
	"Banana is yellow",
	"Cherry is the best",
	"Something something something",
}

// Options controls a Generate run
type Options struct {
	Size           int64    // target size in bytes; output never exceeds it
	Workers        int      // concurrent line producers; 0 uses GOMAXPROCS
	Phrases        []string // text pool; nil uses DefaultPhrases
	MaxID          int64    // ids are drawn from [1, MaxID); 0 uses 100000
	FlushThreshold int      // bytes a worker buffers before writing; 0 uses 32k
	Seed           uint64   // seeds every worker's generator; 0 picks a random seed
}

// Result summarizes a Generate run
type Result struct {
	Lines int64
	Bytes int64
}

func (o *Options) setDefaults() {
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if len(o.Phrases) == 0 {
		o.Phrases = DefaultPhrases
	}
	if o.MaxID < 2 {
		o.MaxID = 100_000
	}
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = 32 * 1024
	}
	if o.Seed == 0 {
		o.Seed = rand.Uint64()
	}
}

// generator holds the state shared by the workers of one run
type generator struct {
	opts    Options
	budget  atomic.Int64 // bytes reserved so far
	lines   atomic.Int64
	written atomic.Int64
	mu      sync.Mutex // guards w
	w       io.Writer
}

// Generate writes random lines to w until adding another line would exceed opts.Size.
// Workers reserve space from a shared byte budget and flush their local buffers
// under a lock, so lines are never interleaved.
func Generate(ctx context.Context, w io.Writer, opts Options) (Result, error) {
	opts.setDefaults()
	g := &generator{opts: opts, w: w}

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Workers; i++ {
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
		eg.Go(func() error {
			return g.work(ctx, rng)
		})
	}
	err := eg.Wait()
	return Result{Lines: g.lines.Load(), Bytes: g.written.Load()}, err
}

// GenerateFile is Generate writing to a newly created file at path
func GenerateFile(ctx context.Context, path string, opts Options) (Result, error) {
	f, err := os.Create(path)
	if err != nil {
		return Result{}, err
	}
	bw := bufio.NewWriter(f)
	res, err := Generate(ctx, bw, opts)
	if err != nil {
		_ = f.Close()
		return res, err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return res, err
	}
	return res, f.Close()
}

func (g *generator) work(ctx context.Context, rng *rand.Rand) error {
	var buf bytes.Buffer
	buf.Grow(g.opts.FlushThreshold)
	var lines int64

	for ctx.Err() == nil {
		line := g.line(rng)
		size := int64(len(line))
		if g.budget.Add(size) > g.opts.Size {
			g.budget.Add(-size)
			break
		}
		buf.WriteString(line)
		lines++
		if buf.Len() >= g.opts.FlushThreshold {
			if err := g.flush(&buf, lines); err != nil {
				return err
			}
			lines = 0
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.flush(&buf, lines)
}

// line returns one random newline-terminated line
func (g *generator) line(rng *rand.Rand) string {
	id := 1 + rng.Int64N(g.opts.MaxID-1)
	text := g.opts.Phrases[rng.IntN(len(g.opts.Phrases))]
	return linesort.FormatLine(id, text) + "\n"
}

func (g *generator) flush(buf *bytes.Buffer, lines int64) error {
	if buf.Len() == 0 {
		return nil
	}
	g.mu.Lock()
	n, err := g.w.Write(buf.Bytes())
	g.mu.Unlock()
	g.written.Add(int64(n))
	if err != nil {
		return fmt.Errorf("generate: write: %w", err)
	}
	g.lines.Add(lines)
	buf.Reset()
	return nil
}
