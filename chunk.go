package linesort

import (
	"bufio"
	"cmp"
	"context"
	"io"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lanrat/linesort/tempfile"
)

// Chunk is a sorted run of records spilled to a file in the job's temp directory
type Chunk struct {
	Index   int    // creation index, also used in the file name
	Path    string // location of the chunk file
	Records int    // number of lines in the chunk
}

// lineBatch holds the raw lines of one chunk before it is sorted
type lineBatch struct {
	index int
	lines []string
}

// maxBatchPrealloc caps the slice capacity reserved up front for a batch
const maxBatchPrealloc = 1 << 16

// produceChunks splits r into sorted chunk files.
// One goroutine reads batches of ChunkSize non-blank lines while NumSortWorkers
// goroutines sort and save them. On return j.chunks is ordered by index.
func (j *sortJob) produceChunks(ctx context.Context, r io.Reader) error {
	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan lineBatch, j.cfg.NumSortWorkers)

	g.Go(func() error {
		return j.buildBatches(gctx, r, batches)
	})
	for i := 0; i < j.cfg.NumSortWorkers; i++ {
		g.Go(func() error {
			return j.sortBatches(gctx, batches)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slices.SortFunc(j.chunks, func(a, b Chunk) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return nil
}

// buildBatches reads lines from r, drops blank ones, and pushes full batches to out
func (j *sortJob) buildBatches(ctx context.Context, r io.Reader, out chan<- lineBatch) error {
	defer close(out) // if this is not called on error, the workers never return

	prealloc := min(j.cfg.ChunkSize, maxBatchPrealloc)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(j.cfg.MaxLineSize, 64*1024)), j.cfg.MaxLineSize)

	batch := make([]string, 0, prealloc)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		batch = append(batch, line)
		if len(batch) < j.cfg.ChunkSize {
			continue
		}
		if err := j.emitBatch(ctx, out, batch); err != nil {
			return err
		}
		batch = make([]string, 0, prealloc)
	}
	if err := scanner.Err(); err != nil {
		return NewDiskError(err, "read input", j.inputPath)
	}
	if len(batch) == 0 {
		return nil
	}
	return j.emitBatch(ctx, out, batch)
}

// emitBatch assigns the next chunk index to lines and hands them to a worker.
// Only the reading goroutine calls it, so nextIndex needs no lock.
func (j *sortJob) emitBatch(ctx context.Context, out chan<- lineBatch, lines []string) error {
	b := lineBatch{index: j.nextIndex, lines: lines}
	j.nextIndex++
	j.lines.Add(int64(len(lines)))
	select {
	case out <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sortBatches is a worker for sorting and saving the batches produced by buildBatches
func (j *sortJob) sortBatches(ctx context.Context, in <-chan lineBatch) error {
	for {
		select {
		case b, more := <-in:
			if !more {
				return nil
			}
			if err := j.saveBatch(b); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// saveBatch parses, sorts and writes one batch as a chunk file
func (j *sortJob) saveBatch(b lineBatch) error {
	records := make([]Record, len(b.lines))
	var malformed int64
	for i, line := range b.lines {
		records[i] = ParseLine(line)
		if !records[i].Keyed {
			malformed++
			j.log.WithFields(logrus.Fields{"chunk": b.index, "line": line}).Debug("line has no numeric id, sorting as unkeyed")
		}
	}
	j.malformed.Add(malformed)

	// stable so equal records keep their input order
	slices.SortStableFunc(records, Compare)

	w, err := tempfile.Create(j.dir, b.index, j.cfg.FileBufferSize)
	if err != nil {
		return NewDiskError(err, "create chunk", tempfile.ChunkPath(j.dir, b.index))
	}
	j.track(w.Name())

	for _, rec := range records {
		if err := w.WriteLine(rec.Line()); err != nil {
			_ = w.Close()
			return NewDiskError(err, "write chunk", w.Name())
		}
	}
	if err := w.Save(); err != nil {
		_ = w.Close()
		return NewDiskError(err, "save chunk", w.Name())
	}

	j.addChunk(Chunk{Index: b.index, Path: w.Name(), Records: len(records)})
	j.log.WithFields(logrus.Fields{
		"chunk":   b.index,
		"records": len(records),
		"path":    w.Name(),
	}).Debug("saved chunk")
	return nil
}
