package linesort

import (
	"cmp"
	"context"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/lanrat/linesort/queue"
	"github.com/lanrat/linesort/tempfile"
)

// ctxCheckInterval is how many records are merged between context checks
const ctxCheckInterval = 1024

// lineWriter is the destination of a merge: the output file or an intermediate chunk
type lineWriter interface {
	WriteLine(s string) error
}

// mergeEntry is a record waiting in the merge queue and the position of the chunk it came from
type mergeEntry struct {
	record Record
	source int
}

// compareEntries orders entries by Compare, falling back to the lower source position
// so equal records from different chunks come out in chunk order.
func compareEntries(a, b mergeEntry) int {
	if c := Compare(a.record, b.record); c != 0 {
		return c
	}
	return cmp.Compare(a.source, b.source)
}

// mergeChunks merges chunks into w.
// While there are more chunks than MaxFanIn, contiguous groups are merged into
// intermediate chunks first so no more than MaxFanIn files are ever open at once.
func (j *sortJob) mergeChunks(ctx context.Context, chunks []Chunk, w lineWriter) error {
	fanIn := j.cfg.MaxFanIn
	for len(chunks) > fanIn {
		j.passes++
		j.log.WithFields(logrus.Fields{"pass": j.passes, "chunks": len(chunks)}).Debug("intermediate merge pass")

		next := make([]Chunk, 0, (len(chunks)+fanIn-1)/fanIn)
		for start := 0; start < len(chunks); start += fanIn {
			group := chunks[start:min(start+fanIn, len(chunks))]
			if len(group) == 1 {
				next = append(next, group[0])
				continue
			}
			merged, err := j.mergeIntermediate(ctx, group)
			if err != nil {
				return err
			}
			next = append(next, merged)
		}
		chunks = next
	}

	j.passes++
	j.log.WithFields(logrus.Fields{"pass": j.passes, "chunks": len(chunks)}).Debug("final merge pass")
	return j.kWayMerge(ctx, chunks, w)
}

// mergeIntermediate merges group into a new chunk file with the next free index
func (j *sortJob) mergeIntermediate(ctx context.Context, group []Chunk) (Chunk, error) {
	index := j.nextIndex
	j.nextIndex++

	w, err := tempfile.Create(j.dir, index, j.cfg.FileBufferSize)
	if err != nil {
		return Chunk{}, NewDiskError(err, "create chunk", tempfile.ChunkPath(j.dir, index))
	}
	j.track(w.Name())

	if err := j.kWayMerge(ctx, group, w); err != nil {
		_ = w.Close()
		return Chunk{}, err
	}
	if err := w.Save(); err != nil {
		_ = w.Close()
		return Chunk{}, NewDiskError(err, "save chunk", w.Name())
	}

	merged := Chunk{Index: index, Path: w.Name()}
	for _, c := range group {
		merged.Records += c.Records
	}
	return merged, nil
}

// kWayMerge streams the union of chunks into w in sorted order.
// Every chunk reader is closed and its file removed before returning, on success or error.
func (j *sortJob) kWayMerge(ctx context.Context, chunks []Chunk, w lineWriter) (err error) {
	readers := make([]tempfile.ChunkReader, 0, len(chunks))
	defer func() {
		var result *multierror.Error
		for _, r := range readers {
			if rmErr := r.Remove(); rmErr != nil {
				result = multierror.Append(result, NewDiskError(rmErr, "remove chunk", r.Name()))
			}
		}
		if cleanupErr := result.ErrorOrNil(); cleanupErr != nil {
			if err == nil {
				err = cleanupErr
			} else {
				err = multierror.Append(err, cleanupErr)
			}
		}
	}()

	pq := queue.NewPriorityQueueSize(len(chunks), compareEntries)
	for i, c := range chunks {
		r, err := j.openChunk(c.Path, j.cfg.FileBufferSize)
		if err != nil {
			return NewDiskError(err, "open chunk", c.Path)
		}
		readers = append(readers, r)

		// preload the first record of every chunk
		line, err := r.ReadLine()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return NewDiskError(err, "read chunk", c.Path)
		}
		pq.Push(mergeEntry{record: ParseLine(line), source: i})
	}

	for n := 0; pq.Len() > 0; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		head := pq.Peek()
		if err := w.WriteLine(head.record.Line()); err != nil {
			return NewDiskError(err, "write merged line", "")
		}

		line, err := readers[head.source].ReadLine()
		switch {
		case err == io.EOF:
			pq.Pop()
		case err != nil:
			return NewDiskError(err, "read chunk", readers[head.source].Name())
		default:
			pq.PeekUpdate(mergeEntry{record: ParseLine(line), source: head.source})
		}
	}
	return nil
}
